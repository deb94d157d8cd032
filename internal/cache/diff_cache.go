// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package cache provides a BadgerDB-backed cache for commit diffs so
// retried summarizations do not refetch the same diff from GitHub.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/dionysus-app/dionysus/internal/metrics"
)

// ErrCacheMiss is returned when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

const diffKeyPrefix = "diff:"

// defaultTTL bounds how long cached diffs live. Diffs are immutable
// per hash, the TTL just caps disk growth.
const defaultTTL = 24 * time.Hour

// DiffEntry is the cached payload for one commit diff.
type DiffEntry struct {
	Diff      string `json:"diff"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// DiffCache stores commit diffs keyed by project and hash.
type DiffCache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates or opens a diff cache at path. An empty path opens an
// in-memory cache, used by tests and cache-disabled deployments.
func Open(path string) (*DiffCache, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for diff cache: %w", err)
	}

	return &DiffCache{db: db, ttl: defaultTTL}, nil
}

func diffKey(projectID, hash string) []byte {
	return []byte(diffKeyPrefix + projectID + ":" + hash)
}

// Get returns the cached diff for a commit, or ErrCacheMiss.
func (c *DiffCache) Get(projectID, hash string) (*DiffEntry, error) {
	var entry DiffEntry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(diffKey(projectID, hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get diff: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.DiffCacheMisses.Inc()
		}
		return nil, err
	}

	metrics.DiffCacheHits.Inc()
	return &entry, nil
}

// Put stores a diff with the cache TTL.
func (c *DiffCache) Put(projectID, hash string, entry *DiffEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal diff entry: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(diffKey(projectID, hash), data).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

// Delete removes one cached diff. Missing keys are not an error.
func (c *DiffCache) Delete(projectID, hash string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(diffKey(projectID, hash))
	})
}

// Close closes the underlying BadgerDB.
func (c *DiffCache) Close() error {
	return c.db.Close()
}
