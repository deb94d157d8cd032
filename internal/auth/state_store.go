// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const stateKeyPrefix = "oidc_state:"

// StateData is what is remembered between the authorization redirect
// and the callback. State keys are single use.
type StateData struct {
	Nonce             string    `json:"nonce,omitempty"`
	PostLoginRedirect string    `json:"post_login_redirect,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// IsExpired reports whether the state has passed its TTL.
func (s *StateData) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// StateStore stores OIDC state data between redirect and callback.
type StateStore interface {
	Store(ctx context.Context, key string, state *StateData) error
	Get(ctx context.Context, key string) (*StateData, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStateStore keeps states in a map. Suitable for a single
// process; states are lost on restart, which only forces a re-login.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]*StateData
}

// NewMemoryStateStore creates an in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]*StateData)}
}

// Store saves state data under key.
func (s *MemoryStateStore) Store(ctx context.Context, key string, state *StateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *state
	s.states[key] = &copied
	return nil
}

// Get retrieves state data, rejecting expired entries.
func (s *MemoryStateStore) Get(ctx context.Context, key string) (*StateData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return nil, ErrInvalidState
	}
	if state.IsExpired() {
		return nil, ErrInvalidState
	}

	copied := *state
	return &copied, nil
}

// Delete removes state data by key.
func (s *MemoryStateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

// BadgerStateStore persists OIDC states in BadgerDB so an in-flight
// login survives a process restart. Entries carry a TTL so badger
// garbage-collects abandoned logins.
type BadgerStateStore struct {
	db *badger.DB
}

// NewBadgerStateStore opens a badger-backed state store at path.
func NewBadgerStateStore(path string) (*BadgerStateStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for oidc states: %w", err)
	}

	return &BadgerStateStore{db: db}, nil
}

// Store saves state data with a TTL derived from its expiry.
func (s *BadgerStateStore) Store(ctx context.Context, key string, state *StateData) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("state already expired")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(stateKeyPrefix+key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Get retrieves state data, rejecting missing or expired entries.
func (s *BadgerStateStore) Get(ctx context.Context, key string) (*StateData, error) {
	var state StateData

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrInvalidState
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if err != nil {
		return nil, err
	}

	if state.IsExpired() {
		return nil, ErrInvalidState
	}
	return &state, nil
}

// Delete removes state data by key.
func (s *BadgerStateStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(stateKeyPrefix + key))
	})
}

// Close closes the underlying BadgerDB.
func (s *BadgerStateStore) Close() error {
	return s.db.Close()
}
