// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package cache

import (
	"errors"
	"testing"
)

func newTestCache(t *testing.T) *DiffCache {
	t.Helper()

	c, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDiffCachePutGet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	want := &DiffEntry{Diff: "diff --git a/x b/x\n+1", Additions: 1, Deletions: 0}
	if err := c.Put("proj-1", "abc123", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := c.Get("proj-1", "abc123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Diff != want.Diff || got.Additions != want.Additions {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestDiffCacheMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	if _, err := c.Get("proj-1", "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestDiffCacheKeysScopedByProject(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	if err := c.Put("proj-1", "abc", &DiffEntry{Diff: "one"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := c.Get("proj-2", "abc"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() with other project = %v, want ErrCacheMiss", err)
	}
}

func TestDiffCacheDelete(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	if err := c.Put("proj-1", "abc", &DiffEntry{Diff: "one"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Delete("proj-1", "abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get("proj-1", "abc"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete = %v, want ErrCacheMiss", err)
	}
}
