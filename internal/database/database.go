// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package database provides DuckDB-backed persistence for Dionysus:
// users, projects, commits, questions, meetings, and the billing ledger.
//
// All queries are parameterized. Callers pass a context; operations
// without a deadline get a 30-second default.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/logging"
)

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientCredits is returned when a deduction would take a
	// user's balance below zero.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvoiceNotPending is returned when confirming an invoice that
	// is already paid or void.
	ErrInvoiceNotPending = errors.New("invoice is not pending")
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Prepared statement caching
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	// Connection recovery fields
	reconnectMu       sync.Mutex
	maxReconnectTries int
	reconnectDelay    time.Duration
}

// New opens the DuckDB database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for the database file.
	// 0750 per gosec G301.
	if dbDir := filepath.Dir(cfg.Path); dbDir != "" && dbDir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load so startup cannot hang fetching
	// extensions in restricted network environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:              conn,
		cfg:               cfg,
		stmtCache:         make(map[string]*sql.Stmt),
		maxReconnectTries: 3,
		reconnectDelay:    2 * time.Second,
	}

	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return errors.New("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Close closes the database connection and all prepared statements.
// A checkpoint is attempted first to flush the WAL so the next startup
// does not need to replay it.
func (db *DB) Close() error {
	db.clearStatementCache()

	if db.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("failed to checkpoint database before close")
		}
		cancel()

		return db.conn.Close()
	}
	return nil
}

// clearStatementCache closes all cached prepared statements.
func (db *DB) clearStatementCache() {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeQuietly(stmt)
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()
}

// ensureContext creates a context with a 30-second timeout if none provided.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// reconnect attempts to re-establish the database connection with
// exponential backoff. Only invoked when a caller observes a true
// connection failure rather than a query error.
//
//nolint:unused // Infrastructure function for connection recovery
func (db *DB) reconnect(ctx context.Context) error {
	db.reconnectMu.Lock()
	defer db.reconnectMu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err == nil {
		return nil // connection is alive
	}

	db.clearStatementCache()
	if db.conn != nil {
		closeQuietly(db.conn)
	}

	var lastErr error
	for attempt := 0; attempt < db.maxReconnectTries; attempt++ {
		if attempt > 0 {
			delay := db.reconnectDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := db.attemptReconnect(); err != nil {
			lastErr = fmt.Errorf("reconnect attempt %d failed: %w", attempt+1, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("failed to reconnect after %d attempts: %w", db.maxReconnectTries, lastErr)
}

// attemptReconnect tries to establish a new database connection.
//
//nolint:unused // Called by reconnect() for connection recovery
func (db *DB) attemptReconnect() error {
	numThreads := db.cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		db.cfg.Path, numThreads, db.cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := conn.PingContext(pingCtx); err != nil {
		pingCancel()
		closeQuietly(conn)
		return fmt.Errorf("failed to ping: %w", err)
	}
	pingCancel()

	db.conn = conn
	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return fmt.Errorf("failed to initialize: %w", err)
	}

	return nil
}

// isConnectionError checks if an error indicates database connection loss.
//
//nolint:unused // Used alongside reconnect() for connection recovery
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
	} {
		if contains(msg, marker) {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
