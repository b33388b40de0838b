// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package store implements the local entity index on SQLite: per-sport
// player/team records keyed by (sport, type, id), with a compound
// (sport, normalized_name) index serving prefix range scans.
//
// The store handle is constructed explicitly and injected into the sync
// manager and the search worker; there is no module-level singleton.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/rosterserve/rosterserve/pkg/entity"
)

var (
	// ErrUnavailable means local storage could not be opened; readers
	// degrade to empty results and writers refuse the write.
	ErrUnavailable = errors.New("store: local index unavailable")

	// ErrMalformedRecord rejects a whole upsert batch when any record in
	// it is missing its key fields.
	ErrMalformedRecord = errors.New("store: malformed record")
)

// prefixSentinel is the exclusive upper bound for a prefix range scan.
// Normalized names only contain [a-z0-9 ], all of which sort below it.
const prefixSentinel = "￿"

// scanSlack widens the range-scan cap past the requested limit so the
// scorer has candidates left after filtering.
const scanSlack = 4

// SportStats holds per-sport record counts for diagnostics.
type SportStats struct {
	Players int
	Teams   int
}

// SyncMeta tracks the last successful sync per sport. It is created on the
// first successful sync, overwritten on every later one, and removed only
// by ClearSport.
type SyncMeta struct {
	Sport       string
	LastSyncAt  time.Time
	PlayerCount int
	TeamCount   int
}

// Store is the index surface consumed by the sync manager (writes) and the
// search worker (reads). Both may run concurrently: writes are per-batch
// transactions, so a concurrent read sees pre- or post-sync state, never a
// torn record.
type Store interface {
	Upsert(ctx context.Context, sport string, records []entity.Record) error
	RangeByPrefix(ctx context.Context, sport, prefix string, limit int) ([]entity.Record, error)
	ScanAll(ctx context.Context, sport string) ([]entity.Record, error)
	ClearSport(ctx context.Context, sport string) error
	Stats(ctx context.Context) (map[string]SportStats, error)
	GetSyncMeta(ctx context.Context, sport string) (*SyncMeta, error)
	PutSyncMeta(ctx context.Context, meta SyncMeta) error
	Available() bool
	Close() error
}

// DB is the SQLite-backed Store.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the index database at path and runs the schema.
// Pass ":memory:" for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty db.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging index: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &DB{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running schema: %w", err)
	}
	return s, nil
}

// Available reports that the backing database is open.
func (s *DB) Available() bool { return true }

// Close closes the database handle.
func (s *DB) Close() error { return s.db.Close() }

// Unavailable returns a degraded Store for when local storage cannot be
// opened: reads come back empty, writes report ErrUnavailable, and the
// condition is logged exactly once here rather than on every call.
func Unavailable(cause error) Store {
	log.Warnf("local index unavailable, serving no local results: %v", cause)
	return degraded{}
}

type degraded struct{}

func (degraded) Upsert(context.Context, string, []entity.Record) error { return ErrUnavailable }
func (degraded) RangeByPrefix(context.Context, string, string, int) ([]entity.Record, error) {
	return nil, nil
}
func (degraded) ScanAll(context.Context, string) ([]entity.Record, error) { return nil, nil }
func (degraded) ClearSport(context.Context, string) error                 { return ErrUnavailable }
func (degraded) Stats(context.Context) (map[string]SportStats, error) {
	return map[string]SportStats{}, nil
}
func (degraded) GetSyncMeta(context.Context, string) (*SyncMeta, error) { return nil, nil }
func (degraded) PutSyncMeta(context.Context, SyncMeta) error            { return ErrUnavailable }
func (degraded) Available() bool                                        { return false }
func (degraded) Close() error                                           { return nil }
