// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rosterserve/rosterserve/pkg/entity"
)

// Upsert writes a batch of records for one sport in a single transaction.
// Existing rows sharing (sport, type, id) are replaced, so re-syncing is
// idempotent. NormalizedName is recomputed here from DisplayName; values
// set by the caller are ignored. Any malformed record (missing id, wrong
// sport, unknown type) rejects the whole batch before anything is written.
func (s *DB) Upsert(ctx context.Context, sport string, records []entity.Record) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if err := records[i].Validate(sport); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entities
			(sport, entity_type, entity_id, display_name, normalized_name, team, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		normalized := entity.Normalize(r.DisplayName)
		if _, err := stmt.ExecContext(ctx,
			r.Sport, string(r.Type), r.ID, r.DisplayName, normalized, r.Team, now,
		); err != nil {
			return fmt.Errorf("upserting %s/%s/%d: %w", r.Sport, r.Type, r.ID, err)
		}
	}
	return tx.Commit()
}

// RangeByPrefix returns records whose normalized name starts with prefix,
// in index order (not yet ranked). The scan is capped wider than limit so
// post-filter scoring still has room to reorder.
func (s *DB) RangeByPrefix(ctx context.Context, sport, prefix string, limit int) ([]entity.Record, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sport, entity_type, entity_id, display_name, normalized_name, team, updated_at
		 FROM entities
		 WHERE sport = ? AND normalized_name >= ? AND normalized_name < ?
		 ORDER BY normalized_name
		 LIMIT ?`,
		sport, prefix, prefix+prefixSentinel, limit*scanSlack)
	if err != nil {
		return nil, fmt.Errorf("prefix scan %q/%q: %w", sport, prefix, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ScanAll returns every record for a sport in normalized-name order. It is
// the fallback when the prefix range came back empty, which handles
// mid-token queries like a bare last name.
func (s *DB) ScanAll(ctx context.Context, sport string) ([]entity.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sport, entity_type, entity_id, display_name, normalized_name, team, updated_at
		 FROM entities
		 WHERE sport = ?
		 ORDER BY normalized_name`,
		sport)
	if err != nil {
		return nil, fmt.Errorf("full scan %q: %w", sport, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ClearSport removes all records and sync metadata for one sport in a
// single transaction. Other sports are untouched.
func (s *DB) ClearSport(ctx context.Context, sport string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE sport = ?`, sport); err != nil {
		return fmt.Errorf("clearing entities for %q: %w", sport, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_meta WHERE sport = ?`, sport); err != nil {
		return fmt.Errorf("clearing sync meta for %q: %w", sport, err)
	}
	return tx.Commit()
}

// Stats returns per-sport player and team counts.
func (s *DB) Stats(ctx context.Context) (map[string]SportStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sport, entity_type, COUNT(*) FROM entities GROUP BY sport, entity_type`)
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]SportStats)
	for rows.Next() {
		var sport, typ string
		var n int
		if err := rows.Scan(&sport, &typ, &n); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		st := stats[sport]
		switch entity.Type(typ) {
		case entity.TypePlayer:
			st.Players = n
		case entity.TypeTeam:
			st.Teams = n
		}
		stats[sport] = st
	}
	return stats, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]entity.Record, error) {
	var out []entity.Record
	for rows.Next() {
		var r entity.Record
		var typ string
		if err := rows.Scan(&r.Sport, &typ, &r.ID, &r.DisplayName, &r.NormalizedName, &r.Team, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		r.Type = entity.Type(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}
