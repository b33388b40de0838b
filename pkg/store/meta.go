// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSyncMeta returns the last-sync record for a sport, or nil if that
// sport has never completed a sync.
func (s *DB) GetSyncMeta(ctx context.Context, sport string) (*SyncMeta, error) {
	m := &SyncMeta{}
	err := s.db.QueryRowContext(ctx,
		`SELECT sport, last_sync_at, player_count, team_count
		 FROM sync_meta WHERE sport = ?`, sport,
	).Scan(&m.Sport, &m.LastSyncAt, &m.PlayerCount, &m.TeamCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync meta for %q: %w", sport, err)
	}
	return m, nil
}

// PutSyncMeta overwrites the sync record for the sport.
func (s *DB) PutSyncMeta(ctx context.Context, meta SyncMeta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_meta (sport, last_sync_at, player_count, team_count)
		 VALUES (?, ?, ?, ?)`,
		meta.Sport, meta.LastSyncAt.UTC(), meta.PlayerCount, meta.TeamCount)
	if err != nil {
		return fmt.Errorf("writing sync meta for %q: %w", meta.Sport, err)
	}
	return nil
}
