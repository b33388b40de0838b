// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import "fmt"

// migrate creates the two tables and the prefix index if they don't exist.
// The schema is tiny and rebuildable from the authoritative source at any
// time, so there is no versioned migration machinery here.
func (s *DB) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			sport           TEXT NOT NULL,
			entity_type     TEXT NOT NULL,
			entity_id       INTEGER NOT NULL,
			display_name    TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			team            TEXT NOT NULL DEFAULT '',
			updated_at      DATETIME NOT NULL,
			PRIMARY KEY (sport, entity_type, entity_id)
		)`,

		// Compound index backing RangeByPrefix. Every row is covered by
		// it; no record exists in the store without being indexed.
		`CREATE INDEX IF NOT EXISTS idx_entities_prefix
			ON entities(sport, normalized_name)`,

		`CREATE TABLE IF NOT EXISTS sync_meta (
			sport        TEXT PRIMARY KEY,
			last_sync_at DATETIME NOT NULL,
			player_count INTEGER NOT NULL,
			team_count   INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %.40q: %w", stmt, err)
		}
	}
	return nil
}
