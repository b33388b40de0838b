// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package entity defines the record shapes shared by the index store, the
// sync pipeline and the search path, plus the canonical name normalization
// both sides depend on.
package entity

import (
	"fmt"
	"time"
)

// Type discriminates the two record variants sharing the Record shape.
type Type string

const (
	TypePlayer Type = "player"
	TypeTeam   Type = "team"
)

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	return t == TypePlayer || t == TypeTeam
}

// Sports is the closed set of sport identifiers the index partitions on.
var Sports = []string{"nba", "wnba", "nfl", "mlb", "nhl"}

// ValidSport reports whether s is one of the supported sport identifiers.
func ValidSport(s string) bool {
	for _, sp := range Sports {
		if s == sp {
			return true
		}
	}
	return false
}

// Record is a single indexed entity. NormalizedName is derived from
// DisplayName on every write and is never set by hand.
type Record struct {
	Sport          string
	ID             int64
	Type           Type
	DisplayName    string
	NormalizedName string
	Team           string // players only, optional
	UpdatedAt      time.Time
}

// Validate checks the fields required for the record to be keyed and indexed.
// A failing record rejects its whole upsert batch.
func (r *Record) Validate(sport string) error {
	if r.ID <= 0 {
		return fmt.Errorf("record missing entity id (sport %q, name %q)", r.Sport, r.DisplayName)
	}
	if r.Sport == "" || r.Sport != sport {
		return fmt.Errorf("record sport %q does not match batch sport %q", r.Sport, sport)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("record %d has unknown entity type %q", r.ID, r.Type)
	}
	return nil
}

// AutocompleteResult is the ranked match shape handed to the UI layer.
type AutocompleteResult struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Name   string `json:"name"`
	Type   Type   `json:"entityType"`
	Sport  string `json:"sport"`
	Team   string `json:"team,omitempty"`
	Source string `json:"source"`
}

// ResultFromRecord maps an indexed record to its UI-facing shape.
// Source is always "local"; the remote fallback lives outside this core.
func ResultFromRecord(r Record) AutocompleteResult {
	return AutocompleteResult{
		ID:     r.ID,
		Label:  r.DisplayName,
		Name:   r.DisplayName,
		Type:   r.Type,
		Sport:  r.Sport,
		Team:   r.Team,
		Source: "local",
	}
}
