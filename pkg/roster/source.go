// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package roster keeps the local entity index fresh against the
// authoritative bulk snapshot endpoints, one sport at a time.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PlayerItem is one player row in the upstream snapshot.
type PlayerItem struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CurrentTeam string `json:"currentTeam"`
}

// TeamItem is one team row in the upstream snapshot.
type TeamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PlayerFeed is the players snapshot for a sport.
type PlayerFeed struct {
	Sport     string       `json:"sport"`
	Items     []PlayerItem `json:"items"`
	Count     int          `json:"count"`
	Timestamp string       `json:"timestamp"`
}

// TeamFeed is the teams snapshot for a sport.
type TeamFeed struct {
	Sport     string     `json:"sport"`
	Items     []TeamItem `json:"items"`
	Count     int        `json:"count"`
	Timestamp string     `json:"timestamp"`
}

// Source provides bulk entity snapshots per sport. HTTPSource is the real
// one; tests substitute their own.
type Source interface {
	Players(ctx context.Context, sport string) (*PlayerFeed, error)
	Teams(ctx context.Context, sport string) (*TeamFeed, error)
}

// HTTPSource fetches snapshots from GET {base}/{sport}/players and
// GET {base}/{sport}/teams.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates a source against the given sync endpoint base URL.
func NewHTTPSource(base string) *HTTPSource {
	return &HTTPSource{
		base:   base,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPSource) Players(ctx context.Context, sport string) (*PlayerFeed, error) {
	var feed PlayerFeed
	if err := s.get(ctx, fmt.Sprintf("%s/%s/players", s.base, sport), &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (s *HTTPSource) Teams(ctx context.Context, sport string) (*TeamFeed, error) {
	var feed TeamFeed
	if err := s.get(ctx, fmt.Sprintf("%s/%s/teams", s.base, sport), &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (s *HTTPSource) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
