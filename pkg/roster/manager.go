// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/rosterserve/rosterserve/internal/clock"
	"github.com/rosterserve/rosterserve/internal/logger"
	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/store"
)

// DefaultTTL is how old a sport's last sync may be before it counts as
// stale.
const DefaultTTL = 24 * time.Hour

// ErrPartialSync means players were fetched and committed but teams failed.
// The committed half stays in place: stale-but-present data beats no data.
// Sync metadata is not written, so the next TTL check re-triggers the sync.
var ErrPartialSync = errors.New("roster: partial sync")

// Result reports how many records a sync committed.
type Result struct {
	PlayerCount int
	TeamCount   int
}

// Counts is the stats half of the sync status accessor.
type Counts struct {
	PlayerCount int `json:"playerCount"`
	TeamCount   int `json:"teamCount"`
}

// Status is the sync state exposed to the UI layer.
type Status struct {
	Syncing   bool    `json:"syncing"`
	SyncError string  `json:"syncError,omitempty"`
	SyncStats *Counts `json:"syncStats"`
}

// Invalidator lets the manager drop derived read-side caches after the
// underlying records change. The search worker implements it.
type Invalidator interface {
	InvalidateSport(sport string)
}

// Manager performs full per-sport syncs on demand. It never retries on its
// own: a failure is reported and the caller re-triggers on the next TTL
// check, sport switch, or manual refresh.
type Manager struct {
	store  store.Store
	source Source
	clk    clock.Clock
	ttl    time.Duration
	inval  Invalidator
	logger *log.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	syncing  bool
	lastErr  string
	lastSync *Counts
}

// NewManager creates a sync manager over the given store and source.
// ttl <= 0 falls back to DefaultTTL.
func NewManager(st store.Store, src Source, clk clock.Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:    st,
		source:   src,
		clk:      clk,
		ttl:      ttl,
		limiters: make(map[string]*rate.Limiter),
		logger:   logger.Default("roster"),
	}
}

// allowTrigger rate-limits repeated triggers for one sport so rapid
// back-and-forth sport switches don't stack syncs. Each sport gets its own
// bucket: throttling nba must never cost nfl its first sync.
func (m *Manager) allowTrigger(sport string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[sport]
	if !ok {
		lim = rate.NewLimiter(rate.Every(30*time.Second), 1)
		m.limiters[sport] = lim
	}
	return lim.Allow()
}

// SetInvalidator wires the read-side cache invalidation hook.
func (m *Manager) SetInvalidator(inv Invalidator) { m.inval = inv }

// ShouldSync reports whether sport has never synced or its last sync is
// older than the TTL.
func (m *Manager) ShouldSync(ctx context.Context, sport string) bool {
	meta, err := m.store.GetSyncMeta(ctx, sport)
	if err != nil {
		m.logger.Warnf("reading sync meta for %s: %v", sport, err)
		return true
	}
	if meta == nil {
		return true
	}
	return m.clk.Now().Sub(meta.LastSyncAt) > m.ttl
}

// SyncIfStale runs a full sync when the sport is stale. It is the entry
// point for sport switches. A sport that has synced before is additionally
// throttled by its trigger limiter; a sport with no data yet always syncs,
// since skipping its first sync would leave the index empty with no error.
func (m *Manager) SyncIfStale(ctx context.Context, sport string) (Result, error) {
	meta, err := m.store.GetSyncMeta(ctx, sport)
	if err != nil {
		m.logger.Warnf("reading sync meta for %s: %v", sport, err)
	}
	if meta != nil {
		if m.clk.Now().Sub(meta.LastSyncAt) <= m.ttl {
			return Result{}, nil
		}
		if !m.allowTrigger(sport) {
			m.logger.Debugf("sync trigger for %s rate-limited", sport)
			return Result{}, nil
		}
	}
	return m.FullSync(ctx, sport)
}

// FullSync fetches the players and teams snapshots for sport, upserts them,
// and writes the sync metadata. The two record types are not transactional
// with each other: if teams fail after players committed, players stay and
// ErrPartialSync is returned.
func (m *Manager) FullSync(ctx context.Context, sport string) (Result, error) {
	if !entity.ValidSport(sport) {
		return Result{}, fmt.Errorf("roster: unknown sport %q", sport)
	}

	m.setSyncing(true)
	defer m.setSyncing(false)

	var res Result

	playerFeed, err := m.source.Players(ctx, sport)
	if err != nil {
		return res, m.fail(fmt.Errorf("fetching players for %s: %w", sport, err))
	}
	playerRecs := mapPlayers(sport, playerFeed.Items)
	if err := m.store.Upsert(ctx, sport, playerRecs); err != nil {
		return res, m.fail(fmt.Errorf("storing players for %s: %w", sport, err))
	}
	res.PlayerCount = len(playerRecs)

	teamFeed, err := m.source.Teams(ctx, sport)
	if err == nil {
		teamRecs := mapTeams(sport, teamFeed.Items)
		if upErr := m.store.Upsert(ctx, sport, teamRecs); upErr != nil {
			err = upErr
		} else {
			res.TeamCount = len(teamRecs)
		}
	}
	if err != nil {
		// Players are already committed; report the partial result.
		return res, m.fail(fmt.Errorf("%w: teams for %s: %v", ErrPartialSync, sport, err))
	}

	meta := store.SyncMeta{
		Sport:       sport,
		LastSyncAt:  m.clk.Now().UTC(),
		PlayerCount: res.PlayerCount,
		TeamCount:   res.TeamCount,
	}
	if err := m.store.PutSyncMeta(ctx, meta); err != nil {
		return res, m.fail(fmt.Errorf("writing sync meta for %s: %w", sport, err))
	}

	if m.inval != nil {
		m.inval.InvalidateSport(sport)
	}

	m.mu.Lock()
	m.lastErr = ""
	m.lastSync = &Counts{PlayerCount: res.PlayerCount, TeamCount: res.TeamCount}
	m.mu.Unlock()

	m.logger.Debugf("synced %s: %d players, %d teams", sport, res.PlayerCount, res.TeamCount)
	return res, nil
}

// ForceRefresh clears a sport's records and metadata, then re-syncs from
// scratch. Used as the recovery path when the local index is suspect.
func (m *Manager) ForceRefresh(ctx context.Context, sport string) (Result, error) {
	if err := m.store.ClearSport(ctx, sport); err != nil {
		return Result{}, m.fail(fmt.Errorf("clearing %s: %w", sport, err))
	}
	if m.inval != nil {
		m.inval.InvalidateSport(sport)
	}
	return m.FullSync(ctx, sport)
}

// Status snapshots the current sync state for the UI layer.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Syncing:   m.syncing,
		SyncError: m.lastErr,
		SyncStats: m.lastSync,
	}
}

func (m *Manager) setSyncing(v bool) {
	m.mu.Lock()
	m.syncing = v
	m.mu.Unlock()
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
	m.logger.Warnf("%v", err)
	return err
}

func mapPlayers(sport string, items []PlayerItem) []entity.Record {
	recs := make([]entity.Record, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(strings.TrimSpace(it.FirstName) + " " + strings.TrimSpace(it.LastName))
		recs = append(recs, entity.Record{
			Sport:       sport,
			ID:          it.ID,
			Type:        entity.TypePlayer,
			DisplayName: name,
			Team:        it.CurrentTeam,
		})
	}
	return recs
}

func mapTeams(sport string, items []TeamItem) []entity.Record {
	recs := make([]entity.Record, 0, len(items))
	for _, it := range items {
		recs = append(recs, entity.Record{
			Sport:       sport,
			ID:          it.ID,
			Type:        entity.TypeTeam,
			DisplayName: it.Name,
		})
	}
	return recs
}
