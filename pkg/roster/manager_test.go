// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterserve/rosterserve/internal/clock"
	"github.com/rosterserve/rosterserve/pkg/store"
)

// fakeSource serves canned feeds and can be told to fail either half.
type fakeSource struct {
	players     []PlayerItem
	teams       []TeamItem
	playersErr  error
	teamsErr    error
	playerCalls int
	teamCalls   int
}

func (f *fakeSource) Players(ctx context.Context, sport string) (*PlayerFeed, error) {
	f.playerCalls++
	if f.playersErr != nil {
		return nil, f.playersErr
	}
	return &PlayerFeed{Sport: sport, Items: f.players, Count: len(f.players)}, nil
}

func (f *fakeSource) Teams(ctx context.Context, sport string) (*TeamFeed, error) {
	f.teamCalls++
	if f.teamsErr != nil {
		return nil, f.teamsErr
	}
	return &TeamFeed{Sport: sport, Items: f.teams, Count: len(f.teams)}, nil
}

type fakeInvalidator struct {
	sports []string
}

func (f *fakeInvalidator) InvalidateSport(sport string) {
	f.sports = append(f.sports, sport)
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func nbaSource() *fakeSource {
	return &fakeSource{
		players: []PlayerItem{
			{ID: 1, FirstName: "LeBron", LastName: "James", CurrentTeam: "Lakers"},
			{ID: 2, FirstName: "Stephen", LastName: "Curry", CurrentTeam: "Warriors"},
		},
		teams: []TeamItem{
			{ID: 10, Name: "Los Angeles Lakers"},
			{ID: 11, Name: "Golden State Warriors"},
		},
	}
}

func TestFullSyncWritesRecordsAndMeta(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	inv := &fakeInvalidator{}
	m.SetInvalidator(inv)
	ctx := context.Background()

	res, err := m.FullSync(ctx, "nba")
	if err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if res.PlayerCount != 2 || res.TeamCount != 2 {
		t.Errorf("expected 2 players / 2 teams, got %+v", res)
	}

	meta, err := st.GetSyncMeta(ctx, "nba")
	if err != nil || meta == nil {
		t.Fatalf("expected sync meta after sync, got %v, %v", meta, err)
	}
	if !meta.LastSyncAt.Equal(clk.Now()) {
		t.Errorf("meta timestamp %v, want clock time %v", meta.LastSyncAt, clk.Now())
	}
	if len(inv.sports) != 1 || inv.sports[0] != "nba" {
		t.Errorf("expected one invalidation for nba, got %v", inv.sports)
	}

	status := m.Status()
	if status.Syncing || status.SyncError != "" || status.SyncStats == nil {
		t.Errorf("unexpected status after clean sync: %+v", status)
	}
	if status.SyncStats.PlayerCount != 2 {
		t.Errorf("status player count %d, want 2", status.SyncStats.PlayerCount)
	}
}

func TestShouldSyncTTL(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if !m.ShouldSync(ctx, "nba") {
		t.Error("never-synced sport should be stale")
	}

	if _, err := m.FullSync(ctx, "nba"); err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if m.ShouldSync(ctx, "nba") {
		t.Error("freshly synced sport should not be stale")
	}

	clk.Advance(23 * time.Hour)
	if m.ShouldSync(ctx, "nba") {
		t.Error("23h-old sync should still be fresh against 24h TTL")
	}

	clk.Advance(2 * time.Hour)
	if !m.ShouldSync(ctx, "nba") {
		t.Error("25h-old sync should be stale")
	}
}

func TestSyncIfStaleSkipsFreshSport(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("first SyncIfStale failed: %v", err)
	}
	calls := src.playerCalls

	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("second SyncIfStale failed: %v", err)
	}
	if src.playerCalls != calls {
		t.Error("fresh sport triggered a network fetch")
	}
}

func TestSyncIfStaleFirstSyncPerSport(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("nba sync failed: %v", err)
	}

	// Switching straight to a never-synced sport must sync it too; one
	// sport's trigger must not eat another's first sync.
	res, err := m.SyncIfStale(ctx, "nfl")
	if err != nil {
		t.Fatalf("nfl sync failed: %v", err)
	}
	if res.PlayerCount == 0 {
		t.Fatal("nfl first sync committed no players")
	}
	recs, err := st.ScanAll(ctx, "nfl")
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(recs) == 0 {
		t.Error("nfl index empty after sport switch")
	}
	if m.ShouldSync(ctx, "nfl") {
		t.Error("nfl still stale after its first sync")
	}
}

func TestSyncIfStaleRetriesAfterFailedFirstSync(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	src.playersErr = errors.New("players endpoint down")
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if _, err := m.SyncIfStale(ctx, "nba"); err == nil {
		t.Fatal("expected first sync to fail")
	}

	// Endpoint recovers; an immediate re-trigger must not be throttled
	// while the sport has never completed a sync.
	src.playersErr = nil
	res, err := m.SyncIfStale(ctx, "nba")
	if err != nil {
		t.Fatalf("retry sync failed: %v", err)
	}
	if res.PlayerCount != 2 {
		t.Errorf("expected 2 players after retry, got %d", res.PlayerCount)
	}
}

func TestSyncIfStaleThrottlesRepeatTriggers(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, 1*time.Nanosecond) // everything counts as stale
	ctx := context.Background()

	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	clk.Advance(time.Minute)

	// Second trigger spends the sport's limiter token.
	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("second trigger failed: %v", err)
	}
	clk.Advance(time.Minute)
	calls := src.playerCalls

	// Stale again, but the sport synced moments ago in wall time; the
	// trigger limiter absorbs the repeat.
	if _, err := m.SyncIfStale(ctx, "nba"); err != nil {
		t.Fatalf("repeat trigger failed: %v", err)
	}
	if src.playerCalls != calls {
		t.Error("repeat trigger for a synced sport was not throttled")
	}
}

func TestPartialSyncKeepsPlayersSkipsMeta(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	src.teamsErr = errors.New("teams endpoint down")
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	res, err := m.FullSync(ctx, "nba")
	if !errors.Is(err, ErrPartialSync) {
		t.Fatalf("expected ErrPartialSync, got %v", err)
	}
	if res.PlayerCount != 2 || res.TeamCount != 0 {
		t.Errorf("expected committed players and no teams, got %+v", res)
	}

	// Players stay queryable.
	recs, err := st.ScanAll(ctx, "nba")
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 committed player records, got %d", len(recs))
	}

	// No meta written, so the sport still counts as stale.
	meta, err := st.GetSyncMeta(ctx, "nba")
	if err != nil {
		t.Fatalf("GetSyncMeta failed: %v", err)
	}
	if meta != nil {
		t.Errorf("expected no sync meta after partial sync, got %+v", meta)
	}
	if !m.ShouldSync(ctx, "nba") {
		t.Error("partially synced sport should remain stale")
	}

	status := m.Status()
	if status.SyncError == "" {
		t.Error("expected sync error recorded in status")
	}
}

func TestPlayersFetchFailureWritesNothing(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	src.playersErr = errors.New("players endpoint down")
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if _, err := m.FullSync(ctx, "nba"); err == nil {
		t.Fatal("expected error when players fetch fails")
	}
	if src.teamCalls != 0 {
		t.Error("teams should not be fetched after players failed")
	}
	recs, _ := st.ScanAll(ctx, "nba")
	if len(recs) != 0 {
		t.Errorf("expected empty store, got %d records", len(recs))
	}
}

func TestFullSyncRejectsUnknownSport(t *testing.T) {
	st := testStore(t)
	m := NewManager(st, nbaSource(), clock.RealClock{}, DefaultTTL)

	if _, err := m.FullSync(context.Background(), "curling"); err == nil {
		t.Fatal("expected error for unknown sport")
	}
}

func TestForceRefreshClearsFirst(t *testing.T) {
	st := testStore(t)
	src := nbaSource()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(st, src, clk, DefaultTTL)
	ctx := context.Background()

	if _, err := m.FullSync(ctx, "nba"); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	// Shrink the roster upstream; the refresh must drop the removed player.
	src.players = src.players[:1]
	res, err := m.ForceRefresh(ctx, "nba")
	if err != nil {
		t.Fatalf("ForceRefresh failed: %v", err)
	}
	if res.PlayerCount != 1 {
		t.Errorf("expected 1 player after refresh, got %d", res.PlayerCount)
	}

	recs, err := st.ScanAll(ctx, "nba")
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	// 1 player + 2 teams
	if len(recs) != 3 {
		t.Errorf("expected 3 records after refresh, got %d", len(recs))
	}
}

func TestMapPlayersJoinsNames(t *testing.T) {
	recs := mapPlayers("nba", []PlayerItem{
		{ID: 1, FirstName: "  LeBron ", LastName: " James  ", CurrentTeam: "Lakers"},
	})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].DisplayName != "LeBron James" {
		t.Errorf("display name %q, want %q", recs[0].DisplayName, "LeBron James")
	}
}
