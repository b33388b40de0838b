// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"errors"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/rosterserve/rosterserve/pkg/entity"
)

// errStopVisit aborts a subtree visit once enough candidates are collected.
var errStopVisit = errors.New("stop visit")

// hotCache holds one in-memory patricia trie per sport, keyed by normalized
// name. It is a pure accelerator over the store's prefix index: lookups that
// miss fall through to SQLite, and fills happen opportunistically from
// fallback scans. A sync or clear drops the sport's trie.
type hotCache struct {
	mu         sync.RWMutex
	tries      map[string]*patricia.Trie
	maxEntries int
}

func newHotCache(maxEntries int) *hotCache {
	return &hotCache{
		tries:      make(map[string]*patricia.Trie),
		maxEntries: maxEntries,
	}
}

// lookup collects up to max records whose normalized name starts with
// prefix. A nil return means no trie for the sport or no hits; the caller
// goes to the store either way.
func (hc *hotCache) lookup(sport, prefix string, max int) []entity.Record {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	trie := hc.tries[sport]
	if trie == nil {
		return nil
	}

	var out []entity.Record
	err := trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		recs, ok := item.([]entity.Record)
		if !ok {
			return nil
		}
		out = append(out, recs...)
		if max > 0 && len(out) >= max {
			return errStopVisit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopVisit) {
		return nil
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// fill replaces the sport's trie with one built from recs. Oversized record
// sets are skipped entirely rather than truncated: a partial trie would
// silently hide entities from prefix lookups.
func (hc *hotCache) fill(sport string, recs []entity.Record) {
	if len(recs) == 0 || (hc.maxEntries > 0 && len(recs) > hc.maxEntries) {
		return
	}

	byName := make(map[string][]entity.Record, len(recs))
	for _, r := range recs {
		if r.NormalizedName == "" {
			continue
		}
		byName[r.NormalizedName] = append(byName[r.NormalizedName], r)
	}

	trie := patricia.NewTrie()
	for name, group := range byName {
		trie.Insert(patricia.Prefix(name), group)
	}

	hc.mu.Lock()
	hc.tries[sport] = trie
	hc.mu.Unlock()
}

// invalidate drops the sport's trie.
func (hc *hotCache) invalidate(sport string) {
	hc.mu.Lock()
	delete(hc.tries, sport)
	hc.mu.Unlock()
}
