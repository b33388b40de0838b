// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"context"
	"errors"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/rosterserve/rosterserve/internal/logger"
	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/store"
)

// DefaultLimit caps results when a request doesn't set one.
const DefaultLimit = 10

// minQueryRunes guards against over-broad scans on one-character input.
const minQueryRunes = 2

// Request asks the worker for ranked matches. RequestID is echoed back
// unchanged so the dispatcher can discard replies to superseded requests.
type Request struct {
	Sport     string
	Type      entity.Type // empty matches both players and teams
	Query     string
	Limit     int
	RequestID uint64
}

// Reply answers exactly one Request. Errors travel in Err, never as a
// panic across the message boundary; a reply with Err set carries empty
// results.
type Reply struct {
	RequestID uint64
	Results   []entity.AutocompleteResult
	Err       string
}

// Worker owns the store's read path. Each submitted request runs in its own
// goroutine, so requests overlap freely and replies may arrive out of
// dispatch order; a cheap short-circuited query legitimately finishes
// before an earlier deep scan. The worker never reorders or cancels;
// staleness filtering is entirely the dispatcher's job.
type Worker struct {
	store  store.Store
	cache  *hotCache
	logger *log.Logger

	requests chan Request
	replies  chan Reply
	quit     chan struct{}

	wg        sync.WaitGroup // in-flight request handlers
	loopDone  chan struct{}
	closeOnce sync.Once
}

// NewWorker creates a worker over the given store. cacheEntries bounds the
// per-sport hot cache; zero disables the bound.
func NewWorker(st store.Store, cacheEntries int) *Worker {
	return &Worker{
		store:    st,
		cache:    newHotCache(cacheEntries),
		logger:   logger.Default("search"),
		requests: make(chan Request, 16),
		replies:  make(chan Reply, 16),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start launches the message loop. Call once.
func (w *Worker) Start() {
	go w.loop()
}

// Submit enqueues a request. Submissions after Close are dropped.
func (w *Worker) Submit(req Request) {
	select {
	case w.requests <- req:
	case <-w.quit:
	}
}

// Replies is the channel search answers arrive on.
func (w *Worker) Replies() <-chan Reply {
	return w.replies
}

// InvalidateSport drops the sport's hot cache. The sync manager calls this
// after a refresh so lookups fall back to the freshly-written store.
func (w *Worker) InvalidateSport(sport string) {
	w.cache.invalidate(sport)
}

// Close stops the loop, waits for in-flight requests, and closes the reply
// channel.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
		<-w.loopDone
		w.wg.Wait()
		close(w.replies)
	})
}

func (w *Worker) loop() {
	defer close(w.loopDone)
	for {
		select {
		case req := <-w.requests:
			w.wg.Add(1)
			go func(req Request) {
				defer w.wg.Done()
				w.send(w.process(context.Background(), req))
			}(req)
		case <-w.quit:
			return
		}
	}
}

func (w *Worker) send(rep Reply) {
	select {
	case w.replies <- rep:
	case <-w.quit:
	}
}

// Search is the blocking convenience form of Submit for callers outside the
// debounced UI path (IPC server, CLI). It shares the full pipeline but
// bypasses the reply channel.
func (w *Worker) Search(ctx context.Context, sport string, typ entity.Type, query string, limit int) ([]entity.AutocompleteResult, error) {
	rep := w.process(ctx, Request{Sport: sport, Type: typ, Query: query, Limit: limit})
	if rep.Err != "" {
		return nil, errors.New(rep.Err)
	}
	return rep.Results, nil
}

// process runs one request through the pipeline:
// normalize → indexed lookup → (if empty) fallback scan → score → cap.
func (w *Worker) process(ctx context.Context, req Request) Reply {
	rep := Reply{RequestID: req.RequestID, Results: []entity.AutocompleteResult{}}

	q := entity.Normalize(req.Query)
	if utf8.RuneCountInString(q) < minQueryRunes {
		return rep
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	recs := w.cache.lookup(req.Sport, q, limit*4)
	if len(recs) == 0 {
		var err error
		recs, err = w.store.RangeByPrefix(ctx, req.Sport, q, limit)
		if err != nil {
			w.logger.Errorf("prefix scan failed for %q/%q: %v", req.Sport, q, err)
			rep.Err = err.Error()
			return rep
		}
	}

	fallback := false
	if len(recs) == 0 {
		all, err := w.store.ScanAll(ctx, req.Sport)
		if err != nil {
			w.logger.Errorf("fallback scan failed for %q: %v", req.Sport, err)
			rep.Err = err.Error()
			return rep
		}
		// An exhaustive scan is also a free snapshot for the hot cache.
		w.cache.fill(req.Sport, all)
		recs = all
		fallback = true
	}

	rep.Results = rank(q, recs, req.Type, fallback, limit)
	return rep
}

type scoredRecord struct {
	rec   entity.Record
	score float64
}

// rank scores candidates and returns the top matches. Prefix-indexed
// candidates are kept regardless of score, since they already satisfied
// the prefix condition; fallback-scan candidates need a positive score
// to appear at all.
func rank(query string, recs []entity.Record, typ entity.Type, fallback bool, limit int) []entity.AutocompleteResult {
	scored := make([]scoredRecord, 0, len(recs))
	for _, r := range recs {
		if typ != "" && r.Type != typ {
			continue
		}
		s := Score(query, r.NormalizedName)
		if fallback && s <= 0 {
			continue
		}
		scored = append(scored, scoredRecord{rec: r, score: s})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].rec.NormalizedName < scored[j].rec.NormalizedName
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]entity.AutocompleteResult, 0, len(scored))
	for _, sr := range scored {
		out = append(out, entity.ResultFromRecord(sr.rec))
	}
	return out
}
