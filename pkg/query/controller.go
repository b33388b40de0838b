// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package query drives the UI-facing side of entity search: it debounces
// keystrokes, tags each dispatched request with a monotonically increasing
// identifier, and silently discards replies to superseded requests.
package query

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/search"
)

// DefaultDebounce is how long input must be quiet before a search fires.
const DefaultDebounce = 200 * time.Millisecond

// minQueryRunes mirrors the worker's short-query guard; anything shorter
// goes straight to idle without a dispatch.
const minQueryRunes = 2

// State is the controller's position in its
// idle → debouncing → awaiting-response cycle.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateAwaiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateAwaiting:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// Searcher is the worker surface the controller needs. *search.Worker
// satisfies it.
type Searcher interface {
	Submit(req search.Request)
	Replies() <-chan search.Reply
}

// Controller owns only transient UI state: the current query, the current
// request identifier, and the last accepted result list. There is no
// in-flight abort; cancellation is the receiver discarding out-of-date
// replies by identifier.
type Controller struct {
	worker   Searcher
	debounce time.Duration
	limit    int

	mu       sync.Mutex
	state    State
	sport    string
	etype    entity.Type
	timer    *time.Timer
	inputGen uint64 // bumped on every input; detaches late-firing timers
	reqID    uint64 // monotonic; replies must match the latest value
	results  []entity.AutocompleteResult

	onResults func([]entity.AutocompleteResult)
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithLimit overrides the per-search result cap.
func WithLimit(n int) Option {
	return func(c *Controller) { c.limit = n }
}

// WithOnResults registers a callback invoked whenever a fresh result list
// is accepted (including the empty list on short input).
func WithOnResults(fn func([]entity.AutocompleteResult)) Option {
	return func(c *Controller) { c.onResults = fn }
}

// NewController creates a controller over the worker and starts its reply
// loop. Call Close when done.
func NewController(w Searcher, sport string, etype entity.Type, opts ...Option) *Controller {
	c := &Controller{
		worker:   w,
		debounce: DefaultDebounce,
		limit:    search.DefaultLimit,
		sport:    sport,
		etype:    etype,
		state:    StateIdle,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.replyLoop()
	return c
}

// SetSport switches the active sport and resets transient state.
func (c *Controller) SetSport(sport string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.sport = sport
	c.resetLocked()
}

// SetQuery handles one input change. A pending debounce timer is always
// cleared first. Input whose normalized form is shorter than two runes goes
// straight to idle with empty results and nothing dispatched; anything else
// restarts the debounce timer.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.inputGen++

	q := entity.Normalize(text)
	if utf8.RuneCountInString(q) < minQueryRunes {
		c.resetLocked()
		return
	}

	gen := c.inputGen
	c.state = StateDebouncing
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fire(gen, q)
	})
}

// fire dispatches a search for the debounced query unless newer input
// arrived while the timer was in flight.
func (c *Controller) fire(gen uint64, q string) {
	c.mu.Lock()
	if gen != c.inputGen {
		c.mu.Unlock()
		return
	}
	c.reqID++
	req := search.Request{
		Sport:     c.sport,
		Type:      c.etype,
		Query:     q,
		Limit:     c.limit,
		RequestID: c.reqID,
	}
	c.state = StateAwaiting
	c.mu.Unlock()

	c.worker.Submit(req)
}

// replyLoop adopts only the reply matching the newest dispatched request;
// everything else is a stale answer to a superseded request and is dropped
// without a trace.
func (c *Controller) replyLoop() {
	defer close(c.loopDone)
	for {
		select {
		case rep, ok := <-c.worker.Replies():
			if !ok {
				return
			}
			c.mu.Lock()
			if rep.RequestID != c.reqID {
				c.mu.Unlock()
				continue
			}
			c.results = rep.Results
			c.state = StateIdle
			cb := c.onResults
			res := c.results
			c.mu.Unlock()
			if cb != nil {
				cb(res)
			}
		case <-c.done:
			return
		}
	}
}

// Results returns the last accepted result list.
func (c *Controller) Results() []entity.AutocompleteResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the debounce timer and the reply loop.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.stopTimerLocked()
		c.mu.Unlock()
		close(c.done)
		<-c.loopDone
	})
}

// resetLocked clears results and supersedes any in-flight request so a late
// reply cannot overwrite the deliberately-empty state.
func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.results = []entity.AutocompleteResult{}
	c.reqID++
	if c.onResults != nil {
		// Deliver outside the lock.
		cb := c.onResults
		res := c.results
		go cb(res)
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
