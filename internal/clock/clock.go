// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package clock abstracts time so TTL logic can be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time. RealClock in production, MockClock in
// tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads actual system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// MockClock is a controllable, thread-safe clock for tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock set to t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set changes the clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
