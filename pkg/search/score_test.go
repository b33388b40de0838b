// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreBonuses(t *testing.T) {
	testCases := []struct {
		query       string
		candidate   string
		expected    float64
		description string
	}{
		// "leb" is both a full prefix and a token prefix of the first token.
		{"leb", "lebron james", 100 + 50 - 0.4*12, "full prefix plus token prefix"},
		// "james" prefixes the second token only.
		{"james", "lebron james", 50 - 0.4*12, "token prefix, not full prefix"},
		// "ames" appears inside "james" but prefixes nothing.
		{"ames", "lebron james", 25 - 0.4*12, "substring only"},
		// no overlap at all, and no length penalty without points
		{"xyz", "lebron james", 0, "no match"},
		{"", "lebron james", 0, "empty query"},
		{"leb", "", 0, "empty candidate"},
		// multi-token query: each token prefixes a candidate token, but the
		// whole query is not a prefix of the candidate
		{"le ja", "lebron james", 50 + 50 - 0.4*12, "two token prefixes"},
		// whole query is a prefix and both tokens prefix tokens
		{"lebron j", "lebron james", 100 + 50 + 50 - 0.4*12, "full and token prefixes"},
	}

	for _, tc := range testCases {
		got := Score(tc.query, tc.candidate)
		if !almostEqual(got, tc.expected) {
			t.Errorf("%s: Score(%q, %q) = %v, want %v",
				tc.description, tc.query, tc.candidate, got, tc.expected)
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	// For the same query, tighter match kinds must outrank looser ones.
	q := "cur"
	full := Score(q, "curry stephen")
	token := Score(q, "stephen curry")
	sub := Score("urr", "stephen curry")
	none := Score(q, "lebron james")

	if !(full > token) {
		t.Errorf("full prefix (%v) should outrank token prefix (%v)", full, token)
	}
	if !(token > sub) {
		t.Errorf("token prefix (%v) should outrank substring (%v)", token, sub)
	}
	if !(sub > none) {
		t.Errorf("substring (%v) should outrank no match (%v)", sub, none)
	}
}

func TestScoreLengthTieBreak(t *testing.T) {
	// Same match kind: the shorter candidate wins.
	short := Score("le", "lee")
	long := Score("le", "lebron james jr")
	if !(short > long) {
		t.Errorf("shorter candidate (%v) should outrank longer (%v)", short, long)
	}
}
