// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package search is the core read path: it owns prefix lookups against the
// local index, scores and ranks candidates, and answers requests over a
// message channel so callers never block on each other.
package search

import "strings"

// Scoring weights. The scorer is a deliberate heuristic, not an
// edit-distance metric; clients rely on the orderings it produces.
const (
	fullPrefixBonus  = 100.0
	tokenPrefixBonus = 50.0
	substringBonus   = 25.0
	lengthPenalty    = 0.4
)

// Score computes the relevance of a normalized candidate name for a
// normalized query. Both inputs must already be in canonical form.
//
// A candidate starting with the whole query earns the full-prefix bonus.
// Each query token earns the token-prefix bonus when some candidate token
// starts with it, else the substring bonus when it appears anywhere. If any
// points were awarded, a length penalty breaks ties toward shorter names.
// Zero means no match at all; fallback scans drop those candidates.
func Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}

	var pts float64
	if strings.HasPrefix(candidate, query) {
		pts += fullPrefixBonus
	}

	candTokens := strings.Fields(candidate)
	for _, tok := range strings.Fields(query) {
		switch {
		case anyTokenHasPrefix(candTokens, tok):
			pts += tokenPrefixBonus
		case strings.Contains(candidate, tok):
			pts += substringBonus
		}
	}

	if pts > 0 {
		pts -= lengthPenalty * float64(len(candidate))
	}
	return pts
}

func anyTokenHasPrefix(tokens []string, prefix string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}
