// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package entity

import "testing"

// The write path (indexing) and read path (queries) share this function,
// so the table below is the contract for both.
func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
	}{
		{"empty", "", ""},
		{"plain lowercase", "lebron james", "lebron james"},
		{"uppercase", "LeBron James", "lebron james"},
		{"diacritics", "Luka Dončić", "luka doncic"},
		{"accented vowels", "José Ramírez", "jose ramirez"},
		{"apostrophe", "Shaquille O'Neal", "shaquille oneal"},
		{"periods", "A.J. Green", "aj green"},
		{"hyphen", "Karl-Anthony Towns", "karlanthony towns"},
		{"digits kept", "Agent 00", "agent 00"},
		{"inner whitespace collapsed", "James   Harden", "james harden"},
		{"leading and trailing space", "  Nikola Jokić  ", "nikola jokic"},
		{"tabs and newlines", "Joel\tEmbiid\n", "joel embiid"},
		{"only punctuation", "...!!!", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// Normalizing twice must be a no-op, otherwise indexed names and query
// strings could drift apart.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Luka Dončić", "A.J. Green", "LeBron James", "  Kevin   Durant "}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	ok := Record{Sport: "nba", ID: 23, Type: TypePlayer, DisplayName: "LeBron James"}
	if err := ok.Validate("nba"); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name string
		rec  Record
	}{
		{"missing id", Record{Sport: "nba", Type: TypePlayer, DisplayName: "No ID"}},
		{"missing sport", Record{ID: 1, Type: TypeTeam, DisplayName: "No Sport"}},
		{"sport mismatch", Record{Sport: "nfl", ID: 1, Type: TypeTeam, DisplayName: "Wrong Sport"}},
		{"bad type", Record{Sport: "nba", ID: 1, Type: "mascot", DisplayName: "Bad Type"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rec.Validate("nba"); err == nil {
				t.Errorf("expected validation error for %+v", tc.rec)
			}
		})
	}
}
