// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package server implements msgpack IPC for entity autocomplete services.

The server reads length-framed msgpack messages from stdin and writes
responses to stdout. Each message carries an ID field that is echoed back
verbatim; clients use it to pair responses with requests and to drop
answers to queries they have since abandoned.

A search request:

	{"id": "req_001", "sport": "nba", "q": "leb", "l": 10}

is answered with ranked matches:

	{"id": "req_001", "results": [{"id": 1, "name": "LeBron James", ...}], "c": 1, "t": 412}

Sync management messages trigger or inspect the snapshot sync:

	{"id": "sync_001", "action": "sync", "sport": "nba"}
	{"id": "sync_002", "action": "force", "sport": "nba"}
	{"id": "sync_003", "action": "status"}

Errors are reported per request, never by crashing the loop:

	{"id": "req_001", "e": "unknown sport \"xx\"", "c": 400}

Framing is a 4-byte big-endian length prefix followed by the msgpack
payload. Slow requests (deep fallback scans) are handled concurrently, so
responses can arrive out of request order; pair by ID, not by position.
*/
package server

// SearchRequest asks for ranked matches for a partial name.
type SearchRequest struct {
	ID         string `msgpack:"id"`
	Sport      string `msgpack:"sport"`
	EntityType string `msgpack:"et,omitempty"` // "player", "team", or empty for both
	Query      string `msgpack:"q"`
	Limit      int    `msgpack:"l,omitempty"`
}

// ResultEntry is one ranked match in a search response.
type ResultEntry struct {
	EntityID   int64  `msgpack:"id"`
	Label      string `msgpack:"label"`
	Name       string `msgpack:"name"`
	EntityType string `msgpack:"et"`
	Sport      string `msgpack:"sport"`
	Team       string `msgpack:"team,omitempty"`
	Source     string `msgpack:"src"`
}

// SearchResponse answers a SearchRequest.
type SearchResponse struct {
	ID      string        `msgpack:"id"`
	Results []ResultEntry `msgpack:"results"`
	Count   int           `msgpack:"c"`
	TookUS  int64         `msgpack:"t"`
}

// SYNC MESSAGES - snapshot refresh and status (other settings via TOML)

// SyncRequest manages the per-sport snapshot sync.
type SyncRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"` // "sync", "force", "status"
	Sport  string `msgpack:"sport,omitempty"`
}

// SyncResponse reports a completed (or failed) sync action.
type SyncResponse struct {
	ID          string `msgpack:"id"`
	Status      string `msgpack:"status"`
	Error       string `msgpack:"error,omitempty"`
	PlayerCount int    `msgpack:"player_count,omitempty"`
	TeamCount   int    `msgpack:"team_count,omitempty"`
}

// SportCounts is one sport's record counts in a status response.
type SportCounts struct {
	Players int `msgpack:"players"`
	Teams   int `msgpack:"teams"`
}

// StatusResponse reports sync state plus per-sport index counts.
type StatusResponse struct {
	ID        string                 `msgpack:"id"`
	Syncing   bool                   `msgpack:"syncing"`
	SyncError string                 `msgpack:"sync_error,omitempty"`
	Counts    map[string]SportCounts `msgpack:"counts"`
}

// ErrorResponse holds basic error information for failed requests.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
