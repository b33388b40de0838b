// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rosterserve/rosterserve/pkg/config"
	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/roster"
	"github.com/rosterserve/rosterserve/pkg/search"
	"github.com/rosterserve/rosterserve/pkg/store"
)

// maxFrameSize rejects absurd length prefixes before allocating.
const maxFrameSize = 1 << 20

// envelope is the union of incoming message fields; Action distinguishes
// sync management from search.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Sport  string `msgpack:"sport"`
	Type   string `msgpack:"et"`
	Query  string `msgpack:"q"`
	Limit  int    `msgpack:"l"`
}

// Server handles the IPC for entity autocomplete.
type Server struct {
	worker  *search.Worker
	manager *roster.Manager
	store   store.Store
	cfg     *config.Config
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex
}

// NewServer creates an autocomplete server using stdin/stdout for IPC.
func NewServer(worker *search.Worker, manager *roster.Manager, st store.Store, cfg *config.Config) *Server {
	return &Server{
		worker:  worker,
		manager: manager,
		store:   st,
		cfg:     cfg,
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// Start begins listening for IPC requests.
func (s *Server) Start() error {
	log.Debug("Starting Server.")

	// Signal that the server is ready
	s.send(map[string]string{"status": "ready"})

	for {
		payload, err := s.readFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			log.Errorf("Reading frame: %v", err)
			return err
		}
		// Requests run concurrently: a deep fallback scan must not hold
		// up a short-circuited query behind it.
		go s.handleMessage(payload)
	}
}

func (s *Server) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.reader, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 || n > maxFrameSize {
		return nil, fmt.Errorf("invalid frame length %d", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Server) handleMessage(payload []byte) {
	var env envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		s.sendError("", "Invalid msgpack request", 400)
		log.Errorf("Unmarshaling request: %v", err)
		return
	}

	switch env.Action {
	case "":
		s.handleSearch(env)
	case "sync", "force":
		s.handleSync(env)
	case "status":
		s.handleStatus(env)
	default:
		s.sendError(env.ID, fmt.Sprintf("Unknown action: %s", env.Action), 400)
	}
}

func (s *Server) handleSearch(env envelope) {
	if !entity.ValidSport(env.Sport) {
		s.sendError(env.ID, fmt.Sprintf("Unknown sport: %q", env.Sport), 400)
		return
	}
	if len(env.Query) < s.cfg.Server.MinQuery {
		s.sendError(env.ID, fmt.Sprintf("Query must be at least %d characters", s.cfg.Server.MinQuery), 400)
		return
	}
	if len(env.Query) > s.cfg.Server.MaxQuery {
		s.sendError(env.ID, fmt.Sprintf("Query exceeds maximum length of %d characters", s.cfg.Server.MaxQuery), 400)
		return
	}

	limit := env.Limit
	if limit < 1 {
		limit = s.cfg.Query.DefaultLimit
	}
	if limit > s.cfg.Server.MaxLimit {
		limit = s.cfg.Server.MaxLimit
	}

	start := time.Now()
	results, err := s.worker.Search(context.Background(), env.Sport, entity.Type(env.Type), env.Query, limit)
	elapsed := time.Since(start)
	if err != nil {
		s.sendError(env.ID, err.Error(), 500)
		return
	}

	entries := make([]ResultEntry, len(results))
	for i, r := range results {
		entries[i] = ResultEntry{
			EntityID:   r.ID,
			Label:      r.Label,
			Name:       r.Name,
			EntityType: string(r.Type),
			Sport:      r.Sport,
			Team:       r.Team,
			Source:     r.Source,
		}
	}

	s.send(SearchResponse{
		ID:      env.ID,
		Results: entries,
		Count:   len(entries),
		TookUS:  elapsed.Microseconds(),
	})
}

func (s *Server) handleSync(env envelope) {
	if !entity.ValidSport(env.Sport) {
		s.sendError(env.ID, fmt.Sprintf("Unknown sport: %q", env.Sport), 400)
		return
	}

	ctx := context.Background()
	var res roster.Result
	var err error
	if env.Action == "force" {
		res, err = s.manager.ForceRefresh(ctx, env.Sport)
	} else {
		res, err = s.manager.FullSync(ctx, env.Sport)
	}

	resp := SyncResponse{
		ID:          env.ID,
		Status:      "ok",
		PlayerCount: res.PlayerCount,
		TeamCount:   res.TeamCount,
	}
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
	}
	s.send(resp)
}

func (s *Server) handleStatus(env envelope) {
	status := s.manager.Status()
	stats, err := s.store.Stats(context.Background())
	if err != nil {
		s.sendError(env.ID, err.Error(), 500)
		return
	}

	counts := make(map[string]SportCounts, len(stats))
	for sport, st := range stats {
		counts[sport] = SportCounts{Players: st.Players, Teams: st.Teams}
	}
	s.send(StatusResponse{
		ID:        env.ID,
		Syncing:   status.Syncing,
		SyncError: status.SyncError,
		Counts:    counts,
	})
}

// send marshals the response and writes it as one length-framed message.
// Responses from concurrent handlers interleave at frame granularity only.
func (s *Server) send(response interface{}) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.writer.Write(lenBuf[:]); err != nil {
		log.Errorf("Writing frame header: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing frame: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}
