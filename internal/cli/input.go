// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cli handles cmd line input and result display for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/roster"
	"github.com/rosterserve/rosterserve/pkg/search"
)

// InputHandler reads partial names from stdin and prints ranked matches.
// Colon commands switch sport, force a sync, or show index stats.
type InputHandler struct {
	worker  *search.Worker
	manager *roster.Manager
	sport   string
	limit   int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(worker *search.Worker, manager *roster.Manager, sport string, limit int) *InputHandler {
	return &InputHandler{
		worker:  worker,
		manager: manager,
		sport:   sport,
		limit:   limit,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin, and either
// executes a colon command or runs a search for the typed fragment.
// Loop terminates on stdin EOF.
func (h *InputHandler) Start() error {
	log.Print("rosterserve CLI")
	log.Printf("sport: %s -- type a partial name, or :sport <id>, :sync, :q", h.sport)
	reader := bufio.NewReader(os.Stdin)

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if h.handleCommand(line) {
				return nil
			}
			continue
		}
		h.handleSearch(line)
	}
}

// handleCommand executes a colon command; returns true on quit.
func (h *InputHandler) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit":
		return true
	case ":sport":
		if len(fields) < 2 || !entity.ValidSport(fields[1]) {
			log.Errorf("usage: :sport <%s>", strings.Join(entity.Sports, "|"))
			return false
		}
		h.sport = fields[1]
		log.Printf("sport: %s", h.sport)
		if res, err := h.manager.SyncIfStale(context.Background(), h.sport); err != nil {
			log.Errorf("sync: %v", err)
		} else if res.PlayerCount > 0 || res.TeamCount > 0 {
			log.Printf("synced %d players, %d teams", res.PlayerCount, res.TeamCount)
		}
	case ":sync":
		res, err := h.manager.ForceRefresh(context.Background(), h.sport)
		if err != nil {
			log.Errorf("sync: %v", err)
			return false
		}
		log.Printf("synced %d players, %d teams", res.PlayerCount, res.TeamCount)
	default:
		log.Errorf("unknown command %q", fields[0])
	}
	return false
}

func (h *InputHandler) handleSearch(text string) {
	start := time.Now()
	results, err := h.worker.Search(context.Background(), h.sport, "", text, h.limit)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("search: %v", err)
		return
	}
	if len(results) == 0 {
		log.Printf("no matches (%v)", elapsed)
		return
	}
	for i, r := range results {
		suffix := ""
		if r.Team != "" {
			suffix = fmt.Sprintf("  [%s]", r.Team)
		}
		log.Printf("%2d. %-28s %s%s", i+1, r.Name, r.Type, suffix)
	}
	log.Printf("%d results in %v", len(results), elapsed)
}
