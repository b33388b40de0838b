// Copyright 2026 The RosterServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the sports roster autocomplete server and CLI [DBG] application.

RosterServe indexes league rosters (players and teams) into a local SQLite
store and serves ranked name autocomplete over a MessagePack IPC protocol.
Rosters are pulled from a remote snapshot endpoint and refreshed when the
local copy is older than the configured TTL; searches always run against
the local index so typing stays fast even when the network is not.

# Usage

Start the server with default settings:

	rosterserve -endpoint https://feeds.example.com/v1

Use a custom database path and enable debug mode:

	rosterserve -db /path/to/index.db -d

Run in CLI mode for interactive testing:

	rosterserve -c -sport nba -limit 10

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_limit = 64
	min_query = 2
	max_query = 60

	[store]
	path = ""
	hot_cache_entries = 5000

	[sync]
	endpoint = ""
	ttl_hours = 24

	[query]
	debounce_ms = 200
	default_limit = 10

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, each message
framed by a 4-byte big-endian length prefix. Search requests are answered
with ranked results and microsecond timing information:

	{"id": "req1", "sp": "nba", "q": "leb", "l": 10}
	{"id": "req1", "r": [{"eid": 1, "n": "LeBron James", "et": "player"}], "c": 1, "t": 145}

Sync and status actions manage the local index at runtime:

	{"id": "s1", "action": "sync", "sp": "nba"}
	{"id": "s2", "action": "status"}

# CLI Mode

CLI mode provides an interactive interface for testing search and sync
behavior. It reads partial names from stdin and displays ranked matches,
with colon commands for switching sports and forcing refreshes.

This mode is primarily intended for development and testing new features
before deploying to server mode.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/rosterserve/rosterserve/internal/cli"
	"github.com/rosterserve/rosterserve/pkg/config"
	"github.com/rosterserve/rosterserve/pkg/entity"
	"github.com/rosterserve/rosterserve/pkg/roster"
	"github.com/rosterserve/rosterserve/pkg/search"
	"github.com/rosterserve/rosterserve/pkg/server"
	"github.com/rosterserve/rosterserve/pkg/store"

	"github.com/rosterserve/rosterserve/internal/clock"
)

const (
	Version = "0.3.0-beta"
	AppName = "rosterserve"
	gh      = "https://github.com/rosterserve/rosterserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Path to the TOML config file")
	dbPath := flag.String("db", "", "Path to the index database")
	endpoint := flag.String("endpoint", "", "Roster snapshot endpoint base URL")
	sport := flag.String("sport", "nba", "Sport to search in CLI mode")
	limit := flag.Int("limit", defaultConfig.Query.DefaultLimit, "Number of results to return in CLI mode")

	flag.Parse()

	if *showVersion {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[ RosterServe ] Ranked autocomplete for league rosters!")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use -h or --help to see available options")
		logger.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	resolvedConfigPath := *configPath
	if resolvedConfigPath == "" {
		resolvedConfigPath = filepath.Join(filepath.Dir(config.DefaultStorePath()), "rosterserve.toml")
	}
	log.Debugf("Using config file: (%s)", resolvedConfigPath)

	appConfig, err := config.InitConfig(resolvedConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Flags win over the config file.
	if *dbPath != "" {
		appConfig.Store.Path = *dbPath
	}
	if *endpoint != "" {
		appConfig.Sync.Endpoint = *endpoint
	}
	if appConfig.Store.Path == "" {
		appConfig.Store.Path = config.DefaultStorePath()
	}

	log.Debugf("Using index db at: %s", appConfig.Store.Path)

	var st store.Store
	db, err := store.Open(appConfig.Store.Path)
	if err != nil {
		log.Warnf("index store unavailable, searches will return empty: %v", err)
		st = store.Unavailable(err)
	} else {
		st = db
		defer db.Close()
	}

	source := roster.NewHTTPSource(appConfig.Sync.Endpoint)
	ttl := time.Duration(appConfig.Sync.TTLHours) * time.Hour
	manager := roster.NewManager(st, source, clock.RealClock{}, ttl)

	worker := search.NewWorker(st, appConfig.Store.HotCacheEntries)
	manager.SetInvalidator(worker)
	worker.Start()
	defer worker.Close()

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		if !entity.ValidSport(*sport) {
			log.Fatalf("unknown sport %q", *sport)
			os.Exit(1)
		}
		if appConfig.Sync.Endpoint != "" {
			if _, err := manager.SyncIfStale(context.Background(), *sport); err != nil {
				log.Warnf("initial sync: %v", err)
			}
		}
		inputHandler := cli.NewInputHandler(worker, manager, *sport, *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(worker, manager, st, appConfig)

	showStartupInfo(appConfig.Store.Path)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dbPath string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("=============")
	println(" RosterServe ")
	println("=============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("index db: ( %s )", dbPath)
	log.Info("status: ready")
	println("=============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
