// Copyright 2025 The Typeahead Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the typeahead index as an IPC server and a
line-protocol CLI.

Typeahead keeps labelled, scored items in memory and answers prefix queries
with the top-K item ids, ranked by score times any matching boosts. Ties go
to the most recently added item.

# Usage

Start the MessagePack IPC server with default settings:

	typeahead

Replay seed scripts before serving, with debug logging:

	typeahead -seed /path/to/seeds -d

Run the plain-text protocol on stdin/stdout:

	typeahead -c < commands.txt

# Line Protocol

	ADD <type> <id> <score> <token>...
	DEL <id>
	QUERY <count> <token>...
	WQUERY <count> <numBoosts> <key:multiplier>... <token>...

Each QUERY and WQUERY prints one line of space-separated ids. A leading
line holding only the number of commands is accepted and ignored.

# IPC Protocol

The server reads MessagePack maps from stdin and writes one response per
request to stdout:

	{"id": "q1", "a": "query", "t": ["adam"], "l": 5, "b": [{"k": "topic", "m": 2}]}
	{"id": "q1", "r": [{"i": "t1", "s": 1.6}], "c": 1, "t": 12}

# Configuration

	[server]
	max_limit = 100
	max_tokens = 16
	max_token_len = 64
	rate_limit = 0
	rate_burst = 64

	[engine]
	default_limit = 10

	[metrics]
	enabled = false
	addr = "127.0.0.1:9464"

	[seed]
	dir = ""
	pattern = "seed_*.txt"

	[log]
	level = "warn"

The config file is created with defaults if missing. TYPEAHEAD_* environment
variables, optionally from a .env file, override it.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/metrics"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/seed"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "0.1.0"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

// main only manages the flow; the front-ends live in internal/cli and pkg/server.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to a custom config file")
	seedDir := flag.String("seed", "", "Directory containing seed scripts (overrides [seed] dir)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the plain-text line protocol on stdin/stdout")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	log.SetOutput(os.Stderr)
	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if err := run(*configFile, *seedDir, *cliMode, *debugMode); err != nil {
		log.Fatalf("%s: %v", AppName, err)
	}
}

func run(configFile, seedDir string, cliMode, debugMode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv(".env")
	appConfig, configPath, err := config.LoadConfigWithPriority(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !debugMode {
		log.SetLevel(appConfig.LogLevel())
	}
	if configPath == "" {
		log.Debug("Using builtin config defaults")
	} else {
		log.Debugf("Using config file: (%s)", utils.AbsPath(configPath))
	}

	m := metrics.New()
	engine := typeahead.NewEngine(typeahead.WithObserver(m))

	if err := loadSeeds(ctx, appConfig, seedDir, engine); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	frontCtx, frontDone := context.WithCancel(gctx)

	if appConfig.Metrics.Enabled {
		g.Go(func() error {
			return m.Serve(frontCtx, appConfig.Metrics.Addr)
		})
	}

	g.Go(func() error {
		defer frontDone()
		if cliMode {
			log.SetReportTimestamp(false)
			handler := cli.NewInputHandler(engine, appConfig.CLI.Stats, logger.New("cli"))
			return handler.Start(frontCtx, os.Stdin, os.Stdout)
		}
		showStartupInfo(engine.Stats())
		srv := server.NewServer(engine, appConfig, os.Stdin, os.Stdout,
			server.WithMetrics(m),
			server.WithLogger(logger.New("ipc")))
		return srv.Start(frontCtx)
	})

	// Front-ends block on stdin reads, so a signal cannot interrupt them.
	// Exit without waiting once ctx is done.
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		return nil
	}
}

// loadSeeds replays seed scripts from the -seed flag or the [seed] section.
func loadSeeds(ctx context.Context, cfg *config.Config, flagDir string, engine typeahead.IEngine) error {
	dir := cfg.Seed.Dir
	if flagDir != "" {
		dir = flagDir
	}
	if dir == "" {
		log.Debug("No seed dir configured, starting empty")
		return nil
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Failed to init path resolver: %v", err)
	} else {
		dir = pathResolver.GetSeedDir(dir)
	}
	log.Debugf("Using seed dir at: %s", utils.AbsPath(dir))

	loader := seed.NewLoader(dir, cfg.Seed.Pattern, engine, logger.New("seed"))
	stats, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seeds: %w", err)
	}
	log.Debug("Seed load done",
		"files", stats.Files,
		"applied", utils.FormatWithCommas(stats.Applied),
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"took", stats.Duration)
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ Typeahead ] Ranked prefix search over scored items")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(stats typeahead.Stats) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("items: %s, terms: %s", utils.FormatWithCommas(stats.Items), utils.FormatWithCommas(stats.Terms))
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
