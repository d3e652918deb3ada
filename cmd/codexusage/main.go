// Package main is the entry point for the Codex usage TUI. It renders the
// token usage dashboard by default and exposes the JSON API in serve mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/app"
	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/client"
	"github.com/m-ruiz/codex-usage-tui/internal/config"
	"github.com/m-ruiz/codex-usage-tui/internal/logger"
	"github.com/m-ruiz/codex-usage-tui/internal/server"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/tabs/info"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/tabs/sources"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/tabs/usage"
	"github.com/m-ruiz/codex-usage-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	var err error
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		err = runServer()
	} else {
		err = runTUI()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runServer hosts the JSON API until interrupted.
func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Setup(cfg.DataDir, cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	srv := server.New(cfg, mgr)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx, ln)
}

// runTUI runs the Bubble Tea dashboard.
func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Setup(cfg.DataDir, cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// Datasets come from a remote serve instance when configured, from the
	// local engine otherwise.
	var fetcher chart.Fetcher = mgr.Usage()
	if cfg.RemoteURL != "" {
		remote := client.New(cfg.RemoteURL)
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if !remote.Healthy(probeCtx) {
			fmt.Fprintf(os.Stderr, "Warning: remote API %s is not responding\n", cfg.RemoteURL)
		}
		cancel()
		fetcher = remote
	}

	model := app.NewModel(mgr)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		usage.New(fetcher),
		sources.New(state, mgr),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // hover needs pointer motion events
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Codex Usage TUI - token usage and uptime dashboard for Codex session logs

Usage:
  codexusage [flags]
  codexusage serve

Modes:
  (default)       Interactive TUI dashboard
  serve           Host the JSON API (GET /api/usage, /api/sources, ...)

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Usage, Sources, Info)
  Tab/Shift+Tab   Navigate between tabs
  d w m y a       Select the 1d/1w/1m/1y/all usage window
  Left/Right      Cycle through usage windows
  c               Pick a custom date range
  r               Refresh the active window
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CODEX_SESSIONS_DIR     Local Codex sessions directory
  CODEX_DATA_DIR         Data directory (sources, sync, scan cache)
  CODEX_REMOTE_URL       Fetch datasets from a codexusage serve instance
  CODEX_UPTIME_HOST      serve mode bind host (default 127.0.0.1)
  CODEX_UPTIME_PORT      serve mode bind port (default 8008)
  CODEX_LOG_LEVEL        Log file verbosity: debug, info, warn, error

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/codexusage/.env
  - ~/.codex/.env`)
}
