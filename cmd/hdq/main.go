// Package main is the entry point for hdq, the Help Devoir AI quota console.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/helpdevoir/hdq/internal/app"
	"github.com/helpdevoir/hdq/internal/config"
	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/services"
	"github.com/helpdevoir/hdq/internal/ui/tabs/dashboard"
	"github.com/helpdevoir/hdq/internal/ui/tabs/info"
	"github.com/helpdevoir/hdq/internal/ui/tabs/usage"
	"github.com/helpdevoir/hdq/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route structured logs before any service starts writing them
	logCloser, err := logger.Init(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		_ = logCloser.Close()
	}()

	logger.Info("starting hdq", "version", version.GetVersion(), "backend", cfg.StorageBackend)

	// 3. Initialize the service manager: ledger, recorder, guard and profile
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model and its tabs
	model := app.NewModel(svcManager)

	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state),         // Tab 0: Dashboard - remaining quota and projection
		usage.New(state, svcManager), // Tab 1: Usage - tokens and cost per model
		info.New(state, svcManager),  // Tab 2: Info - plans, models and configuration
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("hdq stopped")
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`hdq - Help Devoir AI quota console

Usage:
  hdq [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, Usage, Info)
  Tab/Shift+Tab   Navigate between tabs
  a               Ask the assistant (consumes quota)
  m               Switch to the next model that fits the budget
  p               View plans / switch plan
  d/w/M, t        Usage window: today, week, month, toggle
  x               Clear usage history (press twice)
  r               Refresh data
  Esc             Close the usage limit dialog
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  STORAGE_BACKEND         sqlite, file, redis or memory (default: sqlite)
  DATABASE_PATH           SQLite database path
  STORAGE_DIR             Directory for the file backend
  REDIS_ADDR              Redis address (default: localhost:6379)
  REDIS_PASSWORD          Redis password
  REDIS_DB                Redis database number
  REDIS_KEY_PREFIX        Redis key prefix (default: hdq:)
  PROFILE_PATH            Parent profile JSON file
  CATALOG_PATH            YAML model catalog (default: built-in)
  REQUEST_TOKEN_ESTIMATE  Tokens charged per request (default: 150)
  RESET_CHECK_INTERVAL    Quota reset polling interval (default: 1m)
  LOG_LEVEL               debug, info, warn or error (default: info)
  LOG_PATH                Log file (default: stderr)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/helpdevoir/hdq/.env
  - ~/.config/helpdevoir/.env`)
}
