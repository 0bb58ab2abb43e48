package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/app"
	"github.com/pawhaven/rescuedesk/internal/logging"
	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/session"
	"github.com/pawhaven/rescuedesk/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rescuedesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.Open(logging.DefaultPath())
	if err != nil {
		// The UI owns the terminal, so without a log file diagnostics
		// are simply discarded.
		logger = logging.Nop()
	}
	defer logger.Close()

	tokens, err := session.OpenTokenStore()
	if err != nil {
		return fmt.Errorf("opening token store: %w", err)
	}

	s, err := store.NewSQLiteStore(cachePath())
	if err != nil {
		return fmt.Errorf("opening offline cache: %w", err)
	}
	defer s.Close()

	client := api.NewClient(cfg.Service.BaseURL, tokens)

	m := app.New(cfg, client, tokens, s, logger.Logger)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}

// cachePath returns the offline cache database location,
// ~/.config/rescuedesk/cache.db.
func cachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cache.db")
	}
	dir := filepath.Join(home, ".config", "rescuedesk")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "cache.db")
}
