// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/DmarshalTU/jjzettel/internal/noterepo"
	"github.com/DmarshalTU/jjzettel/internal/noteservice"
	"github.com/DmarshalTU/jjzettel/internal/storage"
	"github.com/DmarshalTU/jjzettel/internal/tui"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize storage first: the log file lives inside the repository.
	store, err := storage.NewJujutsu(cfg.Repo.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Structured JSON logger writing to a file; stdout belongs to the TUI.
	logFile, err := os.OpenFile(filepath.Join(store.Root(), cfg.App.LogFile),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("repo_path", store.Root()),
		slog.Bool("watch_enabled", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Build the in-memory index from the store snapshot.
	repo := noterepo.New(store, logger)
	if err := repo.Load(); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	logger.Info("Notes loaded", slog.Int("count", repo.Len()))

	svc := noteservice.New(repo, logger)
	model := tui.New(svc, store.Root(), logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Watch the notes directory so external jj operations show up without
	// restarting.
	if cfg.Watch.Enabled {
		watcher := noterepo.NewWatcher(repo, store.NotesDir(), cfg.Watch.Debounce, logger, func() {
			program.Send(tui.ReloadMsg{})
		})
		g.Go(func() error {
			if err := watcher.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watcher error: %w", err)
			}
			return nil
		})
	}

	// Run the interactive program; quitting it shuts the watcher down.
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("program error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Application stopped")
	return nil
}
