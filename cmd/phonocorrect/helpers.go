package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/phonocorrect/internal/config"
	"github.com/Veraticus/phonocorrect/internal/engine"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/Veraticus/phonocorrect/internal/speech"
	"github.com/Veraticus/phonocorrect/internal/storage"
	"github.com/spf13/cobra"
)

// app bundles what most commands need: the database and the rule store over it.
type app struct {
	cfg   *config.Config
	db    *storage.SQLiteStorage
	store *rules.Store
}

// configFrom returns the configuration loaded by the root command.
func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// openApp opens and migrates the database and loads the rule store.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := rules.NewStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, store: store}, nil
}

// engine builds a correction engine over the app's store.
func (a *app) engine() *engine.Engine {
	return engine.NewWithConfig(a.store, nil, a.cfg.Engine())
}

// assistant reads text back with the configured speech program and voice.
func (a *app) assistant(eng *engine.Engine) *speech.Assistant {
	return speech.NewAssistant(nil, a.cfg.Synthesizer(), eng, a.cfg.Voice.VoiceOptions)
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}
