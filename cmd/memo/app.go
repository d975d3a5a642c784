package main

import (
	"context"
	"fmt"
	"log/slog"

	"example.com/tempmemo/internal/config"
	"example.com/tempmemo/internal/db"
	"example.com/tempmemo/internal/expiry"
	"example.com/tempmemo/internal/memos"
	"example.com/tempmemo/internal/service"
)

// app is everything a command needs, opened from the environment.
type app struct {
	cfg      config.Config
	db       *db.DB
	repo     *memos.Repository
	coord    *expiry.Coordinator
	settings *config.SettingsStore
	svc      *service.Service
	logger   *slog.Logger
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := slog.Default()

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo, err := memos.NewRepository(ctx, conn.SQL)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("prepare repository: %w", err)
	}

	settings, err := config.NewSettingsStore(cfg.SettingsPath, logger)
	if err != nil {
		_ = repo.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	coord := expiry.NewCoordinator(repo, logger)
	svc := service.New(repo, coord,
		service.WithLogger(logger),
		service.WithSettings(settings),
	)

	logger.Debug("memo store opened", "driver", cfg.DatabaseDriver, "settings", cfg.SettingsPath)
	return &app{
		cfg:      cfg,
		db:       conn,
		repo:     repo,
		coord:    coord,
		settings: settings,
		svc:      svc,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("close repository", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}

// withApp opens the app for the duration of one command.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
