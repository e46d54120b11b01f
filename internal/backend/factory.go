// Package backend selects and wires the data source at startup. The choice
// is made once from configuration; there is no runtime fallback between
// backends.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneytrack/internal/amqp"
	"moneytrack/internal/config"
	"moneytrack/internal/datasource"
	"moneytrack/internal/datasource/memory"
	gsheet "moneytrack/internal/sheets/google"
	"moneytrack/internal/storage"
)

// Result bundles the chosen data source with its optional event publisher
// and cleanup hook.
type Result struct {
	Data    datasource.DataSource
	Events  *amqp.Client
	Cleanup func() error
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "sqlite":
		return f.createSQLite(cfg)
	case "sheets":
		return f.createSheets(ctx)
	case "memory":
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// The broker is optional: a failed connection degrades to local-only.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			events = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", events != nil)

	cleanup := func() error {
		if events != nil {
			if err := events.Close(); err != nil {
				f.logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		return repo.Close()
	}

	return &Result{Data: repo, Events: events, Cleanup: cleanup}, nil
}

func (f *Factory) createSheets(ctx context.Context) (*Result, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend (read-only)")
	return &Result{Data: cli, Cleanup: noCleanup}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	f.logger.Info("Initialized in-memory backend")
	return &Result{Data: memory.NewSeeded(), Cleanup: noCleanup}, nil
}

func noCleanup() error { return nil }
