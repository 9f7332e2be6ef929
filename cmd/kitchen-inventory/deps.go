package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kitchen-inventory/internal/app"
	"kitchen-inventory/internal/config"
	"kitchen-inventory/internal/database"
	"kitchen-inventory/internal/datasheet"
	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/llm"
	"kitchen-inventory/internal/logger"
	"kitchen-inventory/internal/metrics"
	"kitchen-inventory/internal/storage"
)

// deps is everything a command needs, opened from the environment.
type deps struct {
	cfg     *config.Config
	app     *app.App
	closers []func() error
}

// openDeps loads configuration and opens the database and snapshot store.
// withLLM additionally builds the datasheet extractor and fails when the
// selected provider has no API key.
func openDeps(ctx context.Context, withLLM bool) (*deps, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Env)

	d := &deps{cfg: cfg}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	d.closers = append(d.closers, db.Close)

	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotPath)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	var extractor app.DatasheetExtractor
	if withLLM {
		textGen, err := llm.NewTextGenerator(ctx, cfg)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		if c, ok := textGen.(llm.Closer); ok {
			d.closers = append(d.closers, c.Close)
		}
		extractor = datasheet.NewExtractor(textGen, datasheet.NewFetcher(nil))
		logger.L().Debug("datasheet extractor ready", zap.String("provider", cfg.LLMProvider))
	}

	d.app = app.NewApp(cfg, inventory.NewRepository(db.SQL), snapshots, metrics.NewStore(db.SQL), extractor)
	return d, nil
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.L().Warn("failed to close resource", zap.Error(err))
		}
	}
	d.closers = nil
}
