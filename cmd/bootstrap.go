package cmd

import (
	"context"
	"fmt"

	"media-store/core/config"
	"media-store/core/logger"
	"media-store/core/media"
	"media-store/core/storage"

	"go.uber.org/zap"
)

// app bundles what every command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.Client
	provider *media.Provider
}

// bootstrap loads the configuration and builds the logger, storage client and
// media provider.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	if cfg.Storage.CreateBucket {
		bucket := cfg.Media.Bucket
		if bucket == "" {
			bucket = cfg.Storage.Bucket
		}
		if err := storage.EnsureBucket(ctx, store, bucket); err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:      cfg,
		logger:   logg,
		store:    store,
		provider: media.NewProvider(store, cfg.Media, cfg.Storage.Bucket, logg),
	}, nil
}
