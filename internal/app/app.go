// Package app wires configuration into a running state layer and owns its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"animehub/internal/auth"
	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/kvstore"
	"animehub/internal/persist"
	"animehub/internal/restore"
	"animehub/internal/state"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Facilities *persist.Facilities
	Queue      *persist.Queue
	Store      *state.Store
	Catalog    *catalog.Catalog
	Auth       auth.Authenticator
}

// New opens both storage facilities and builds every component. The store
// stays not-ready until Restore runs.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	secure, err := kvstore.Open(ctx, storeOptions(cfg, cfg.SecureBackend), logger.With(zap.String("facility", "secure")))
	if err != nil {
		return nil, fmt.Errorf("failed to open secure facility: %w", err)
	}
	general, err := kvstore.Open(ctx, storeOptions(cfg, cfg.GeneralBackend), logger.With(zap.String("facility", "general")))
	if err != nil {
		secure.Close()
		return nil, fmt.Errorf("failed to open general facility: %w", err)
	}
	facilities, err := persist.NewFacilities(secure, general)
	if err != nil {
		secure.Close()
		general.Close()
		return nil, err
	}

	queue := persist.NewQueue(facilities, persist.DefaultOpTimeout, logger)
	client := catalog.NewClient(catalog.ClientConfig{
		URL:        cfg.CatalogURL,
		Timeout:    cfg.CatalogTimeout,
		RateLimit:  cfg.CatalogRateLimit,
		RateBurst:  cfg.CatalogRateBurst,
		MaxRetries: cfg.CatalogMaxRetries,
		PageSize:   cfg.CatalogPageSize,
	}, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Facilities: facilities,
		Queue:      queue,
		Store:      state.New(persist.NewWriter(queue, logger), logger),
		Catalog:    catalog.New(client, logger),
		Auth:       auth.NewMock(cfg.AuthLatency, logger),
	}, nil
}

func storeOptions(cfg *config.Config, backend string) kvstore.Options {
	return kvstore.Options{
		Backend:        backend,
		KeyringService: cfg.KeyringService,
		SQLitePath:     cfg.SQLitePath,
		PostgresURL:    cfg.PostgresURL,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		RedisPrefix:    cfg.RedisPrefix,
	}
}

// Restore loads persisted state and marks the store ready.
func (a *App) Restore(ctx context.Context) restore.Report {
	return restore.Run(ctx, a.Facilities, a.Store, a.Config.RestoreTimeout, a.Logger)
}

// NewSearcher returns a debounced searcher over the app's catalog.
func (a *App) NewSearcher(deliver func(catalog.Result)) *catalog.Searcher {
	return catalog.NewSearcher(a.Catalog, a.Config.SearchDebounce, deliver, a.Logger)
}

// Close flushes pending writes and closes both facilities.
func (a *App) Close(ctx context.Context) error {
	flushErr := a.Queue.Close(ctx)
	if flushErr != nil {
		flushErr = fmt.Errorf("pending writes not flushed: %w", flushErr)
	}
	return errors.Join(flushErr, a.Facilities.Close())
}
