// Package kvstore holds the device-local key/value facilities. Values are
// opaque strings; callers encode them.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendKeyring  = "keyring"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures one facility.
type Options struct {
	Backend string

	KeyringService string

	SQLitePath  string
	PostgresURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// DialTimeout bounds the connectivity check done while opening.
	DialTimeout time.Duration
}

// Open builds the facility named by opts.Backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	logger = logger.Named("kvstore").With(zap.String("backend", opts.Backend))

	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendMemory:
		store = NewMemory()
	case BackendKeyring:
		store = NewKeyring(opts.KeyringService)
	case BackendSQLite:
		store, err = OpenSQLite(ctx, opts.SQLitePath)
	case BackendPostgres:
		store, err = OpenPostgres(ctx, opts.PostgresURL)
	case BackendRedis:
		store, err = OpenRedis(ctx, RedisOptions{
			Addr:        opts.RedisAddr,
			Password:    opts.RedisPassword,
			DB:          opts.RedisDB,
			Prefix:      opts.RedisPrefix,
			DialTimeout: opts.DialTimeout,
		})
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("store_opened")
	return store, nil
}
