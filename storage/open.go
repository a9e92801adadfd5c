package storage

import (
	"context"
	"fmt"

	"github.com/example/todo-demo/config"
	"github.com/go-monolith/mono/pkg/types"
)

// Open selects and opens a backend once, at startup. With backend "auto" the
// SQLite database is tried first and the key-value store is used when it
// cannot be opened.
func Open(ctx context.Context, cfg config.Storage, logger types.Logger, opts ...Option) (Repository, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return openSQLite(cfg, logger, opts)
	case config.BackendKV:
		return openKV(ctx, cfg, logger, opts)
	case config.BackendAuto, "":
		repo, err := openSQLite(cfg, logger, opts)
		if err == nil {
			return repo, nil
		}
		logger.WithError(err).Warn("SQLite unavailable, falling back to key-value store",
			"path", cfg.SQLite.Path, "driver", cfg.KV.Driver)
		return openKV(ctx, cfg, logger, opts)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func openSQLite(cfg config.Storage, logger types.Logger, opts []Option) (Repository, error) {
	repo, err := OpenSQLite(cfg.SQLite.Path, cfg.SQLite.Debug, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened storage", "backend", BackendSQLite, "path", cfg.SQLite.Path)
	return repo, nil
}

func openKV(ctx context.Context, cfg config.Storage, logger types.Logger, opts []Option) (Repository, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.KV.Driver {
	case config.KVDriverRedis:
		kv, err = DialRedis(ctx, cfg.KV.Redis.Addr, cfg.KV.Redis.Password, cfg.KV.Redis.DB)
	case config.KVDriverFile, "":
		kv, err = NewFileKV(cfg.KV.Dir)
	default:
		return nil, fmt.Errorf("unknown kv driver %q", cfg.KV.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Opened storage", "backend", BackendKV, "driver", cfg.KV.Driver, "key", cfg.KV.Key)
	return NewKVRepository(kv, cfg.KV.Key, opts...), nil
}
