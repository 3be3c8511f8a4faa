package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Backends holds the opened storage connections. Postgres and Redis are nil
// unless the configuration selects them.
type Backends struct {
	KV       KVStore
	Sessions KVStore
	Postgres *Postgres
	Redis    *Redis
}

// Close releases every open connection.
func (b *Backends) Close() {
	b.Postgres.Close()
	b.Redis.Close()
}

// Open connects the durable store and session store chosen by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{}

	needsRedis := cfg.Storage.Driver == config.StorageDriverRedis || cfg.Storage.SessionStore == "redis"
	if needsRedis {
		b.Redis = NewRedis(cfg.Redis, logger)
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.Postgres = pg
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.KV = NewPostgresKV(pg.Pool)
	case config.StorageDriverRedis:
		b.KV = NewRedisKV(b.Redis.Client, cfg.Redis.KeyPrefix, 0)
	default:
		fileKV, err := NewFileKV(cfg.Storage.FileDir)
		if err != nil {
			return nil, err
		}
		b.KV = fileKV
	}

	if cfg.Storage.SessionStore == "redis" {
		ttl := time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute
		b.Sessions = NewRedisKV(b.Redis.Client, cfg.Redis.KeyPrefix, ttl)
	} else {
		b.Sessions = NewMemoryKV()
	}

	logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("sessions", cfg.Storage.SessionStore))
	return b, nil
}
