package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/jobboard-ui-api/config"
	redisadapter "github.com/target/jobboard-ui-api/internal/adapters/redis"
	"github.com/target/jobboard-ui-api/internal/bootstrap"
	"github.com/target/jobboard-ui-api/internal/data"
	"github.com/target/jobboard-ui-api/internal/ports"
)

var errMemoryCache = errors.New("the memory session cache lives inside the server process; nothing to administer")

// cacheHandle is an open session cache plus whatever closes its connection.
type cacheHandle struct {
	Admin ports.SessionCacheAdmin
	// Purger is nil for caches with native key expiry.
	Purger ports.ExpiredSessionPurger
	Close  func() error
}

// openSessionCache connects the session cache selected by SESSION_CACHE_DRIVER.
func openSessionCache(_ context.Context, logger *slog.Logger, cfg *config.AppConfig) (*cacheHandle, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	switch cfg.SessionCache.Driver {
	case config.SessionCachePostgres:
		db, err := bootstrap.ConnectDB(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		repo := data.NewClientSessionRepo(data.ClientSessionRepoOptions{DB: db, TTL: cfg.SessionCache.TTL})
		return &cacheHandle{Admin: repo, Purger: repo, Close: db.Close}, nil
	case config.SessionCacheRedis:
		client, err := bootstrap.ConnectRedis(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cache := redisadapter.NewSessionCache(redisadapter.SessionCacheOptions{
			Client: client,
			Prefix: cfg.SessionCache.KeyPrefix,
			TTL:    cfg.SessionCache.TTL,
		})
		return &cacheHandle{Admin: cache, Close: client.Close}, nil
	default:
		return nil, errMemoryCache
	}
}

func (h *cacheHandle) close(logger *slog.Logger) {
	if h == nil || h.Close == nil {
		return
	}
	if err := h.Close(); err != nil {
		logger.Warn("session cache close failed", "error", err)
	}
}
