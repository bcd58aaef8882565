// Package bootstrap wires the process-level dependencies shared by the
// server and the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"

	"faceblog/internal/cache"
	"faceblog/internal/config"
	"faceblog/internal/database"
	"faceblog/internal/middleware"
	"faceblog/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixtures creates the built-in categories and chat rooms.
	SeedFixtures bool
	// Demo, when set, also fills the database with fake activity.
	Demo *seed.Options
}

// Runtime holds the store handle and the optional Redis client.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// InitRuntime connects to the database (applying the schema) and to Redis.
// An empty or unreachable REDIS_URL leaves Redis nil.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rt := &Runtime{DB: db}
	if cfg.RedisURL != "" {
		rt.Redis = cache.Connect(ctx, cfg.RedisURL)
	} else {
		middleware.Logger.Info("REDIS_URL not set, running without Redis")
	}

	if opts.SeedFixtures {
		if _, _, err := seed.DefaultFixtures().Apply(ctx, db); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}
	if opts.Demo != nil {
		if _, err := seed.Seed(ctx, db, *opts.Demo); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return rt, nil
}

// Close releases Redis and the database pool.
func (rt *Runtime) Close() error {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Warn("closing redis", "error", err)
		}
	}
	return database.Close(rt.DB)
}
