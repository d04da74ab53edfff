// Package bootstrap wires the process-wide runtime shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema brings the schema up to date after connecting.
	ApplySchema bool
	// SkipRedis leaves the Redis client nil, for commands that never need it.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis. An unreachable Redis is
// not fatal; the returned client is then nil.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if opts.SkipRedis {
		return db, nil, nil
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// Close releases the database and Redis connections.
func Close(db *gorm.DB) {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = cache.Close()
}
