// Package bootstrap opens the shared dependencies of the binaries: the
// database pool, the optional Redis client, the snapshot archive and the
// engagement service built on top of them.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/engagement-analytics/internal/cache"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
	"github.com/ignite/engagement-analytics/internal/repository/postgres"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
	"github.com/ignite/engagement-analytics/internal/storage"
)

// Deps holds everything a binary needs. Redis and Archive may be nil.
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	Archive storage.Archive
	Service *engagement.Service
}

// OpenDB opens and pings the PostgreSQL pool.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// OpenRedis connects to Redis. An empty URL or an unreachable server yields
// a nil client; the cache and Redis lock are then skipped.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("[Bootstrap] redis unavailable, continuing without cache", "error", err)
		client.Close()
		return nil
	}
	return client
}

// Open builds the full dependency set from cfg.
func Open(ctx context.Context, cfg *config.Config) (*Deps, error) {
	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, "up"); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	d := &Deps{DB: db, Redis: OpenRedis(ctx, cfg.Redis), Archive: archive}

	var opts []engagement.Option
	if d.Redis != nil && cfg.Redis.CacheTTL() > 0 {
		opts = append(opts, engagement.WithCache(cache.NewReportCache(d.Redis, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL())))
	}
	if archive != nil {
		opts = append(opts, engagement.WithArchive(archive))
	}
	d.Service = engagement.NewService(
		postgres.NewEventRepo(db),
		postgres.NewSubscriberRepo(db),
		postgres.NewTemplateRepo(db),
		opts...,
	)

	logger.Info("[Bootstrap] dependencies ready",
		"redis", d.Redis != nil,
		"storage", cfg.Storage.Type,
		"cache_ttl_seconds", cfg.Redis.CacheTTLSeconds)
	return d, nil
}

// Close releases the database pool and Redis client.
func (d *Deps) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
