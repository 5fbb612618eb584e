package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/config"
	"github.com/hackgods/sus-scheduling/internal/db"
	"github.com/hackgods/sus-scheduling/internal/identity"
	redisclient "github.com/hackgods/sus-scheduling/internal/redis"
	"github.com/hackgods/sus-scheduling/internal/store"
)

// app is the wired core: record backend, locker, identity manager and engine.
type app struct {
	identity *identity.Manager
	engine   *booking.Engine
	checks   map[string]store.Pinger
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the backend selected by STORE_BACKEND. Records and
// remembered sessions live in that backend; ephemeral sessions stay in this
// process. With postgres, a reachable Redis at REDIS_ADDR provides the
// cross-process locker, otherwise collection locks are process-local.
func buildApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{checks: map[string]store.Pinger{}}

	var (
		records store.Storage
		locker  store.Locker = store.NewMutexLocker()
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem := store.NewMemoryStorage()
		records = mem
		a.checks["memory"] = mem
		logger.Warn().Msg("using in-memory record store; data is lost on restart")

	case config.BackendRedis:
		rdb, err := connectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		rs := store.NewRedisStorage(rdb)
		records = rs
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		a.checks["redis"] = rs
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	case config.BackendPostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		ps := store.NewPgStorage(pool)
		records = ps
		a.checks["postgres"] = ps
		logger.Info().Msg("connected to Postgres")

		if cfg.RedisAddr != "" {
			rdb, err := connectRedis(ctx, cfg)
			if err != nil {
				logger.Warn().Err(err).Msg("redis unavailable, collection locks are process-local")
			} else {
				a.closers = append(a.closers, func() { _ = rdb.Close() })
				locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
				a.checks["redis"] = store.NewRedisStorage(rdb)
			}
		}

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	a.identity = identity.NewManager(records, store.NewMemoryStorage(), records, locker, identity.Options{
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})
	a.engine = booking.NewEngine(records, locker, a.identity, a.identity, booking.Options{
		Location: cfg.Location(),
		Logger:   logger,
	})

	return a, nil
}

// requirePersistentBackend stops one-shot commands whose writes would vanish
// with the process when STORE_BACKEND=memory.
func requirePersistentBackend(cfg config.Config, command string) error {
	if cfg.StoreBackend == config.BackendMemory {
		return fmt.Errorf("%s needs STORE_BACKEND=redis or postgres; the memory backend is discarded when the command exits", command)
	}
	return nil
}

func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("redis connection error: %w", err)
	}
	return rdb, nil
}

func connectPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(pgCtx, db.PoolOptions{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}
	return pool, nil
}
