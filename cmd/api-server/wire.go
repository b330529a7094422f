package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/operating-room-scheduling/internal/api"
	"github.com/hackgods/operating-room-scheduling/internal/config"
	"github.com/hackgods/operating-room-scheduling/internal/db"
	redisclient "github.com/hackgods/operating-room-scheduling/internal/redis"
	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

// sinks holds the optional event destinations and their readiness checks.
type sinks struct {
	recorders surgery.MultiRecorder
	checks    map[string]api.DependencyCheck
	closers   []func()
}

func (s *sinks) add(name string, rec surgery.EventRecorder, check api.DependencyCheck) {
	if s.checks == nil {
		s.checks = make(map[string]api.DependencyCheck)
	}
	s.recorders = append(s.recorders, rec)
	s.checks[name] = check
}

// Close releases connections in reverse order of opening.
func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// connectSinks dials Postgres and Redis when they are configured. Neither is
// required; without them events are only logged.
func connectSinks(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*sinks, error) {
	s := &sinks{}

	if cfg.PostgresDSN != "" {
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
			AppName:  "api-server",
			MaxConns: cfg.PostgresMaxConns,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		store := surgery.NewPgEventStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		s.add("postgres", store, pool.Ping)
		logger.Info().Int32("max_conns", cfg.PostgresMaxConns).Msg("connected to Postgres, event log enabled")
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		s.closers = append(s.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		})

		s.add("redis", redisclient.NewEventPublisher(rdb, cfg.EventsChannel),
			func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info().Str("channel", cfg.EventsChannel).Msg("connected to Redis, event publishing enabled")
	}

	return s, nil
}

// buildServer wires the scheduler over the configured rooms and sinks and
// mounts it on an HTTP server. It does not start listening.
func buildServer(cfg config.Config, logger zerolog.Logger, s *sinks) (*http.Server, *surgery.Scheduler) {
	schedulerCfg := surgery.SchedulerConfig{
		HorizonDays: cfg.HorizonDays,
		Logger:      &logger,
	}
	if len(s.recorders) > 0 {
		schedulerCfg.Recorder = s.recorders
	}
	scheduler := surgery.NewScheduler(cfg.BuildRooms(), schedulerCfg)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Scheduler: scheduler,
			Logger:    logger,
			Checks:    s.checks,
			Env:       cfg.Env,
			Version:   version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, scheduler
}
