package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tunes the pool behind the scheduling event log. The log gets one
// small INSERT per scheduling event, issued after the scheduler lock is
// released, so a handful of connections is enough.
type PoolOptions struct {
	AppName          string        // shown in pg_stat_activity
	MaxConns         int32         // default 4
	StatementTimeout time.Duration // default 2s, must stay below the scheduler's record timeout
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.AppName == "" {
		o.AppName = "operating-room-scheduler"
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 4
	}
	if o.StatementTimeout <= 0 {
		o.StatementTimeout = 2 * time.Second
	}
	return o
}

func poolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	opts = opts.withDefaults()

	cfg.MaxConns = opts.MaxConns
	// the event log is optional and bursty, connections open on demand
	cfg.MinConns = 0
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	cfg.ConnConfig.RuntimeParams["application_name"] = opts.AppName
	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)

	return cfg, nil
}

// ConnectPostgres opens the event log pool and checks connectivity.
func ConnectPostgres(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
