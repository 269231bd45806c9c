// Package db opens the Postgres pool and applies schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings sizes the connection pool. Zero values keep the defaults.
type PoolSettings struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

var defaultPool = PoolSettings{MaxConns: 10, MinConns: 2, MaxConnIdleTime: 5 * time.Minute}

func poolConfig(databaseURL string, s PoolSettings) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if s.MaxConns == 0 {
		s.MaxConns = defaultPool.MaxConns
	}
	if s.MinConns == 0 {
		s.MinConns = defaultPool.MinConns
	}
	if s.MaxConnIdleTime == 0 {
		s.MaxConnIdleTime = defaultPool.MaxConnIdleTime
	}
	if s.MinConns > s.MaxConns {
		return nil, fmt.Errorf("pool min conns %d exceeds max conns %d", s.MinConns, s.MaxConns)
	}
	cfg.MaxConns = s.MaxConns
	cfg.MinConns = s.MinConns
	cfg.MaxConnIdleTime = s.MaxConnIdleTime
	return cfg, nil
}

// NewPool connects and pings, so a bad DATABASE_URL fails at startup.
func NewPool(ctx context.Context, databaseURL string, s PoolSettings) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(databaseURL, s)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
