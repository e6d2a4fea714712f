// Package postgres persists actors and compendium content in PostgreSQL
// using pgx v5. Repositories share one Pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthvtt/levelforge/internal/config"
)

// Pool owns the pgx connection pool handed to the repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool opens a connection pool and verifies the database answers.
//
// Precondition: cfg must carry a well-formed DSN.
// Postcondition: Returns a Pool that has succeeded at least one ping, or a
// non-nil error with no pool left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health pings the database, bounding the wait by timeout.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the raw pgxpool.Pool for repository construction.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
