// Package postgres provides PostgreSQL persistence for saved scenarios using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/config"
)

// DefaultHealthTimeout bounds the reachability check run before a store is
// handed out.
const DefaultHealthTimeout = 5 * time.Second

// Pool owns the pgx connection pool shared by repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// PoolConfig translates cfg into a pgx pool configuration.
//
// Postcondition: Returns a config carrying cfg's connection limits, or an
// error if the DSN does not parse.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	return pc, nil
}

// NewPool connects to the scenario database and pings it once.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{pool: pool}
	if err := p.Health(ctx, DefaultHealthTimeout); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Health checks that the database answers within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Scenarios returns a ScenarioRepository over the pool.
func (p *Pool) Scenarios() *ScenarioRepository {
	return NewScenarioRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
