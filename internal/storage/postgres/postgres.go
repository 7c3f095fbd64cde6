// Package postgres archives finished battles in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tactics/internal/config"
)

// ApplicationName tags archive connections in pg_stat_activity.
const ApplicationName = "tactics-archive"

// ErrSchemaMissing is returned by CheckSchema when the battles table has not
// been migrated.
var ErrSchemaMissing = errors.New("archive schema missing; run cmd/migrate")

// Pool is the archive's connection pool.
type Pool struct {
	db *pgxpool.Pool
}

// NewPool connects to the archive database and pings it.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{db: db}, nil
}

// Health pings the archive, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.db.Ping(ctx); err != nil {
		return fmt.Errorf("archive unreachable: %w", err)
	}
	return nil
}

// CheckSchema reports ErrSchemaMissing unless the battles table exists.
func (p *Pool) CheckSchema(ctx context.Context) error {
	var present bool
	if err := p.db.QueryRow(ctx, `SELECT to_regclass('battles') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("checking archive schema: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// Battles returns the battle repository over this pool.
func (p *Pool) Battles() *BattleRepository { return NewBattleRepository(p.db) }

// Close releases all pool resources.
func (p *Pool) Close() { p.db.Close() }

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool { return p.db }
