// Package postgres owns the connection pool and schema migrations of the post store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/kailas-cloud/blogdex/internal/db"
	"github.com/kailas-cloud/blogdex/internal/db/postgres/migrations"
)

// Config holds connection parameters for the Postgres pool.
type Config struct {
	DSN      string
	MaxConns int32
}

// DB wraps a pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

// Open parses the DSN and creates a pool. Connections are dialed lazily.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Pool exposes the pool to repositories.
func (d *DB) Pool() *pgxpool.Pool { return d.pool }

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases all pooled connections.
func (d *DB) Close() { d.pool.Close() }

// WaitForReady polls Ping until the database responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Migrate applies all pending migrations from the embedded SQL files.
func (d *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(d.pool)
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	return nil
}

// MigrationVersion reports the current schema version.
func (d *DB) MigrationVersion(ctx context.Context) (int64, error) {
	sqlDB := stdlib.OpenDBFromPool(d.pool)
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}
	v, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return v, nil
}
