package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_items (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStorage keeps items in a kv_items table reached through pgxpool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage parses databaseURL, establishes a connection pool and
// ensures the kv_items table exists.
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating kv_items table: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// GetItem returns the value stored under key.
func (p *PostgresStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_items WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying item: %w", err)
	}
	return value, true, nil
}

// SetItem upserts the value stored under key.
func (p *PostgresStorage) SetItem(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_items (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := p.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("writing item: %w", err)
	}
	return nil
}

// RemoveItem deletes key.
func (p *PostgresStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv_items WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
