package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		platform TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		tracked BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (name, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id SERIAL PRIMARY KEY,
		product_id INTEGER NOT NULL REFERENCES products (id),
		price NUMERIC(12,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_product_recorded
		ON price_history (product_id, recorded_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id SERIAL PRIMARY KEY,
		product_id INTEGER NOT NULL REFERENCES products (id),
		target_price NUMERIC(12,2) NOT NULL,
		email TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'active' CHECK (state IN ('active', 'triggered')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_state ON alerts (state)`,
}

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
