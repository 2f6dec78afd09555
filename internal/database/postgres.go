package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.ConnConfig.Tracer = &MetricsTracer{}

	slog.Info("Database SSL mode", "sslmode", extractSSLMode(databaseURL))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS catalog_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			category TEXT NOT NULL,
			variety TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL DEFAULT 0,
			original_price DOUBLE PRECISION NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			discount_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			freshness_score DOUBLE PRECISION NOT NULL DEFAULT 100,
			status TEXT NOT NULL DEFAULT 'fresh',
			last_checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_items_category ON catalog_items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_items_status ON catalog_items(status)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			external_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			favorite_categories TEXT[] NOT NULL DEFAULT '{}',
			max_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			min_discount_threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			item_id UUID NOT NULL REFERENCES catalog_items(id) ON DELETE CASCADE,
			priority_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			reason JSONB NOT NULL DEFAULT '{}',
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			purchased BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_customer_id ON recommendations(customer_id)`,
		// The partial unique index is what enforces one active recommendation
		// per (customer, item); inactive rows are history and may repeat.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_recommendation
			ON recommendations(customer_id, item_id)
			WHERE NOT viewed AND NOT purchased`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed successfully")
	return nil
}
