package database

import (
	"context"
	"fmt"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements domain.Store on a PostgreSQL pool. CommitPricing runs in a
// single transaction; the partial unique index on recommendations backs the
// one-active-per-pair invariant even across concurrent writers.
type Store struct {
	pool *pgxpool.Pool
}

var _ domain.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CommitPricing persists a repriced item and its recommendation batch
// atomically. Either everything from the event lands or nothing does.
func (s *Store) CommitPricing(ctx context.Context, item *domain.CatalogItem, recs []domain.Recommendation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE catalog_items
		SET current_price = $1, discount_percent = $2, freshness_score = $3,
			status = $4, last_checked_at = $5, updated_at = NOW()
		WHERE id = $6
	`, item.CurrentPrice, item.DiscountPercent, item.FreshnessScore,
		item.Status, item.LastCheckedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	for _, rec := range recs {
		_, err := tx.Exec(ctx, `
			INSERT INTO recommendations (id, customer_id, item_id, priority_score, reason, viewed, purchased, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6)
			ON CONFLICT (id) DO UPDATE SET
				priority_score = EXCLUDED.priority_score,
				reason = EXCLUDED.reason,
				created_at = EXCLUDED.created_at
		`, rec.ID, rec.CustomerID, rec.ItemID, rec.PriorityScore, rec.Reason, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert recommendation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit pricing transaction: %w", err)
	}

	return nil
}
