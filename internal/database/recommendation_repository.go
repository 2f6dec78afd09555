package database

import (
	"context"
	"fmt"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recommendationColumns = `id, customer_id, item_id, priority_score, reason, viewed, purchased, created_at`

func scanRecommendation(row pgx.Row) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := row.Scan(
		&rec.ID, &rec.CustomerID, &rec.ItemID, &rec.PriorityScore,
		&rec.Reason, &rec.Viewed, &rec.Purchased, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecommendations(rows pgx.Rows) ([]domain.Recommendation, error) {
	defer rows.Close()

	recs := []domain.Recommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (s *Store) ActiveForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recommendationColumns+`
		FROM recommendations
		WHERE item_id = $1 AND NOT viewed AND NOT purchased
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active recommendations: %w", err)
	}
	return collectRecommendations(rows)
}

func (s *Store) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recommendationColumns+`
		FROM recommendations
		WHERE customer_id = $1
		ORDER BY (viewed OR purchased), priority_score DESC, created_at DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer recommendations: %w", err)
	}
	return collectRecommendations(rows)
}

func (s *Store) MarkViewed(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE recommendations SET viewed = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark recommendation viewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecommendationNotFound
	}
	return nil
}
