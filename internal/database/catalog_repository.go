package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const catalogItemColumns = `id, category, variety, quantity, original_price, current_price,
	discount_percent, freshness_score, status, last_checked_at, created_at, updated_at`

func scanCatalogItem(row pgx.Row) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := row.Scan(
		&item.ID, &item.Category, &item.Variety, &item.Quantity,
		&item.OriginalPrice, &item.CurrentPrice, &item.DiscountPercent,
		&item.FreshnessScore, &item.Status, &item.LastCheckedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := scanCatalogItem(s.pool.QueryRow(ctx, `
		SELECT `+catalogItemColumns+`
		FROM catalog_items
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *Store) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.CatalogItem, error) {
	query := `SELECT ` + catalogItemColumns + ` FROM catalog_items WHERE 1=1`
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.MinDiscount > 0 {
		args = append(args, filter.MinDiscount)
		query += fmt.Sprintf(" AND discount_percent >= $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []domain.CatalogItem{}
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Store) CreateItem(ctx context.Context, item *domain.CatalogItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = domain.StatusFresh
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_items (id, category, variety, quantity, original_price,
			current_price, discount_percent, freshness_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING last_checked_at, created_at, updated_at
	`, item.ID, item.Category, item.Variety, item.Quantity, item.OriginalPrice,
		item.CurrentPrice, item.DiscountPercent, item.FreshnessScore, item.Status,
	).Scan(&item.LastCheckedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, item *domain.CatalogItem) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE catalog_items
		SET category = $1, variety = $2, quantity = $3, original_price = $4,
			current_price = $5, discount_percent = $6, freshness_score = $7,
			status = $8, last_checked_at = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`, item.Category, item.Variety, item.Quantity, item.OriginalPrice,
		item.CurrentPrice, item.DiscountPercent, item.FreshnessScore,
		item.Status, item.LastCheckedAt, item.ID,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
