package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanCustomer(row pgx.Row) (*domain.CustomerProfile, error) {
	var customer domain.CustomerProfile
	err := row.Scan(
		&customer.ID, &customer.ExternalID, &customer.Name, &customer.Email,
		&customer.Preferences.FavoriteCategories,
		&customer.Preferences.MaxPrice,
		&customer.Preferences.MinDiscountThreshold,
		&customer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.CustomerProfile, error) {
	customer, err := scanCustomer(s.pool.QueryRow(ctx, `
		SELECT id, external_id, name, email, favorite_categories, max_price, min_discount_threshold, created_at
		FROM customers
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.CustomerProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, name, email, favorite_categories, max_price, min_discount_threshold, created_at
		FROM customers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.CustomerProfile{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}
	return customers, rows.Err()
}

func (s *Store) CreateCustomer(ctx context.Context, customer *domain.CustomerProfile) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if customer.Preferences.FavoriteCategories == nil {
		customer.Preferences.FavoriteCategories = []string{}
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, external_id, name, email, favorite_categories, max_price, min_discount_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, customer.ID, customer.ExternalID, customer.Name, customer.Email,
		customer.Preferences.FavoriteCategories,
		customer.Preferences.MaxPrice,
		customer.Preferences.MinDiscountThreshold,
	).Scan(&customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}
