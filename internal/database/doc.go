// Package database implements domain.Store on PostgreSQL via pgx.
//
// Schema is created by inline migrations at startup. The partial unique
// index on recommendations enforces one active row per (customer, item).
package database
