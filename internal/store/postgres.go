// Package store provides storage backends for completed reviews.
//
// This file implements the PostgreSQL-backed review store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/reviewpipe/ReviewPipe/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists reviews in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres store based on provided options and
// runs migrations at open.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "dsn_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("PostgresStore failed to open connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore migrations applied")

	return &PostgresStore{db: db}, nil
}

// SaveReview inserts a review; id and created_at come back from the database.
func (s *PostgresStore) SaveReview(r models.Review) (models.Review, error) {
	err := s.db.QueryRow(
		`INSERT INTO reviews (contact_number, user_name, product_name, product_review) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		r.ContactNumber, nullIfNil(r.UserName), nullIfNil(r.ProductName), nullIfNil(r.ProductReview),
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveReview: insert failed", "error", err, "contact", r.ContactNumber)
		return models.Review{}, fmt.Errorf("failed to insert review for %s: %w", r.ContactNumber, err)
	}
	slog.Debug("PostgresStore.SaveReview: review stored", "id", r.ID, "contact", r.ContactNumber)
	return r, nil
}

// ListReviews returns all reviews newest first.
func (s *PostgresStore) ListReviews() ([]models.Review, error) {
	rows, err := s.db.Query(
		`SELECT id, contact_number, user_name, product_name, product_review, created_at FROM reviews ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		slog.Error("PostgresStore.ListReviews: query failed", "error", err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			slog.Error("PostgresStore.ListReviews: scan failed", "error", err)
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore.ListReviews: rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	slog.Debug("PostgresStore.ListReviews: reviews fetched", "count", len(reviews))
	return reviews, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
