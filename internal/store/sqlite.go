// Package store provides storage backends for completed reviews.
//
// This file implements the SQLite-backed review store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/reviewpipe/ReviewPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists reviews in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite store with the given options. The DSN is a
// file path; the parent directory is created if it doesn't exist, and
// migrations run at open.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "dsn_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("SQLiteStore failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore migrations applied")

	return &SQLiteStore{db: db}, nil
}

// SaveReview inserts a review, stamping CreatedAt here since SQLite has no
// RETURNING-friendly server default in this schema.
func (s *SQLiteStore) SaveReview(r models.Review) (models.Review, error) {
	r.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO reviews (contact_number, user_name, product_name, product_review, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ContactNumber, nullIfNil(r.UserName), nullIfNil(r.ProductName), nullIfNil(r.ProductReview), r.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.SaveReview: insert failed", "error", err, "contact", r.ContactNumber)
		return models.Review{}, fmt.Errorf("failed to insert review for %s: %w", r.ContactNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to read inserted review id: %w", err)
	}
	r.ID = id
	slog.Debug("SQLiteStore.SaveReview: review stored", "id", r.ID, "contact", r.ContactNumber)
	return r, nil
}

// ListReviews returns all reviews newest first.
func (s *SQLiteStore) ListReviews() ([]models.Review, error) {
	rows, err := s.db.Query(
		`SELECT id, contact_number, user_name, product_name, product_review, created_at FROM reviews ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		slog.Error("SQLiteStore.ListReviews: query failed", "error", err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			slog.Error("SQLiteStore.ListReviews: scan failed", "error", err)
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore.ListReviews: rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	slog.Debug("SQLiteStore.ListReviews: reviews fetched", "count", len(reviews))
	return reviews, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
