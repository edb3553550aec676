// Package store provides storage backends for completed reviews.
//
// It includes an in-memory store for tests and SQLite/Postgres backed stores
// for production, selected by DSN shape (see DetectDSNType).
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/reviewpipe/ReviewPipe/internal/models"
)

// Store is the review repository. SaveReview assigns the ID and CreatedAt
// and returns the persisted record; ListReviews returns all reviews newest
// first, recomputed on every call.
type Store interface {
	SaveReview(r models.Review) (models.Review, error)
	ListReviews() ([]models.Review, error)
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a simple in-memory review store used by tests.
type InMemoryStore struct {
	mu      sync.Mutex
	reviews []models.Review
	nextID  int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

// SaveReview assigns an ID and creation timestamp and appends the review.
func (s *InMemoryStore) SaveReview(r models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	r.CreatedAt = time.Now()
	s.reviews = append(s.reviews, r)
	return r, nil
}

// ListReviews returns all reviews ordered by CreatedAt descending, ID
// descending within equal timestamps.
func (s *InMemoryStore) ListReviews() ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Review, len(s.reviews))
	copy(out, s.reviews)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
