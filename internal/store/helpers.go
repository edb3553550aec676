package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/reviewpipe/ReviewPipe/internal/models"
)

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Postgres DSNs
// are URL-style (postgres:// or postgresql://) or key=value connection
// strings; everything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// nullIfNil converts an optional string field to a driver value.
// Used for nullable database columns.
func nullIfNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// scanReview scans a Review from sql.Rows. Column order:
// id, contact_number, user_name, product_name, product_review, created_at.
func scanReview(rows *sql.Rows) (models.Review, error) {
	var r models.Review
	var userName, productName, productReview sql.NullString
	err := rows.Scan(&r.ID, &r.ContactNumber, &userName, &productName, &productReview, &r.CreatedAt)
	if err != nil {
		return r, fmt.Errorf("scan review failed: %w", err)
	}
	if userName.Valid {
		r.UserName = &userName.String
	}
	if productName.Valid {
		r.ProductName = &productName.String
	}
	if productReview.Valid {
		r.ProductReview = &productReview.String
	}
	return r, nil
}
