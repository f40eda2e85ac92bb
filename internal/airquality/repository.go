package airquality

import (
	"context"
	"time"
)

// Repository stores readings. Readings are append-only.
type Repository interface {
	// Save inserts r and sets its ID.
	Save(ctx context.Context, r *Reading) error

	// ListSince returns readings taken at or after since, oldest first.
	ListSince(ctx context.Context, since time.Time) ([]*Reading, error)
}
