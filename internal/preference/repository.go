package preference

import "context"

// Repository persists preferences.
type Repository interface {
	// Get returns ErrPreferenceNotFound for an unknown id.
	Get(ctx context.Context, id int64) (*Preference, error)

	// List returns every preference ordered by id.
	List(ctx context.Context) ([]*Preference, error)

	// Create inserts p and sets its ID.
	Create(ctx context.Context, p *Preference) error

	// Update overwrites the stored row. Returns ErrPreferenceNotFound if absent.
	Update(ctx context.Context, p *Preference) error

	// Delete returns ErrPreferenceNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// DistinctLocations returns every stored location once, sorted.
	DistinctLocations(ctx context.Context) ([]string, error)
}
