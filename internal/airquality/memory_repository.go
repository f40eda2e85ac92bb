package airquality

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository keeps readings in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	readings []*Reading
}

// NewInMemoryRepository returns an empty in-memory reading store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save appends a copy of r.
func (m *InMemoryRepository) Save(_ context.Context, r *Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	r.ID = m.nextID
	cpy := *r
	m.readings = append(m.readings, &cpy)
	return nil
}

// ListSince returns copies of the readings taken at or after since.
func (m *InMemoryRepository) ListSince(_ context.Context, since time.Time) ([]*Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Reading, 0)
	for _, r := range m.readings {
		if r.Timestamp.Before(since) {
			continue
		}
		cpy := *r
		out = append(out, &cpy)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
