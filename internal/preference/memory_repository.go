package preference

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository keeps preferences in process memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	prefs  map[int64]*Preference
}

// NewInMemoryRepository creates an empty in-memory preference store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{prefs: make(map[int64]*Preference)}
}

func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prefs[id]
	if !ok {
		return nil, ErrPreferenceNotFound
	}
	return clonePreference(p), nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]*Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Preference, 0, len(r.prefs))
	for _, p := range r.prefs {
		out = append(out, clonePreference(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p *Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	r.prefs[p.ID] = clonePreference(p)
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, p *Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prefs[p.ID]; !ok {
		return ErrPreferenceNotFound
	}
	r.prefs[p.ID] = clonePreference(p)
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prefs[id]; !ok {
		return ErrPreferenceNotFound
	}
	delete(r.prefs, id)
	return nil
}

func (r *InMemoryRepository) DistinctLocations(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range r.prefs {
		if _, ok := seen[p.Location]; ok {
			continue
		}
		seen[p.Location] = struct{}{}
		out = append(out, p.Location)
	}
	sort.Strings(out)
	return out, nil
}

func clonePreference(p *Preference) *Preference {
	cpy := *p
	if p.Email != nil {
		email := *p.Email
		cpy.Email = &email
	}
	return &cpy
}

var _ Repository = (*InMemoryRepository)(nil)
