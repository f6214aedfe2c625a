package exercise

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/certlearn/stepwise/internal/domain"
)

// ErrNotFound indicates the requested exercise is not in the registry.
var ErrNotFound = errors.New("exercise not found")

// Registry provides cached access to loaded exercises.
type Registry struct {
	loader    *Loader
	mu        sync.RWMutex
	exercises map[string]*domain.Exercise
	loaded    bool
}

// NewRegistry creates a registry over a loader.
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:    loader,
		exercises: make(map[string]*domain.Exercise),
	}
}

// Load loads all exercises into memory.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exercises, err := r.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load exercises: %w", err)
	}

	for _, ex := range exercises {
		r.exercises[ex.ID] = ex
	}
	r.loaded = true
	return nil
}

// Reload clears the cache and loads again. Useful during content
// authoring.
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.exercises = make(map[string]*domain.Exercise)
	r.loaded = false
	r.mu.Unlock()
	return r.Load()
}

// Get returns an exercise by ID.
func (r *Registry) Get(id string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exercises[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ex, nil
}

// List returns all loaded exercises ordered by ID.
func (r *Registry) List() []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Exercise, 0, len(r.exercises))
	for _, ex := range r.exercises {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of loaded exercises.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exercises)
}
