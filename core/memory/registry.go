package memory

import (
	"net/url"
	"path/filepath"
	"sync"

	"github.com/flowlearn/pawfessor/core"
)

// Registry hands out one loaded Store per user.
// It is built once at start up and shared by everything that needs memories.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*Store
	newSlot func(userID string) Slot
	logger  core.Logger
}

// NewRegistry keeps each user's memories in `<dir>/<userID>.json`.
func NewRegistry(dir string, logger core.Logger) *Registry {
	return &Registry{
		stores: make(map[string]*Store),
		newSlot: func(userID string) Slot {
			return NewFileSlot(filepath.Join(dir, url.PathEscape(userID)+".json"))
		},
		logger: logger,
	}
}

// NewVolatileRegistry keeps memories in process memory only.
func NewVolatileRegistry(logger core.Logger) *Registry {
	return &Registry{
		stores:  make(map[string]*Store),
		newSlot: func(string) Slot { return NewVolatileSlot() },
		logger:  logger,
	}
}

// For returns the user's Store, loading it on first access.
// Loading happens outside the registry lock; concurrent callers for the same user wait for it.
func (r *Registry) For(userID string) *Store {
	r.mu.Lock()
	s, ok := r.stores[userID]
	if !ok {
		s = NewStore(r.newSlot(userID), r.logger)
		r.stores[userID] = s
	}
	r.mu.Unlock()

	s.ensureLoaded()
	return s
}

// Purge clears the user's memories (slot included) and forgets the Store.
func (r *Registry) Purge(userID string) {
	r.For(userID).Clear()

	r.mu.Lock()
	delete(r.stores, userID)
	r.mu.Unlock()
}
