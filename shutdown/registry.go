package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func releases one resource during shutdown.
type Func func(ctx context.Context) error

// Cleanup priorities used by the server. Lower runs first.
const (
	PriorityHTTP    = 10 // stop accepting connections
	PriorityWorkers = 20 // stop watchers and hubs
	PriorityModel   = 30 // release the network pool
	PriorityFiles   = 40 // remove transient uploads
	PriorityLogs    = 90 // flush the logger last
)

type registryEntry struct {
	name     string
	fn       Func
	priority int
	seq      int
}

// Registry holds cleanup functions ordered by priority. Entries with equal
// priority run in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn. Registration after Run is ignored.
func (r *Registry) Register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.entries = append(r.entries, registryEntry{name: name, fn: fn, priority: priority, seq: len(r.entries)})
}

// Run calls every function in priority order, even when some fail, and
// returns the failures wrapped with their names. Run executes at most once.
func (r *Registry) Run(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sorted := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}

// Names returns registered names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.sortedLocked()
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sortedLocked() []registryEntry {
	sorted := make([]registryEntry, len(r.entries))
	copy(sorted, r.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].priority != sorted[j].priority {
			return sorted[i].priority < sorted[j].priority
		}
		return sorted[i].seq < sorted[j].seq
	})
	return sorted
}
