package matching

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// Registry is the in-memory table of active matching processes, keyed by
// blood request. It is owned by the scheduler instance and passed by
// handle to collaborators; there is no package-level state, so independent
// scheduler instances can coexist in tests.
//
// Mutations on a single process are serialized through a per-entry mutex.
// Entries for different requests can be worked on concurrently.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*registryEntry
}

type registryEntry struct {
	mu      sync.Mutex
	process *domain.Process
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*registryEntry),
	}
}

// Create registers a process for its request. A request can have at most
// one active process.
func (r *Registry) Create(p *domain.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[p.RequestID]; exists {
		return errors.ErrMatchingAlreadyActive
	}
	r.entries[p.RequestID] = &registryEntry{process: p}
	return nil
}

// Get returns a copy of the process for a request. The copy is safe to
// read without holding any lock.
func (r *Registry) Get(requestID uuid.UUID) (domain.Process, bool) {
	r.mu.RLock()
	e, ok := r.entries[requestID]
	r.mu.RUnlock()
	if !ok {
		return domain.Process{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.process, true
}

// WithProcess runs fn with exclusive access to the request's process. The
// entry mutex is held for the whole call, so a matching cycle and an
// administrative stop on the same process never interleave.
func (r *Registry) WithProcess(requestID uuid.UUID, fn func(p *domain.Process) error) error {
	r.mu.RLock()
	e, ok := r.entries[requestID]
	r.mu.RUnlock()
	if !ok {
		return errors.ErrProcessNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.process)
}

// Remove deletes the entry for a request. Called only after the process
// transitioned to completed.
func (r *Registry) Remove(requestID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, requestID)
}

// Due returns the request IDs of active processes whose next escalation
// time has passed. Order is unspecified; callers must not rely on it.
func (r *Registry) Due(now time.Time) []uuid.UUID {
	r.mu.RLock()
	type pair struct {
		id uuid.UUID
		e  *registryEntry
	}
	pairs := make([]pair, 0, len(r.entries))
	for id, e := range r.entries {
		pairs = append(pairs, pair{id: id, e: e})
	}
	r.mu.RUnlock()

	due := make([]uuid.UUID, 0, len(pairs))
	for _, p := range pairs {
		p.e.mu.Lock()
		if p.e.process.Due(now) {
			due = append(due, p.id)
		}
		p.e.mu.Unlock()
	}
	return due
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns copies of all registered processes.
func (r *Registry) Snapshot() []domain.Process {
	r.mu.RLock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]domain.Process, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, *e.process)
		e.mu.Unlock()
	}
	return out
}
