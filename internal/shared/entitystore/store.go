// Package entitystore maintains a locally-coherent, order-preserving mirror
// of a remote collection reconciled from a stream of change events.
//
// The store is the sole owner of its entity list. Command services never
// write to it; mutations land remotely and come back through the change
// feed, so there is no optimistic-update/server-echo double-write to
// reconcile. The cost is a latency window between "request accepted" and
// "data visible", which callers must tolerate.
package entitystore

import "sync"

// Entity is anything with a stable, remote-assigned id.
type Entity interface {
	EntityID() string
}

// Store mirrors one remote collection. Entities are kept in remote order:
// the change feed delivers its initial snapshot oldest-first and live
// additions as they happen, and every add is inserted at the front, so the
// list stays newest-first throughout.
type Store[T Entity] struct {
	mu      sync.RWMutex
	items   []T
	index   map[string]int
	loading bool
}

// New creates an empty store in the loading state.
func New[T Entity]() *Store[T] {
	return &Store[T]{
		index:   make(map[string]int),
		loading: true,
	}
}

// ApplyAdded inserts an entity at the front of the list. Re-applying an
// already-known id is a no-op, which guards against duplicate delivery
// during resubscription. Entities without an id are dropped.
func (s *Store[T]) ApplyAdded(e T) {
	id := e.EntityID()
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return
	}

	s.items = append([]T{e}, s.items...)
	s.reindex()
	s.loading = false
}

// ApplyModified replaces the entity at its existing index in place. A modify
// for an unknown id means the event arrived before its add or belongs to an
// id never seen; the store ignores it silently and lets the next snapshot
// self-heal rather than surfacing an error.
func (s *Store[T]) ApplyModified(e T) {
	id := e.EntityID()
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return
	}
	s.items[i] = e
}

// ApplyRemoved filters the id out of the list. No-op if absent.
func (s *Store[T]) ApplyRemoved(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return
	}

	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
}

// Reset clears the store back to its empty/loading state. Invoked on
// sign-out and subscription teardown.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
	s.loading = true
}

// LoadSnapshot bulk-replaces the list from a one-shot query. Mutually
// exclusive with the incremental event path; the given order is kept as-is.
func (s *Store[T]) LoadSnapshot(entities []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]T, 0, len(entities))
	for _, e := range entities {
		if e.EntityID() == "" {
			continue
		}
		s.items = append(s.items, e)
	}
	s.reindex()
	s.loading = false
}

// Snapshot returns a copy of the current list for derived views.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks an entity up by id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	i, ok := s.index[id]
	if !ok {
		return zero, false
	}
	return s.items[i], true
}

// Len reports the number of mirrored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Loading reports whether the store has received any data since creation
// or its last reset.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// reindex rebuilds the id lookup. Callers hold the write lock.
func (s *Store[T]) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, e := range s.items {
		s.index[e.EntityID()] = i
	}
}
