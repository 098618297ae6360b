package models

import (
	"fmt"
	"sync"
)

// Registry is the authoritative set of live entities of one world.
type Registry struct {
	mu       sync.RWMutex
	entities map[EntityID]*Entity
	order    []EntityID
	nextID   EntityID
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[EntityID]*Entity),
		nextID:   1,
	}
}

// CreateEntity allocates a fresh id. Ids are never reused by the same registry.
func (r *Registry) CreateEntity() *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		id := r.nextID
		r.nextID++
		if _, taken := r.entities[id]; !taken {
			return r.registerLocked(id)
		}
	}
}

// CreateEntityWithID registers an entity under an id chosen elsewhere, e.g. the server's id
// on a replicating client.
func (r *Registry) CreateEntityWithID(id EntityID) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entities[id]; exists {
		return nil, fmt.Errorf("%w: %d", ErrEntityExists, id)
	}
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return r.registerLocked(id), nil
}

func (r *Registry) registerLocked(id EntityID) *Entity {
	e := newEntity(id)
	r.entities[id] = e
	r.order = append(r.order, id)
	return e
}

// GetEntity returns false for unknown or already removed ids.
func (r *Registry) GetEntity(id EntityID) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// AllEntities returns a snapshot in insertion order.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entities[id])
	}
	return out
}

// RemoveEntity unregisters id. Removing an unknown id is a no-op; the return value
// reports whether anything was removed.
func (r *Registry) RemoveEntity(id EntityID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[id]; !ok {
		return false
	}
	delete(r.entities, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
