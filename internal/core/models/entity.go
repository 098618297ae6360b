package models

import "fmt"

// Entity is an identity plus an ordered set of components, at most one per kind.
// Iteration follows insertion order; replacing a kind keeps its slot.
type Entity struct {
	id         EntityID
	order      []Kind
	components map[Kind]Component
	destroyed  bool
}

func newEntity(id EntityID) *Entity {
	return &Entity{
		id:         id,
		components: make(map[Kind]Component),
	}
}

// NewDetachedEntity builds an entity that no Registry knows about.
func NewDetachedEntity(id EntityID) *Entity {
	return newEntity(id)
}

func (e *Entity) ID() EntityID {
	return e.id
}

// AddComponent attaches c. It fails if c names a different owner.
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	if c.EntityID() != e.id {
		return fmt.Errorf("%w: %s owned by %d, entity %d", ErrForeignComponent, c.Kind(), c.EntityID(), e.id)
	}
	if e.destroyed {
		return ErrEntityDestroyed
	}
	kind := c.Kind()
	if _, exists := e.components[kind]; !exists {
		e.order = append(e.order, kind)
	}
	e.components[kind] = c
	return nil
}

// RemoveComponent detaches and returns the component of the given kind.
func (e *Entity) RemoveComponent(kind Kind) (Component, bool) {
	c, ok := e.components[kind]
	if !ok {
		return nil, false
	}
	delete(e.components, kind)
	for i, k := range e.order {
		if k == kind {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return c, true
}

func (e *Entity) GetComponent(kind Kind) (Component, bool) {
	c, ok := e.components[kind]
	return c, ok
}

func (e *Entity) HasComponent(kind Kind) bool {
	_, ok := e.components[kind]
	return ok
}

// Components returns the attached components in insertion order.
func (e *Entity) Components() []Component {
	out := make([]Component, 0, len(e.order))
	for _, k := range e.order {
		out = append(out, e.components[k])
	}
	return out
}

func (e *Entity) Kinds() []Kind {
	return append([]Kind(nil), e.order...)
}

// MarkDestroyed flags the entity; it stays registered until the registry removes it.
func (e *Entity) MarkDestroyed() {
	e.destroyed = true
}

func (e *Entity) IsDestroyed() bool {
	return e.destroyed
}

// Get is a typed GetComponent.
func Get[T Component](e *Entity, kind Kind) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	c, ok := e.components[kind]
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
