package models

// EntityID identifies an entity for the lifetime of its process.
type EntityID uint64

// Component is a tagged unit of data or event attached to exactly one entity.
type Component interface {
	Kind() Kind
	EntityID() EntityID
	// Clone returns a detached copy. Wrapper events hold clones so nothing aliases across ticks.
	Clone() Component
}

// NetworkComponent is a component with a wire representation.
type NetworkComponent interface {
	Component
	Serialize() Record
}

// ComponentWrapper is an event that refers to another component.
type ComponentWrapper interface {
	Component
	Payload() Component
}

// Base carries the owner back-reference shared by every component.
type Base struct {
	Owner EntityID
}

func (b Base) EntityID() EntityID { return b.Owner }
