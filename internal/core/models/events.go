package models

var (
	_ ComponentWrapper = (*ComponentAddedEvent)(nil)
	_ ComponentWrapper = (*ComponentRemovedEvent)(nil)
	_ NetworkComponent = (*ComponentAddedEvent)(nil)
	_ NetworkComponent = (*ComponentRemovedEvent)(nil)
	_ NetworkComponent = (*EntityDestroyedEvent)(nil)
	_ NetworkComponent = (*ChatMessageEvent)(nil)
)

// ComponentAddedEvent announces that a component was attached to an entity.
// It holds a clone of the payload taken at emission time.
type ComponentAddedEvent struct {
	Base
	payload Component
}

func NewComponentAddedEvent(c Component) *ComponentAddedEvent {
	return &ComponentAddedEvent{Base: Base{Owner: c.EntityID()}, payload: c.Clone()}
}

func (e *ComponentAddedEvent) Kind() Kind         { return KindComponentAddedEvent }
func (e *ComponentAddedEvent) Payload() Component { return e.payload }
func (e *ComponentAddedEvent) PayloadKind() Kind  { return e.payload.Kind() }
func (e *ComponentAddedEvent) Clone() Component   { return NewComponentAddedEvent(e.payload) }

// Serialize emits the payload's own record; an added replicated component travels as its state.
// Payloads without a wire form yield nil and are skipped by the encoder.
func (e *ComponentAddedEvent) Serialize() Record {
	if nc, ok := e.payload.(NetworkComponent); ok {
		return nc.Serialize()
	}
	return nil
}

// ComponentRemovedEvent announces that a component was detached from an entity.
type ComponentRemovedEvent struct {
	Base
	payload Component
}

func NewComponentRemovedEvent(c Component) *ComponentRemovedEvent {
	return &ComponentRemovedEvent{Base: Base{Owner: c.EntityID()}, payload: c.Clone()}
}

func (e *ComponentRemovedEvent) Kind() Kind         { return KindComponentRemovedEvent }
func (e *ComponentRemovedEvent) Payload() Component { return e.payload }
func (e *ComponentRemovedEvent) PayloadKind() Kind  { return e.payload.Kind() }
func (e *ComponentRemovedEvent) Clone() Component   { return NewComponentRemovedEvent(e.payload) }

func (e *ComponentRemovedEvent) Serialize() Record {
	return ComponentRemovedRecord{T: KindComponentRemoved, ID: e.Owner, Removed: e.payload.Kind()}
}

// EntityDestroyedEvent tells peers that an entity and everything on it is gone.
type EntityDestroyedEvent struct {
	Base
}

func NewEntityDestroyedEvent(id EntityID) *EntityDestroyedEvent {
	return &EntityDestroyedEvent{Base: Base{Owner: id}}
}

func (e *EntityDestroyedEvent) Kind() Kind { return KindEntityDestroyed }

func (e *EntityDestroyedEvent) Clone() Component {
	cp := *e
	return &cp
}

func (e *EntityDestroyedEvent) Serialize() Record {
	return EntityDestroyedRecord{T: KindEntityDestroyed, ID: e.Owner}
}

// ChatMessageEvent is raised when a chat line is sent. It lives on the chat entity.
type ChatMessageEvent struct {
	Base
	Sender  string
	Content string
}

func NewChatMessageEvent(owner EntityID, sender, content string) *ChatMessageEvent {
	return &ChatMessageEvent{Base: Base{Owner: owner}, Sender: sender, Content: content}
}

func (e *ChatMessageEvent) Kind() Kind { return KindChatMessage }

func (e *ChatMessageEvent) Clone() Component {
	cp := *e
	return &cp
}

func (e *ChatMessageEvent) Serialize() Record {
	return ChatMessageRecord{T: KindChatMessage, ID: e.Owner, Sender: e.Sender, Content: e.Content}
}

// EventListComponent holds the events of the current tick in emission order.
type EventListComponent struct {
	Base
	events []Component
}

func NewEventListComponent(owner EntityID) *EventListComponent {
	return &EventListComponent{Base: Base{Owner: owner}}
}

func (c *EventListComponent) Kind() Kind { return KindEventList }

func (c *EventListComponent) Clone() Component {
	return &EventListComponent{Base: c.Base, events: append([]Component(nil), c.events...)}
}

func (c *EventListComponent) AddEvent(e Component) {
	c.events = append(c.events, e)
}

// Events returns a copy of the current list.
func (c *EventListComponent) Events() []Component {
	return append([]Component(nil), c.events...)
}

func (c *EventListComponent) Len() int {
	return len(c.events)
}

// RemoveAllEvents empties the list and releases its references.
func (c *EventListComponent) RemoveAllEvents() {
	clear(c.events)
	c.events = c.events[:0]
}

// NetworkDataComponent queues the components a replication layer must emit this tick.
type NetworkDataComponent struct {
	Base
	components []NetworkComponent
}

func NewNetworkDataComponent(owner EntityID) *NetworkDataComponent {
	return &NetworkDataComponent{Base: Base{Owner: owner}}
}

func (c *NetworkDataComponent) Kind() Kind { return KindNetworkData }

func (c *NetworkDataComponent) Clone() Component {
	return &NetworkDataComponent{Base: c.Base, components: append([]NetworkComponent(nil), c.components...)}
}

func (c *NetworkDataComponent) AddComponent(nc NetworkComponent) {
	c.components = append(c.components, nc)
}

func (c *NetworkDataComponent) Components() []NetworkComponent {
	return append([]NetworkComponent(nil), c.components...)
}

func (c *NetworkDataComponent) Len() int {
	return len(c.components)
}

func (c *NetworkDataComponent) RemoveAllComponents() {
	clear(c.components)
	c.components = c.components[:0]
}
