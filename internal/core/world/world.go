package world

import (
	"context"
	"sync"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
)

// World is the simulation context threaded through every system call. It owns the entity
// registry and the event system of one simulation, so several worlds can live in one
// process.
type World struct {
	registry *models.Registry
	events   *events.System
	logger   log.Log

	mu             sync.Mutex
	tick           uint64
	pendingDestroy []models.EntityID
	closed         bool
}

func New(logger log.Log) *World {
	if logger == nil {
		logger = log.NewNop()
	}
	return &World{
		registry: models.NewRegistry(),
		events:   events.NewSystem(logger),
		logger:   logger.With(log.String("component", "world")),
	}
}

func (w *World) Registry() *models.Registry { return w.registry }
func (w *World) Events() *events.System     { return w.events }
func (w *World) Logger() log.Log            { return w.logger }

// Entities is the snapshot systems iterate during one pass.
func (w *World) Entities() []*models.Entity {
	return w.registry.AllEntities()
}

func (w *World) Entity(id models.EntityID) (*models.Entity, bool) {
	return w.registry.GetEntity(id)
}

// Tick returns the number of the tick in progress.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// BeginTick advances the tick counter and returns a context carrying it.
func (w *World) BeginTick(ctx context.Context) (context.Context, uint64) {
	w.mu.Lock()
	w.tick++
	tick := w.tick
	w.mu.Unlock()
	return log.ContextWithTick(ctx, tick), tick
}

func (w *World) CreateEntity() *models.Entity {
	return w.registry.CreateEntity()
}

func (w *World) CreateEntityWithID(id models.EntityID) (*models.Entity, error) {
	return w.registry.CreateEntityWithID(id)
}

// AddComponent attaches c to e and announces it. Broadcast kinds are also listed for the
// network, so peers receive the new state this tick.
func (w *World) AddComponent(e *models.Entity, c models.Component) error {
	if err := e.AddComponent(c); err != nil {
		return err
	}

	if nc, ok := c.(models.NetworkComponent); ok && c.Kind().Broadcast() {
		w.events.AddNetworkEvent(models.NewComponentAddedEvent(nc))
		return nil
	}
	w.events.OnComponentAdded(c)
	return nil
}

// RemoveComponent detaches the component of kind from e and announces it.
func (w *World) RemoveComponent(e *models.Entity, kind models.Kind) (models.Component, bool) {
	c, ok := e.RemoveComponent(kind)
	if !ok {
		return nil, false
	}

	if kind.Broadcast() {
		w.events.AddNetworkEvent(models.NewComponentRemovedEvent(c))
	} else {
		w.events.OnComponentRemoved(c)
	}
	return c, true
}

// Replicate queues a snapshot of a changed component for this tick's frame.
func (w *World) Replicate(c models.NetworkComponent) {
	snapshot, ok := c.Clone().(models.NetworkComponent)
	if !ok {
		return
	}
	w.events.AddNetworkEvent(snapshot)
}

// DestroyEntity announces the removal of every component of id plus the entity itself.
// The entity stays queryable until FlushDestroyed runs at the end of the tick.
func (w *World) DestroyEntity(id models.EntityID) bool {
	e, ok := w.registry.GetEntity(id)
	if !ok || e.IsDestroyed() {
		return false
	}

	for _, c := range e.Components() {
		w.events.OnComponentRemoved(c)
	}
	e.MarkDestroyed()
	w.events.AddNetworkEvent(models.NewEntityDestroyedEvent(id))

	w.mu.Lock()
	w.pendingDestroy = append(w.pendingDestroy, id)
	w.mu.Unlock()

	w.logger.Debug("Entity destroyed", log.Uint64("entity_id", uint64(id)))
	return true
}

// FlushDestroyed unregisters every entity destroyed this tick and returns their ids.
func (w *World) FlushDestroyed() []models.EntityID {
	w.mu.Lock()
	pending := w.pendingDestroy
	w.pendingDestroy = nil
	w.mu.Unlock()

	removed := pending[:0]
	for _, id := range pending {
		if w.registry.RemoveEntity(id) {
			removed = append(removed, id)
		}
	}
	return removed
}

// Close drops every entity and pending event. The world must not be used afterwards.
func (w *World) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.pendingDestroy = nil
	w.mu.Unlock()

	entities := w.registry.AllEntities()
	for _, e := range entities {
		w.registry.RemoveEntity(e.ID())
	}
	w.events.AfterUpdate(entities)
	w.logger.Debug("World closed", log.Int("entities", len(entities)))
}
