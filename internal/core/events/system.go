package events

import (
	"sync"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
)

var (
	_ Emitter = (*System)(nil)
	_ Emitter = (*Deferred)(nil)
)

// System is the per-world event channel. It owns a dedicated queue entity carrying an
// EventListComponent (every event of the tick) and a NetworkDataComponent (the subset that
// has to cross the wire). Both are emptied by AfterUpdate, so an event is visible for
// exactly one tick.
//
// A missing queue or list is a wiring bug: it is logged and the call becomes a no-op.
type System struct {
	mu        sync.Mutex
	queue     *models.Entity
	logger    log.Log
	observers map[Observer]struct{}
	metrics   Metrics
}

// QueueEntityID is the id of the queue entity. It is never registered with a Registry,
// so it cannot collide with replicated ids.
const QueueEntityID models.EntityID = 0

func NewSystem(logger log.Log) *System {
	if logger == nil {
		logger = log.NewNop()
	}

	queue := models.NewDetachedEntity(QueueEntityID)
	_ = queue.AddComponent(models.NewEventListComponent(QueueEntityID))
	_ = queue.AddComponent(models.NewNetworkDataComponent(QueueEntityID))

	return &System{
		queue:     queue,
		logger:    logger.With(log.String("component", "event_system")),
		observers: make(map[Observer]struct{}),
	}
}

// Queue exposes the queue entity.
func (s *System) Queue() *models.Entity {
	return s.queue
}

// AddEvent appends event to this tick's event list.
func (s *System) AddEvent(event models.Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addEventLocked(event, false)
}

// AddNetworkEvent appends event to the event list and to the network data, so the
// replication pass of this tick sends it. Both lists share the same instance; network
// payloads must not be mutated after this call.
func (s *System) AddNetworkEvent(event models.NetworkComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNetworkEventLocked(event)
}

func (s *System) addEventLocked(event models.Component, network bool) {
	if event == nil {
		s.drop("nil event submitted", nil)
		return
	}
	if s.queue == nil {
		s.drop("event queue entity not found", event)
		return
	}

	list, ok := models.Get[*models.EventListComponent](s.queue, models.KindEventList)
	if !ok {
		s.drop("event list component not found on the event queue entity", event)
		return
	}

	list.AddEvent(event)
	s.notifyEvent(event.Kind(), network)
}

func (s *System) addNetworkEventLocked(event models.NetworkComponent) {
	if event == nil {
		s.drop("nil network event submitted", nil)
		return
	}
	if s.queue == nil {
		s.drop("event queue entity not found", event)
		return
	}

	s.addEventLocked(event, true)

	data, ok := models.Get[*models.NetworkDataComponent](s.queue, models.KindNetworkData)
	if !ok {
		s.drop("network data component not found on the event queue entity", event)
		return
	}

	data.AddComponent(event)
	s.logger.Debug("Network event added",
		log.String("kind", event.Kind().String()),
		log.Uint64("entity_id", uint64(event.EntityID())))
}

// Events returns this tick's events of the given kind in emission order.
func (s *System) Events(kind models.Kind) []models.Component {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.listLocked()
	if !ok {
		return nil
	}

	var out []models.Component
	for _, e := range list.Events() {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// EventsOf is a typed Events.
func EventsOf[T models.Component](s *System, kind models.Kind) []T {
	events := s.Events(kind)
	out := make([]T, 0, len(events))
	for _, e := range events {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// EventsWrapped filters first by wrapper kind (e.g. KindComponentAddedEvent), then by the
// kind of the wrapped payload.
func (s *System) EventsWrapped(wrapperKind, payloadKind models.Kind) []models.ComponentWrapper {
	var out []models.ComponentWrapper
	for _, e := range s.Events(wrapperKind) {
		w, ok := e.(models.ComponentWrapper)
		if !ok {
			continue
		}
		if w.Payload().Kind() == payloadKind {
			out = append(out, w)
		}
	}
	return out
}

// AllEvents returns every event of the current tick.
func (s *System) AllEvents() []models.Component {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.listLocked()
	if !ok {
		return nil
	}
	return list.Events()
}

// NetworkEvents returns the components the replication layer has to send this tick.
func (s *System) NetworkEvents() []models.NetworkComponent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue == nil {
		return nil
	}
	data, ok := models.Get[*models.NetworkDataComponent](s.queue, models.KindNetworkData)
	if !ok {
		return nil
	}
	return data.Components()
}

// OnComponentAdded emits a ComponentAddedEvent for c.
func (s *System) OnComponentAdded(c models.Component) {
	if c == nil {
		s.mu.Lock()
		s.drop("nil component added", nil)
		s.mu.Unlock()
		return
	}
	s.AddEvent(models.NewComponentAddedEvent(c))
}

// OnComponentRemoved emits a ComponentRemovedEvent for c.
func (s *System) OnComponentRemoved(c models.Component) {
	if c == nil {
		s.mu.Lock()
		s.drop("nil component removed", nil)
		s.mu.Unlock()
		return
	}
	s.AddEvent(models.NewComponentRemovedEvent(c))
}

// Flush moves everything d buffered into the live lists in one step, keeping order.
func (s *System) Flush(d *Deferred) {
	if d == nil {
		return
	}
	pending := d.take()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pending {
		if p.network != nil {
			s.addNetworkEventLocked(p.network)
			continue
		}
		s.addEventLocked(p.event, false)
	}
}

// AfterUpdate ends the tick: both lists are emptied. It must run once per tick after every
// consumer and before the next tick's mutations.
func (s *System) AfterUpdate(_ []*models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue == nil {
		s.logger.Error("Event queue entity not found on drain")
		return
	}

	var events, network int
	if list, ok := models.Get[*models.EventListComponent](s.queue, models.KindEventList); ok {
		events = list.Len()
		list.RemoveAllEvents()
	}
	if data, ok := models.Get[*models.NetworkDataComponent](s.queue, models.KindNetworkData); ok {
		network = data.Len()
		data.RemoveAllComponents()
	}

	if len(s.observers) > 0 {
		s.metrics.Drains++
		for obs := range s.observers {
			obs.OnDrain(events, network)
		}
	}
}

func (s *System) AddObserver(obs Observer) {
	s.mu.Lock()
	s.observers[obs] = struct{}{}
	s.mu.Unlock()
}

func (s *System) RemoveObserver(obs Observer) {
	s.mu.Lock()
	delete(s.observers, obs)
	s.mu.Unlock()
}

// GetMetrics returns a snapshot of the counters.
func (s *System) GetMetrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *System) listLocked() (*models.EventListComponent, bool) {
	if s.queue == nil {
		s.logger.Error("Event queue entity not found")
		return nil, false
	}
	list, ok := models.Get[*models.EventListComponent](s.queue, models.KindEventList)
	if !ok {
		s.logger.Error("Event list component not found on the event queue entity")
	}
	return list, ok
}

func (s *System) drop(msg string, event models.Component) {
	if event == nil {
		s.logger.Error(msg)
	} else {
		s.logger.Error(msg,
			log.String("kind", event.Kind().String()),
			log.Uint64("entity_id", uint64(event.EntityID())))
	}
	if len(s.observers) > 0 {
		s.metrics.Dropped++
	}
}

func (s *System) notifyEvent(kind models.Kind, network bool) {
	if len(s.observers) == 0 {
		return
	}
	if network {
		s.metrics.NetworkEmitted++
	} else {
		s.metrics.Emitted++
	}
	for obs := range s.observers {
		obs.OnEvent(kind, network)
	}
}
