package events

import (
	"sync"

	"github.com/zeusync/tickworld/internal/core/models"
)

type pendingEvent struct {
	event   models.Component
	network models.NetworkComponent
}

// Deferred buffers events raised while the tick loop is suspended (the client's asset load
// phase). Nothing becomes visible until System.Flush moves the whole batch at once.
// Goroutines doing the loading may share one Deferred.
type Deferred struct {
	mu      sync.Mutex
	pending []pendingEvent
}

func NewDeferred() *Deferred {
	return &Deferred{}
}

func (d *Deferred) AddEvent(event models.Component) {
	d.mu.Lock()
	d.pending = append(d.pending, pendingEvent{event: event})
	d.mu.Unlock()
}

func (d *Deferred) AddNetworkEvent(event models.NetworkComponent) {
	d.mu.Lock()
	d.pending = append(d.pending, pendingEvent{event: event, network: event})
	d.mu.Unlock()
}

func (d *Deferred) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Discard drops everything buffered.
func (d *Deferred) Discard() {
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}

func (d *Deferred) take() []pendingEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.pending
	d.pending = nil
	return out
}
