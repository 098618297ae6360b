package events

import "github.com/zeusync/tickworld/internal/core/models"

// Emitter accepts events. Both the live System and a Deferred buffer implement it, so code
// that raises events does not need to know whether the tick is suspended.
type Emitter interface {
	AddEvent(event models.Component)
	AddNetworkEvent(event models.NetworkComponent)
}

// Observer is notified about emissions and drains. Observers should return quickly.
type Observer interface {
	OnEvent(kind models.Kind, network bool)
	OnDrain(events, network int)
}

// Metrics is a minimal set of counters; it is updated only while at least one observer
// is registered.
type Metrics struct {
	Emitted        uint64
	NetworkEmitted uint64
	Dropped        uint64
	Drains         uint64
}
