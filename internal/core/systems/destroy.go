package systems

import (
	"context"
	"time"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/world"
)

// DestroyHook is told about every entity destroyed this tick, while it is still queryable.
type DestroyHook func(e *models.Entity)

// DestroySystem removes destroyed entities from the registry at the end of the tick, so
// every system of the tick still sees them and their EntityDestroyed event.
type DestroySystem struct {
	hooks  []DestroyHook
	logger log.Log
}

func NewDestroySystem(logger log.Log, hooks ...DestroyHook) *DestroySystem {
	if logger == nil {
		logger = log.NewNop()
	}
	return &DestroySystem{hooks: hooks, logger: logger.With(log.String("system", "destroy"))}
}

func (s *DestroySystem) Name() string { return "destroy" }

func (s *DestroySystem) Update(_ context.Context, w *world.World, _ time.Duration) error {
	if len(s.hooks) == 0 {
		return nil
	}
	for _, ev := range events.EventsOf[*models.EntityDestroyedEvent](w.Events(), models.KindEntityDestroyed) {
		e, ok := w.Entity(ev.EntityID())
		if !ok {
			continue
		}
		for _, hook := range s.hooks {
			hook(e)
		}
	}
	return nil
}

func (s *DestroySystem) AfterUpdate(ctx context.Context, w *world.World, _ []*models.Entity) {
	removed := w.FlushDestroyed()
	if len(removed) > 0 {
		s.logger.WithContext(ctx).Debug("Entities removed", log.Int("count", len(removed)))
	}
}
