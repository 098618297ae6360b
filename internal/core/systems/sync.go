package systems

import (
	"context"
	"time"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/interp"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

// DefaultRotationBlend is the fraction of the remaining rotation covered each frame.
const DefaultRotationBlend = 0.5

// SyncSystem smooths one replicated kind into the entity's RenderTransformComponent.
// Authoritative values are pushed into a tracker every frame; the tracker ignores repeats,
// so only fresh server state restarts the blend. Tracker state is discarded when the
// component is removed or the entity destroyed.
type SyncSystem[T comparable] struct {
	name    string
	kind    models.Kind
	tracker *interp.Tracker[T]
	sample  func(models.Component) (T, bool)
	write   func(*models.RenderTransformComponent, T)
}

func (s *SyncSystem[T]) Name() string { return s.name }

// Tracker exposes the interpolation state.
func (s *SyncSystem[T]) Tracker() *interp.Tracker[T] { return s.tracker }

func (s *SyncSystem[T]) Update(_ context.Context, w *world.World, dt time.Duration) error {
	for _, removed := range w.Events().EventsWrapped(models.KindComponentRemovedEvent, s.kind) {
		s.tracker.Discard(removed.EntityID())
	}
	for _, ev := range events.EventsOf[*models.EntityDestroyedEvent](w.Events(), models.KindEntityDestroyed) {
		s.tracker.Discard(ev.EntityID())
	}

	for _, e := range w.Entities() {
		if e.IsDestroyed() {
			continue
		}
		c, ok := e.GetComponent(s.kind)
		if !ok {
			continue
		}
		v, ok := s.sample(c)
		if !ok {
			continue
		}

		s.tracker.Push(e.ID(), v)
		rendered, _ := s.tracker.Advance(e.ID(), dt)

		rt, ok := models.Get[*models.RenderTransformComponent](e, models.KindRenderTransform)
		if !ok {
			rt = models.NewRenderTransformComponent(e.ID())
			if err := w.AddComponent(e, rt); err != nil {
				return err
			}
		}
		s.write(rt, rendered)
	}
	return nil
}

// NewSyncPositionSystem blends positions over one server tick interval.
func NewSyncPositionSystem(serverTickRate int) *SyncSystem[geom.Vec3] {
	return &SyncSystem[geom.Vec3]{
		name:    "sync_position",
		kind:    models.KindPosition,
		tracker: interp.NewTracker[geom.Vec3](geom.LerpVec3, interp.Timed(interp.TickInterval(serverTickRate))),
		sample: func(c models.Component) (geom.Vec3, bool) {
			p, ok := c.(*models.PositionComponent)
			if !ok {
				return geom.Vec3{}, false
			}
			return p.Vec3, true
		},
		write: func(rt *models.RenderTransformComponent, v geom.Vec3) { rt.Position = v },
	}
}

// NewSyncRotationSystem slerps a constant fraction toward the target each frame.
func NewSyncRotationSystem(blend float64) *SyncSystem[geom.Quat] {
	if blend <= 0 || blend > 1 {
		blend = DefaultRotationBlend
	}
	return &SyncSystem[geom.Quat]{
		name:    "sync_rotation",
		kind:    models.KindRotation,
		tracker: interp.NewTracker[geom.Quat](geom.Slerp, interp.Constant(blend)),
		sample: func(c models.Component) (geom.Quat, bool) {
			r, ok := c.(*models.RotationComponent)
			if !ok {
				return geom.Quat{}, false
			}
			return r.Quat, true
		},
		write: func(rt *models.RenderTransformComponent, q geom.Quat) { rt.Rotation = q },
	}
}

func NewSyncSizeSystem() *SyncSystem[geom.Vec3] {
	return &SyncSystem[geom.Vec3]{
		name:    "sync_size",
		kind:    models.KindSize,
		tracker: interp.NewTracker[geom.Vec3](geom.LerpVec3, interp.Immediate()),
		sample: func(c models.Component) (geom.Vec3, bool) {
			s, ok := c.(*models.SizeComponent)
			if !ok {
				return geom.Vec3{}, false
			}
			return s.Vec(), true
		},
		write: func(rt *models.RenderTransformComponent, v geom.Vec3) { rt.Size = v },
	}
}

func NewSyncColorSystem() *SyncSystem[geom.Color] {
	return &SyncSystem[geom.Color]{
		name:    "sync_color",
		kind:    models.KindColor,
		tracker: interp.NewTracker[geom.Color](geom.LerpColor, interp.Immediate()),
		sample: func(c models.Component) (geom.Color, bool) {
			col, ok := c.(*models.ColorComponent)
			if !ok {
				return geom.Color{}, false
			}
			return col.Value, true
		},
		write: func(rt *models.RenderTransformComponent, c geom.Color) { rt.Color = c },
	}
}
