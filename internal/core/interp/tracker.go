package interp

import (
	"time"

	"github.com/zeusync/tickworld/internal/core/models"
)

// LerpFunc blends a toward b by t in [0, 1].
type LerpFunc[T any] func(a, b T, t float64) T

// Blend decides how a tracker moves its rendered value each frame.
type Blend struct {
	interval time.Duration
	factor   float64
}

// Timed blends from the previous sample to the target over one server tick interval:
// factor = elapsed / interval, clamped to 1.
func Timed(interval time.Duration) Blend {
	return Blend{interval: interval}
}

// Constant moves the rendered value a fixed fraction toward the target every frame. Used
// where authoritative samples arrive irregularly.
func Constant(factor float64) Blend {
	return Blend{factor: factor}
}

// Immediate renders every new target as soon as it arrives.
func Immediate() Blend {
	return Blend{}
}

// TickInterval returns the duration of one tick at the given rate.
func TickInterval(tickRate int) time.Duration {
	if tickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(tickRate)
}

// State is the interpolation bookkeeping of one entity.
type State[T comparable] struct {
	Previous T
	Target   T
	Rendered T
	Elapsed  time.Duration
}

// Tracker keeps the last two authoritative samples per entity and produces the value to
// render in between. It is confined to the frame loop goroutine.
type Tracker[T comparable] struct {
	states map[models.EntityID]*State[T]
	lerp   LerpFunc[T]
	blend  Blend
}

func NewTracker[T comparable](lerp LerpFunc[T], blend Blend) *Tracker[T] {
	return &Tracker[T]{
		states: make(map[models.EntityID]*State[T]),
		lerp:   lerp,
		blend:  blend,
	}
}

// Push records a fresh authoritative sample. The first sample of an entity is rendered as
// is. A sample equal to the current target changes nothing. Otherwise the value on screen
// becomes the new starting point and the clock restarts.
func (t *Tracker[T]) Push(id models.EntityID, sample T) {
	s, ok := t.states[id]
	if !ok {
		t.states[id] = &State[T]{Previous: sample, Target: sample, Rendered: sample}
		return
	}
	if s.Target == sample {
		return
	}
	s.Previous = s.Rendered
	s.Target = sample
	s.Elapsed = 0
}

// Advance moves the entity's rendered value dt further toward its target and returns it.
func (t *Tracker[T]) Advance(id models.EntityID, dt time.Duration) (T, bool) {
	s, ok := t.states[id]
	if !ok {
		var zero T
		return zero, false
	}

	s.Elapsed += dt
	if s.Rendered == s.Target {
		return s.Rendered, true
	}
	switch {
	case t.blend.interval > 0:
		f := float64(s.Elapsed) / float64(t.blend.interval)
		if f > 1 {
			f = 1
		}
		s.Rendered = t.lerp(s.Previous, s.Target, f)
	case t.blend.factor > 0:
		s.Rendered = t.lerp(s.Rendered, s.Target, t.blend.factor)
	default:
		s.Rendered = s.Target
	}
	return s.Rendered, true
}

func (t *Tracker[T]) Rendered(id models.EntityID) (T, bool) {
	s, ok := t.states[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.Rendered, true
}

func (t *Tracker[T]) Target(id models.EntityID) (T, bool) {
	s, ok := t.states[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.Target, true
}

// State returns a copy of the entity's bookkeeping.
func (t *Tracker[T]) State(id models.EntityID) (State[T], bool) {
	s, ok := t.states[id]
	if !ok {
		return State[T]{}, false
	}
	return *s, true
}

// Discard forgets the entity so nothing interpolates toward a stale target.
func (t *Tracker[T]) Discard(id models.EntityID) {
	delete(t.states, id)
}

func (t *Tracker[T]) Len() int {
	return len(t.states)
}
