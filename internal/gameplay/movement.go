// Package gameplay holds the server-side rules that drive the replicated state.
package gameplay

import (
	"context"
	"math"
	"time"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

const (
	DefaultMoveSpeed = 5.0  // units per second
	DefaultJumpSpeed = 6.0  // units per second
	Gravity          = 18.0 // units per second squared
)

// MovementSystem moves every entity carrying an InputComponent and a PositionComponent.
// Changed positions and rotations are replicated.
type MovementSystem struct {
	speed     float64
	jumpSpeed float64
	vertical  map[models.EntityID]float64
}

func NewMovementSystem(speed float64) *MovementSystem {
	if speed <= 0 {
		speed = DefaultMoveSpeed
	}
	return &MovementSystem{
		speed:     speed,
		jumpSpeed: DefaultJumpSpeed,
		vertical:  make(map[models.EntityID]float64),
	}
}

func (s *MovementSystem) Name() string { return "movement" }

func (s *MovementSystem) Update(_ context.Context, w *world.World, dt time.Duration) error {
	seconds := dt.Seconds()
	for _, e := range w.Entities() {
		if e.IsDestroyed() {
			delete(s.vertical, e.ID())
			continue
		}
		input, ok := models.Get[*models.InputComponent](e, models.KindInput)
		if !ok {
			continue
		}
		pos, ok := models.Get[*models.PositionComponent](e, models.KindPosition)
		if !ok {
			continue
		}

		before := pos.Vec3
		dir := input.Direction()
		pos.Vec3 = pos.Vec3.Add(dir.Scale(s.speed * seconds))
		s.applyVertical(e.ID(), pos, input.Jump, seconds)
		if pos.Vec3 != before {
			w.Replicate(pos)
		}

		if dir == (geom.Vec3{}) {
			continue
		}
		if rot, ok := models.Get[*models.RotationComponent](e, models.KindRotation); ok {
			facing := yaw(dir)
			if rot.Quat != facing {
				rot.Quat = facing
				w.Replicate(rot)
			}
		}
	}
	return nil
}

func (s *MovementSystem) applyVertical(id models.EntityID, pos *models.PositionComponent, jump bool, seconds float64) {
	vy := s.vertical[id]
	grounded := pos.Y <= 0 && vy <= 0
	if grounded {
		vy = 0
		if jump {
			vy = s.jumpSpeed
		}
	}
	if vy == 0 && grounded {
		delete(s.vertical, id)
		return
	}

	pos.Y += vy * seconds
	vy -= Gravity * seconds
	if pos.Y <= 0 {
		pos.Y = 0
		vy = 0
	}
	s.vertical[id] = vy
}

// yaw returns the rotation about Y that faces dir, with -Z as forward.
func yaw(dir geom.Vec3) geom.Quat {
	angle := math.Atan2(-dir.X, -dir.Z)
	return geom.Quat{Y: math.Sin(angle / 2), W: math.Cos(angle / 2)}
}
