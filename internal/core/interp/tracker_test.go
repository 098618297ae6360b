package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickworld/pkg/geom"
)

func TestFirstSampleRendersImmediately(t *testing.T) {
	tr := NewTracker[geom.Vec3](geom.LerpVec3, Timed(50*time.Millisecond))
	target := geom.Vec3{X: 4, Y: 0, Z: -2}

	tr.Push(7, target)
	got, ok := tr.Advance(7, 16*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, target, got, "no pop from the origin on the first frame")
}

func TestTimedBlendConvergesAndClamps(t *testing.T) {
	tr := NewTracker[float64](geom.Lerp, Timed(100*time.Millisecond))
	tr.Push(1, 0)
	tr.Push(1, 10)

	got, _ := tr.Advance(1, 50*time.Millisecond)
	assert.InDelta(t, 5, got, 1e-9)

	got, _ = tr.Advance(1, 100*time.Millisecond)
	assert.Equal(t, 10.0, got)

	// No new samples: rendering holds the last target.
	got, _ = tr.Advance(1, time.Second)
	assert.Equal(t, 10.0, got)
}

func TestNewSampleStartsFromTheRenderedValue(t *testing.T) {
	tr := NewTracker[float64](geom.Lerp, Timed(100*time.Millisecond))
	tr.Push(1, 0)
	tr.Push(1, 10)
	tr.Advance(1, 50*time.Millisecond)

	tr.Push(1, 20)
	state, ok := tr.State(1)
	require.True(t, ok)
	assert.InDelta(t, 5, state.Previous, 1e-9)
	assert.Equal(t, 20.0, state.Target)
	assert.Zero(t, state.Elapsed)
}

func TestIdenticalSampleIsANoOp(t *testing.T) {
	tr := NewTracker[float64](geom.Lerp, Timed(100*time.Millisecond))
	tr.Push(1, 0)
	tr.Push(1, 10)
	tr.Advance(1, 50*time.Millisecond)

	before, _ := tr.State(1)
	tr.Push(1, 10)
	after, _ := tr.State(1)
	assert.Equal(t, before, after)
}

func TestConstantBlendApproachesMonotonically(t *testing.T) {
	tr := NewTracker[float64](geom.Lerp, Constant(0.5))
	tr.Push(1, 0)
	tr.Push(1, 8)

	var rendered []float64
	for range 4 {
		v, _ := tr.Advance(1, 16*time.Millisecond)
		rendered = append(rendered, v)
	}
	assert.Equal(t, []float64{4, 6, 7, 7.5}, rendered)
}

func TestImmediateBlend(t *testing.T) {
	tr := NewTracker[geom.Color](geom.LerpColor, Immediate())
	red := geom.Color{R: 1}
	blue := geom.Color{B: 1}

	tr.Push(3, red)
	tr.Push(3, blue)
	got, _ := tr.Advance(3, time.Millisecond)
	assert.Equal(t, blue, got)
}

func TestDiscardForgetsTheEntity(t *testing.T) {
	tr := NewTracker[float64](geom.Lerp, Immediate())
	tr.Push(1, 1)
	tr.Push(2, 2)
	require.Equal(t, 2, tr.Len())

	tr.Discard(1)
	assert.Equal(t, 1, tr.Len())
	_, ok := tr.Advance(1, time.Millisecond)
	assert.False(t, ok)
	_, ok = tr.Rendered(1)
	assert.False(t, ok)

	// A later sample starts over without interpolating from the old value.
	tr.Push(1, 100)
	got, _ := tr.Advance(1, time.Millisecond)
	assert.Equal(t, 100.0, got)
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, TickInterval(20))
	assert.Equal(t, time.Duration(0), TickInterval(0))
	assert.Equal(t, time.Duration(0), TickInterval(-1))
}
