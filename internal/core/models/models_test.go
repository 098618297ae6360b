package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickworld/pkg/geom"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already rounded", 1.25, 1.25},
		{"binary value below half", 1.005, 1.0},
		{"truncates third decimal", 2.004, 2.0},
		{"exact half rounds away from zero", 0.125, 0.13},
		{"negative exact half", -0.125, -0.13},
		{"large", 12345.678, 12345.68},
		{"NaN", math.NaN(), 0},
		{"+Inf", math.Inf(1), 0},
		{"-Inf", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestRound2NegativeZero(t *testing.T) {
	got := Round2(-0.001)
	assert.Equal(t, 0.0, got)
	assert.True(t, math.Signbit(got))

	// -0 decodes equal to zero on the other side.
	raw, err := json.Marshal(NewPositionComponent(1, -0.001, 0, 0).Serialize())
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":1,"id":1,"x":0,"y":0,"z":0}`, string(raw))
}

func TestKind(t *testing.T) {
	assert.Equal(t, Kind(1), KindPosition)
	assert.Equal(t, Kind(9), KindInput)

	assert.True(t, KindPosition.Replicated())
	assert.True(t, KindInput.Replicated())
	assert.False(t, KindInput.Broadcast())
	assert.True(t, KindChatMessage.Broadcast())
	assert.False(t, KindEventList.Replicated())
	assert.False(t, KindRenderTransform.Broadcast())
	assert.False(t, KindUnknown.Replicated())
}

func TestEntityComponentsKeepInsertionOrder(t *testing.T) {
	e := NewDetachedEntity(3)
	require.NoError(t, e.AddComponent(NewSizeComponent(3, 1, 1, 1)))
	require.NoError(t, e.AddComponent(NewPositionComponent(3, 0, 0, 0)))
	require.NoError(t, e.AddComponent(NewColorComponent(3, geom.Color{R: 1})))

	// Replacing keeps the slot.
	require.NoError(t, e.AddComponent(NewPositionComponent(3, 5, 0, 0)))
	assert.Equal(t, []Kind{KindSize, KindPosition, KindColor}, e.Kinds())

	pos, ok := Get[*PositionComponent](e, KindPosition)
	require.True(t, ok)
	assert.Equal(t, 5.0, pos.X)

	removed, ok := e.RemoveComponent(KindPosition)
	require.True(t, ok)
	assert.Equal(t, KindPosition, removed.Kind())
	assert.Equal(t, []Kind{KindSize, KindColor}, e.Kinds())
	assert.False(t, e.HasComponent(KindPosition))

	_, ok = e.RemoveComponent(KindPosition)
	assert.False(t, ok)
}

func TestEntityRejectsInvalidComponents(t *testing.T) {
	e := NewDetachedEntity(1)
	assert.ErrorIs(t, e.AddComponent(nil), ErrNilComponent)
	assert.ErrorIs(t, e.AddComponent(NewPositionComponent(2, 0, 0, 0)), ErrForeignComponent)

	e.MarkDestroyed()
	assert.ErrorIs(t, e.AddComponent(NewPositionComponent(1, 0, 0, 0)), ErrEntityDestroyed)
}

func TestGetWrongType(t *testing.T) {
	e := NewDetachedEntity(1)
	require.NoError(t, e.AddComponent(NewPositionComponent(1, 0, 0, 0)))

	_, ok := Get[*SizeComponent](e, KindPosition)
	assert.False(t, ok)
	_, ok = Get[*PositionComponent](nil, KindPosition)
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := r.CreateEntity()
	b := r.CreateEntity()
	assert.Equal(t, EntityID(1), a.ID())
	assert.Equal(t, EntityID(2), b.ID())

	got, ok := r.GetEntity(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.GetEntity(99)
	assert.False(t, ok)

	assert.True(t, r.RemoveEntity(a.ID()))
	assert.False(t, r.RemoveEntity(a.ID()))
	assert.Equal(t, 1, r.Count())

	// Ids are never reused.
	c := r.CreateEntity()
	assert.Equal(t, EntityID(3), c.ID())

	ids := make([]EntityID, 0)
	for _, e := range r.AllEntities() {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []EntityID{2, 3}, ids)
}

func TestRegistryCreateEntityWithID(t *testing.T) {
	r := NewRegistry()

	e, err := r.CreateEntityWithID(7)
	require.NoError(t, err)
	assert.Equal(t, EntityID(7), e.ID())

	_, err = r.CreateEntityWithID(7)
	assert.ErrorIs(t, err, ErrEntityExists)

	// Locally created ids never collide with mirrored ones.
	assert.Equal(t, EntityID(8), r.CreateEntity().ID())
}

func TestSerializeRecords(t *testing.T) {
	tests := []struct {
		name string
		c    NetworkComponent
		want string
	}{
		{
			name: "position rounds to two decimals",
			c:    NewPositionComponent(7, 1.234, -5.678, 0),
			want: `{"t":1,"id":7,"x":1.23,"y":-5.68,"z":0}`,
		},
		{
			name: "rotation carries w",
			c:    NewRotationComponent(7, 0, 0.7071, 0, 0.7071),
			want: `{"t":2,"id":7,"x":0,"y":0.71,"z":0,"w":0.71}`,
		},
		{
			name: "size",
			c:    NewSizeComponent(7, 1, 2.5, 3.333),
			want: `{"t":3,"id":7,"w":1,"h":2.5,"d":3.33}`,
		},
		{
			name: "color as hex",
			c:    NewColorComponent(7, geom.Color{R: 1, G: 0, B: 0}),
			want: `{"t":4,"id":7,"c":"#ff0000"}`,
		},
		{
			name: "mesh",
			c:    NewServerMeshComponent(7, "models/tree.glb"),
			want: `{"t":7,"id":7,"p":"models/tree.glb"}`,
		},
		{
			name: "input omits idle intents",
			c:    &InputComponent{Base: Base{Owner: 7}, Forward: true},
			want: `{"t":9,"id":7,"f":true}`,
		},
		{
			name: "destroyed",
			c:    NewEntityDestroyedEvent(7),
			want: `{"t":5,"id":7}`,
		},
		{
			name: "chat",
			c:    NewChatMessageEvent(1, "ann", "hi"),
			want: `{"t":6,"id":1,"s":"ann","m":"hi"}`,
		},
		{
			name: "added wrapper serializes its payload",
			c:    NewComponentAddedEvent(NewPositionComponent(7, 1, 2, 3)),
			want: `{"t":1,"id":7,"x":1,"y":2,"z":3}`,
		},
		{
			name: "removed wrapper names the kind",
			c:    NewComponentRemovedEvent(NewColorComponent(7, geom.Color{})),
			want: `{"t":8,"id":7,"k":4}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.c.Serialize())
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	c := NewPositionComponent(7, 0.1+0.2, 1.0/3, -2.005)
	first, err := json.Marshal(c.Serialize())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(c.Serialize())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestWrapperHoldsClone(t *testing.T) {
	pos := NewPositionComponent(7, 1, 1, 1)
	ev := NewComponentAddedEvent(pos)

	pos.X = 100
	payload, ok := ev.Payload().(*PositionComponent)
	require.True(t, ok)
	assert.Equal(t, 1.0, payload.X)
	assert.Equal(t, KindPosition, ev.PayloadKind())
	assert.Equal(t, EntityID(7), ev.EntityID())
}

func TestAddedWrapperOfLocalComponent(t *testing.T) {
	ev := NewComponentAddedEvent(NewRenderTransformComponent(7))
	assert.Nil(t, ev.Serialize())
}

func TestEventListComponent(t *testing.T) {
	list := NewEventListComponent(0)
	list.AddEvent(NewEntityDestroyedEvent(1))
	list.AddEvent(NewEntityDestroyedEvent(2))

	events := list.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EntityID(1), events[0].EntityID())

	// Events is a copy.
	events[0] = nil
	assert.NotNil(t, list.Events()[0])

	list.RemoveAllEvents()
	assert.Equal(t, 0, list.Len())
	assert.Empty(t, list.Events())
}

func TestNetworkDataComponent(t *testing.T) {
	data := NewNetworkDataComponent(0)
	data.AddComponent(NewPositionComponent(1, 0, 0, 0))
	data.AddComponent(NewEntityDestroyedEvent(2))
	assert.Equal(t, 2, data.Len())
	assert.Equal(t, KindEntityDestroyed, data.Components()[1].Kind())

	data.RemoveAllComponents()
	assert.Equal(t, 0, data.Len())
}

func TestInputDirection(t *testing.T) {
	in := NewInputComponent(1)
	assert.Equal(t, geom.Vec3{}, in.Direction())

	in.Forward = true
	assert.Equal(t, geom.Vec3{Z: -1}, in.Direction())

	in.Right = true
	d := in.Direction()
	assert.InDelta(t, 1.0, d.Length(), 1e-9)
	assert.Greater(t, d.X, 0.0)
	assert.Less(t, d.Z, 0.0)

	in.Backward = true
	in.Left = true
	assert.Equal(t, geom.Vec3{}, in.Direction())
}
