package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
)

func TestAddComponentAnnouncesBroadcastKindsOnTheNetwork(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()

	require.NoError(t, w.AddComponent(e, models.NewPositionComponent(e.ID(), 1, 2, 3)))
	require.NoError(t, w.AddComponent(e, models.NewRenderTransformComponent(e.ID())))
	require.NoError(t, w.AddComponent(e, models.NewInputComponent(e.ID())))

	added := w.Events().Events(models.KindComponentAddedEvent)
	require.Len(t, added, 3)

	network := w.Events().NetworkEvents()
	require.Len(t, network, 1, "only the position is broadcast")
	assert.Equal(t, models.PositionRecord{T: models.KindPosition, ID: e.ID(), X: 1, Y: 2, Z: 3}, network[0].Serialize())
}

func TestAddComponentRejectsForeignOwner(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()

	err := w.AddComponent(e, models.NewPositionComponent(e.ID()+1, 0, 0, 0))
	require.ErrorIs(t, err, models.ErrForeignComponent)
	assert.Empty(t, w.Events().AllEvents())
}

func TestRemoveComponent(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()
	require.NoError(t, w.AddComponent(e, models.NewPositionComponent(e.ID(), 0, 0, 0)))
	w.Events().AfterUpdate(nil)

	c, ok := w.RemoveComponent(e, models.KindPosition)
	require.True(t, ok)
	assert.Equal(t, models.KindPosition, c.Kind())
	assert.False(t, e.HasComponent(models.KindPosition))

	removed := w.Events().EventsWrapped(models.KindComponentRemovedEvent, models.KindPosition)
	require.Len(t, removed, 1)
	network := w.Events().NetworkEvents()
	require.Len(t, network, 1)
	assert.Equal(t, models.ComponentRemovedRecord{T: models.KindComponentRemoved, ID: e.ID(), Removed: models.KindPosition}, network[0].Serialize())

	_, ok = w.RemoveComponent(e, models.KindPosition)
	assert.False(t, ok)
}

func TestDestroyEntityIsDeferredUntilFlush(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()
	require.NoError(t, w.AddComponent(e, models.NewPositionComponent(e.ID(), 0, 0, 0)))
	require.NoError(t, w.AddComponent(e, models.NewSizeComponent(e.ID(), 1, 1, 1)))
	w.Events().AfterUpdate(nil)

	require.True(t, w.DestroyEntity(e.ID()))
	assert.False(t, w.DestroyEntity(e.ID()), "second destroy is a no-op")

	// Still queryable for the rest of the tick.
	got, ok := w.Entity(e.ID())
	require.True(t, ok)
	assert.True(t, got.IsDestroyed())
	assert.Len(t, w.Events().Events(models.KindComponentRemovedEvent), 2)

	destroyed := w.Events().Events(models.KindEntityDestroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, e.ID(), destroyed[0].EntityID())
	assert.Len(t, w.Events().NetworkEvents(), 1)

	assert.Equal(t, []models.EntityID{e.ID()}, w.FlushDestroyed())
	_, ok = w.Entity(e.ID())
	assert.False(t, ok)
	assert.Empty(t, w.FlushDestroyed())

	// Nothing in the queue refers to the entity after the drain.
	w.Events().AfterUpdate(w.Entities())
	assert.Empty(t, w.Events().AllEvents())
	assert.Empty(t, w.Events().NetworkEvents())
	assert.Empty(t, w.Events().Events(models.KindEntityDestroyed))
	for _, live := range w.Entities() {
		assert.NotEqual(t, e.ID(), live.ID())
	}
}

func TestDestroyUnknownEntity(t *testing.T) {
	w := New(nil)
	assert.False(t, w.DestroyEntity(42))
	assert.Empty(t, w.Events().AllEvents())
}

func TestReplicateQueuesASnapshot(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()
	pos := models.NewPositionComponent(e.ID(), 1, 0, 0)
	require.NoError(t, e.AddComponent(pos))

	w.Replicate(pos)
	pos.X = 9

	network := w.Events().NetworkEvents()
	require.Len(t, network, 1)
	assert.Equal(t, 1.0, network[0].Serialize().(models.PositionRecord).X)
}

func TestBeginTickCarriesTickInContext(t *testing.T) {
	w := New(log.NewNop())
	assert.Equal(t, uint64(0), w.Tick())

	_, first := w.BeginTick(context.Background())
	ctx, second := w.BeginTick(context.Background())
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, uint64(2), w.Tick())

	tick, ok := log.TickFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, uint64(2), tick)
}

func TestCloseDropsEverything(t *testing.T) {
	w := New(nil)
	e := w.CreateEntity()
	require.NoError(t, w.AddComponent(e, models.NewPositionComponent(e.ID(), 0, 0, 0)))

	w.Close()
	w.Close()
	assert.Empty(t, w.Entities())
	assert.Empty(t, w.Events().AllEvents())
	assert.Empty(t, w.Events().NetworkEvents())
}
