package gameplay

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

func spawnPlayer(t *testing.T, w *world.World) (*models.Entity, *models.InputComponent) {
	t.Helper()
	e := w.CreateEntity()
	input := models.NewInputComponent(e.ID())
	require.NoError(t, e.AddComponent(models.NewPositionComponent(e.ID(), 0, 0, 0)))
	require.NoError(t, e.AddComponent(models.NewRotationComponent(e.ID(), 0, 0, 0, 1)))
	require.NoError(t, e.AddComponent(input))
	return e, input
}

func networkKinds(w *world.World) []models.Kind {
	var kinds []models.Kind
	for _, c := range w.Events().NetworkEvents() {
		kinds = append(kinds, c.Kind())
	}
	return kinds
}

func TestMovementReplicatesChangedState(t *testing.T) {
	w := world.New(nil)
	e, input := spawnPlayer(t, w)
	s := NewMovementSystem(DefaultMoveSpeed)

	input.Right = true
	require.NoError(t, s.Update(context.Background(), w, 100*time.Millisecond))

	pos, _ := models.Get[*models.PositionComponent](e, models.KindPosition)
	assert.InDelta(t, 0.5, pos.X, 1e-9)
	assert.Equal(t, []models.Kind{models.KindPosition, models.KindRotation}, networkKinds(w))

	rot, _ := models.Get[*models.RotationComponent](e, models.KindRotation)
	assert.InDelta(t, -0.7071, rot.Y, 1e-4)
	assert.InDelta(t, 0.7071, rot.W, 1e-4)

	// Replicated snapshots do not follow later mutation.
	first := w.Events().NetworkEvents()[0].Serialize().(models.PositionRecord)
	pos.X = 100
	assert.Equal(t, 0.5, first.X)
}

func TestMovementIdlePlayerSendsNothing(t *testing.T) {
	w := world.New(nil)
	spawnPlayer(t, w)
	s := NewMovementSystem(0)

	require.NoError(t, s.Update(context.Background(), w, 100*time.Millisecond))
	assert.Empty(t, w.Events().NetworkEvents())
}

func TestMovementJumpLands(t *testing.T) {
	w := world.New(nil)
	e, input := spawnPlayer(t, w)
	s := NewMovementSystem(DefaultMoveSpeed)
	pos, _ := models.Get[*models.PositionComponent](e, models.KindPosition)

	input.Jump = true
	require.NoError(t, s.Update(context.Background(), w, 100*time.Millisecond))
	assert.InDelta(t, 0.6, pos.Y, 1e-9)
	input.Jump = false

	peak := pos.Y
	for range 20 {
		w.Events().AfterUpdate(nil)
		require.NoError(t, s.Update(context.Background(), w, 100*time.Millisecond))
		peak = max(peak, pos.Y)
	}
	assert.Greater(t, peak, 0.6)
	assert.Equal(t, 0.0, pos.Y)
	assert.Empty(t, s.vertical, "grounded players keep no vertical state")
}

func TestMovementFacesTheDirectionOfTravel(t *testing.T) {
	assert.Equal(t, geom.IdentityQuat.W, yaw(geom.Vec3{Z: -1}).W)
	q := yaw(geom.Vec3{Z: 1})
	assert.InDelta(t, 1, q.Y*q.Y, 1e-9, "backwards is a half turn")
}

func newInbound(t *testing.T) (*InboundSystem, *world.World, models.EntityID, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	w := world.New(nil)
	chat := w.CreateEntity()
	return NewInboundSystem(chat.ID(), log.NewWithCore(core)), w, chat.ID(), logs
}

func message(t *testing.T, typ protocol.MessageType, payload any) protocol.Message {
	t.Helper()
	msg, err := protocol.NewMessage(typ, payload)
	require.NoError(t, err)
	return msg
}

func TestInboundChatBecomesANetworkEvent(t *testing.T) {
	s, w, chat, _ := newInbound(t)
	s.Enqueue(5, message(t, protocol.MessageTypeChat, protocol.ChatMessage{Sender: " ann ", Content: "  hello  "}))
	s.Enqueue(5, message(t, protocol.MessageTypeChat, protocol.ChatMessage{Content: "who am i"}))

	require.NoError(t, s.Update(context.Background(), w, time.Millisecond))

	msgs := events.EventsOf[*models.ChatMessageEvent](w.Events(), models.KindChatMessage)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat, msgs[0].EntityID())
	assert.Equal(t, "ann", msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "anonymous", msgs[1].Sender)
	assert.Len(t, w.Events().NetworkEvents(), 2)
}

func TestInboundChatIsTruncated(t *testing.T) {
	s, w, _, _ := newInbound(t)
	s.Enqueue(5, message(t, protocol.MessageTypeChat, protocol.ChatMessage{Content: strings.Repeat("é", MaxChatLength+10)}))

	require.NoError(t, s.Update(context.Background(), w, time.Millisecond))
	msgs := events.EventsOf[*models.ChatMessageEvent](w.Events(), models.KindChatMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, MaxChatLength, utf8.RuneCountInString(msgs[0].Content))
}

func TestInboundRejectsBadMessages(t *testing.T) {
	s, w, _, logs := newInbound(t)
	s.Enqueue(5, message(t, protocol.MessageTypeChat, protocol.ChatMessage{Content: "   "}))
	s.Enqueue(5, protocol.Message{Type: protocol.MessageTypeWelcome})
	s.Enqueue(99, message(t, protocol.MessageTypeInput, models.InputRecord{T: models.KindInput, Forward: true}))

	require.NoError(t, s.Update(context.Background(), w, time.Millisecond))
	assert.Empty(t, w.Events().AllEvents())
	assert.Equal(t, 3, logs.FilterMessage("Ignoring client message").Len())
}

func TestInboundInputSteersOnlyTheSendersPlayer(t *testing.T) {
	s, w, _, _ := newInbound(t)
	e, input := spawnPlayer(t, w)
	_, other := spawnPlayer(t, w)

	s.Enqueue(e.ID(), message(t, protocol.MessageTypeInput, models.InputRecord{T: models.KindInput, ID: 999, Forward: true, Jump: true}))
	require.NoError(t, s.Update(context.Background(), w, time.Millisecond))

	assert.True(t, input.Forward)
	assert.True(t, input.Jump)
	assert.False(t, other.Forward)
	assert.Empty(t, w.Events().NetworkEvents(), "input is never broadcast")
}
