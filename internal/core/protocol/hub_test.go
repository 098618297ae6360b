package protocol

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/tickworld/internal/core/observability/log"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessage(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, data)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func (w *fakeWriter) received() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]byte(nil), w.messages...)
}

func nextInbound(t *testing.T, h *Hub) Inbound {
	t.Helper()
	select {
	case in := <-h.Inbox():
		return in
	case <-time.After(time.Second):
		t.Fatal("inbox is empty")
		return Inbound{}
	}
}

func TestHubJoinLeave(t *testing.T) {
	h := NewHub(DefaultConfig(), nil)
	w := &fakeWriter{}

	require.NoError(t, h.Join("a", w))
	assert.Equal(t, Inbound{Peer: "a", Kind: InboundJoined}, nextInbound(t, h))
	assert.Equal(t, []PeerID{"a"}, h.Peers())

	h.Leave("a")
	h.Leave("a")
	assert.Equal(t, Inbound{Peer: "a", Kind: InboundLeft}, nextInbound(t, h))
	assert.True(t, w.closed)
	assert.Empty(t, h.Peers())
	assert.Empty(t, h.Inbox(), "second leave announces nothing")

	stats := h.Stats()
	assert.Equal(t, uint64(1), stats.PeersJoined)
	assert.Equal(t, uint64(1), stats.PeersLeft)
}

func TestHubMaxConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	h := NewHub(cfg, nil)

	require.NoError(t, h.Join("a", &fakeWriter{}))
	assert.ErrorIs(t, h.Join("b", &fakeWriter{}), ErrMaxPeersReached)
}

func TestHubDeliver(t *testing.T) {
	h := NewHub(DefaultConfig(), nil)
	require.NoError(t, h.Join("a", &fakeWriter{}))
	nextInbound(t, h)

	require.NoError(t, h.Deliver("a", []byte(`{"type":"chat","payload":{"sender":"a","content":"hi"}}`)))
	in := nextInbound(t, h)
	assert.Equal(t, InboundMessage, in.Kind)
	assert.Equal(t, MessageTypeChat, in.Message.Type)

	assert.ErrorIs(t, h.Deliver("a", []byte(`garbage`)), ErrInvalidMessage)
}

func TestHubFullInboxDropsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultConfig()
	cfg.InboxSize = 1
	h := NewHub(cfg, log.NewWithCore(core))

	require.NoError(t, h.Join("a", &fakeWriter{}))
	require.NoError(t, h.Deliver("a", []byte(`{"type":"hello"}`)))

	assert.Equal(t, uint64(1), h.Stats().InboxDropped)
	assert.Equal(t, 1, logs.FilterMessage("Inbox full, dropping message").Len())
	assert.Equal(t, InboundJoined, nextInbound(t, h).Kind)
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(DefaultConfig(), nil)
	good := &fakeWriter{}
	bad := &fakeWriter{err: errors.New("broken pipe")}
	require.NoError(t, h.Join("good", good))
	require.NoError(t, h.Join("bad", bad))

	err := h.Broadcast(Message{Type: MessageTypeHello})
	require.Error(t, err)

	require.Len(t, good.received(), 1)
	assert.JSONEq(t, `{"type":"hello"}`, string(good.received()[0]))
	assert.Equal(t, []PeerID{"good"}, h.Peers(), "failed peers are dropped")
	assert.True(t, bad.closed)
	assert.Equal(t, uint64(1), h.Stats().WriteFailures)
}

func TestHubSend(t *testing.T) {
	h := NewHub(DefaultConfig(), nil)
	w := &fakeWriter{}
	require.NoError(t, h.Join("a", w))

	require.NoError(t, h.Send("a", Message{Type: MessageTypeWelcome}))
	assert.Len(t, w.received(), 1)
	assert.ErrorIs(t, h.Send("missing", Message{Type: MessageTypeWelcome}), ErrPeerNotFound)
}

func TestHubClose(t *testing.T) {
	h := NewHub(DefaultConfig(), nil)
	w := &fakeWriter{}
	require.NoError(t, h.Join("a", w))

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.True(t, h.IsClosed())
	assert.True(t, w.closed)
	assert.Empty(t, h.Peers())
	assert.ErrorIs(t, h.Join("b", &fakeWriter{}), ErrTransportClosed)
}

func TestHubCloseReleasesBlockedLeave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InboxSize = 1
	h := NewHub(cfg, nil)
	require.NoError(t, h.Join("a", &fakeWriter{}))

	// Nobody drains the inbox, so the leave waits for room.
	left := make(chan struct{})
	go func() {
		h.Leave("a")
		close(left)
	}()
	select {
	case <-left:
		t.Fatal("leave returned while the inbox was full")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, h.Close())
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave still blocked after close")
	}
	assert.Equal(t, InboundJoined, nextInbound(t, h).Kind)
}

func TestNewPeerIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewPeerID(), NewPeerID())
}
