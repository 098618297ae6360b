package quic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickworld/internal/core/protocol"
)

func waitInbound(t *testing.T, s *Server, kind protocol.InboundKind) protocol.Inbound {
	t.Helper()
	for {
		select {
		case in := <-s.Inbox():
			if in.Kind == kind {
				return in
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s inbound item", kind)
			return protocol.Inbound{}
		}
	}
}

func TestQUICRoundTrip(t *testing.T) {
	cfg := protocol.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := NewServer(cfg, nil)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	conn, err := Dialer{Config: cfg}.Dial(ctx, s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	joined := waitInbound(t, s, protocol.InboundJoined)

	chat, err := protocol.NewMessage(protocol.MessageTypeChat, protocol.ChatMessage{Sender: "ann", Content: "over udp"})
	require.NoError(t, err)
	require.NoError(t, conn.Send(ctx, chat))

	in := waitInbound(t, s, protocol.InboundMessage)
	assert.Equal(t, joined.Peer, in.Peer)
	var got protocol.ChatMessage
	require.NoError(t, in.Message.Decode(&got))
	assert.Equal(t, "over udp", got.Content)

	require.NoError(t, s.Broadcast(protocol.Message{Type: protocol.MessageTypeWelcome}))
	msg, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.MessageTypeWelcome, msg.Type)

	require.NoError(t, conn.Close())
	waitInbound(t, s, protocol.InboundLeft)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestStreamRejectsOversizedMessages(t *testing.T) {
	cfg := protocol.DefaultConfig()
	cfg.MaxMessageSize = 8
	s := &Stream{config: cfg}

	assert.ErrorIs(t, s.WriteMessage(make([]byte, 9)), protocol.ErrMessageTooLarge)
}

func TestServerTLS(t *testing.T) {
	tlsConfig, err := ServerTLS(protocol.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, tlsConfig.Certificates, 1)
	assert.Equal(t, []string{NextProto}, tlsConfig.NextProtos)

	cfg := protocol.DefaultConfig()
	cfg.CertFile, cfg.KeyFile = "missing.crt", "missing.key"
	_, err = ServerTLS(cfg)
	assert.Error(t, err)

	assert.Equal(t, []string{NextProto}, ClientTLS().NextProtos)
}
