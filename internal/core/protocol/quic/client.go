package quic

import (
	"context"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/tickworld/internal/core/protocol"
)

var (
	_ protocol.Conn   = (*ClientConn)(nil)
	_ protocol.Dialer = Dialer{}
)

type Dialer struct {
	Config protocol.Config
}

func (d Dialer) Dial(ctx context.Context, addr string) (protocol.Conn, error) {
	return Dial(ctx, addr, d.Config)
}

// ClientConn is the client end of a QUIC transport.
type ClientConn struct {
	stream *Stream
	codec  *protocol.JSONCodec
}

// Dial connects, opens the replication stream and announces itself with a hello, which
// makes the stream visible to the server.
func Dial(ctx context.Context, addr string, config protocol.Config) (*ClientConn, error) {
	conn, err := quic.DialAddr(ctx, addr, ClientTLS(), quicConfig(config))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	raw, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(quic.ApplicationErrorCode(0), "")
		return nil, errors.Wrap(err, "open stream")
	}

	c := &ClientConn{
		stream: NewStream(conn, raw, config),
		codec:  protocol.NewJSONCodec(config.MaxMessageSize),
	}
	if err := c.Send(ctx, protocol.Message{Type: protocol.MessageTypeHello}); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *ClientConn) Send(_ context.Context, msg protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	return c.stream.WriteMessage(data)
}

func (c *ClientConn) Receive(ctx context.Context) (protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Message{}, err
	}
	data, err := c.stream.ReadMessage()
	if err != nil {
		return protocol.Message{}, err
	}
	return c.codec.Decode(data)
}

func (c *ClientConn) Close() error {
	return c.stream.Close()
}
