package websocket

import (
	"context"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/tickworld/internal/core/protocol"
)

var (
	_ protocol.Conn   = (*ClientConn)(nil)
	_ protocol.Dialer = Dialer{}
)

// Dialer connects to a websocket Server.
type Dialer struct {
	Config protocol.Config
}

// Dial accepts either a host:port or a full ws:// URL.
func (d Dialer) Dial(ctx context.Context, addr string) (protocol.Conn, error) {
	return Dial(ctx, addr, d.Config)
}

// ClientConn is the client end of a websocket transport.
type ClientConn struct {
	conn  *Connection
	codec *protocol.JSONCodec
}

func Dial(ctx context.Context, addr string, config protocol.Config) (*ClientConn, error) {
	target := addr
	if u, err := url.Parse(addr); err != nil || u.Scheme == "" || u.Host == "" {
		target = (&url.URL{Scheme: "ws", Host: addr, Path: Path}).String()
	}

	raw, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", target)
	}
	return &ClientConn{
		conn:  NewConnection(raw, config),
		codec: protocol.NewJSONCodec(config.MaxMessageSize),
	}, nil
}

func (c *ClientConn) Send(_ context.Context, msg protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(data)
}

// Receive blocks for the next message. The read is not interruptible; cancelling ctx
// only takes effect once Close unblocks it.
func (c *ClientConn) Receive(ctx context.Context) (protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Message{}, err
	}
	data, err := c.conn.ReadMessage()
	if err != nil {
		if c.conn.IsClosed() {
			return protocol.Message{}, protocol.ErrConnectionClosed
		}
		return protocol.Message{}, err
	}
	return c.codec.Decode(data)
}

func (c *ClientConn) Close() error {
	return c.conn.Close()
}
