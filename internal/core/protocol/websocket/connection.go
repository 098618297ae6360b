package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/tickworld/internal/core/protocol"
)

var _ protocol.PeerWriter = (*Connection)(nil)

// Connection wraps one websocket connection with serialized writes.
type Connection struct {
	conn   *websocket.Conn
	config protocol.Config
	closed int32

	// Write mutex to ensure thread-safe writes
	writeMu sync.Mutex

	bytesSent     uint64
	bytesReceived uint64
}

func NewConnection(conn *websocket.Conn, config protocol.Config) *Connection {
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(config.MaxMessageSize))
	}
	return &Connection{conn: conn, config: config}
}

// WriteMessage sends one text frame.
func (c *Connection) WriteMessage(data []byte) error {
	if c.IsClosed() {
		return protocol.ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	atomic.AddUint64(&c.bytesSent, uint64(len(data)))
	return nil
}

// ReadMessage blocks for the next data frame.
func (c *Connection) ReadMessage() ([]byte, error) {
	if c.IsClosed() {
		return nil, protocol.ErrConnectionClosed
	}
	if c.config.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message")
	}
	if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
		return nil, errors.Wrapf(protocol.ErrInvalidMessage, "unsupported frame type %d", messageType)
	}
	atomic.AddUint64(&c.bytesReceived, uint64(len(data)))
	return data, nil
}

// Ping sends a control ping.
func (c *Connection) Ping(timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

func (c *Connection) BytesSent() uint64     { return atomic.LoadUint64(&c.bytesSent) }
func (c *Connection) BytesReceived() uint64 { return atomic.LoadUint64(&c.bytesReceived) }

func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Close sends a close frame and tears the connection down. Safe to call twice.
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}
