package quic

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/tickworld/internal/core/protocol"
)

const headerSize = 4

var _ protocol.PeerWriter = (*Stream)(nil)

// Stream frames messages on a bidirectional QUIC stream as a 4-byte big-endian length
// followed by the payload.
type Stream struct {
	conn    *quic.Conn
	stream  *quic.Stream
	config  protocol.Config
	writeMu sync.Mutex
	once    sync.Once
}

func NewStream(conn *quic.Conn, stream *quic.Stream, config protocol.Config) *Stream {
	return &Stream{conn: conn, stream: stream, config: config}
}

func (s *Stream) WriteMessage(data []byte) error {
	if s.config.MaxMessageSize > 0 && len(data) > s.config.MaxMessageSize {
		return errors.Wrapf(protocol.ErrMessageTooLarge, "%d bytes", len(data))
	}

	frame := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[headerSize:], data)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.config.WriteTimeout > 0 {
		_ = s.stream.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	if _, err := s.stream.Write(frame); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}
	return nil
}

func (s *Stream) ReadMessage() ([]byte, error) {
	if s.config.ReadTimeout > 0 {
		_ = s.stream.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(s.stream, header); err != nil {
		return nil, errors.Wrap(err, "failed to read frame header")
	}
	length := binary.BigEndian.Uint32(header)
	if s.config.MaxMessageSize > 0 && int(length) > s.config.MaxMessageSize {
		return nil, errors.Wrapf(protocol.ErrMessageTooLarge, "%d bytes", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(s.stream, data); err != nil {
		return nil, errors.Wrap(err, "failed to read frame data")
	}
	return data, nil
}

// Close closes the stream and its connection once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.stream.Close()
		err = s.conn.CloseWithError(quic.ApplicationErrorCode(0), "closed")
	})
	return err
}
