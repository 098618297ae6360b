package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/pkg/generic"
)

// MessageType routes an envelope to its handler.
type MessageType string

const (
	MessageTypeFrame   MessageType = "frame"
	MessageTypeWelcome MessageType = "welcome"
	MessageTypeInput   MessageType = "input"
	MessageTypeChat    MessageType = "chat"
	MessageTypeHello   MessageType = "hello"
)

// Message is the envelope every transport carries.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Welcome is sent to a peer right after it joins.
type Welcome struct {
	PlayerID models.EntityID `json:"player_id"`
	TickRate int             `json:"tick_rate"`
}

// ChatMessage is a chat line sent by a client.
type ChatMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// NewMessage marshals payload into an envelope of the given type.
func NewMessage(msgType MessageType, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%w: empty %s payload", ErrInvalidMessage, m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrInvalidMessage, m.Type, err)
	}
	return nil
}

// JSONCodec encodes envelopes as JSON, reusing buffers between calls.
type JSONCodec struct {
	buffers *generic.Pool[*bytes.Buffer]
	maxSize int
}

func NewJSONCodec(maxSize int) *JSONCodec {
	return &JSONCodec{
		buffers: generic.NewPool(
			func() *bytes.Buffer { return new(bytes.Buffer) },
			func(b *bytes.Buffer) { b.Reset() },
		),
		maxSize: maxSize,
	}
}

// Encode returns a freshly allocated slice; the pooled buffer never escapes.
func (c *JSONCodec) Encode(msg Message) ([]byte, error) {
	buf := c.buffers.Get()
	defer c.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if c.maxSize > 0 && len(data) > c.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.maxSize)
	}
	return append([]byte(nil), data...), nil
}

func (c *JSONCodec) Decode(data []byte) (Message, error) {
	if c.maxSize > 0 && len(data) > c.maxSize {
		return Message{}, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.maxSize)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return msg, nil
}
