package client

import (
	"context"
	"sync"
	"time"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/world"
)

// Intents is the movement state a player wants this frame.
type Intents struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Jump     bool
}

// InputSource reports the local player's current intents, e.g. from a keyboard.
type InputSource interface {
	Intents() Intents
}

// InputState is an InputSource set programmatically. Safe for concurrent use.
type InputState struct {
	mu      sync.Mutex
	intents Intents
}

func (s *InputState) Set(i Intents) {
	s.mu.Lock()
	s.intents = i
	s.mu.Unlock()
}

func (s *InputState) Intents() Intents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intents
}

// inputSendSystem sends the player's intents whenever they change.
type inputSendSystem struct {
	source InputSource
	conn   protocol.Conn
	player func() (models.EntityID, bool)

	last Intents
	sent bool
}

func (s *inputSendSystem) Name() string { return "input_send" }

func (s *inputSendSystem) Update(ctx context.Context, _ *world.World, _ time.Duration) error {
	if s.source == nil {
		return nil
	}
	id, ok := s.player()
	if !ok {
		return nil
	}

	intents := s.source.Intents()
	if s.sent && intents == s.last {
		return nil
	}

	input := models.NewInputComponent(id)
	input.Forward, input.Backward, input.Left, input.Right, input.Jump = intents.Forward, intents.Backward, intents.Left, intents.Right, intents.Jump
	msg, err := protocol.NewMessage(protocol.MessageTypeInput, input.Serialize())
	if err != nil {
		return err
	}
	if err := s.conn.Send(ctx, msg); err != nil {
		return err
	}
	s.last, s.sent = intents, true
	return nil
}
