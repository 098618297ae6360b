package gameplay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/world"
)

// MaxChatLength bounds a chat line in runes.
const MaxChatLength = 256

var ErrEmptyChat = errors.New("empty chat message")

type inbound struct {
	player models.EntityID
	msg    protocol.Message
}

// InboundSystem applies client messages at the start of the tick that follows their arrival.
// Input replaces the player's intents; chat becomes a network ChatMessageEvent on the chat
// entity.
type InboundSystem struct {
	chat   models.EntityID
	logger log.Log

	mu      sync.Mutex
	pending []inbound
}

func NewInboundSystem(chat models.EntityID, logger log.Log) *InboundSystem {
	if logger == nil {
		logger = log.NewNop()
	}
	return &InboundSystem{chat: chat, logger: logger.With(log.String("system", "inbound"))}
}

func (s *InboundSystem) Name() string { return "inbound" }

// Enqueue records a message from the peer controlling player.
func (s *InboundSystem) Enqueue(player models.EntityID, msg protocol.Message) {
	s.mu.Lock()
	s.pending = append(s.pending, inbound{player: player, msg: msg})
	s.mu.Unlock()
}

func (s *InboundSystem) Update(ctx context.Context, w *world.World, _ time.Duration) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	logger := s.logger.WithContext(ctx)
	for _, in := range pending {
		var err error
		switch in.msg.Type {
		case protocol.MessageTypeInput:
			err = s.applyInput(w, in.player, in.msg)
		case protocol.MessageTypeChat:
			err = s.applyChat(w, in.msg)
		default:
			err = fmt.Errorf("%w: unexpected %q from client", protocol.ErrInvalidMessage, in.msg.Type)
		}
		if err != nil {
			logger.Warn("Ignoring client message",
				log.Uint64("entity_id", uint64(in.player)),
				log.String("type", string(in.msg.Type)),
				log.Error(err))
		}
	}
	return nil
}

func (s *InboundSystem) applyInput(w *world.World, player models.EntityID, msg protocol.Message) error {
	var rec models.InputRecord
	if err := msg.Decode(&rec); err != nil {
		return err
	}
	e, ok := w.Entity(player)
	if !ok || e.IsDestroyed() {
		return fmt.Errorf("player entity %d not found", player)
	}

	input, ok := models.Get[*models.InputComponent](e, models.KindInput)
	if !ok {
		input = models.NewInputComponent(player)
		if err := w.AddComponent(e, input); err != nil {
			return err
		}
	}
	// The record's entity id is ignored; a peer only ever steers its own player.
	input.Forward, input.Backward, input.Left, input.Right, input.Jump = rec.Forward, rec.Backward, rec.Left, rec.Right, rec.Jump
	return nil
}

func (s *InboundSystem) applyChat(w *world.World, msg protocol.Message) error {
	var chat protocol.ChatMessage
	if err := msg.Decode(&chat); err != nil {
		return err
	}
	content := strings.TrimSpace(chat.Content)
	if content == "" {
		return ErrEmptyChat
	}
	if utf8.RuneCountInString(content) > MaxChatLength {
		content = string([]rune(content)[:MaxChatLength])
	}
	sender := strings.TrimSpace(chat.Sender)
	if sender == "" {
		sender = "anonymous"
	}

	w.Events().AddNetworkEvent(models.NewChatMessageEvent(s.chat, sender, content))
	return nil
}
