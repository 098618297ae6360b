package systems

import (
	"context"
	"time"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
)

// ChatSink displays chat lines, typically a HUD.
type ChatSink interface {
	ShowChat(sender, content string)
}

// ChatSystem forwards this frame's chat events to the sink in emission order.
type ChatSystem struct {
	sink ChatSink
}

func NewChatSystem(sink ChatSink) *ChatSystem {
	return &ChatSystem{sink: sink}
}

func (s *ChatSystem) Name() string { return "chat" }

func (s *ChatSystem) Update(_ context.Context, w *world.World, _ time.Duration) error {
	if s.sink == nil {
		return nil
	}
	for _, msg := range events.EventsOf[*models.ChatMessageEvent](w.Events(), models.KindChatMessage) {
		s.sink.ShowChat(msg.Sender, msg.Content)
	}
	return nil
}
