package systems

import (
	"context"
	"time"

	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/world"
)

// Broadcaster is the part of a server transport the network system needs.
type Broadcaster interface {
	Broadcast(msg protocol.Message) error
}

// NetworkSystem turns the tick's network events into one frame and broadcasts it. It must
// run after every system that mutates replicated state.
type NetworkSystem struct {
	out    Broadcaster
	logger log.Log

	framesSent uint64
}

func NewNetworkSystem(out Broadcaster, logger log.Log) *NetworkSystem {
	if logger == nil {
		logger = log.NewNop()
	}
	return &NetworkSystem{out: out, logger: logger.With(log.String("system", "network"))}
}

func (s *NetworkSystem) Name() string { return "network" }

// FramesSent counts non-empty frames handed to the transport.
func (s *NetworkSystem) FramesSent() uint64 { return s.framesSent }

func (s *NetworkSystem) Update(ctx context.Context, w *world.World, _ time.Duration) error {
	components := w.Events().NetworkEvents()
	if len(components) == 0 {
		return nil
	}

	frame, err := protocol.EncodeFrame(w.Tick(), components)
	if err != nil {
		return err
	}
	if len(frame.Records) == 0 {
		return nil
	}
	msg, err := protocol.FrameMessage(frame)
	if err != nil {
		return err
	}

	s.framesSent++
	if err := s.out.Broadcast(msg); err != nil {
		// Failed peers are already dropped by the transport.
		s.logger.WithContext(ctx).Warn("Frame broadcast incomplete", log.Error(err))
	}
	return nil
}
