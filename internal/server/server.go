package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/tickworld/internal/config"
	"github.com/zeusync/tickworld/internal/core/interp"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/systems"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/internal/gameplay"
	"github.com/zeusync/tickworld/internal/scene"
	"github.com/zeusync/tickworld/pkg/geom"
)

// Session is one connected peer and the entity it controls.
type Session struct {
	Peer        protocol.PeerID
	Player      models.EntityID
	ConnectedAt time.Time
}

var playerColors = []string{"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4", "#46f0f0", "#f032e6"}

// Server runs the authoritative simulation: it drains client traffic, advances the world at
// a fixed tick rate and broadcasts every tick's network events as one frame.
type Server struct {
	world     *world.World
	transport protocol.Transport
	scheduler *systems.Scheduler
	inbound   *gameplay.InboundSystem
	network   *systems.NetworkSystem

	// Sessions are only touched by the tick goroutine.
	sessions map[protocol.PeerID]*Session
	chat     models.EntityID

	config  config.ServerConfig
	logger  log.Log
	running int32 // atomic bool
}

// NewServer builds the world, spawns the configured scene and the chat entity, and wires the
// tick systems.
func NewServer(cfg config.ServerConfig, transport protocol.Transport, logger log.Log) (*Server, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, cfg.TickRate)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "server"))

	w := world.New(logger)
	chat := w.CreateEntity()

	if cfg.ScenePath != "" {
		sc, err := scene.LoadFile(cfg.ScenePath)
		if err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
		ids, err := sc.Spawn(w)
		if err != nil {
			return nil, err
		}
		logger.Info("Scene spawned", log.String("scene", sc.Name), log.Int("entities", len(ids)))
	}
	// Spawning raised events outside any tick; peers get the state from their snapshot.
	w.Events().AfterUpdate(nil)

	s := &Server{
		world:     w,
		transport: transport,
		inbound:   gameplay.NewInboundSystem(chat.ID(), logger),
		network:   systems.NewNetworkSystem(transport, logger),
		sessions:  make(map[protocol.PeerID]*Session),
		chat:      chat.ID(),
		config:    cfg,
		logger:    logger,
	}
	s.scheduler = systems.NewScheduler(logger,
		s.inbound,
		gameplay.NewMovementSystem(gameplay.DefaultMoveSpeed),
		s.network,
		systems.NewDestroySystem(logger),
	)

	logger.Info("Server created",
		log.String("listen_addr", cfg.Addr),
		log.Int("tick_rate", cfg.TickRate),
		log.Int("max_clients", cfg.MaxClients))
	return s, nil
}

func (s *Server) World() *world.World { return s.world }

// ChatEntity is the entity chat events are attached to.
func (s *Server) ChatEntity() models.EntityID { return s.chat }

// Run serves the transport and ticks the world until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.transport.Serve(gctx)
	})
	g.Go(func() error {
		return s.loop(gctx)
	})

	err := g.Wait()
	_ = s.transport.Close()
	s.world.Close()
	s.logger.Info("Server stopped")
	return err
}

func (s *Server) loop(ctx context.Context) error {
	interval := interp.TickInterval(s.config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Tick loop started", log.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step(ctx, interval)
		}
	}
}

// Step runs exactly one tick: pending transport traffic first, then the systems.
func (s *Server) Step(ctx context.Context, dt time.Duration) {
	tickCtx, _ := s.world.BeginTick(ctx)
	s.drainInbox(tickCtx)
	// Failures are logged per system by the scheduler.
	_ = s.scheduler.Run(tickCtx, s.world, dt)
}

func (s *Server) drainInbox(ctx context.Context) {
	for {
		select {
		case in := <-s.transport.Inbox():
			s.handle(ctx, in)
		default:
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, in protocol.Inbound) {
	logger := s.logger.WithContext(ctx)
	switch in.Kind {
	case protocol.InboundJoined:
		if err := s.join(in.Peer); err != nil {
			logger.Error("Failed to admit peer", log.String("peer_id", string(in.Peer)), log.Error(err))
		}
	case protocol.InboundLeft:
		s.leave(ctx, in.Peer)
	case protocol.InboundMessage:
		session, ok := s.sessions[in.Peer]
		if !ok {
			logger.Warn("Message from unknown peer", log.String("peer_id", string(in.Peer)))
			return
		}
		if in.Message.Type == protocol.MessageTypeHello {
			return
		}
		s.inbound.Enqueue(session.Player, in.Message)
	}
}

// join sends the current state to the peer, then spawns its player. The player's components
// reach everyone, the new peer included, through this tick's frame.
func (s *Server) join(peer protocol.PeerID) error {
	snapshot, err := protocol.Snapshot(s.world)
	if err != nil {
		return err
	}

	player, err := s.spawnPlayer(peer)
	if err != nil {
		return err
	}
	s.sessions[peer] = &Session{Peer: peer, Player: player, ConnectedAt: time.Now()}

	welcome, err := protocol.NewMessage(protocol.MessageTypeWelcome, protocol.Welcome{
		PlayerID: player,
		TickRate: s.config.TickRate,
	})
	if err != nil {
		return err
	}
	if err := s.transport.Send(peer, welcome); err != nil {
		return err
	}
	frame, err := protocol.FrameMessage(snapshot)
	if err != nil {
		return err
	}
	return s.transport.Send(peer, frame)
}

func (s *Server) spawnPlayer(peer protocol.PeerID) (models.EntityID, error) {
	e := s.world.CreateEntity()
	id := e.ID()

	color, _ := geom.ParseHexColor(playerColors[xxhash.Sum64String(string(peer))%uint64(len(playerColors))])
	spawn := float64(id%8) * 2
	for _, c := range []models.Component{
		models.NewPositionComponent(id, spawn, 0, 0),
		models.NewRotationComponent(id, 0, 0, 0, 1),
		models.NewSizeComponent(id, 1, 1, 1),
		models.NewColorComponent(id, color),
		models.NewInputComponent(id),
	} {
		if err := s.world.AddComponent(e, c); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (s *Server) leave(ctx context.Context, peer protocol.PeerID) {
	session, ok := s.sessions[peer]
	if !ok {
		return
	}
	delete(s.sessions, peer)
	s.world.DestroyEntity(session.Player)
	s.logger.WithContext(ctx).Info("Player left",
		log.String("peer_id", string(peer)),
		log.Uint64("entity_id", uint64(session.Player)))
}

// Session looks up the session of a peer. Only safe from the tick goroutine or while the
// loop is not running.
func (s *Server) Session(peer protocol.PeerID) (*Session, error) {
	session, ok := s.sessions[peer]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Server) SessionCount() int {
	return len(s.sessions)
}
