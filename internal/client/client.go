package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/tickworld/internal/config"
	"github.com/zeusync/tickworld/internal/core/interp"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/systems"
	"github.com/zeusync/tickworld/internal/core/world"
)

type (
	// MeshLoader loads server-announced meshes during the awaited load phase.
	MeshLoader = systems.MeshLoader
	// HUD displays chat lines.
	HUD = systems.ChatSink
)

var ErrNotConnected = errors.New("client is not connected")

// Client mirrors the server's world and renders it smoothly. A receive goroutine queues
// frames; the frame loop applies them and runs the client systems in a fixed order.
type Client struct {
	world  *world.World
	dialer protocol.Dialer
	loader MeshLoader
	input  InputSource
	hud    HUD
	config config.ClientConfig
	logger log.Log

	mu        sync.Mutex
	conn      protocol.Conn
	scheduler *systems.Scheduler
	sync      *systems.SyncComponentsSystem
	tickRate  int

	player int64 // atomic, 0 until welcomed
}

func NewClient(cfg config.ClientConfig, dialer protocol.Dialer, loader MeshLoader, input InputSource, hud HUD, logger log.Log) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "client"))
	return &Client{
		world:  world.New(logger),
		dialer: dialer,
		loader: loader,
		input:  input,
		hud:    hud,
		config: cfg,
		logger: logger,
		sync:   systems.NewSyncComponentsSystem(logger),
	}
}

func (c *Client) World() *world.World { return c.world }

// Player returns the id of the entity this client controls once welcomed.
func (c *Client) Player() (models.EntityID, bool) {
	id := atomic.LoadInt64(&c.player)
	return models.EntityID(id), id != 0
}

// ServerTickRate is the rate announced in the welcome message.
func (c *Client) ServerTickRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickRate
}

// Connect dials the server and waits for the welcome. Frames arriving before it are kept.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dialer.Dial(ctx, c.config.ServerAddr)
	if err != nil {
		return err
	}

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("waiting for welcome: %w", err)
		}
		if msg.Type == protocol.MessageTypeFrame {
			c.handle(msg)
			continue
		}
		if msg.Type != protocol.MessageTypeWelcome {
			continue
		}

		var welcome protocol.Welcome
		if err := msg.Decode(&welcome); err != nil {
			_ = conn.Close()
			return err
		}
		c.attach(conn, welcome)
		return nil
	}
}

func (c *Client) attach(conn protocol.Conn, welcome protocol.Welcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	c.tickRate = welcome.TickRate
	atomic.StoreInt64(&c.player, int64(welcome.PlayerID))

	c.scheduler = systems.NewScheduler(c.logger,
		c.sync,
		systems.NewServerMeshSystem(c.loader, c.config.MeshTimeout, c.logger),
		&inputSendSystem{source: c.input, conn: conn, player: c.Player},
		systems.NewDestroySystem(c.logger),
		systems.NewSyncPositionSystem(welcome.TickRate),
		systems.NewSyncRotationSystem(c.config.RotationBlend),
		systems.NewSyncColorSystem(),
		systems.NewChatSystem(c.hud),
		systems.NewSyncSizeSystem(),
	)

	c.logger.Info("Connected",
		log.Uint64("player_id", uint64(welcome.PlayerID)),
		log.Int("server_tick_rate", welcome.TickRate))
}

// Run connects if needed, then receives and renders until ctx is cancelled or the
// connection drops.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if !connected {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.receive(gctx, conn)
	})
	g.Go(func() error {
		defer conn.Close()
		return c.loop(gctx)
	})

	err := g.Wait()
	c.world.Close()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) receive(ctx context.Context, conn protocol.Conn) error {
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg protocol.Message) {
	switch msg.Type {
	case protocol.MessageTypeFrame:
		var frame protocol.Frame
		if err := msg.Decode(&frame); err != nil {
			// The frame is lost; interpolation holds the last targets until the next one.
			c.logger.Warn("Dropping undecodable frame", log.Error(err))
			return
		}
		c.sync.Enqueue(frame)
	default:
		c.logger.Debug("Ignoring message", log.String("type", string(msg.Type)))
	}
}

func (c *Client) loop(ctx context.Context) error {
	frameRate := c.config.FrameRate
	if frameRate <= 0 {
		frameRate = 60
	}
	ticker := time.NewTicker(interp.TickInterval(frameRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := c.Step(ctx, now.Sub(last)); err != nil && errors.Is(err, protocol.ErrConnectionClosed) {
				return err
			}
			last = now
		}
	}
}

// Step renders one frame: apply received state, await pending mesh loads, send input, then
// smooth every replicated value into the render transforms.
func (c *Client) Step(ctx context.Context, dt time.Duration) error {
	c.mu.Lock()
	scheduler := c.scheduler
	c.mu.Unlock()
	if scheduler == nil {
		return ErrNotConnected
	}

	frameCtx, _ := c.world.BeginTick(ctx)
	return scheduler.Run(frameCtx, c.world, dt)
}

// SendChat sends a chat line under the configured name.
func (c *Client) SendChat(ctx context.Context, content string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	msg, err := protocol.NewMessage(protocol.MessageTypeChat, protocol.ChatMessage{
		Sender:  c.config.Name,
		Content: content,
	})
	if err != nil {
		return err
	}
	return conn.Send(ctx, msg)
}

// RenderTransform returns the smoothed state of an entity.
func (c *Client) RenderTransform(id models.EntityID) (models.RenderTransformComponent, bool) {
	e, ok := c.world.Entity(id)
	if !ok {
		return models.RenderTransformComponent{}, false
	}
	rt, ok := models.Get[*models.RenderTransformComponent](e, models.KindRenderTransform)
	if !ok {
		return models.RenderTransformComponent{}, false
	}
	return *rt, true
}
