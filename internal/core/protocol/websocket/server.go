package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"

	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
)

var _ protocol.Transport = (*Server)(nil)

// Path is the endpoint the upgrade handler is mounted on.
const Path = "/ws"

const pingInterval = 30 * time.Second

// Server is a websocket replication transport.
type Server struct {
	*protocol.Hub

	config   protocol.Config
	logger   log.Log
	upgrader websocket.Upgrader

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	wg       sync.WaitGroup
}

func NewServer(config protocol.Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("protocol", "websocket"))
	return &Server{
		Hub:    protocol.NewHub(config, logger),
		config: config,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler exposes the upgrade endpoint, so tests can mount it on httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Listen binds the configured address without serving yet.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen on %s", s.config.Addr)
	}
	s.listener = ln
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the HTTP server until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: s.config.ReadTimeout,
		IdleTimeout: s.config.IdleTimeout,
	}
	srv, ln := s.server, s.listener
	s.mu.Unlock()

	s.logger.Info("WebSocket transport started", log.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = s.Close()
		s.wg.Wait()
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return pkgerrors.Wrap(err, "websocket server")
		}
		return nil
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.IsClosed() {
		http.Error(w, protocol.ErrTransportClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", log.Error(err))
		return
	}

	conn := NewConnection(raw, s.config)
	id := protocol.NewPeerID()
	if err := s.Join(id, conn); err != nil {
		s.logger.Warn("Rejecting peer", log.String("peer_id", string(id)), log.Error(err))
		_ = conn.Close()
		return
	}

	s.wg.Add(1)
	go s.handlePeer(id, conn)
}

func (s *Server) handlePeer(id protocol.PeerID, conn *Connection) {
	defer s.wg.Done()
	defer s.Leave(id)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.Ping(10 * time.Second); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(pkgerrors.Cause(err), websocket.CloseGoingAway, websocket.CloseNormalClosure) && !conn.IsClosed() {
				s.logger.Debug("WebSocket read ended", log.String("peer_id", string(id)), log.Error(err))
			}
			return
		}
		if err := s.Deliver(id, data); err != nil {
			s.logger.Warn("Dropping malformed message", log.String("peer_id", string(id)), log.Error(err))
		}
	}
}

// Close disconnects every peer and stops the HTTP server.
func (s *Server) Close() error {
	err := s.Hub.Close()

	s.mu.Lock()
	srv, ln := s.server, s.listener
	s.mu.Unlock()

	if srv != nil {
		_ = srv.Close()
	} else if ln != nil {
		_ = ln.Close()
	}
	return err
}
