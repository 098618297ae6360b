// Package quic carries replication traffic over one bidirectional QUIC stream per peer.
package quic

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
)

var _ protocol.Transport = (*Server)(nil)

const helloTimeout = 5 * time.Second

// Server is a QUIC replication transport.
type Server struct {
	*protocol.Hub

	config protocol.Config
	logger log.Log

	mu       sync.Mutex
	listener *quic.Listener
	wg       sync.WaitGroup
}

func NewServer(config protocol.Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("protocol", "quic"))
	return &Server{
		Hub:    protocol.NewHub(config, logger),
		config: config,
		logger: logger,
	}
}

func quicConfig(config protocol.Config) *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  config.IdleTimeout,
		KeepAlivePeriod: config.KeepAlive,
	}
}

// Listen binds the configured UDP address.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	tlsConfig, err := ServerTLS(s.config)
	if err != nil {
		return err
	}
	ln, err := quic.ListenAddr(s.config.Addr, tlsConfig, quicConfig(s.config))
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.Addr)
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

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("QUIC transport started", log.String("address", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || s.IsClosed() {
				s.wg.Wait()
				return nil
			}
			return errors.Wrap(err, "accept")
		}

		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn *quic.Conn) {
	defer s.wg.Done()

	acceptCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	raw, err := conn.AcceptStream(acceptCtx)
	cancel()
	if err != nil {
		s.logger.Debug("No stream from peer", log.String("remote", conn.RemoteAddr().String()), log.Error(err))
		_ = conn.CloseWithError(quic.ApplicationErrorCode(1), "no stream")
		return
	}

	stream := NewStream(conn, raw, s.config)
	hello, err := stream.ReadMessage()
	if err != nil {
		_ = stream.Close()
		return
	}
	if msg, err := s.Codec().Decode(hello); err != nil || msg.Type != protocol.MessageTypeHello {
		s.logger.Warn("Expected hello from peer", log.String("remote", conn.RemoteAddr().String()))
		_ = stream.Close()
		return
	}

	id := protocol.NewPeerID()
	if err := s.Join(id, stream); err != nil {
		s.logger.Warn("Rejecting peer", log.String("peer_id", string(id)), log.Error(err))
		_ = stream.Close()
		return
	}
	defer s.Leave(id)

	for {
		data, err := stream.ReadMessage()
		if err != nil {
			s.logger.Debug("QUIC read ended", log.String("peer_id", string(id)), log.Error(err))
			return
		}
		if err := s.Deliver(id, data); err != nil {
			s.logger.Warn("Dropping malformed message", log.String("peer_id", string(id)), log.Error(err))
		}
	}
}

func (s *Server) Close() error {
	err := s.Hub.Close()

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	return err
}
