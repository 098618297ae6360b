package protocol

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/zeusync/tickworld/internal/core/observability/log"
)

// PeerWriter is the write half of a peer connection.
type PeerWriter interface {
	WriteMessage(data []byte) error
	Close() error
}

// HubStats counts hub activity.
type HubStats struct {
	PeersJoined   uint64
	PeersLeft     uint64
	MessagesIn    uint64
	MessagesOut   uint64
	InboxDropped  uint64
	WriteFailures uint64
}

// Hub is the peer bookkeeping shared by the server transports: it owns the peer table and
// the inbox, and fans outbound messages out to peer writers.
type Hub struct {
	mu     sync.RWMutex
	peers  map[PeerID]PeerWriter
	inbox  chan Inbound
	done   chan struct{}
	codec  *JSONCodec
	config Config
	logger log.Log
	closed int32 // atomic bool

	peersJoined   uint64
	peersLeft     uint64
	messagesIn    uint64
	messagesOut   uint64
	inboxDropped  uint64
	writeFailures uint64
}

func NewHub(config Config, logger log.Log) *Hub {
	if logger == nil {
		logger = log.NewNop()
	}
	size := config.InboxSize
	if size <= 0 {
		size = DefaultConfig().InboxSize
	}
	return &Hub{
		peers:  make(map[PeerID]PeerWriter),
		inbox:  make(chan Inbound, size),
		done:   make(chan struct{}),
		codec:  NewJSONCodec(config.MaxMessageSize),
		config: config,
		logger: logger,
	}
}

// NewPeerID generates a random peer id.
func NewPeerID() PeerID {
	return PeerID(uuid.NewString())
}

func (h *Hub) Codec() *JSONCodec {
	return h.codec
}

// Join registers a peer and announces it on the inbox.
func (h *Hub) Join(id PeerID, w PeerWriter) error {
	if h.IsClosed() {
		return ErrTransportClosed
	}

	h.mu.Lock()
	if h.config.MaxConnections > 0 && len(h.peers) >= h.config.MaxConnections {
		h.mu.Unlock()
		return ErrMaxPeersReached
	}
	h.peers[id] = w
	count := len(h.peers)
	h.mu.Unlock()

	atomic.AddUint64(&h.peersJoined, 1)
	h.logger.Info("Peer joined", log.String("peer_id", string(id)), log.Int("peers", count))
	h.push(Inbound{Peer: id, Kind: InboundJoined})
	return nil
}

// Leave unregisters a peer. Calling it twice is harmless.
func (h *Hub) Leave(id PeerID) {
	h.mu.Lock()
	w, ok := h.peers[id]
	delete(h.peers, id)
	count := len(h.peers)
	h.mu.Unlock()

	if !ok {
		return
	}
	_ = w.Close()
	atomic.AddUint64(&h.peersLeft, 1)
	h.logger.Info("Peer left", log.String("peer_id", string(id)), log.Int("peers", count))
	h.push(Inbound{Peer: id, Kind: InboundLeft})
}

// Deliver decodes raw bytes from a peer and queues the message for the tick loop.
func (h *Hub) Deliver(id PeerID, data []byte) error {
	msg, err := h.codec.Decode(data)
	if err != nil {
		return err
	}
	atomic.AddUint64(&h.messagesIn, 1)
	h.push(Inbound{Peer: id, Kind: InboundMessage, Message: msg})
	return nil
}

// push never blocks the reader; a full inbox drops the message. Lifecycle items wait for
// room until the hub is closed, since losing a leave would leak an entity.
func (h *Hub) push(in Inbound) {
	if h.IsClosed() {
		return
	}
	select {
	case h.inbox <- in:
		return
	default:
	}

	if in.Kind != InboundMessage {
		select {
		case h.inbox <- in:
		case <-h.done:
		}
		return
	}
	atomic.AddUint64(&h.inboxDropped, 1)
	h.logger.Warn("Inbox full, dropping message",
		log.String("peer_id", string(in.Peer)),
		log.String("type", string(in.Message.Type)))
}

func (h *Hub) Inbox() <-chan Inbound {
	return h.inbox
}

// Broadcast encodes msg once and writes it to every peer. Failed peers are dropped.
func (h *Hub) Broadcast(msg Message) error {
	data, err := h.codec.Encode(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make(map[PeerID]PeerWriter, len(h.peers))
	for id, w := range h.peers {
		targets[id] = w
	}
	h.mu.RUnlock()

	var all error
	for id, w := range targets {
		if err := w.WriteMessage(data); err != nil {
			atomic.AddUint64(&h.writeFailures, 1)
			h.logger.Warn("Broadcast write failed", log.String("peer_id", string(id)), log.Error(err))
			all = errors.Join(all, err)
			h.Leave(id)
			continue
		}
		atomic.AddUint64(&h.messagesOut, 1)
	}
	return all
}

func (h *Hub) Send(id PeerID, msg Message) error {
	h.mu.RLock()
	w, ok := h.peers[id]
	h.mu.RUnlock()
	if !ok {
		return ErrPeerNotFound
	}

	data, err := h.codec.Encode(msg)
	if err != nil {
		return err
	}
	if err := w.WriteMessage(data); err != nil {
		atomic.AddUint64(&h.writeFailures, 1)
		h.Leave(id)
		return err
	}
	atomic.AddUint64(&h.messagesOut, 1)
	return nil
}

func (h *Hub) Peers() []PeerID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PeerID, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	return out
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		PeersJoined:   atomic.LoadUint64(&h.peersJoined),
		PeersLeft:     atomic.LoadUint64(&h.peersLeft),
		MessagesIn:    atomic.LoadUint64(&h.messagesIn),
		MessagesOut:   atomic.LoadUint64(&h.messagesOut),
		InboxDropped:  atomic.LoadUint64(&h.inboxDropped),
		WriteFailures: atomic.LoadUint64(&h.writeFailures),
	}
}

func (h *Hub) IsClosed() bool {
	return atomic.LoadInt32(&h.closed) == 1
}

// Close disconnects every peer. The inbox is left open; readers stop on ctx instead.
func (h *Hub) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	close(h.done)

	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[PeerID]PeerWriter)
	h.mu.Unlock()

	for _, w := range peers {
		_ = w.Close()
	}
	return nil
}
