package protocol

import (
	"context"
	"net"
)

// PeerID identifies one connected client.
type PeerID string

// InboundKind says what an Inbound item carries.
type InboundKind uint8

const (
	InboundJoined InboundKind = iota
	InboundLeft
	InboundMessage
)

func (k InboundKind) String() string {
	switch k {
	case InboundJoined:
		return "joined"
	case InboundLeft:
		return "left"
	case InboundMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Inbound is what a server transport hands to the tick loop. Peer lifecycle changes go
// through the same channel as messages, so the loop sees them in arrival order.
type Inbound struct {
	Peer    PeerID
	Kind    InboundKind
	Message Message
}

// Transport is the server side of a replication transport.
type Transport interface {
	// Serve accepts peers until ctx is done or Close is called.
	Serve(ctx context.Context) error
	// Addr is the bound address once listening.
	Addr() net.Addr

	Broadcast(msg Message) error
	Send(peer PeerID, msg Message) error
	Inbox() <-chan Inbound
	Peers() []PeerID

	Close() error
}

// Conn is the client side of a transport.
type Conn interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// Dialer opens client connections.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}
