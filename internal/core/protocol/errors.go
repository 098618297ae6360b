package protocol

import "errors"

var (
	ErrTransportClosed     = errors.New("transport is closed")
	ErrConnectionClosed    = errors.New("connection is closed")
	ErrPeerNotFound        = errors.New("peer not found")
	ErrMaxPeersReached     = errors.New("maximum peers reached")
	ErrMessageTooLarge     = errors.New("message too large")
	ErrInvalidMessage      = errors.New("invalid message")
	ErrUnknownRecordTag    = errors.New("unknown record tag")
	ErrInboxFull           = errors.New("inbox is full")
	ErrUnsupportedProtocol = errors.New("unsupported transport")
)
