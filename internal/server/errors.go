package server

import "errors"

// Server-specific errors
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidConfig        = errors.New("invalid server configuration")
)
