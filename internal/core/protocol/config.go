package protocol

import "time"

// Config holds the settings shared by every transport.
type Config struct {
	// Network settings
	Addr           string
	MaxConnections int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	KeepAlive      time.Duration

	// Message settings
	MaxMessageSize int
	InboxSize      int

	// TLS, used by QUIC. Without files an in-memory self-signed certificate is generated.
	CertFile string
	KeyFile  string
}

// DefaultConfig returns default transport configuration
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		MaxConnections: 1000,
		ReadTimeout:    0,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    30 * time.Second,
		KeepAlive:      10 * time.Second,
		MaxMessageSize: 1024 * 1024, // 1MB
		InboxSize:      1024,
	}
}
