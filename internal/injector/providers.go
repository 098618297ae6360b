package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/tickworld/internal/client"
	"github.com/zeusync/tickworld/internal/config"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/protocol/quic"
	"github.com/zeusync/tickworld/internal/core/protocol/websocket"
	"github.com/zeusync/tickworld/internal/server"
)

// ConfigPath is the optional configuration file given on the command line.
type ConfigPath string

var (
	CommonSet = wire.NewSet(ProvideConfig, ProvideLogger)
	ServerSet = wire.NewSet(CommonSet, ProvideServerConfig, ProvideTransport, server.NewServer)
	ClientSet = wire.NewSet(CommonSet, ProvideClientConfig, ProvideDialer, client.NewClient)
)

func ProvideConfig(path ConfigPath) (config.Config, error) {
	return config.Load(string(path))
}

func ProvideLogger(cfg config.Config) log.Log {
	return log.New(log.ParseLevel(cfg.Log.Level))
}

func ProvideServerConfig(cfg config.Config) config.ServerConfig {
	return cfg.Server
}

func ProvideClientConfig(cfg config.Config) config.ClientConfig {
	return cfg.Client
}

// ProvideTransport picks the server transport named in configuration.
func ProvideTransport(cfg config.ServerConfig, logger log.Log) (protocol.Transport, error) {
	switch cfg.Transport {
	case config.TransportWebSocket:
		return websocket.NewServer(cfg.ProtocolConfig(), logger), nil
	case config.TransportQUIC:
		return quic.NewServer(cfg.ProtocolConfig(), logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", protocol.ErrUnsupportedProtocol, cfg.Transport)
	}
}

// ProvideDialer picks the client transport named in configuration.
func ProvideDialer(cfg config.ClientConfig) (protocol.Dialer, error) {
	switch cfg.Transport {
	case config.TransportWebSocket:
		return websocket.Dialer{Config: cfg.ProtocolConfig()}, nil
	case config.TransportQUIC:
		return quic.Dialer{Config: cfg.ProtocolConfig()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", protocol.ErrUnsupportedProtocol, cfg.Transport)
	}
}
