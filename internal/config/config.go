package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
)

// Transport names accepted in configuration.
const (
	TransportWebSocket = "websocket"
	TransportQUIC      = "quic"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds the authoritative simulation settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Transport    string        `mapstructure:"transport"`
	TickRate     int           `mapstructure:"tick_rate"`
	MaxClients   int           `mapstructure:"max_clients"`
	ScenePath    string        `mapstructure:"scene_path"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	InboxSize    int           `mapstructure:"inbox_size"`
	MaxMessage   int           `mapstructure:"max_message_size"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
}

// ClientConfig holds the replicating client settings.
type ClientConfig struct {
	ServerAddr    string        `mapstructure:"server_addr"`
	Transport     string        `mapstructure:"transport"`
	Name          string        `mapstructure:"name"`
	FrameRate     int           `mapstructure:"frame_rate"`
	RotationBlend float64       `mapstructure:"rotation_blend"`
	MeshTimeout   time.Duration `mapstructure:"mesh_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and env. Env var overrides use prefix TICKWORLD_,
// e.g. TICKWORLD_SERVER_TICK_RATE. An empty path falls back to TICKWORLD_CONFIG, then to
// an optional ./tickworld.yaml.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.transport", TransportWebSocket)
	v.SetDefault("server.tick_rate", 20)
	v.SetDefault("server.max_clients", 64)
	v.SetDefault("server.scene_path", "")
	v.SetDefault("server.write_timeout", 5*time.Second)
	v.SetDefault("server.idle_timeout", 30*time.Second)
	v.SetDefault("server.inbox_size", 1024)
	v.SetDefault("server.max_message_size", 1<<20)
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")
	v.SetDefault("client.server_addr", "127.0.0.1:8080")
	v.SetDefault("client.transport", TransportWebSocket)
	v.SetDefault("client.name", "player")
	v.SetDefault("client.frame_rate", 60)
	v.SetDefault("client.rotation_blend", 0.5)
	v.SetDefault("client.mesh_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")

	if path == "" {
		path = os.Getenv("TICKWORLD_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tickworld")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TICKWORLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate must be positive, got %d", c.Server.TickRate))
	}
	if !validTransport(c.Server.Transport) {
		errs = append(errs, fmt.Errorf("server.transport %q is not one of websocket, quic", c.Server.Transport))
	}
	if !validTransport(c.Client.Transport) {
		errs = append(errs, fmt.Errorf("client.transport %q is not one of websocket, quic", c.Client.Transport))
	}
	if c.Client.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("client.frame_rate must be positive, got %d", c.Client.FrameRate))
	}
	if c.Client.RotationBlend <= 0 || c.Client.RotationBlend > 1 {
		errs = append(errs, fmt.Errorf("client.rotation_blend must be in (0, 1], got %v", c.Client.RotationBlend))
	}
	if level := strings.ToLower(c.Log.Level); log.ParseLevel(level) == log.LevelInfo && level != "info" {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error, fatal", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validTransport(name string) bool {
	return name == TransportWebSocket || name == TransportQUIC
}

// ProtocolConfig converts the server section into transport settings.
func (s ServerConfig) ProtocolConfig() protocol.Config {
	c := protocol.DefaultConfig()
	c.Addr = s.Addr
	c.MaxConnections = s.MaxClients
	c.WriteTimeout = s.WriteTimeout
	c.IdleTimeout = s.IdleTimeout
	c.InboxSize = s.InboxSize
	c.MaxMessageSize = s.MaxMessage
	c.CertFile = s.CertFile
	c.KeyFile = s.KeyFile
	return c
}

// ProtocolConfig returns the transport settings used when dialing.
func (c ClientConfig) ProtocolConfig() protocol.Config {
	pc := protocol.DefaultConfig()
	pc.Addr = c.ServerAddr
	return pc
}
