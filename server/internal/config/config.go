package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration. The ports mirror the fixed
// constants the original test rigs used: 8080 for the echo service, 8000 for
// the metrics relay (shared with the HTTP API).
const (
	DefaultEchoPort    = 8080
	DefaultMetricsPort = 8000
	DefaultEchoMode    = "echo"
	DefaultGreeting    = "connected to echolink"
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// EchoPort is the port the echo WebSocket service listens on (default 8080).
	EchoPort int `yaml:"echo_port"`

	// MetricsPort is the port the metrics relay and HTTP API share (default 8000).
	MetricsPort int `yaml:"metrics_port"`

	// Echo configures the echo service behavior.
	Echo EchoConfig `yaml:"echo"`
}

// EchoConfig controls how the echo service answers inbound text messages.
type EchoConfig struct {
	// Mode is one of: echo | broadcast.
	// "echo" replies to the sender with a transformed copy of its message;
	// "broadcast" forwards the message verbatim to every other client.
	Mode string `yaml:"mode"`

	// Greeting is the text line sent to every client on connect.
	Greeting string `yaml:"greeting"`
}

// Load reads and parses the config file at path, returning the server
// configuration. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			EchoPort:    DefaultEchoPort,
			MetricsPort: DefaultMetricsPort,
			Echo: EchoConfig{
				Mode:     DefaultEchoMode,
				Greeting: DefaultGreeting,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.EchoPort <= 0 || cfg.Server.EchoPort > 65535 {
		return fmt.Errorf("server.echo_port %d is out of range [1, 65535]", cfg.Server.EchoPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port %d is out of range [1, 65535]", cfg.Server.MetricsPort)
	}
	if cfg.Server.EchoPort == cfg.Server.MetricsPort {
		return fmt.Errorf("server.echo_port and server.metrics_port must differ (both %d)", cfg.Server.EchoPort)
	}
	switch cfg.Server.Echo.Mode {
	case "echo", "broadcast":
	default:
		return fmt.Errorf("server.echo.mode %q unknown: want echo|broadcast", cfg.Server.Echo.Mode)
	}
	return nil
}
