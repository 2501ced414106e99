package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file. The
// report interval and reconnect delay match the fixed constants the original
// device sketches used.
const (
	DefaultReportInterval    = 30 * time.Second
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultBufferSize        = 64
	DefaultDiskPath          = "/"
)

// Config is the agent-side configuration parsed from the `agent:` section of
// config.yaml. The `server:` key in the same file is ignored.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerURL is the WebSocket URL of the relay endpoint
	// (ws://host:8000/ws, or wss:// when TLS is terminated externally).
	ServerURL string `yaml:"server_url"`

	// DeviceID identifies this device in every report. Defaults to a
	// generated UUID when empty.
	DeviceID string `yaml:"device_id"`

	// ReportInterval controls how often each probe is collected and shipped.
	ReportInterval time.Duration `yaml:"report_interval"`

	// HeartbeatInterval controls how often a ping frame is sent on the link.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// ReconnectDelay is the fixed wait between redial attempts after the
	// link drops. There is no backoff: the delay is constant.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	// BufferSize is the maximum number of reports held in memory while the
	// link is down. When full, the oldest report is evicted.
	BufferSize int `yaml:"buffer_size"`

	// Probes is the list of metric collectors to run.
	Probes []Probe `yaml:"probes"`
}

// Probe describes one metric collector.
type Probe struct {
	// ID is a unique, human-readable identifier for this probe.
	ID string `yaml:"id"`

	// Type is the collector type: system | prometheus.
	Type string `yaml:"type"`

	// Endpoint is the Prometheus text exposition URL. Required for the
	// prometheus type, ignored otherwise.
	Endpoint string `yaml:"endpoint"`

	// DiskPath is the mount point the system probe reports disk usage for.
	// Defaults to "/".
	DiskPath string `yaml:"disk_path"`

	// Metrics is an allowlist of metric family names for the prometheus
	// type. Empty means every family in the exposition is reported.
	Metrics []string `yaml:"metrics"`
}

// Load reads and parses the YAML config file at path. Missing optional fields
// are filled with defaults; an absent device_id gets a generated UUID.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("agent config: parse yaml: %w", err)
	}

	if cfg.Agent.DeviceID == "" {
		cfg.Agent.DeviceID = uuid.NewString()
	}
	for i := range cfg.Agent.Probes {
		if cfg.Agent.Probes[i].DiskPath == "" {
			cfg.Agent.Probes[i].DiskPath = DefaultDiskPath
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("agent config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ReportInterval:    DefaultReportInterval,
			HeartbeatInterval: DefaultHeartbeatInterval,
			ReconnectDelay:    DefaultReconnectDelay,
			BufferSize:        DefaultBufferSize,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Agent.ServerURL == "" {
		return fmt.Errorf("agent.server_url is required")
	}
	u, err := url.Parse(cfg.Agent.ServerURL)
	if err != nil {
		return fmt.Errorf("agent.server_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("agent.server_url scheme %q unknown: want ws|wss", u.Scheme)
	}
	if cfg.Agent.ReportInterval <= 0 {
		return fmt.Errorf("agent.report_interval must be positive")
	}
	if cfg.Agent.HeartbeatInterval <= 0 {
		return fmt.Errorf("agent.heartbeat_interval must be positive")
	}
	if cfg.Agent.ReconnectDelay <= 0 {
		return fmt.Errorf("agent.reconnect_delay must be positive")
	}
	if cfg.Agent.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	for i, p := range cfg.Agent.Probes {
		if p.ID == "" {
			return fmt.Errorf("probes[%d]: id is required", i)
		}
		switch p.Type {
		case "system":
		case "prometheus":
			if p.Endpoint == "" {
				return fmt.Errorf("probes[%d] %q: endpoint is required for prometheus probes", i, p.ID)
			}
		default:
			return fmt.Errorf("probes[%d] %q: unknown type %q", i, p.ID, p.Type)
		}
	}
	return nil
}
