package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Empty server section — everything should fall back to defaults.
	p := writeConfig(t, `server: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.EchoPort != DefaultEchoPort {
		t.Errorf("echo_port: got %d, want %d", cfg.Server.EchoPort, DefaultEchoPort)
	}
	if cfg.Server.MetricsPort != DefaultMetricsPort {
		t.Errorf("metrics_port: got %d, want %d", cfg.Server.MetricsPort, DefaultMetricsPort)
	}
	if cfg.Server.Echo.Mode != DefaultEchoMode {
		t.Errorf("echo.mode: got %q, want %q", cfg.Server.Echo.Mode, DefaultEchoMode)
	}
	if cfg.Server.Echo.Greeting != DefaultGreeting {
		t.Errorf("echo.greeting: got %q, want %q", cfg.Server.Echo.Greeting, DefaultGreeting)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  echo_port: 9080
  metrics_port: 9000
  echo:
    mode: broadcast
    greeting: "hello device"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.EchoPort != 9080 {
		t.Errorf("echo_port: got %d, want 9080", cfg.Server.EchoPort)
	}
	if cfg.Server.MetricsPort != 9000 {
		t.Errorf("metrics_port: got %d, want 9000", cfg.Server.MetricsPort)
	}
	if cfg.Server.Echo.Mode != "broadcast" {
		t.Errorf("echo.mode: got %q, want broadcast", cfg.Server.Echo.Mode)
	}
	if cfg.Server.Echo.Greeting != "hello device" {
		t.Errorf("echo.greeting: got %q, want 'hello device'", cfg.Server.Echo.Greeting)
	}
}

func TestLoad_AgentSectionIgnored(t *testing.T) {
	p := writeConfig(t, `agent:
  server_url: "ws://localhost:8000/ws"
server:
  metrics_port: 9000
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.MetricsPort != 9000 {
		t.Errorf("metrics_port: got %d, want 9000", cfg.Server.MetricsPort)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "echo port out of range",
			yaml:    "server:\n  echo_port: 70000\n",
			wantErr: "echo_port",
		},
		{
			name:    "metrics port negative",
			yaml:    "server:\n  metrics_port: -1\n",
			wantErr: "metrics_port",
		},
		{
			name:    "ports collide",
			yaml:    "server:\n  echo_port: 8000\n  metrics_port: 8000\n",
			wantErr: "must differ",
		},
		{
			name:    "unknown echo mode",
			yaml:    "server:\n  echo:\n    mode: reflect\n",
			wantErr: "echo.mode",
		},
		{
			name:    "malformed yaml",
			yaml:    "server: [not a map",
			wantErr: "parse yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeConfig(t, tt.yaml)
			_, err := Load(p)
			if err == nil {
				t.Fatal("Load: expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load on missing file: expected error, got nil")
	}
}
