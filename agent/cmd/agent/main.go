package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NishDananjaya/echolink/agent/internal/config"
	"github.com/NishDananjaya/echolink/agent/internal/link"
	"github.com/NishDananjaya/echolink/agent/internal/probe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("echolink-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"server_url", cfg.Agent.ServerURL,
		"device_id", cfg.Agent.DeviceID,
		"probes", len(cfg.Agent.Probes),
		"report_interval", cfg.Agent.ReportInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build probe instances from the initial config. Hot-reload updates
	// logging only; rebuilding probes on reload is not supported yet.
	var probes []probe.Probe
	for _, pc := range cfg.Agent.Probes {
		p, err := probe.New(cfg.Agent.DeviceID, pc)
		if err != nil {
			slog.Error("skipping probe", "probe", pc.ID, "err", err)
			continue
		}
		probes = append(probes, p)
		slog.Info("registered probe", "id", pc.ID, "type", pc.Type)
	}

	if len(probes) == 0 {
		slog.Warn("no probes configured, agent will only heartbeat")
	}

	// Watch config file for hot-reload.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "probes", len(updated.Agent.Probes))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// The link owns the WebSocket and its fixed-delay reconnect loop.
	lnk := link.New(cfg.Agent)
	go lnk.Run(ctx)

	// Collect loop: run every probe on each tick and queue the reports.
	go func() {
		ticker := time.NewTicker(cfg.Agent.ReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, p := range probes {
					r, err := p.Collect(ctx)
					if err != nil {
						slog.Warn("collect error", "err", err)
						continue
					}
					lnk.Send(r)
				}
			}
		}
	}()

	<-ctx.Done()
	slog.Info("echolink-agent shutting down")
}
