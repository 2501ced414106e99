package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/NishDananjaya/echolink/server/internal/api"
	"github.com/NishDananjaya/echolink/server/internal/config"
	"github.com/NishDananjaya/echolink/server/internal/echo"
	"github.com/NishDananjaya/echolink/server/internal/hub"
	"github.com/NishDananjaya/echolink/server/internal/relay"
	"github.com/NishDananjaya/echolink/server/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("echolink-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"echo_port", cfg.Server.EchoPort,
		"metrics_port", cfg.Server.MetricsPort,
		"echo_mode", cfg.Server.Echo.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.New()

	// Metrics relay: snapshot store + fan-out hub on MetricsPort.
	snap := relay.NewSnapshot()
	rel := relay.New(snap, metrics)
	relayHub := hub.New("relay", metrics, rel.Handle)
	rel.Attach(relayHub)
	go relayHub.Run(ctx)

	// Echo service on EchoPort.
	echoSvc := echo.New(cfg.Server.Echo.Mode, cfg.Server.Echo.Greeting)
	echoHub := hub.New("echo", metrics, echoSvc.Handle)
	echoSvc.Attach(echoHub)
	go echoHub.Run(ctx)

	// Metrics port carries the HTTP API, the Prometheus exposition, and the
	// relay WebSocket endpoint.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/", api.New(snap, echoHub, relayHub, metrics))
	metricsMux.Handle("/ws", relayHub)

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		slog.Info("metrics relay listening", "port", cfg.Server.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "err", err)
		}
	}()

	// Echo port serves the WebSocket upgrade on every path, matching the
	// device sketches that dial the bare host:port.
	echoSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.EchoPort),
		Handler: echoHub,
	}
	go func() {
		slog.Info("echo service listening", "port", cfg.Server.EchoPort, "mode", cfg.Server.Echo.Mode)
		if err := echoSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("echo server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("echolink-server shutting down")
	echoSrv.Shutdown(context.Background())    //nolint:errcheck
	metricsSrv.Shutdown(context.Background()) //nolint:errcheck
}
