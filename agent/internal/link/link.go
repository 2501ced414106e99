package link

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NishDananjaya/echolink/agent/internal/config"
	"github.com/NishDananjaya/echolink/pkg/types"
)

const (
	// writeTimeout is the deadline for a single write to the server.
	writeTimeout = 10 * time.Second

	// pongWait is how long the read side tolerates silence before treating
	// the link as dead. Server pings arrive well inside this window.
	pongWait = 60 * time.Second

	// logPayloadLimit truncates received payloads in log lines.
	logPayloadLimit = 256
)

// Link maintains the single persistent WebSocket to the relay. Send queues a
// report without blocking; Run dials, pumps, and redials with a fixed delay
// whenever the transport drops. There is no backoff and no delivery guarantee:
// a report that cannot be written is dropped.
type Link struct {
	cfg     config.AgentConfig
	dialer  *websocket.Dialer
	reports chan *types.Report
}

// New creates a Link for the configured relay URL.
func New(cfg config.AgentConfig) *Link {
	return &Link{
		cfg:     cfg,
		dialer:  websocket.DefaultDialer,
		reports: make(chan *types.Report, cfg.BufferSize),
	}
}

// Send queues a report for delivery. When the buffer is full the oldest
// queued report is evicted to make room.
func (l *Link) Send(r *types.Report) {
	for {
		select {
		case l.reports <- r:
			return
		default:
		}
		select {
		case dropped := <-l.reports:
			slog.Warn("link: buffer full, dropped oldest report", "probe", dropped.Probe)
		default:
		}
	}
}

// Run drives the connect/reconnect loop. It blocks until ctx is cancelled.
func (l *Link) Run(ctx context.Context) {
	for {
		conn, _, err := l.dialer.DialContext(ctx, l.cfg.ServerURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("link: dial failed", "url", l.cfg.ServerURL, "err", err)
			if !l.wait(ctx) {
				return
			}
			continue
		}

		slog.Info("link: connected", "url", l.cfg.ServerURL, "device", l.cfg.DeviceID)
		l.serve(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		slog.Info("link: connection lost, reconnecting", "delay", l.cfg.ReconnectDelay)
		if !l.wait(ctx) {
			return
		}
	}
}

// wait sleeps for the fixed reconnect delay. Returns false when ctx was
// cancelled during the wait.
func (l *Link) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.cfg.ReconnectDelay):
		return true
	}
}

// serve pumps one live connection: reports and heartbeat pings out, received
// payloads logged in. Returns when the transport fails or ctx is cancelled.
func (l *Link) serve(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go l.readLoop(conn, done)

	heartbeat := time.NewTicker(l.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck
			return

		case <-done:
			return

		case r := <-l.reports:
			data, err := json.Marshal(r)
			if err != nil {
				slog.Error("link: marshal report", "probe", r.Probe, "err", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("link: write failed, report dropped", "probe", r.Probe, "err", err)
				return
			}
			slog.Debug("link: report sent", "probe", r.Probe, "size", len(data))

		case <-heartbeat.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop logs every payload the relay pushes back and keeps control frames
// flowing. Closes done when the connection dies.
func (l *Link) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		slog.Info("link: received payload", "size", len(data), "payload", truncate(data))
	}
}

func truncate(data []byte) string {
	if len(data) > logPayloadLimit {
		return string(data[:logPayloadLimit]) + "..."
	}
	return string(data)
}
