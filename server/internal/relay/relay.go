package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/NishDananjaya/echolink/server/internal/hub"
	"github.com/NishDananjaya/echolink/server/internal/telemetry"
)

// Relay implements the metrics fan-out service. Every valid JSON payload
// received from any client overwrites the snapshot and is pushed verbatim to
// every member of the active set. Malformed payloads are logged, counted, and
// discarded with no reply to the sender.
type Relay struct {
	snapshot *Snapshot
	metrics  *telemetry.Metrics

	// hub is set by Attach; the relay and its hub reference each other.
	hub *hub.Hub
}

// New creates a Relay writing to the given snapshot.
func New(snap *Snapshot, m *telemetry.Metrics) *Relay {
	return &Relay{snapshot: snap, metrics: m}
}

// Attach binds the relay to its hub. Must be called once before the hub
// serves connections.
func (r *Relay) Attach(h *hub.Hub) {
	r.hub = h
}

// Handle is the hub.Handler for the relay service.
func (r *Relay) Handle(ev hub.Event) {
	switch ev.Type {
	case hub.Connect:
		// A new client immediately receives the current snapshot, before any
		// broadcast can reach it.
		payload, _, _ := r.snapshot.Get()
		r.hub.Send(ev.Client, payload)

	case hub.Message:
		if !json.Valid(ev.Payload) {
			r.metrics.MalformedTotal.Inc()
			slog.Warn("relay: discarding malformed payload",
				"client", ev.Client.ID, "size", len(ev.Payload))
			return
		}
		r.snapshot.Set(ev.Payload)
		r.hub.Broadcast(ev.Payload)
		slog.Debug("relay: payload stored and broadcast",
			"client", ev.Client.ID, "size", len(ev.Payload), "clients", r.hub.Count())

	case hub.Close:
		// Routine lifecycle event; the hub has already removed the client.
	}
}
