package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/NishDananjaya/echolink/server/internal/hub"
	"github.com/NishDananjaya/echolink/server/internal/relay"
	"github.com/NishDananjaya/echolink/server/internal/telemetry"
)

// Handler is the HTTP handler for the read-only surface on the metrics port.
// It serves the latest snapshot verbatim, a health summary, and the
// Prometheus exposition.
type Handler struct {
	snapshot *relay.Snapshot
	echoHub  *hub.Hub
	relayHub *hub.Hub
	started  time.Time
	mux      *http.ServeMux
}

// New creates a Handler wired to the snapshot store and both hubs, and
// registers all routes.
func New(snap *relay.Snapshot, echoHub, relayHub *hub.Hub, m *telemetry.Metrics) http.Handler {
	h := &Handler{
		snapshot: snap,
		echoHub:  echoHub,
		relayHub: relayHub,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/snapshot", h.getSnapshot)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.Handle("/metrics", m.Handler())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// getSnapshot returns GET /api/v1/snapshot — the most recently received relay
// payload, byte for byte. Before any payload has arrived it returns `{}`.
func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, updated, ok := h.snapshot.Get()
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.Header().Set("X-Updated-At", updated.UTC().Format(time.RFC3339))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(payload) //nolint:errcheck
}

// health returns GET /api/v1/health — process uptime and live client counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	_, updated, ok := h.snapshot.Get()
	resp := HealthResponse{
		State:            "ok",
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		EchoClients:      h.echoHub.Count(),
		RelayClients:     h.relayHub.Count(),
		SnapshotReceived: ok,
	}
	if ok {
		resp.SnapshotUpdatedAt = updated.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
