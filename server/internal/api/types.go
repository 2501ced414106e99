package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State             string `json:"state"`
	Uptime            string `json:"uptime"`
	EchoClients       int    `json:"echo_clients"`
	RelayClients      int    `json:"relay_clients"`
	SnapshotReceived  bool   `json:"snapshot_received"`
	SnapshotUpdatedAt string `json:"snapshot_updated_at,omitempty"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
