package echo

import (
	"log/slog"

	"github.com/NishDananjaya/echolink/server/internal/hub"
)

// Modes supported by the echo service.
const (
	ModeEcho      = "echo"
	ModeBroadcast = "broadcast"
)

// replyPrefix is the deterministic transformation applied to every message in
// echo mode. Matches what the device sketches assert when probing the link.
const replyPrefix = "echo: "

// Service answers inbound text messages on the echo port. In echo mode it
// replies to the sender with a prefixed copy of its message; in broadcast mode
// it forwards the message verbatim to every other connected client.
type Service struct {
	mode     string
	greeting string

	hub *hub.Hub
}

// New creates a Service in the given mode with the given connect greeting.
func New(mode, greeting string) *Service {
	return &Service{mode: mode, greeting: greeting}
}

// Attach binds the service to its hub. Must be called once before the hub
// serves connections.
func (s *Service) Attach(h *hub.Hub) {
	s.hub = h
}

// Handle is the hub.Handler for the echo service.
func (s *Service) Handle(ev hub.Event) {
	switch ev.Type {
	case hub.Connect:
		s.hub.Send(ev.Client, []byte(s.greeting))

	case hub.Message:
		switch s.mode {
		case ModeBroadcast:
			s.hub.Broadcast(ev.Payload, ev.Client)
		default:
			s.hub.Send(ev.Client, append([]byte(replyPrefix), ev.Payload...))
		}
		slog.Debug("echo: message handled",
			"mode", s.mode, "client", ev.Client.ID, "size", len(ev.Payload))

	case hub.Close:
	}
}
