package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NishDananjaya/echolink/server/internal/telemetry"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxMessageSize bounds inbound payloads. Device reports stay well under
	// this even with a broad prometheus allowlist.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Accept every origin — the testbed has no admission control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventType enumerates the connection lifecycle events a handler can observe.
type EventType int

const (
	// Connect fires after the client has been added to the active set.
	Connect EventType = iota
	// Message fires for every inbound data frame.
	Message
	// Close fires after the client has been removed from the active set.
	Close
)

// Event is one lifecycle occurrence on a single connection. Payload is set
// for Message events only.
type Event struct {
	Type    EventType
	Client  *Client
	Payload []byte
}

// Handler processes one Event. It is always invoked from the hub's run loop,
// never concurrently, so handlers may call Send and Broadcast freely and see
// events in arrival order.
type Handler func(ev Event)

// Client is one live WebSocket connection registered with a Hub.
type Client struct {
	// ID is a generated UUID, used in logs only.
	ID string

	conn *websocket.Conn
	send chan []byte
}

// Hub is the active connection set for one WebSocket service. All insertions
// and removals happen inside Run, which also dispatches every event to the
// configured handler. Slow clients are skipped on broadcast, not buffered and
// not disconnected.
type Hub struct {
	service string
	handler Handler
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	clients map[*Client]struct{}

	events chan Event
	done   chan struct{}
}

// New creates a Hub for the named service ("echo" or "relay"). The handler
// receives every connect, message, and close event. Run must be started
// before the hub serves connections.
func New(service string, m *telemetry.Metrics, handler Handler) *Hub {
	return &Hub{
		service: service,
		handler: handler,
		metrics: m,
		clients: make(map[*Client]struct{}),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
}

// Run is the hub's event loop. Every active-set mutation and every handler
// call happens here, which gives payloads a single arrival order. Run blocks
// until ctx is cancelled, then closes all live connections.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection, registers the
// client, and pumps its frames until the transport closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	slog.Info("hub: client connected", "service", h.service, "client", c.ID, "remote", conn.RemoteAddr())

	if !h.post(Event{Type: Connect, Client: c}) {
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump(h) // blocks until the connection closes

	h.post(Event{Type: Close, Client: c})
	slog.Info("hub: client disconnected", "service", h.service, "client", c.ID)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues payload for one client. If the client's buffer is full the
// payload is dropped. Safe to call from a Handler.
func (h *Hub) Send(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.metrics.SkippedSendsTotal.WithLabelValues(h.service).Inc()
		slog.Warn("hub: send skipped, client not writable", "service", h.service, "client", c.ID)
	}
}

// Broadcast queues payload for every live client except the listed ones.
// Clients whose buffer is full are skipped. Safe to call from a Handler.
func (h *Hub) Broadcast(payload []byte, except ...*Client) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.metrics.BroadcastsTotal.WithLabelValues(h.service).Inc()
	for _, c := range targets {
		if contains(except, c) {
			continue
		}
		h.Send(c, payload)
	}
}

// --- internal ---------------------------------------------------------------

// post delivers ev to the run loop. It reports false when the hub has
// already shut down.
func (h *Hub) post(ev Event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) dispatch(ev Event) {
	switch ev.Type {
	case Connect:
		h.mu.Lock()
		h.clients[ev.Client] = struct{}{}
		h.mu.Unlock()
		h.metrics.ActiveConnections.WithLabelValues(h.service).Inc()
	case Message:
		h.metrics.MessagesTotal.WithLabelValues(h.service).Inc()
	case Close:
		h.mu.Lock()
		if _, ok := h.clients[ev.Client]; ok {
			delete(h.clients, ev.Client)
			close(ev.Client.send)
			h.metrics.ActiveConnections.WithLabelValues(h.service).Dec()
		}
		h.mu.Unlock()
	}
	if h.handler != nil {
		h.handler(ev)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
		h.metrics.ActiveConnections.WithLabelValues(h.service).Dec()
	}
}

func contains(list []*Client, c *Client) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// writePump drains the client's send channel and forwards payloads to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection, posting each data frame to the
// hub as a Message event. Blocks until the connection closes.
func (c *Client) readPump(h *Hub) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !h.post(Event{Type: Message, Client: c, Payload: data}) {
			return
		}
	}
}
