package relay_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NishDananjaya/echolink/server/internal/hub"
	"github.com/NishDananjaya/echolink/server/internal/relay"
	"github.com/NishDananjaya/echolink/server/internal/telemetry"
)

// startRelay wires a relay to a fresh hub behind a test HTTP server.
func startRelay(t *testing.T) (wsURL string, snap *relay.Snapshot, h *hub.Hub) {
	t.Helper()

	snap = relay.NewSnapshot()
	r := relay.New(snap, telemetry.New())
	h = hub.New("relay", telemetry.New(), r.Handle)
	r.Attach(h)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), snap, h
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

func waitCount(t *testing.T, h *hub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Count: got %d, want %d", h.Count(), want)
}

func TestRelay_NewClientReceivesEmptySnapshotFirst(t *testing.T) {
	wsURL, _, _ := startRelay(t)

	conn := dial(t, wsURL)
	if got := string(readMessage(t, conn)); got != "{}" {
		t.Errorf("first message: got %q, want {}", got)
	}
}

func TestRelay_NewClientReceivesCurrentSnapshotFirst(t *testing.T) {
	wsURL, snap, _ := startRelay(t)
	snap.Set([]byte(`{"cpu":42}`))

	conn := dial(t, wsURL)
	if got := string(readMessage(t, conn)); got != `{"cpu":42}` {
		t.Errorf("first message: got %q, want the current snapshot", got)
	}
}

func TestRelay_ValidPayloadStoredAndBroadcast(t *testing.T) {
	wsURL, snap, h := startRelay(t)

	a := dial(t, wsURL)
	b := dial(t, wsURL)
	c := dial(t, wsURL)
	for _, conn := range []*websocket.Conn{a, b, c} {
		readMessage(t, conn) // consume snapshot-on-connect
	}
	waitCount(t, h, 3)

	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"cpu":42}`)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// Every other connected client receives the payload verbatim.
	for i, conn := range []*websocket.Conn{b, c} {
		if got := string(readMessage(t, conn)); got != `{"cpu":42}` {
			t.Errorf("client %d: got %q, want {\"cpu\":42}", i, got)
		}
	}

	payload, _, ok := snap.Get()
	if !ok {
		t.Fatal("snapshot: expected a stored payload")
	}
	if string(payload) != `{"cpu":42}` {
		t.Errorf("snapshot: got %q, want {\"cpu\":42}", payload)
	}
}

func TestRelay_MalformedPayloadDiscarded(t *testing.T) {
	wsURL, snap, _ := startRelay(t)

	a := dial(t, wsURL)
	b := dial(t, wsURL)
	readMessage(t, a)
	readMessage(t, b)

	if err := a.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// No broadcast occurs.
	b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, msg, err := b.ReadMessage(); err == nil {
		t.Errorf("client received %q after malformed payload, want nothing", msg)
	}

	// Snapshot unchanged.
	if _, _, ok := snap.Get(); ok {
		t.Error("snapshot: malformed payload must not be stored")
	}
}

func TestRelay_ConnectionSurvivesMalformedPayload(t *testing.T) {
	wsURL, snap, _ := startRelay(t)

	conn := dial(t, wsURL)
	readMessage(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// The same connection can still deliver a valid payload afterwards.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("WriteMessage after malformed: %v", err)
	}
	if got := string(readMessage(t, conn)); got != `{"ok":true}` {
		t.Errorf("broadcast after malformed: got %q, want {\"ok\":true}", got)
	}

	payload, _, _ := snap.Get()
	if string(payload) != `{"ok":true}` {
		t.Errorf("snapshot: got %q, want {\"ok\":true}", payload)
	}
}

func TestRelay_DisconnectedClientGetsNothing(t *testing.T) {
	wsURL, _, h := startRelay(t)

	a := dial(t, wsURL)
	b := dial(t, wsURL)
	readMessage(t, a)
	readMessage(t, b)
	waitCount(t, h, 2)

	b.Close()
	waitCount(t, h, 1)

	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"after":1}`)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if got := string(readMessage(t, a)); got != `{"after":1}` {
		t.Errorf("remaining client: got %q, want {\"after\":1}", got)
	}
}
