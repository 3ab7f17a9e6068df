package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("ws dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, srv
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for client count %d, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()
	defer hub.Stop()

	conn, _ := dialHub(t, hub)
	waitForClientCount(t, hub, 1)

	hub.Broadcast(PredictionEvent{RequestID: "r7", House: "Lannister"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if !strings.Contains(string(payload), `"Lannister"`) {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()

	conn, _ := dialHub(t, hub)
	waitForClientCount(t, hub, 1)

	hub.Stop()

	// the client must observe the close promptly, and its teardown must
	// not block on a hub loop that has already returned
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected closed connection after stop")
	}
	waitForClientCount(t, hub, 0)
}

func TestHandleWSAfterStop(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()
	hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	// the handler must return instead of blocking on registration
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected closed connection from stopped hub")
	}
}
