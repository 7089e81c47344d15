package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func startFeed(t *testing.T) (*Server, *Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := NewServer(hub, time.Second, time.Minute, zap.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Close)
	return srv, hub, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	_, hub, url := startFeed(t)

	a, b := dial(t, url), dial(t, url)
	defer a.Close()
	defer b.Close()
	waitFor(t, func() bool { return hub.Len() == 2 })

	hub.Broadcast([]byte(`{"row":["12:00:01"]}`))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind != websocket.TextMessage || string(msg) != `{"row":["12:00:01"]}` {
			t.Fatalf("unexpected frame %d %q", kind, msg)
		}
	}
}

func TestClosedSubscriberIsRemoved(t *testing.T) {
	_, hub, url := startFeed(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.Len() == 1 })
	_ = conn.Close()
	waitFor(t, func() bool { return hub.Len() == 0 })

	// broadcasting to nobody is fine
	hub.Broadcast([]byte("{}"))
}

func TestShutdownClosesSubscribers(t *testing.T) {
	srv, hub, url := startFeed(t)

	conn := dial(t, url)
	defer conn.Close()
	waitFor(t, func() bool { return hub.Len() == 1 })

	srv.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going away close, got %v", err)
	}
	waitFor(t, func() bool { return hub.Len() == 0 })
}
