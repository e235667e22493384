package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingEvents echoes every text frame back and records the lifecycle.
type recordingEvents struct {
	mu           sync.Mutex
	connected    []string
	messages     []string
	disconnected chan string
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{disconnected: make(chan string, 8)}
}

func (r *recordingEvents) OnConnect(_ context.Context, client *Client) {
	r.mu.Lock()
	r.connected = append(r.connected, client.ID())
	r.mu.Unlock()
	_ = client.Send([]byte("welcome"))
}

func (r *recordingEvents) OnMessage(_ context.Context, client *Client, payload []byte) {
	r.mu.Lock()
	r.messages = append(r.messages, string(payload))
	r.mu.Unlock()
	_ = client.Send(append([]byte("echo:"), payload...))
}

func (r *recordingEvents) OnDisconnect(client *Client) {
	r.disconnected <- client.ID()
}

func startHandler(t *testing.T, events EventHandler, origins []string) string {
	t.Helper()
	handler := NewHandler(context.Background(), events, origins, logs.GetLoggerFromLevel(slog.LevelDebug))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, wsURL string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return string(msg)
}

func TestHandler_DispatchesLifecycleInOrder(t *testing.T) {
	req := require.New(t)
	events := newRecordingEvents()
	wsURL := startHandler(t, events, nil)

	conn := dial(t, wsURL, nil)
	req.Equal("welcome", readText(t, conn))

	for _, frame := range []string{"one", "two", "three"} {
		req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}
	req.Equal("echo:one", readText(t, conn))
	req.Equal("echo:two", readText(t, conn))
	req.Equal("echo:three", readText(t, conn))

	// Binary frames are not dispatched
	req.NoError(conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}))

	req.NoError(conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	select {
	case id := <-events.disconnected:
		events.mu.Lock()
		defer events.mu.Unlock()
		req.Equal([]string{id}, events.connected)
		req.Equal([]string{"one", "two", "three"}, events.messages)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect was not dispatched")
	}
}

func TestHandler_AssignsUniqueIDs(t *testing.T) {
	events := newRecordingEvents()
	wsURL := startHandler(t, events, nil)

	for i := 0; i < 3; i++ {
		conn := dial(t, wsURL, nil)
		readText(t, conn)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	seen := make(map[string]bool)
	for _, id := range events.connected {
		if seen[id] {
			t.Fatalf("duplicate connection id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(seen))
	}
}

func TestHandler_RejectsDisallowedOrigin(t *testing.T) {
	wsURL := startHandler(t, newRecordingEvents(), []string{"http://chat.example.com"})

	header := http.Header{}
	header.Set("Origin", "http://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("expected handshake to fail for a disallowed origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}

	header.Set("Origin", "http://chat.example.com")
	conn := dial(t, wsURL, header)
	if got := readText(t, conn); got != "welcome" {
		t.Fatalf("unexpected first frame %q", got)
	}
}

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "http://a.example", true},
		{"wildcard allows all", []string{"*"}, "http://a.example", true},
		{"exact match", []string{"http://a.example"}, "http://a.example", true},
		{"case and trailing slash", []string{"HTTP://A.example/"}, "http://a.example", true},
		{"mismatch", []string{"http://a.example"}, "http://b.example", false},
		{"no origin header", []string{"http://a.example"}, "", true},
		{"malformed origin", []string{"http://a.example"}, "::::", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := originChecker(tc.allowed)(r); got != tc.want {
				t.Errorf("originChecker(%v)(%q) = %v, want %v", tc.allowed, tc.origin, got, tc.want)
			}
		})
	}
}
