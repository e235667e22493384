package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// EventHandler receives the lifecycle of every connection. OnMessage is
// called from the connection's read pump, so calls for one client never
// overlap and arrive in frame order.
type EventHandler interface {
	OnConnect(ctx context.Context, client *Client)
	OnMessage(ctx context.Context, client *Client, payload []byte)
	OnDisconnect(client *Client)
}

// Handler upgrades HTTP requests to WebSocket connections and pumps frames
// between the socket and an EventHandler.
type Handler struct {
	ctx      context.Context
	events   EventHandler
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler creates a transport handler. ctx bounds the work started on
// behalf of connections (store calls); it is not tied to any request.
// allowedOrigins lists the accepted Origin values; empty or "*" accepts all.
func NewHandler(ctx context.Context, events EventHandler, allowedOrigins []string, log *slog.Logger) *Handler {
	return &Handler{
		ctx:    ctx,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// originChecker returns the upgrader's origin policy.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			set[strings.ToLower(origin)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send an Origin
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// ServeHTTP upgrades the connection and serves it until the peer goes away.
// It blocks for the lifetime of the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response
		h.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, r.RemoteAddr)
	h.log.Info("User connected", "client_id", client.ID(), "addr", client.Addr())

	go h.writePump(client)

	h.events.OnConnect(h.ctx, client)
	h.readPump(client)
	h.events.OnDisconnect(client)

	// Unblocks the write pump if the disconnect path did not close the client
	client.Close()
	h.log.Info("User disconnected", "client_id", client.ID())
}

// readPump pumps frames from the WebSocket connection to the event handler.
func (h *Handler) readPump(client *Client) {
	conn := client.Conn()
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.log.Warn("WebSocket read error", "client_id", client.ID(), "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			h.log.Debug("Ignoring non-text frame", "client_id", client.ID(), "type", messageType)
			continue
		}

		h.events.OnMessage(h.ctx, client, message)
	}
}

// writePump pumps queued messages to the WebSocket connection, one frame per
// message, and keeps the connection alive with pings.
func (h *Handler) writePump(client *Client) {
	conn := client.Conn()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The client was closed
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug("WebSocket write failed", "client_id", client.ID(), "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
