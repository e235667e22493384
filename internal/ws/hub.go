package ws

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chat-relay/backend/internal/model"
)

// sendBufSize is the per-client outgoing message buffer depth.
const sendBufSize = 256

// Client represents one WebSocket client connection.
type Client struct {
	id   string
	conn *websocket.Conn
	addr string
	send chan []byte
	mu   sync.Mutex

	closed bool
}

// NewClient creates a new client. conn may be nil in tests that only read
// the outbound queue.
func NewClient(id string, conn *websocket.Conn, addr string) *Client {
	return &Client{
		id:   id,
		conn: conn,
		addr: addr,
		send: make(chan []byte, sendBufSize),
	}
}

// ID returns the unique connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Addr returns the remote address the client connected from.
func (c *Client) Addr() string {
	return c.addr
}

// Send queues data for the write pump. A client whose queue is full is
// closed; sending to a closed client fails with model.ErrDelivery.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: client %s is closed", model.ErrDelivery, c.id)
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, close the client
		c.closeLocked()
		return fmt.Errorf("%w: client %s send buffer full", model.ErrDelivery, c.id)
	}
}

// Close closes the outbound queue; the write pump then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Hub is the registry of open connections. Every registered client is a
// target of Broadcast.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	log     *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("Client registered", "client_id", client.id, "addr", client.addr, "clients", count)
}

// Unregister removes a client from the hub and closes it. Unregistering an
// unknown or already removed client is a no-op and returns false.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if ok && current == client {
		delete(h.clients, client.id)
	} else {
		ok = false
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return false
	}

	client.Close()
	h.log.Debug("Client unregistered", "client_id", client.id, "clients", count)
	return true
}

// snapshot returns the registered clients at this instant.
func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// Broadcast sends data to every registered client and returns how many
// accepted it. A failed delivery is logged and does not stop the others.
func (h *Hub) Broadcast(data []byte) int {
	delivered := 0
	for _, client := range h.snapshot() {
		if err := client.Send(data); err != nil {
			h.log.Debug("Broadcast delivery failed", "client_id", client.id, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// BroadcastEvent encodes an event envelope and broadcasts it.
func (h *Hub) BroadcastEvent(name model.EventName, payload any) (int, error) {
	data, err := model.EncodeEvent(name, payload)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(data), nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters and closes every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
	h.log.Info("Closed client connections", "count", len(clients))
}
