// Package session implements the per-connection chat logic: history on
// connect, persist-then-broadcast on each message, and unregister on
// disconnect.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/chat-relay/backend/internal/model"
	"github.com/chat-relay/backend/internal/repository"
	"github.com/chat-relay/backend/internal/ws"
)

// State is the lifecycle state of one connection.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config holds configuration for the session handler.
type Config struct {
	HistoryLimit int
}

// Handler dispatches transport events to per-connection sessions. It
// implements ws.EventHandler.
type Handler struct {
	store        repository.MessageStore
	hub          *ws.Hub
	log          *slog.Logger
	historyLimit int

	mu       sync.Mutex
	sessions map[string]*Session
}

var _ ws.EventHandler = (*Handler)(nil)

// NewHandler creates a session handler over a store and a hub.
func NewHandler(store repository.MessageStore, hub *ws.Hub, log *slog.Logger, config Config) *Handler {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = repository.DefaultHistoryLimit
	}
	return &Handler{
		store:        store,
		hub:          hub,
		log:          log,
		historyLimit: config.HistoryLimit,
		sessions:     make(map[string]*Session),
	}
}

// OnConnect opens a session for client.
func (h *Handler) OnConnect(ctx context.Context, client *ws.Client) {
	s := h.Open(ctx, client)

	h.mu.Lock()
	h.sessions[client.ID()] = s
	h.mu.Unlock()
}

// OnMessage routes a frame to the client's session. Frames for unknown or
// closed sessions are dropped.
func (h *Handler) OnMessage(ctx context.Context, client *ws.Client, payload []byte) {
	h.mu.Lock()
	s, ok := h.sessions[client.ID()]
	h.mu.Unlock()

	if !ok {
		h.log.Debug("Dropping frame for unknown session", "client_id", client.ID())
		return
	}
	s.HandleMessage(ctx, payload)
}

// OnDisconnect closes the client's session.
func (h *Handler) OnDisconnect(client *ws.Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.ID()]
	delete(h.sessions, client.ID())
	h.mu.Unlock()

	if ok {
		s.Close()
		return
	}
	// Never opened; still make sure the registry forgets it
	h.hub.Unregister(client)
}

// SessionCount returns the number of open sessions.
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Open registers client as a broadcast target, moves it to ACTIVE and sends
// it the recent history. A failed history load is logged and the session
// stays usable.
func (h *Handler) Open(ctx context.Context, client *ws.Client) *Session {
	s := &Session{
		handler: h,
		client:  client,
		state:   StateConnecting,
		log:     h.log.With("client_id", client.ID()),
	}

	h.hub.Register(client)
	s.setState(StateActive)
	s.sendHistory(ctx)
	return s
}

// Session is the state machine of one connection:
// CONNECTING -> ACTIVE -> CLOSED.
type Session struct {
	handler *Handler
	client  *ws.Client
	log     *slog.Logger

	mu    sync.Mutex
	state State
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) sendHistory(ctx context.Context) {
	history, err := s.handler.store.Recent(ctx, s.handler.historyLimit)
	if err != nil {
		s.log.Error("Load history error", "error", err)
		return
	}

	data, err := model.EncodeEvent(model.EventHistory, history)
	if err != nil {
		s.log.Error("Failed to encode history", "error", err)
		return
	}
	if err := s.client.Send(data); err != nil {
		s.log.Warn("Failed to send history", "error", err)
	}
}

// HandleMessage processes one inbound frame. Only "chat message" events are
// acted on: the payload is persisted and the stored message is broadcast to
// every registered connection, the sender included. If persisting fails
// nothing is broadcast and the sender is not told.
func (s *Session) HandleMessage(ctx context.Context, payload []byte) {
	if s.State() != StateActive {
		s.log.Debug("Ignoring frame on inactive session")
		return
	}

	var evt model.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		s.log.Warn("Invalid frame", "error", err)
		return
	}
	if evt.Event != model.EventChatMessage {
		s.log.Debug("Ignoring unknown event", "event", evt.Event)
		return
	}

	in, err := evt.DecodeInbound()
	if err != nil {
		s.log.Warn("Invalid chat message payload", "error", err)
		return
	}
	s.log.Debug("Receive message", "user", in.User, "text", in.Text)

	msg, err := s.handler.store.Append(ctx, in.User, in.Text)
	if err != nil {
		if errors.Is(err, model.ErrStoreConnection) {
			s.log.Error("Save message error: store unreachable", "error", err)
		} else {
			s.log.Error("Save message error", "error", err)
		}
		return
	}

	delivered, err := s.handler.hub.BroadcastEvent(model.EventChatMessage, msg)
	if err != nil {
		s.log.Error("Failed to encode chat message", "message_id", msg.ID, "error", err)
		return
	}
	s.log.Debug("Message broadcast", "message_id", msg.ID, "delivered", delivered)
}

// Close moves the session to CLOSED and removes the client from the
// registry. Calling Close more than once is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.handler.hub.Unregister(s.client)
}
