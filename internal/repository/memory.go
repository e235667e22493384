package repository

import (
	"context"

	"github.com/chat-relay/backend/internal/buffer"
	"github.com/chat-relay/backend/internal/model"
)

// DefaultMemoryCapacity bounds the in-memory store when no capacity is given.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent messages in a ring buffer. Nothing
// survives a restart; the server falls back to it when the configured
// backend is unreachable.
type MemoryStore struct {
	ring *buffer.RingBuffer[*model.ChatMessage]
}

// NewMemoryStore creates a MemoryStore holding up to capacity messages.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{ring: buffer.NewRingBuffer[*model.ChatMessage](capacity)}
}

// Append stores a message in memory.
func (s *MemoryStore) Append(ctx context.Context, user, text string) (*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, writeError(err)
	}
	msg, err := newMessage(user, text)
	if err != nil {
		return nil, writeError(err)
	}
	stored := *msg
	s.ring.Push(&stored)
	return msg, nil
}

// Recent returns the latest messages, oldest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}
	latest := s.ring.Last(limit)
	messages := make([]*model.ChatMessage, 0, len(latest))
	for _, m := range latest {
		c := *m
		messages = append(messages, &c)
	}
	return oldestFirst(messages), nil
}

// Close drops all buffered messages.
func (s *MemoryStore) Close() error {
	s.ring.Clear()
	return nil
}
