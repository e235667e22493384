// Package repository provides the durable message store behind the chat relay.
//
// Every backend implements MessageStore: an append-only log of chat messages
// with a "most recent N" query. The store assigns the id and timestamp of each
// message; callers never supply them.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo/mutable"

	"github.com/chat-relay/backend/internal/model"
)

// DefaultHistoryLimit is the number of messages sent to a client on connect.
const DefaultHistoryLimit = 50

// MessageStore persists chat messages and serves recent history.
type MessageStore interface {
	// Append persists a new message and returns it with its server-assigned
	// id and timestamp. Errors wrap model.ErrStoreWrite.
	Append(ctx context.Context, user, text string) (*model.ChatMessage, error)

	// Recent returns up to limit of the most recently created messages,
	// ordered oldest to newest. Errors wrap model.ErrStoreRead.
	Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error)

	// Close releases the underlying storage.
	Close() error
}

// newMessage stamps a message with a time-ordered id and the current time.
// Timestamps are kept at millisecond precision so every backend round-trips
// them exactly.
func newMessage(user, text string) (*model.ChatMessage, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}
	return &model.ChatMessage{
		ID:        id.String(),
		User:      user,
		Message:   text,
		Timestamp: now(),
	}, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// oldestFirst turns a newest-first query result into display order.
func oldestFirst(messages []*model.ChatMessage) []*model.ChatMessage {
	mutable.Reverse(messages)
	return messages
}

func writeError(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStoreWrite, err)
}

func readError(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStoreRead, err)
}
