package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chat-relay/backend/internal/model"
)

// SQLiteStore provides data access for messages in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore over an initialized database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append inserts a new message into the database.
func (r *SQLiteStore) Append(ctx context.Context, user, text string) (*model.ChatMessage, error) {
	msg, err := newMessage(user, text)
	if err != nil {
		return nil, writeError(err)
	}

	query := `
		INSERT INTO messages (id, user, message, timestamp)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.User, msg.Message, msg.Timestamp); err != nil {
		return nil, writeError(fmt.Errorf("failed to insert message: %w", err))
	}

	return msg, nil
}

// Recent retrieves the latest messages, oldest first.
func (r *SQLiteStore) Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		return []*model.ChatMessage{}, nil
	}

	query := `
		SELECT id, user, message, timestamp
		FROM messages
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, readError(fmt.Errorf("failed to query messages: %w", err))
	}
	defer rows.Close()

	messages := make([]*model.ChatMessage, 0, limit)
	for rows.Next() {
		msg := &model.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.User, &msg.Message, &msg.Timestamp); err != nil {
			return nil, readError(fmt.Errorf("failed to scan message: %w", err))
		}
		msg.Timestamp = msg.Timestamp.UTC()
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, readError(fmt.Errorf("error iterating messages: %w", err))
	}

	return oldestFirst(messages), nil
}

// Close closes the database connection.
func (r *SQLiteStore) Close() error {
	return r.db.Close()
}
