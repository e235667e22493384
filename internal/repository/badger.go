package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/chat-relay/backend/internal/model"
)

const badgerPrefix = "msg:"

// BadgerStore persists messages in BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already opened Badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// badgerKey is formatted as "msg:{timestamp_padded}:{id}" so that a
// lexicographic scan returns messages in creation order. The 19-digit padding
// keeps nanosecond timestamps sortable and the time-ordered id breaks ties
// between messages created in the same millisecond.
func badgerKey(msg *model.ChatMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", badgerPrefix, msg.Timestamp.UnixNano(), msg.ID))
}

// Append persists a message in BadgerDB.
func (s *BadgerStore) Append(ctx context.Context, user, text string) (*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, writeError(err)
	}
	msg, err := newMessage(user, text)
	if err != nil {
		return nil, writeError(err)
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return nil, writeError(err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(msg), value)
	})
	if err != nil {
		return nil, writeError(fmt.Errorf("failed to store message: %w", err))
	}
	return msg, nil
}

// Recent walks the message prefix backwards from the newest key and stops
// once limit messages are collected.
func (s *BadgerStore) Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}
	messages := make([]*model.ChatMessage, 0, max(limit, 0))
	if limit <= 0 {
		return messages, nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(badgerPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Past the newest possible key, then walk backwards
		seekKey := append([]byte(badgerPrefix), []byte("9999999999999999999;")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				msg := &model.ChatMessage{}
				if err := json.Unmarshal(value, msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, readError(fmt.Errorf("failed to scan messages: %w", err))
	}
	return oldestFirst(messages), nil
}

// Close closes the Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
