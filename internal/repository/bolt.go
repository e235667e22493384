package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/chat-relay/backend/internal/model"
)

var boltBucket = []byte("messages")

// BoltStore persists messages in a single BoltDB bucket keyed by the
// bucket's monotonically increasing sequence.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the BoltDB file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt at %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Append persists a message under the next bucket sequence.
func (s *BoltStore) Append(ctx context.Context, user, text string) (*model.ChatMessage, error) {
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
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), value)
	})
	if err != nil {
		return nil, writeError(fmt.Errorf("failed to store message: %w", err))
	}
	return msg, nil
}

// Recent walks the bucket from the last key backwards.
func (s *BoltStore) Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}
	messages := make([]*model.ChatMessage, 0, max(limit, 0))
	if limit <= 0 {
		return messages, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Last(); k != nil && len(messages) < limit; k, v = c.Prev() {
			msg := &model.ChatMessage{}
			if err := json.Unmarshal(v, msg); err != nil {
				return fmt.Errorf("corrupt message at key %x: %w", k, err)
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, readError(err)
	}
	return oldestFirst(messages), nil
}

// Close closes the BoltDB file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
