package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chat-relay/backend/internal/db"
	"github.com/chat-relay/backend/internal/model"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverBolt   = "bolt"
	DriverMongo  = "mongo"
)

// Options selects and configures a store backend.
type Options struct {
	Driver string

	SQLitePath string
	BadgerPath string
	BoltPath   string

	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration

	MemoryCapacity int
}

// Open opens the backend named by opts.Driver. A backend that cannot be
// reached returns an error wrapping model.ErrStoreConnection.
func Open(ctx context.Context, opts Options, log *slog.Logger) (MessageStore, error) {
	store, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	log.Info("Message store connected", "driver", opts.Driver)
	return store, nil
}

func open(ctx context.Context, opts Options) (MessageStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(opts.MemoryCapacity), nil

	case DriverSQLite, "":
		if err := ensureDir(filepath.Dir(opts.SQLitePath)); err != nil {
			return nil, connectionError(DriverSQLite, err)
		}
		database, err := db.InitDB(opts.SQLitePath)
		if err != nil {
			return nil, connectionError(DriverSQLite, err)
		}
		return NewSQLiteStore(database), nil

	case DriverBadger:
		if err := ensureDir(opts.BadgerPath); err != nil {
			return nil, connectionError(DriverBadger, err)
		}
		store, err := OpenBadger(opts.BadgerPath)
		if err != nil {
			return nil, connectionError(DriverBadger, err)
		}
		return store, nil

	case DriverBolt:
		store, err := OpenBolt(opts.BoltPath)
		if err != nil {
			return nil, connectionError(DriverBolt, err)
		}
		return store, nil

	case DriverMongo:
		timeout := opts.MongoConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		store, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase, timeout)
		if err != nil {
			return nil, connectionError(DriverMongo, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownDriver, opts.Driver)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func connectionError(driver string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStoreConnection, driver, err)
}
