package model

import "errors"

var (
	// ErrStoreConnection is returned when the message store cannot be reached.
	ErrStoreConnection = errors.New("message store unavailable")

	// ErrStoreWrite is returned when a message could not be persisted.
	ErrStoreWrite = errors.New("message store write failed")

	// ErrStoreRead is returned when the history query fails.
	ErrStoreRead = errors.New("message store read failed")

	// ErrDelivery is returned when an event could not be queued for a connection.
	ErrDelivery = errors.New("delivery to connection failed")

	// ErrUnknownDriver is returned when the configured store driver is not supported.
	ErrUnknownDriver = errors.New("unknown store driver")
)
