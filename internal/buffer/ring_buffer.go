// Package buffer provides a bounded ring buffer used to keep recent chat
// messages in memory.
package buffer

import (
	"sync"
)

// RingBuffer is a thread-safe circular buffer that stores the most recent
// items up to a specified capacity. When the buffer is full, the oldest item
// is discarded to make room for the new one.
type RingBuffer[T any] struct {
	items    []T
	start    int
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewRingBuffer creates a new RingBuffer with the specified capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends an item, evicting the oldest one when the buffer is full.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size < rb.capacity {
		rb.items[(rb.start+rb.size)%rb.capacity] = item
		rb.size++
		return
	}

	rb.items[rb.start] = item
	rb.start = (rb.start + 1) % rb.capacity
}

// Last returns up to n of the most recent items, newest first.
// The returned slice is safe to use without holding the lock.
func (rb *RingBuffer[T]) Last(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.size {
		n = rb.size
	}
	if n <= 0 {
		return nil
	}

	result := make([]T, 0, n)
	for i := 0; i < n; i++ {
		idx := (rb.start + rb.size - 1 - i) % rb.capacity
		result = append(result, rb.items[idx])
	}
	return result
}

// ReadAll returns a copy of all items currently in the buffer, oldest first.
func (rb *RingBuffer[T]) ReadAll() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 {
		return nil
	}

	result := make([]T, rb.size)
	for i := 0; i < rb.size; i++ {
		result[i] = rb.items[(rb.start+i)%rb.capacity]
	}
	return result
}

// Clear removes all items from the buffer.
func (rb *RingBuffer[T]) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	for i := range rb.items {
		rb.items[i] = zero
	}
	rb.start = 0
	rb.size = 0
}

// Len returns the current number of items in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return rb.size
}

// Cap returns the capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return rb.capacity
}
