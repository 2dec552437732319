// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import "sync"

// =============================================================================
// RING BUFFER
// =============================================================================

// RingBuffer is a fixed-capacity circular buffer that drops the oldest item
// when full.
//
// # Description
//
// Used for bounded history collection where recent items matter more than
// old ones, such as the background monitor's probe history. Memory is
// allocated once at construction; Push never allocates and never blocks.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
//
// # Example
//
//	history := util.NewRingBuffer[ProbeResult](32)
//	history.Push(result)
//	recent := history.Items()
//
// # Limitations
//
//   - Capacity cannot be changed after creation
//   - Dropped items cannot be recovered
type RingBuffer[T any] struct {
	buffer   []T
	head     int
	tail     int
	size     int
	capacity int
	dropped  int64
	mu       sync.Mutex
}

// NewRingBuffer creates an empty buffer holding up to capacity items.
// Panics if capacity <= 0.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ring buffer capacity must be positive")
	}
	return &RingBuffer[T]{
		buffer:   make([]T, capacity),
		capacity: capacity,
	}
}

// Push adds an item, dropping the oldest when full. Returns true if an
// item was dropped to make room.
func (r *RingBuffer[T]) Push(item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := false
	if r.size == r.capacity {
		r.head = (r.head + 1) % r.capacity
		r.size--
		r.dropped++
		dropped = true
	}

	r.buffer[r.tail] = item
	r.tail = (r.tail + 1) % r.capacity
	r.size++
	return dropped
}

// Last returns the most recently pushed item, or false if empty.
func (r *RingBuffer[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if r.size == 0 {
		return zero, false
	}
	idx := (r.tail - 1 + r.capacity) % r.capacity
	return r.buffer[idx], true
}

// Items returns a snapshot of the buffer contents, oldest first.
func (r *RingBuffer[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buffer[(r.head+i)%r.capacity])
	}
	return out
}

// Drain removes and returns all items, oldest first.
func (r *RingBuffer[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buffer[(r.head+i)%r.capacity])
	}

	var zero T
	for i := range r.buffer {
		r.buffer[i] = zero
	}
	r.head = 0
	r.tail = 0
	r.size = 0
	return out
}

// Size returns the number of items currently held.
func (r *RingBuffer[T]) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Capacity returns the fixed capacity.
func (r *RingBuffer[T]) Capacity() int {
	return r.capacity
}

// DroppedCount returns how many items have been dropped since creation.
func (r *RingBuffer[T]) DroppedCount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
