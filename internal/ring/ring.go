// Package ring implements a bounded, drop-oldest FIFO of samples shared
// between a single producer and a single draining consumer.
package ring

import (
	"sync"

	"cpusamp/internal/types"
)

// Buffer is a thread-safe ring buffer with a fixed capacity. It never
// blocks beyond the time it takes to acquire its internal mutex.
type Buffer struct {
	mu       sync.Mutex
	data     []types.Sample
	capacity int
	onDrop   func()
}

// New creates a Buffer that holds at most capacity samples. capacity must
// be >= 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		data:     make([]types.Sample, 0, capacity),
		capacity: capacity,
	}
}

// OnDrop registers a callback invoked once per sample evicted by overflow,
// letting callers (the coordinator, wiring internal/metrics) observe drop
// pressure without the buffer depending on a metrics package itself.
func (b *Buffer) OnDrop(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = fn
}

// Push appends sample, evicting the oldest entry first if the buffer is
// already at capacity.
func (b *Buffer) Push(sample types.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data) == b.capacity {
		copy(b.data, b.data[1:])
		b.data = b.data[:b.capacity-1]
		if b.onDrop != nil {
			b.onDrop()
		}
	}
	b.data = append(b.data, sample)
}

// Drain atomically removes and returns all samples currently held, in
// enqueue order.
func (b *Buffer) Drain() []types.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]types.Sample, len(b.data))
	copy(out, b.data)
	b.data = b.data[:0]
	return out
}

// IsEmpty reports whether the buffer currently holds no samples.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) == 0
}

// Len reports the number of samples currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
