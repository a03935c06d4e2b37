package device

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// A typed device buffer allocated from an arena.
type Buffer[T any] struct {
	arena  *Arena
	handle Handle

	// A name for identifying the buffer.
	name string

	elemSize int64
	bytes    atomic.Int64

	mu       sync.RWMutex
	data     []T
	released bool
}

// Create an empty buffer. Storage is allocated lazily by EnsureCapacity or
// Upload.
func NewBuffer[T any](arena *Arena, name string) *Buffer[T] {
	b := &Buffer[T]{
		arena:    arena,
		name:     name,
		elemSize: int64(reflect.TypeOf((*T)(nil)).Elem().Size()),
	}
	b.handle = arena.register(b)
	return b
}

// Get the arena handle for this buffer.
func (b *Buffer[T]) Handle() Handle {
	return b.handle
}

// Get buffer name.
func (b *Buffer[T]) Name() string {
	return b.name
}

// Get the number of allocated elements.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Get the allocated size in bytes.
func (b *Buffer[T]) Size() int {
	return int(b.bytes.Load())
}

// Get the current backing storage. Kernels should fetch the slice once when
// they bind their arguments.
func (b *Buffer[T]) Data() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}

// Make sure that the buffer can hold at least count elements. The buffer is
// reallocated only when it is too small and never shrinks; a reallocated
// buffer is zeroed. Returns true if the buffer was reallocated.
func (b *Buffer[T]) EnsureCapacity(count int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return false, fmt.Errorf("device: could not resize buffer %s: %w", b.name, ErrReleasedResource)
	}
	if count <= len(b.data) {
		return false, nil
	}

	if err := b.account(int64(count) * b.elemSize); err != nil {
		return false, err
	}
	b.data = make([]T, count)
	b.arena.logger.Debugf("allocated buffer %s: %d items (%d bytes)", b.name, count, b.bytes.Load())
	return true, nil
}

// Replace the buffer contents with a copy of data. The previous storage is
// discarded regardless of its size.
func (b *Buffer[T]) Upload(data []T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("device: could not upload data to buffer %s: %w", b.name, ErrReleasedResource)
	}

	if err := b.account(int64(len(data)) * b.elemSize); err != nil {
		return err
	}
	b.data = append(make([]T, 0, len(data)), data...)
	return nil
}

// Zero the first count elements of the buffer.
func (b *Buffer[T]) Clear(count int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if count > len(b.data) {
		count = len(b.data)
	}
	var zero T
	for i := 0; i < count; i++ {
		b.data[i] = zero
	}
}

// Copy up to len(dst) elements from the buffer into dst and return the
// number of copied elements.
func (b *Buffer[T]) Read(dst []T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copy(dst, b.data)
}

// Release the buffer and return its handle to the arena.
func (b *Buffer[T]) Destroy() {
	b.arena.Destroy(b.handle)
}

// Update arena accounting for a new allocation size. Must be called with
// b.mu held.
func (b *Buffer[T]) account(newBytes int64) error {
	if err := b.arena.resize(b.name, b.bytes.Load(), newBytes); err != nil {
		return err
	}
	b.bytes.Store(newBytes)
	return nil
}

func (b *Buffer[T]) resourceName() string {
	return "buffer " + b.name
}

func (b *Buffer[T]) sizeInBytes() int64 {
	return b.bytes.Load()
}

func (b *Buffer[T]) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.released = true
	b.bytes.Store(0)
}
