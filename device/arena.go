package device

import (
	"fmt"
	"sync"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
)

// A small integer that identifies a resource allocated from an arena.
type Handle uint32

// Handle value that never refers to a live resource.
const InvalidHandle Handle = 0

type resource interface {
	resourceName() string
	sizeInBytes() int64
	release()
}

// An arena tracks every buffer and texture allocated on a device. Resources
// are indexed by small integer handles; handles of destroyed resources are
// recycled.
type Arena struct {
	device *Device
	logger log.Logger

	mu        sync.Mutex
	slots     []resource
	free      []Handle
	allocated int64
}

func newArena(d *Device) *Arena {
	return &Arena{
		device: d,
		logger: log.New("arena"),
		// slot 0 is reserved for InvalidHandle
		slots: make([]resource, 1),
	}
}

// Register a resource and return its handle.
func (a *Arena) register(r resource) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = r
		return h
	}

	a.slots = append(a.slots, r)
	return Handle(len(a.slots) - 1)
}

// Account for a change in the allocated size of a resource. Growing beyond
// the device memory budget fails without changing the accounting.
func (a *Arena) resize(name string, oldBytes, newBytes int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.allocated - oldBytes + newBytes
	if limit := a.device.MemoryLimit; limit > 0 && next > limit {
		return fmt.Errorf("device (%s): could not allocate %d bytes for %s (%d of %d bytes in use): %w", a.device.Name, newBytes, name, a.allocated, limit, ErrOutOfMemory)
	}
	a.allocated = next
	return nil
}

// Destroy the resource with the given handle. Destroying an invalid or
// already destroyed handle is a no-op.
func (a *Arena) Destroy(h Handle) {
	a.mu.Lock()
	if h == InvalidHandle || int(h) >= len(a.slots) || a.slots[h] == nil {
		a.mu.Unlock()
		return
	}
	r := a.slots[h]
	a.slots[h] = nil
	a.free = append(a.free, h)
	a.allocated -= r.sizeInBytes()
	a.mu.Unlock()

	r.release()
	a.logger.Debugf("released %s", r.resourceName())
}

// Destroy all live resources.
func (a *Arena) ReleaseAll() {
	a.mu.Lock()
	handles := make([]Handle, 0, len(a.slots))
	for h := 1; h < len(a.slots); h++ {
		if a.slots[h] != nil {
			handles = append(handles, Handle(h))
		}
	}
	a.mu.Unlock()

	for _, h := range handles {
		a.Destroy(h)
	}
}

// Get the number of live resources.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots) - 1 - len(a.free)
}

// Get the total number of bytes allocated by live resources.
func (a *Arena) Allocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}
