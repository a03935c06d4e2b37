package tracer

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
)

// The dimensions that scratch buffer sizes derive from.
type frameDims struct {
	width, height int
	lights        int
}

func (d frameDims) pixels() int {
	return d.width * d.height
}

// Computes the number of elements a scratch buffer needs for a frame.
type sizeFn func(d frameDims) int

func perPixel(d frameDims) int {
	return d.pixels()
}

// Shadow queries are packed as lightIndex * pixelCount + pixelIndex.
func perLightPixel(d frameDims) int {
	return d.lights * d.pixels()
}

func perBloomTexel(d frameDims) int {
	return ((d.width + 1) / 2) * ((d.height + 1) / 2)
}

// The subset of the device buffer API used for scratch management.
type scratchBuffer interface {
	Name() string
	EnsureCapacity(count int) (bool, error)
	Destroy()
}

type scratchEntry struct {
	buf  scratchBuffer
	size sizeFn
}

// A set of scratch buffers owned by a render mode or the post stage. All
// buffers grow together and are released together.
type bufferSet struct {
	logger  log.Logger
	arena   *device.Arena
	entries []scratchEntry
}

func newBufferSet(arena *device.Arena, logger log.Logger) *bufferSet {
	return &bufferSet{
		logger: logger,
		arena:  arena,
	}
}

// Allocate a scratch buffer that belongs to the set.
func newScratch[T any](set *bufferSet, name string, size sizeFn) *device.Buffer[T] {
	buf := device.NewBuffer[T](set.arena, name)
	set.entries = append(set.entries, scratchEntry{buf: buf, size: size})
	return buf
}

// Grow every buffer in the set to fit a frame. Buffers never shrink.
func (s *bufferSet) ensure(d frameDims) error {
	for _, entry := range s.entries {
		count := entry.size(d)
		grown, err := entry.buf.EnsureCapacity(count)
		if err != nil {
			return err
		}
		if grown {
			s.logger.Debugf("resized scratch buffer %s to %d items", entry.buf.Name(), count)
		}
	}
	return nil
}

// Release all buffers in the set.
func (s *bufferSet) release() {
	for _, entry := range s.entries {
		entry.buf.Destroy()
	}
	s.entries = nil
}
