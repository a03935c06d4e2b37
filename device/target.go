package device

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// A 2D RGBA color target that kernels write display-ready pixels into.
// Pixels are stored row-major starting at the top-left corner.
type Target struct {
	*Buffer[types.Vec4]

	Width, Height int
}

// Allocate a render target with the given dimensions.
func NewTarget(arena *Arena, name string, width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("device: invalid target dimensions %dx%d", width, height)
	}

	t := &Target{
		Buffer: NewBuffer[types.Vec4](arena, name),
		Width:  width,
		Height: height,
	}
	if _, err := t.EnsureCapacity(width * height); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// Get the number of pixels in the target.
func (t *Target) PixelCount() int {
	return t.Width * t.Height
}

// Check whether the target has backing storage for all its pixels.
func (t *Target) Valid() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && t.Len() >= t.PixelCount()
}
