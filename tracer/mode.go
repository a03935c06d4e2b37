package tracer

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// The rendering strategy used for a frame.
type RenderMode uint8

const (
	// Whitted style direct shading with optional shadows, reflections,
	// refractions and texturing.
	DirectMode RenderMode = iota

	// Progressive Monte Carlo path tracing.
	PathTraceMode

	// Path tracing that stops sampling pixels once they converge.
	AdaptiveMode

	// Path tracing lit by an environment map.
	EnvironmentLitMode

	// Path tracing through a thin lens camera.
	DepthOfFieldMode
)

// Implements Stringer.
func (m RenderMode) String() string {
	switch m {
	case DirectMode:
		return "direct"
	case PathTraceMode:
		return "path tracing"
	case AdaptiveMode:
		return "adaptive path tracing"
	case EnvironmentLitMode:
		return "environment lit path tracing"
	case DepthOfFieldMode:
		return "depth of field path tracing"
	}
	panic(fmt.Sprintf("tracer: unsupported render mode %d", m))
}

// Check whether the mode accumulates samples across frames.
func (m RenderMode) Progressive() bool {
	return m != DirectMode
}

// Select the render mode for a set of options. Without path tracing the
// direct mode is used; otherwise depth of field takes precedence over
// adaptive sampling which takes precedence over environment lighting.
func selectMode(o *Options) RenderMode {
	switch {
	case !o.PathTracing:
		return DirectMode
	case o.DepthOfField:
		return DepthOfFieldMode
	case o.AdaptiveSampling:
		return AdaptiveMode
	case o.EnvironmentLighting:
		return EnvironmentLitMode
	}
	return PathTraceMode
}

// A rendering strategy. Each strategy owns the scratch buffers it needs and
// encodes the kernels that produce a linear color buffer for the post
// stage.
type renderStrategy interface {
	Mode() RenderMode

	// Grow the scratch buffers to fit a frame.
	ensureBuffers(d frameDims) error

	// Encode the commands for a frame and return the linear color buffer
	// they write.
	encode(fr *frame) (*device.Buffer[types.Vec3], error)

	release()
}

// Create the strategy for a render mode.
func newStrategy(mode RenderMode, arena *device.Arena, logger log.Logger) renderStrategy {
	switch mode {
	case DirectMode:
		return newDirectMode(arena, logger)
	case AdaptiveMode:
		return newAdaptiveMode(arena, logger)
	case EnvironmentLitMode:
		return newEnvLitMode(arena, logger)
	case DepthOfFieldMode:
		return newDOFMode(arena, logger)
	}
	return newPathTraceMode(arena, logger)
}
