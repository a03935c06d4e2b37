package tracer

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
)

type kernelType uint8

// The list of kernels that implement the tracer.
const (
	// camera kernels
	rayGen kernelType = iota
	pathTraceRayGen
	adaptiveRayGen
	dofRayGen
	// direct shading kernels
	shadowRayGen
	shade
	reflectionRayGen
	bounceColor
	blendReflection
	refractionRayGen
	refractionExitRayGen
	blendRefraction
	// path tracing kernels
	pathTrace
	accumulate
	resetAdaptiveStats
	adaptiveAccumulate
	// post processing kernels
	resolve
	toneMap
	extractBright
	blurHorizontal
	blurVertical
	applyBloom
	//
	numKernels
)

// Implements Stringer; map kernel type to the kernel name registered by the
// kernel program.
func (kt kernelType) String() string {
	switch kt {
	case rayGen:
		return kernels.RayGen
	case pathTraceRayGen:
		return kernels.PathTraceRayGen
	case adaptiveRayGen:
		return kernels.AdaptiveRayGen
	case dofRayGen:
		return kernels.DepthOfFieldRayGen
	case shadowRayGen:
		return kernels.ShadowRayGen
	case shade:
		return kernels.Shade
	case reflectionRayGen:
		return kernels.ReflectionRayGen
	case bounceColor:
		return kernels.BounceColor
	case blendReflection:
		return kernels.BlendReflection
	case refractionRayGen:
		return kernels.RefractionRayGen
	case refractionExitRayGen:
		return kernels.RefractionExitRayGen
	case blendRefraction:
		return kernels.BlendRefraction
	case pathTrace:
		return kernels.PathTrace
	case accumulate:
		return kernels.Accumulate
	case resetAdaptiveStats:
		return kernels.ResetAdaptiveStats
	case adaptiveAccumulate:
		return kernels.AdaptiveAccumulate
	case resolve:
		return kernels.Resolve
	case toneMap:
		return kernels.ToneMap
	case extractBright:
		return kernels.ExtractBright
	case blurHorizontal:
		return kernels.BlurHorizontal
	case blurVertical:
		return kernels.BlurVertical
	case applyBloom:
		return kernels.ApplyBloom
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}
