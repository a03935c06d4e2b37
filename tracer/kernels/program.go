// Package kernels contains the compute kernels executed by the tracer. Each
// kernel binds its arguments when a dispatch is recorded and returns a work item
// that processes a single pixel or ray.
package kernels

import (
	"errors"
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
)

// Name of the program that bundles the tracer kernels.
const ProgramName = "raytracer"

// Kernel names.
const (
	RayGen               = "rayGen"
	PathTraceRayGen      = "pathTraceRayGen"
	AdaptiveRayGen       = "adaptiveRayGen"
	DepthOfFieldRayGen   = "dofRayGen"
	ResetAdaptiveStats   = "resetAdaptiveStats"
	ShadowRayGen         = "shadowRayGen"
	Shade                = "shade"
	ReflectionRayGen     = "reflectionRayGen"
	BounceColor          = "bounceColor"
	BlendReflection      = "blendReflection"
	RefractionRayGen     = "refractionRayGen"
	RefractionExitRayGen = "refractionExitRayGen"
	BlendRefraction      = "blendRefraction"
	PathTrace            = "pathTrace"
	Accumulate           = "accumulate"
	AdaptiveAccumulate   = "adaptiveAccumulate"
	Resolve              = "resolve"
	ToneMap              = "toneMap"
	ExtractBright        = "extractBright"
	BlurHorizontal       = "blurHorizontal"
	BlurVertical         = "blurVertical"
	ApplyBloom           = "applyBloom"
)

// ErrBufferTooSmall is returned by kernels whose argument buffers cannot
// hold the requested dispatch.
var ErrBufferTooSmall = errors.New("kernels: buffer too small for dispatch")

// Create a program with the tracer kernels and the intersection kernels.
func NewProgram() *device.Program {
	program := device.NewProgram(ProgramName).
		Register(RayGen, rayGenKernel).
		Register(PathTraceRayGen, pathTraceRayGenKernel).
		Register(AdaptiveRayGen, adaptiveRayGenKernel).
		Register(DepthOfFieldRayGen, dofRayGenKernel).
		Register(ResetAdaptiveStats, resetAdaptiveStatsKernel).
		Register(ShadowRayGen, shadowRayGenKernel).
		Register(Shade, shadeKernel).
		Register(ReflectionRayGen, reflectionRayGenKernel).
		Register(BounceColor, bounceColorKernel).
		Register(BlendReflection, blendReflectionKernel).
		Register(RefractionRayGen, refractionRayGenKernel).
		Register(RefractionExitRayGen, refractionExitRayGenKernel).
		Register(BlendRefraction, blendRefractionKernel).
		Register(PathTrace, pathTraceKernel).
		Register(Accumulate, accumulateKernel).
		Register(AdaptiveAccumulate, adaptiveAccumulateKernel).
		Register(Resolve, resolveKernel).
		Register(ToneMap, toneMapKernel).
		Register(ExtractBright, extractBrightKernel).
		Register(BlurHorizontal, blurKernel(true)).
		Register(BlurVertical, blurKernel(false)).
		Register(ApplyBloom, applyBloomKernel)

	return accel.RegisterKernels(program)
}

// Ensure that a bound buffer holds at least want elements.
func requireLen(name string, have, want int) error {
	if have < want {
		return fmt.Errorf("%w: %s holds %d elements; need %d", ErrBufferTooSmall, name, have, want)
	}
	return nil
}
