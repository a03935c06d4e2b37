package kernels

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
)

type ToneMapMethod uint8

// Supported tone mapping operators.
const (
	ToneMapClamp ToneMapMethod = iota
	ToneMapReinhard
	ToneMapACES
	ToneMapUncharted2
)

// Implements Stringer.
func (m ToneMapMethod) String() string {
	switch m {
	case ToneMapClamp:
		return "clamp"
	case ToneMapReinhard:
		return "reinhard"
	case ToneMapACES:
		return "aces"
	case ToneMapUncharted2:
		return "uncharted2"
	}
	panic(fmt.Sprintf("kernels: unsupported tone mapping method %d", m))
}

// Parse a tone mapping method name.
func ParseToneMapMethod(name string) (ToneMapMethod, error) {
	for m := ToneMapClamp; m <= ToneMapUncharted2; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return ToneMapClamp, fmt.Errorf("kernels: unknown tone mapping method %q", name)
}

// Tone mapping settings.
type ToneMapParams struct {
	Method     ToneMapMethod
	Exposure   float32
	Gamma      float32
	WhitePoint float32
}

// Per-dispatch parameters shared by all kernels.
type Params struct {
	Width, Height int

	// Index of the frame in the current accumulation session.
	FrameIndex uint32

	Camera scene.CameraBasis

	Shadows     bool
	Texturing   bool
	Reflections bool
	Refractions bool

	// Path tracer settings.
	BSDF         bool
	HaltonJitter bool
	Bounce       int
	MaxBounces   int

	EnvLighting  bool
	EnvIntensity float32

	// Rotation of the environment map around the Y axis in radians.
	EnvRotation float32

	Aperture      float32
	FocalDistance float32

	VarianceThreshold float32
	MinSamples        uint32
	MaxSamples        uint32

	ToneMap        ToneMapParams
	BloomThreshold float32
	BloomIntensity float32
}

// Get the number of pixels in the output image.
func (p *Params) PixelCount() int {
	return p.Width * p.Height
}

// Get the dimensions of the half resolution bloom buffers.
func (p *Params) BloomSize() (int, int) {
	return (p.Width + 1) / 2, (p.Height + 1) / 2
}
