package tracer

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
)

// Tracer feature flags and parameters.
type Options struct {
	// Direct shading features.
	Shadows     bool
	Reflections bool
	Refractions bool
	Texturing   bool

	// Progressive rendering features. The remaining features only take
	// effect when PathTracing is enabled.
	PathTracing         bool
	BSDFSampling        bool
	AdaptiveSampling    bool
	EnvironmentLighting bool
	DepthOfField        bool
	HaltonJitter        bool

	// Post processing.
	ToneMapping bool
	Bloom       bool

	// Number of path segments traced in BSDF mode.
	MaxBounces int

	// Adaptive sampling.
	VarianceThreshold float32
	MinSamples        uint32
	MaxSamples        uint32

	// Environment map intensity and rotation around the Y axis in degrees.
	EnvIntensity float32
	EnvRotation  float32

	// Thin lens radius and distance to the focal plane.
	Aperture      float32
	FocalDistance float32

	ToneMapMethod kernels.ToneMapMethod

	// Exposure in stops.
	Exposure   float32
	Gamma      float32
	WhitePoint float32

	BloomThreshold float32
	BloomIntensity float32
}

// Get the default tracer options.
func DefaultOptions() Options {
	return Options{
		MaxBounces:        3,
		VarianceThreshold: 0.01,
		MinSamples:        16,
		MaxSamples:        1024,
		EnvIntensity:      1,
		EnvRotation:       0,
		Aperture:          0,
		FocalDistance:     5,
		ToneMapMethod:     kernels.ToneMapACES,
		Exposure:          0,
		Gamma:             2.2,
		WhitePoint:        4,
		BloomThreshold:    1,
		BloomIntensity:    0.3,
	}
}

// Validate the option parameters.
func (o *Options) Validate() error {
	switch {
	case o.MaxBounces < 1:
		return fmt.Errorf("%w: max bounces must be >= 1; got %d", ErrInvalidArgument, o.MaxBounces)
	case o.VarianceThreshold <= 0:
		return fmt.Errorf("%w: variance threshold must be > 0; got %f", ErrInvalidArgument, o.VarianceThreshold)
	case o.MinSamples < 1:
		return fmt.Errorf("%w: min samples must be >= 1", ErrInvalidArgument)
	case o.MaxSamples < o.MinSamples:
		return fmt.Errorf("%w: max samples (%d) must be >= min samples (%d)", ErrInvalidArgument, o.MaxSamples, o.MinSamples)
	case o.EnvIntensity < 0:
		return fmt.Errorf("%w: environment intensity must be >= 0; got %f", ErrInvalidArgument, o.EnvIntensity)
	case o.Aperture < 0:
		return fmt.Errorf("%w: aperture must be >= 0; got %f", ErrInvalidArgument, o.Aperture)
	case o.FocalDistance <= 0:
		return fmt.Errorf("%w: focal distance must be > 0; got %f", ErrInvalidArgument, o.FocalDistance)
	case o.ToneMapMethod > kernels.ToneMapUncharted2:
		return fmt.Errorf("%w: unknown tone mapping method %d", ErrInvalidArgument, o.ToneMapMethod)
	case o.Gamma <= 0:
		return fmt.Errorf("%w: gamma must be > 0; got %f", ErrInvalidArgument, o.Gamma)
	case o.WhitePoint <= 0:
		return fmt.Errorf("%w: white point must be > 0; got %f", ErrInvalidArgument, o.WhitePoint)
	case o.BloomThreshold < 0 || o.BloomIntensity < 0:
		return fmt.Errorf("%w: bloom threshold and intensity must be >= 0", ErrInvalidArgument)
	}
	return nil
}
