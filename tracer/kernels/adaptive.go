package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Lower bound for the squared mean luminance used by the relative variance.
const varianceEpsilon = 1e-4

// Per-pixel running statistics for adaptive sampling.
type PixelStats struct {
	Mean types.Vec3

	// Sum of squared differences from the mean.
	M2 types.Vec3

	Count     uint32
	Converged bool
}

// Add a sample to the running statistics using Welford's algorithm.
// Converged pixels are left untouched.
func (ps *PixelStats) Add(sample types.Vec3) {
	if ps.Converged {
		return
	}

	ps.Count++
	delta := sample.Sub(ps.Mean)
	ps.Mean = ps.Mean.Add(delta.Mul(1 / float32(ps.Count)))
	ps.M2 = ps.M2.Add(delta.MulVec(sample.Sub(ps.Mean)))
}

// Get the sample variance.
func (ps *PixelStats) Variance() types.Vec3 {
	if ps.Count < 2 {
		return types.Vec3{}
	}
	return ps.M2.Mul(1 / float32(ps.Count-1))
}

// Get the luminance variance relative to the squared mean luminance.
func (ps *PixelStats) RelativeVariance() float32 {
	lum := ps.Mean.Luminance()
	return ps.Variance().Luminance() / math32.Max(lum*lum, varianceEpsilon)
}

// Update the converged flag. A pixel converges once it has at least
// minSamples samples and its relative variance drops below the threshold,
// or once it reaches maxSamples.
func (ps *PixelStats) UpdateConvergence(threshold float32, minSamples, maxSamples uint32) {
	if ps.Converged {
		return
	}
	if (ps.Count >= minSamples && ps.RelativeVariance() < threshold) || ps.Count >= maxSamples {
		ps.Converged = true
	}
}
