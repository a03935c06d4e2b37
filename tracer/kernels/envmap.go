package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Map a normalized direction to equirectangular texture coordinates after
// rotating it by angle radians around the Y axis.
func envMapUV(dir types.Vec3, angle float32) (u, v float32) {
	dir = types.RotateY3(angle).Mul3x1(dir)
	u = (math32.Atan2(dir[2], dir[0]) + math32.Pi) / (2 * math32.Pi)
	v = math32.Acos(math32.Min(math32.Max(dir[1], -1), 1)) / math32.Pi
	return u, v
}

// Get the background radiance along a direction. When environment
// lighting is enabled and a map is bound the equirectangular map is
// sampled and scaled by the configured intensity; otherwise the sky
// gradient is returned.
func (v *sceneView) background(p *Params, dir types.Vec3) types.Vec3 {
	if !p.EnvLighting || v.envMap == nil || v.envMap.Layers == 0 {
		return skyColor(dir)
	}

	u, t := envMapUV(dir, p.EnvRotation)
	return v.envSampler.Sample(v.envMap, 0, u, t).Vec3().Mul(p.EnvIntensity)
}
