package scene

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

type LightType uint8

// Supported light types. The type is stored in Light.Position.W.
const (
	DirectionalLight LightType = iota
	PointLight
)

// Implements Stringer.
func (lt LightType) String() string {
	switch lt {
	case DirectionalLight:
		return "directional"
	case PointLight:
		return "point"
	}
	panic("scene: unsupported light type")
}

// Light source record.
type Light struct {
	// RGB color; W holds the intensity.
	Emission types.Vec4

	// For point lights the world position; for directional lights the
	// direction towards the light. W holds the light type.
	Position types.Vec4
}

// Create a directional light that illuminates the scene from the given
// direction.
func NewDirectionalLight(towardsLight types.Vec3, color types.Vec3, intensity float32) Light {
	return Light{
		Emission: color.Vec4(intensity),
		Position: towardsLight.Normalize().Vec4(float32(DirectionalLight)),
	}
}

// Create a point light.
func NewPointLight(position types.Vec3, color types.Vec3, intensity float32) Light {
	return Light{
		Emission: color.Vec4(intensity),
		Position: position.Vec4(float32(PointLight)),
	}
}

// Get the light type.
func (l *Light) Type() LightType {
	if l.Position[3] >= 0.5 {
		return PointLight
	}
	return DirectionalLight
}

// Get the radiance scale (color * intensity).
func (l *Light) Radiance() types.Vec3 {
	return l.Emission.Vec3().Mul(l.Emission[3])
}

// Calculate the unit direction from point p towards the light, the distance
// to the light and the falloff factor applied to its radiance. Directional
// lights are infinitely far away and have no falloff. Point lights fall off
// with 1 / (1 + d^2).
func (l *Light) Illuminate(p types.Vec3) (dir types.Vec3, dist, falloff float32) {
	if l.Type() == DirectionalLight {
		return l.Position.Vec3().Normalize(), math32.Inf(1), 1
	}

	toLight := l.Position.Vec3().Sub(p)
	dist = toLight.Len()
	if dist <= 0 {
		return types.Vec3{}, 0, 0
	}
	return toLight.Mul(1 / dist), dist, 1 / (1 + dist*dist)
}
