package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Scale applied to the material ambient color.
const ambientFactor = 0.15

var (
	skyHorizon = types.XYZ(1, 1, 1)
	skyZenith  = types.XYZ(0.5, 0.7, 1.0)
)

// Get the radiance of the procedural sky for a normalized direction.
func skyColor(dir types.Vec3) types.Vec3 {
	t := 0.5 * (dir[1] + 1)
	return skyHorizon.Lerp(skyZenith, t)
}

// Evaluate the Blinn-Phong contribution of a single light. toLight is the
// unit direction towards the light, toEye the unit direction towards the
// viewer and radiance the light radiance after falloff.
func blinnPhong(s *surface, toLight, toEye, radiance types.Vec3) types.Vec3 {
	nDotL := s.normal.Dot(toLight)
	if nDotL <= 0 {
		return types.Vec3{}
	}

	color := s.albedo.Mul(nDotL)

	shininess := s.material.Specular[3]
	specular := s.material.Specular.Vec3()
	if shininess > 0 && specular != (types.Vec3{}) {
		h := toLight.Add(toEye).Normalize()
		if nDotH := s.normal.Dot(h); nDotH > 0 {
			color = color.Add(specular.Mul(math32.Pow(nDotH, shininess)))
		}
	}

	return color.MulVec(radiance)
}

// Shade a surface using the emission and ambient terms plus the
// contribution of every light. The visible callback reports whether the
// light with the given index is unoccluded; it may be nil.
func shadeSurface(s *surface, toEye types.Vec3, lights []scene.Light, visible func(lightIndex int) bool) types.Vec3 {
	color := s.material.Emission.Vec3().Add(s.material.Ambient.Vec3().Mul(ambientFactor))
	for lightIndex := range lights {
		light := &lights[lightIndex]
		toLight, _, falloff := light.Illuminate(s.position)
		if falloff == 0 {
			continue
		}
		if visible != nil && !visible(lightIndex) {
			continue
		}
		color = color.Add(blinnPhong(s, toLight, toEye, light.Radiance().Mul(falloff)))
	}
	return color
}

// Schlick's approximation of the dielectric Fresnel reflectance for the
// cosine of the incident angle and the index of refraction.
func fresnelSchlick(cosTheta, ior float32) float32 {
	r0 := (1 - ior) / (1 + ior)
	r0 *= r0
	m := 1 - math32.Min(math32.Max(cosTheta, 0), 1)
	return r0 + (1-r0)*m*m*m*m*m
}

// Blend the reflected color into the surface color.
func blendReflectionColor(surfaceColor, bounceColor, tint types.Vec3, reflectivity float32) types.Vec3 {
	return surfaceColor.Mul(1 - reflectivity).Add(bounceColor.MulVec(tint).Mul(reflectivity))
}

// Combine the reflected and refracted colors with the Fresnel coefficient
// and blend the result into the opaque surface color by the transmission
// amount.
func blendTransmission(opaque, reflected, refracted types.Vec3, fresnel, transmission float32) types.Vec3 {
	dielectric := reflected.Mul(fresnel).Add(refracted.Mul(1 - fresnel))
	return opaque.Lerp(dielectric, transmission)
}
