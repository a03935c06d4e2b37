package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Map a point of the unit square to the unit disk using the concentric
// mapping, which preserves relative areas.
func concentricSampleDisk(u1, u2 float32) types.Vec2 {
	ox := 2*u1 - 1
	oy := 2*u2 - 1
	if ox == 0 && oy == 0 {
		return types.Vec2{}
	}

	var r, theta float32
	if math32.Abs(ox) > math32.Abs(oy) {
		r = ox
		theta = math32.Pi / 4 * (oy / ox)
	} else {
		r = oy
		theta = math32.Pi/2 - math32.Pi/4*(ox/oy)
	}
	sin, cos := math32.Sincos(theta)
	return types.XY(r*cos, r*sin)
}

// Sample a direction from the cosine weighted hemisphere around +Z.
func cosineSampleHemisphere(u1, u2 float32) types.Vec3 {
	d := concentricSampleDisk(u1, u2)
	z := math32.Sqrt(math32.Max(0, 1-d[0]*d[0]-d[1]*d[1]))
	return types.XYZ(d[0], d[1], z)
}

// Build an orthonormal tangent frame around the unit vector n.
func orthonormalBasis(n types.Vec3) (tangent, bitangent types.Vec3) {
	if math32.Abs(n[0]) > 0.9 {
		tangent = types.XYZ(0, 1, 0).Cross(n).Normalize()
	} else {
		tangent = types.XYZ(1, 0, 0).Cross(n).Normalize()
	}
	return tangent, n.Cross(tangent)
}

// Transform a direction from the tangent frame of n to world space.
func toWorld(local, n types.Vec3) types.Vec3 {
	tangent, bitangent := orthonormalBasis(n)
	return tangent.Mul(local[0]).Add(bitangent.Mul(local[1])).Add(n.Mul(local[2]))
}

// Sample a GGX distributed microfacet normal around +Z for the given alpha
// (roughness squared).
func sampleGGXHalfVector(u1, u2, alpha float32) types.Vec3 {
	phi := 2 * math32.Pi * u1
	cosTheta := math32.Sqrt((1 - u2) / (1 + (alpha*alpha-1)*u2))
	sinTheta := math32.Sqrt(math32.Max(0, 1-cosTheta*cosTheta))
	sinPhi, cosPhi := math32.Sincos(phi)
	return types.XYZ(sinTheta*cosPhi, sinTheta*sinPhi, cosTheta)
}
