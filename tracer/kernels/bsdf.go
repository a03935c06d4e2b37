package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

const (
	minRoughness = 0.04

	// Reflectance of dielectrics at normal incidence.
	dielectricF0 = 0.04
)

// Convert the specular exponent slot of a material to a microfacet
// roughness. Values <= 1 are used as-is; larger values are treated as a
// Blinn-Phong shininess exponent.
func roughnessFromSpecular(w float32) float32 {
	r := w
	if w > 1 {
		r = math32.Sqrt(2 / (w + 2))
	}
	return math32.Min(math32.Max(r, minRoughness), 1)
}

// GGX normal distribution function.
func ggxDistribution(nDotH, alpha float32) float32 {
	a2 := alpha * alpha
	d := nDotH*nDotH*(a2-1) + 1
	return a2 / (math32.Pi * d * d)
}

// Smith masking term for a single direction.
func smithG1(nDotX, alpha float32) float32 {
	a2 := alpha * alpha
	return 2 * nDotX / (nDotX + math32.Sqrt(a2+(1-a2)*nDotX*nDotX))
}

// Smith height-uncorrelated masking-shadowing term.
func smithG(nDotL, nDotV, alpha float32) float32 {
	return smithG1(nDotL, alpha) * smithG1(nDotV, alpha)
}

// Schlick Fresnel for a colored reflectance at normal incidence.
func fresnelSchlickColor(cosTheta float32, f0 types.Vec3) types.Vec3 {
	m := 1 - math32.Min(math32.Max(cosTheta, 0), 1)
	m5 := m * m * m * m * m
	return f0.Add(types.XYZ(1, 1, 1).Sub(f0).Mul(m5))
}

// Microfacet material parameters.
type bsdfParams struct {
	albedo    types.Vec3
	roughness float32
	metallic  float32
}

func (b *bsdfParams) alpha() float32 {
	return b.roughness * b.roughness
}

func (b *bsdfParams) f0() types.Vec3 {
	return types.XYZ(dielectricF0, dielectricF0, dielectricF0).Lerp(b.albedo, b.metallic)
}

func bsdfFromSurface(s *surface) bsdfParams {
	return bsdfParams{
		albedo:    s.albedo,
		roughness: roughnessFromSpecular(s.material.Specular[3]),
		metallic:  math32.Min(math32.Max(s.material.Reflectivity(), 0), 1),
	}
}

// Evaluate the Cook-Torrance BRDF (Lambert diffuse plus GGX specular) for
// the unit vectors n, v (towards the viewer) and l (towards the light).
// The result is zero whenever l or v lie below the surface.
func cookTorrance(b *bsdfParams, n, v, l types.Vec3) types.Vec3 {
	nDotL := n.Dot(l)
	nDotV := n.Dot(v)
	if nDotL <= 0 || nDotV <= 0 {
		return types.Vec3{}
	}

	h := v.Add(l).Normalize()
	nDotH := math32.Max(n.Dot(h), 0)
	vDotH := math32.Max(v.Dot(h), 0)

	alpha := b.alpha()
	f := fresnelSchlickColor(vDotH, b.f0())
	specular := f.Mul(ggxDistribution(nDotH, alpha) * smithG(nDotL, nDotV, alpha) / (4 * nDotL * nDotV))

	kd := types.XYZ(1, 1, 1).Sub(f).Mul(1 - b.metallic)
	diffuse := kd.MulVec(b.albedo).Mul(1 / math32.Pi)

	return diffuse.Add(specular)
}

// Sample an outgoing direction for the path tracer. With probability equal
// to the metallic factor the GGX lobe is importance sampled, otherwise a
// cosine weighted diffuse direction is picked. Returns the new direction,
// the throughput weight (BRDF * cos / pdf) and false if the path should be
// terminated.
func sampleBSDF(b *bsdfParams, n, v types.Vec3, u0, u1, u2 float32) (types.Vec3, types.Vec3, bool) {
	if u0 >= b.metallic {
		dir := toWorld(cosineSampleHemisphere(u1, u2), n)
		return dir, b.albedo, true
	}

	h := toWorld(sampleGGXHalfVector(u1, u2, b.alpha()), n)
	dir := v.Neg().Reflect(h)

	nDotL := n.Dot(dir)
	nDotV := n.Dot(v)
	nDotH := n.Dot(h)
	vDotH := v.Dot(h)
	if nDotL <= 0 || nDotV <= 0 || nDotH <= 0 || vDotH <= 0 {
		return dir, types.Vec3{}, false
	}

	f := fresnelSchlickColor(vDotH, b.f0())
	weight := f.Mul(smithG(nDotL, nDotV, b.alpha()) * vDotH / (nDotV * nDotH))
	return dir, weight, true
}
