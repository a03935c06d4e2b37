package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Offset applied along the surface normal to secondary ray origins to
// avoid self intersections.
const rayEpsilon = 1e-4

// The scene resources shared by the shading kernels.
type Scene struct {
	Structure       *accel.Structure
	Materials       *device.Buffer[scene.Material]
	MaterialIndices *device.Buffer[int32]
	Lights          *device.Buffer[scene.Light]
	TexCoords       *device.Buffer[types.Vec2]
	DiffuseTextures *device.Texture
	NormalTextures  *device.Texture
	EnvironmentMap  *device.Texture
}

// A read-only snapshot of the scene resources taken when a kernel binds its
// arguments.
type sceneView struct {
	structure       *accel.Structure
	materials       []scene.Material
	materialIndices []int32
	lights          []scene.Light
	texCoords       []types.Vec2
	diffuseTextures *device.TextureData
	normalTextures  *device.TextureData
	envMap          *device.TextureData
	sampler         device.Sampler
	envSampler      device.Sampler
}

func (s *Scene) view() *sceneView {
	v := &sceneView{
		structure:       s.Structure,
		materials:       s.Materials.Data(),
		materialIndices: s.MaterialIndices.Data(),
		lights:          s.Lights.Data(),
		texCoords:       s.TexCoords.Data(),
		envSampler:      device.Sampler{AddressU: device.AddressRepeat, AddressV: device.AddressClampToEdge},
	}
	if s.DiffuseTextures != nil {
		v.diffuseTextures = s.DiffuseTextures.Data()
	}
	if s.NormalTextures != nil {
		v.normalTextures = s.NormalTextures.Data()
	}
	if s.EnvironmentMap != nil {
		v.envMap = s.EnvironmentMap.Data()
	}
	return v
}

// Get the material of a triangle. Triangles without a valid material index
// use the first material.
func (v *sceneView) material(primIndex uint32) *scene.Material {
	matIndex := 0
	if int(primIndex) < len(v.materialIndices) {
		if index := int(v.materialIndices[primIndex]); index >= 0 && index < len(v.materials) {
			matIndex = index
		}
	}
	return &v.materials[matIndex]
}

// Shading information for a ray hit.
type surface struct {
	position types.Vec3

	// Geometric normal facing the incoming ray.
	geometricNormal types.Vec3

	// Shading normal after normal mapping; faces the same hemisphere as
	// the geometric normal.
	normal types.Vec3

	// True if the ray hit the front face of the triangle.
	frontFace bool

	uv       types.Vec2
	material *scene.Material
	albedo   types.Vec3
}

// Reconstruct the surface hit by a ray.
func (v *sceneView) surfaceAt(p *Params, ray accel.Ray, hit accel.Intersection) surface {
	v0, v1, v2 := v.structure.Triangle(hit.PrimitiveIndex)
	e1, e2 := v1.Sub(v0), v2.Sub(v0)

	n := e1.Cross(e2).Normalize()
	frontFace := true
	if n.Dot(ray.Direction) > 0 {
		n = n.Neg()
		frontFace = false
	}

	s := surface{
		position:        ray.At(hit.Distance),
		geometricNormal: n,
		normal:          n,
		frontFace:       frontFace,
		material:        v.material(hit.PrimitiveIndex),
	}
	s.albedo = s.material.Diffuse.Vec3()

	i0, i1, i2 := v.structure.TriangleIndices(hit.PrimitiveIndex)
	if int(i0) >= len(v.texCoords) || int(i1) >= len(v.texCoords) || int(i2) >= len(v.texCoords) {
		return s
	}

	t0, t1, t2 := v.texCoords[i0], v.texCoords[i1], v.texCoords[i2]
	w := 1 - hit.Coordinates[0] - hit.Coordinates[1]
	s.uv = t0.Mul(w).Add(t1.Mul(hit.Coordinates[0])).Add(t2.Mul(hit.Coordinates[1]))

	if !p.Texturing {
		return s
	}

	// Surfaces keep their flat diffuse color when the layer is not bound
	if texID := s.material.DiffuseTexture(); hasLayer(v.diffuseTextures, texID) {
		s.albedo = v.sampler.Sample(v.diffuseTextures, texID, s.uv[0], s.uv[1]).Vec3()
	}

	if texID := s.material.NormalTexture(); hasLayer(v.normalTextures, texID) {
		if tangent, bitangent, ok := tangentFrame(n, e1, e2, t1.Sub(t0), t2.Sub(t0)); ok {
			texel := v.sampler.Sample(v.normalTextures, texID, s.uv[0], s.uv[1])
			s.normal = perturbNormal(n, tangent, bitangent, texel.Vec3())
		}
	}

	return s
}

func hasLayer(td *device.TextureData, layer int) bool {
	return td != nil && layer >= 0 && layer < td.Layers
}

// Build a tangent frame for normal mapping from the triangle edges and
// their texture coordinate deltas. The tangent is orthogonalized against n
// with a Gram-Schmidt step. Returns false for degenerate texture
// coordinates.
func tangentFrame(n, e1, e2 types.Vec3, duv1, duv2 types.Vec2) (tangent, bitangent types.Vec3, ok bool) {
	det := duv1[0]*duv2[1] - duv1[1]*duv2[0]
	if math32.Abs(det) < 1e-8 {
		return tangent, bitangent, false
	}

	invDet := 1 / det
	rawTangent := e1.Mul(duv2[1]).Sub(e2.Mul(duv1[1])).Mul(invDet)
	rawBitangent := e2.Mul(duv1[0]).Sub(e1.Mul(duv2[0])).Mul(invDet)

	tangent = rawTangent.Sub(n.Mul(n.Dot(rawTangent))).Normalize()
	if tangent == (types.Vec3{}) {
		return tangent, bitangent, false
	}

	bitangent = n.Cross(tangent)
	if bitangent.Dot(rawBitangent) < 0 {
		bitangent = bitangent.Neg()
	}
	return tangent, bitangent, true
}

// Apply a tangent space normal map texel (components in [0, 1]) to n.
func perturbNormal(n, tangent, bitangent, texel types.Vec3) types.Vec3 {
	local := texel.Mul(2).AddScalar(-1)
	mapped := tangent.Mul(local[0]).Add(bitangent.Mul(local[1])).Add(n.Mul(local[2])).Normalize()
	if mapped.Dot(n) <= 0 {
		return n
	}
	return mapped
}

// Offset a point along a normal.
func offsetPoint(p, n types.Vec3, sign float32) types.Vec3 {
	return p.Add(n.Mul(sign * rayEpsilon))
}
