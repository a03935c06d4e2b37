package scene

import "github.com/FyrbyAdditive/OCCT-Metal-sub000/types"

// Texture id used by materials without a texture.
const NoTexture = -1

// Surface material record. Every field packs an RGB triplet in XYZ and a
// scalar parameter in W.
type Material struct {
	// RGB ambient color; W holds the normal map texture id.
	Ambient types.Vec4

	// RGB diffuse color; W holds the diffuse texture id.
	Diffuse types.Vec4

	// RGB specular color; W holds the Blinn-Phong shininess exponent or,
	// when <= 1, the microfacet roughness.
	Specular types.Vec4

	// RGB emitted radiance.
	Emission types.Vec4

	// RGB reflection tint; W holds reflectivity, also used as the metallic
	// factor by the path tracer.
	Reflection types.Vec4

	// RGB refraction tint.
	Refraction types.Vec4

	// Alpha, transmission amount, index of refraction and reciprocal index
	// of refraction.
	Transparency types.Vec4
}

// Create a white diffuse material without textures.
func DefaultMaterial() Material {
	return Material{
		Ambient:      types.XYZW(1, 1, 1, NoTexture),
		Diffuse:      types.XYZW(0.8, 0.8, 0.8, NoTexture),
		Specular:     types.XYZW(0, 0, 0, 1),
		Transparency: types.XYZW(1, 0, 1, 1),
	}
}

// Get the diffuse texture id or NoTexture.
func (m *Material) DiffuseTexture() int {
	return textureID(m.Diffuse[3])
}

// Get the normal map texture id or NoTexture.
func (m *Material) NormalTexture() int {
	return textureID(m.Ambient[3])
}

// Set the diffuse and normal map texture ids.
func (m *Material) SetTextures(diffuse, normal int) {
	m.Diffuse[3] = float32(diffuse)
	m.Ambient[3] = float32(normal)
}

// Get the reflectivity / metallic factor.
func (m *Material) Reflectivity() float32 {
	return m.Reflection[3]
}

// Get the transmission amount.
func (m *Material) Transmission() float32 {
	return m.Transparency[1]
}

// Get the index of refraction. Values <= 0 are treated as 1.
func (m *Material) IOR() float32 {
	if m.Transparency[2] <= 0 {
		return 1
	}
	return m.Transparency[2]
}

// Set the transmission amount and index of refraction. The reciprocal IOR
// is derived from ior.
func (m *Material) SetTransmission(amount, ior float32) {
	if ior <= 0 {
		ior = 1
	}
	m.Transparency[1] = amount
	m.Transparency[2] = ior
	m.Transparency[3] = 1 / ior
}

func textureID(v float32) int {
	if v < 0 {
		return NoTexture
	}
	return int(v)
}
