package asset

import (
	"fmt"
	"strings"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// The default camera used when a scene does not define one.
func DefaultCamera() *scene.Camera {
	cam := scene.NewCamera(45)
	cam.Position = types.XYZ(0, 0, 5)
	cam.LookAt = types.XYZ(0, 0, 0)
	return cam
}

// A triangle soup scene ready to be uploaded to a tracer.
type Scene struct {
	// Packed xyz vertex positions.
	Vertices []float32

	// Vertex index triplets, one per triangle.
	Indices []uint32

	// Texture coordinates, one per vertex. The v axis points down the
	// texture rows.
	TexCoords []types.Vec2

	Materials     []scene.Material
	MaterialNames []string

	// Material index for each triangle.
	MaterialIndices []int32

	Lights []scene.Light

	Camera *scene.Camera

	// Texture arrays referenced by the material texture ids; nil when no
	// material uses a texture of that kind.
	DiffuseTextures *device.TextureData
	NormalTextures  *device.TextureData
}

// Get the number of vertices.
func (s *Scene) VertexCount() int {
	return len(s.Vertices) / 3
}

// Get the number of triangles.
func (s *Scene) TriangleCount() int {
	return len(s.Indices) / 3
}

// Get the axis aligned bounding box of all vertices.
func (s *Scene) Bounds() (min, max types.Vec3) {
	for v := 0; v < s.VertexCount(); v++ {
		p := types.XYZ(s.Vertices[v*3], s.Vertices[v*3+1], s.Vertices[v*3+2])
		if v == 0 {
			min, max = p, p
			continue
		}
		min, max = types.MinVec3(min, p), types.MaxVec3(max, p)
	}
	return min, max
}

// Read a scene from a file or URL. The reader is selected by the file
// extension.
func ReadScene(location string) (*Scene, error) {
	res, err := NewResource(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	switch res.Ext() {
	case ".obj":
		return newWavefrontReader().Read(res)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.TrimPrefix(res.Ext(), "."))
}
