package accel

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

const (
	// Max number of triangles stored in a BVH leaf.
	minLeafTriangles = 4

	// Triangles whose determinant falls below this threshold are treated
	// as parallel to the ray.
	parallelEpsilon float32 = 1e-9

	traversalStackSize = 64
)

// A triangle wrapper that can be partitioned by the BVH builder.
type triangle struct {
	index  uint32
	bbox   [2]types.Vec3
	center types.Vec3
}

func (t *triangle) BBox() [2]types.Vec3 {
	return t.bbox
}

func (t *triangle) Center() types.Vec3 {
	return t.center
}

// Immutable BVH data produced by a single build.
type bvhData struct {
	vertices    []types.Vec3
	indices     []uint32
	nodes       []Node
	primIndices []uint32
}

// An acceleration structure over a triangle soup. The structure owns
// copies of the vertex and index data it was built from; any change to the
// geometry requires a full rebuild.
type Structure struct {
	logger log.Logger
	data   atomic.Pointer[bvhData]
}

// Create an empty acceleration structure.
func NewStructure() *Structure {
	s := &Structure{
		logger: log.New("accel"),
	}
	s.data.Store(&bvhData{})
	return s
}

// Copy the supplied geometry and rebuild the BVH. The vertices slice holds
// 3 floats per vertex and the indices slice holds 3 vertex indices per
// triangle. A zero triangle count produces an empty structure.
func (s *Structure) Build(vertices []float32, vertexCount int, indices []uint32, triangleCount int) error {
	if vertices == nil || indices == nil {
		return ErrInvalidGeometry
	}
	if vertexCount < 0 || triangleCount < 0 {
		return fmt.Errorf("%w: negative vertex (%d) or triangle (%d) count", ErrInvalidGeometry, vertexCount, triangleCount)
	}
	if len(vertices) < vertexCount*3 {
		return fmt.Errorf("%w: expected %d vertex components; got %d", ErrInvalidGeometry, vertexCount*3, len(vertices))
	}
	if len(indices) < triangleCount*3 {
		return fmt.Errorf("%w: expected %d indices; got %d", ErrInvalidGeometry, triangleCount*3, len(indices))
	}

	start := time.Now()
	data := &bvhData{
		vertices: make([]types.Vec3, vertexCount),
		indices:  make([]uint32, triangleCount*3),
	}
	for vIndex := range data.vertices {
		data.vertices[vIndex] = types.XYZ(vertices[vIndex*3], vertices[vIndex*3+1], vertices[vIndex*3+2])
	}
	copy(data.indices, indices)

	workList := make([]BoundedVolume, triangleCount)
	for triIndex := 0; triIndex < triangleCount; triIndex++ {
		var tri [3]types.Vec3
		for corner := 0; corner < 3; corner++ {
			vIndex := data.indices[triIndex*3+corner]
			if int(vIndex) >= vertexCount {
				return fmt.Errorf("%w: triangle %d references vertex %d; vertex count is %d", ErrInvalidGeometry, triIndex, vIndex, vertexCount)
			}
			tri[corner] = data.vertices[vIndex]
		}
		workList[triIndex] = &triangle{
			index: uint32(triIndex),
			bbox: [2]types.Vec3{
				types.MinVec3(tri[0], types.MinVec3(tri[1], tri[2])),
				types.MaxVec3(tri[0], types.MaxVec3(tri[1], tri[2])),
			},
			center: tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3.0),
		}
	}

	if triangleCount > 0 {
		data.primIndices = make([]uint32, 0, triangleCount)
		data.nodes = Build(
			workList,
			minLeafTriangles,
			func(leaf *Node, items []BoundedVolume) {
				leaf.SetPrimitives(uint32(len(data.primIndices)), uint32(len(items)))
				for _, item := range items {
					data.primIndices = append(data.primIndices, item.(*triangle).index)
				}
			},
			SurfaceAreaHeuristic,
		)
	}

	s.data.Store(data)
	s.logger.Debugf(
		"built acceleration structure for %d triangles (%d vertices, %d nodes) in %d ms",
		triangleCount, vertexCount, len(data.nodes), time.Since(start).Nanoseconds()/1e6,
	)
	return nil
}

// Get the number of triangles in the structure.
func (s *Structure) TriangleCount() int {
	return len(s.data.Load().indices) / 3
}

// Get the number of BVH nodes.
func (s *Structure) NodeCount() int {
	return len(s.data.Load().nodes)
}

// Check whether the structure contains any geometry that can be queried.
func (s *Structure) Valid() bool {
	return s != nil && len(s.data.Load().nodes) > 0
}

// Get the vertices of a triangle.
func (s *Structure) Triangle(primIndex uint32) (v0, v1, v2 types.Vec3) {
	return s.data.Load().triangle(primIndex)
}

// Get the vertex indices of a triangle.
func (s *Structure) TriangleIndices(primIndex uint32) (i0, i1, i2 uint32) {
	indices := s.data.Load().indices
	base := primIndex * 3
	return indices[base], indices[base+1], indices[base+2]
}

// Intersect a single ray against the structure.
func (s *Structure) Intersect(ray Ray, anyHit bool) Intersection {
	return s.data.Load().intersect(ray, anyHit)
}

// Get a snapshot of the current BVH data for use by a kernel dispatch.
func (s *Structure) snapshot() *bvhData {
	return s.data.Load()
}

func (d *bvhData) triangle(primIndex uint32) (v0, v1, v2 types.Vec3) {
	base := primIndex * 3
	return d.vertices[d.indices[base]], d.vertices[d.indices[base+1]], d.vertices[d.indices[base+2]]
}

// Traverse the BVH and return the nearest intersection within the ray
// extents or, if anyHit is set, the first intersection found.
func (d *bvhData) intersect(ray Ray, anyHit bool) Intersection {
	if !ray.Valid() || len(d.nodes) == 0 {
		return Miss
	}

	invDir := types.XYZ(1/ray.Direction[0], 1/ray.Direction[1], 1/ray.Direction[2])
	result := Miss
	tMax := ray.MaxDistance
	if tMax <= 0 {
		tMax = math32.MaxFloat32
	}

	var stack [traversalStackSize]uint32
	stackSize := 1
	stack[0] = 0
	for stackSize > 0 {
		stackSize--
		node := &d.nodes[stack[stackSize]]
		if !node.intersects(ray.Origin, invDir, ray.MinDistance, tMax) {
			continue
		}

		if !node.IsLeaf() {
			if stackSize+2 > traversalStackSize {
				// Degenerate trees deeper than the stack fall back to scanning
				return d.bruteForce(ray, anyHit)
			}
			near, far := node.Left, node.Right
			if invDir[node.Axis] < 0 {
				near, far = far, near
			}
			stack[stackSize] = far
			stack[stackSize+1] = near
			stackSize += 2
			continue
		}

		for offset := node.Left; offset < node.Left+node.Right; offset++ {
			primIndex := d.primIndices[offset]
			v0, v1, v2 := d.triangle(primIndex)
			t, u, v, hit := intersectTriangle(ray, v0, v1, v2, tMax)
			if !hit {
				continue
			}
			if t == tMax && result.Hit() && primIndex > result.PrimitiveIndex {
				continue
			}

			tMax = t
			result = Intersection{Distance: t, PrimitiveIndex: primIndex, Coordinates: types.XY(u, v)}
			if anyHit {
				return result
			}
		}
	}

	return result
}

func (d *bvhData) bruteForce(ray Ray, anyHit bool) Intersection {
	result := Miss
	tMax := ray.MaxDistance
	if tMax <= 0 {
		tMax = math32.MaxFloat32
	}
	for primIndex := uint32(0); primIndex < uint32(len(d.indices)/3); primIndex++ {
		v0, v1, v2 := d.triangle(primIndex)
		if t, u, v, hit := intersectTriangle(ray, v0, v1, v2, tMax); hit && t < tMax {
			tMax = t
			result = Intersection{Distance: t, PrimitiveIndex: primIndex, Coordinates: types.XY(u, v)}
			if anyHit {
				return result
			}
		}
	}
	return result
}

// Moller-Trumbore ray/triangle intersection. Hits are reported for
// distances in [ray.MinDistance, tMax].
func intersectTriangle(ray Ray, v0, v1, v2 types.Vec3, tMax float32) (t, u, v float32, hit bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < parallelEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := ray.Origin.Sub(v0)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	if t < ray.MinDistance || t > tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
