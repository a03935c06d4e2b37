package accel

import "github.com/FyrbyAdditive/OCCT-Metal-sub000/types"

// A ray segment. Rays with a negative MinDistance are invalid; they are
// skipped by intersection queries and by every kernel that consumes them.
type Ray struct {
	Origin      types.Vec3
	MinDistance float32
	Direction   types.Vec3
	MaxDistance float32
}

// Create an invalid ray.
func InvalidRay() Ray {
	return Ray{MinDistance: -1}
}

// Check whether the ray should be traced.
func (r Ray) Valid() bool {
	return r.MinDistance >= 0
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// The result of an intersection query.
type Intersection struct {
	// Distance to the hit point along the ray; negative for misses.
	Distance float32

	// Index of the intersected triangle.
	PrimitiveIndex uint32

	// Barycentric coordinates (u, v) of the hit point. The weight of the
	// first triangle vertex is 1 - u - v.
	Coordinates types.Vec2
}

// The intersection reported for rays that do not hit any geometry.
var Miss = Intersection{Distance: -1}

// Check whether the query hit any geometry.
func (in Intersection) Hit() bool {
	return in.Distance >= 0
}
