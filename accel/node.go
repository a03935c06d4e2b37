package accel

import "github.com/FyrbyAdditive/OCCT-Metal-sub000/types"

// Bvh node definition.
type Node struct {
	// Bounding box extents.
	Min types.Vec3
	Max types.Vec3

	// For inner nodes the indices of the left and right child. For leafs
	// Left holds the offset of the first primitive in the primitive index
	// list and Right holds the primitive count.
	Left, Right uint32

	// Split axis of inner nodes. Traversal visits the child on the near
	// side of the split first.
	Axis Axis

	leaf bool
}

// Setup node as an inner node with the given children.
func (n *Node) SetChildNodes(left, right uint32) {
	n.Left, n.Right = left, right
	n.leaf = false
}

// Setup node as a leaf that covers count primitives starting at offset.
func (n *Node) SetPrimitives(offset, count uint32) {
	n.Left, n.Right = offset, count
	n.leaf = true
}

// Check whether this node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Intersect ray against the node AABB using the slab method. Returns false
// if the ray misses the box or the box lies outside [tMin, tMax].
func (n *Node) intersects(origin, invDir types.Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		t0 := (n.Min[axis] - origin[axis]) * invDir[axis]
		t1 := (n.Max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// NaN comparisons (0 * inf) fall through and keep the current range
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}
