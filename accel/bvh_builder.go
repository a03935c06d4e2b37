package accel

import (
	"math"
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// Axes whose centroid extent is below this threshold are not binned.
	minSideLength float32 = 1e-5

	// Number of centroid bins per axis. Splits are evaluated at the
	// boundaries between consecutive bins.
	binCount = 16
)

var (
	// Surface area heuristic with the usual 1:8 traversal to intersection
	// cost ratio.
	SurfaceAreaHeuristic = SAHCost{TraversalCost: 0.125, IntersectionCost: 1}
)

// The BoundedVolume interface is implemented by all items that can be
// partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// A callback that is called whenever the BVH builder creates a new leaf.
type LeafCallback func(leaf *Node, itemList []BoundedVolume)

// A cost model for evaluating BVH splits. Lower costs are better.
type CostModel interface {
	// Cost of intersecting count items stored in a single leaf.
	LeafCost(count int) float32

	// Cost of splitting a node with the given half surface area into two
	// children with the given half areas and item counts.
	SplitCost(parentArea, leftArea float32, leftCount int, rightArea float32, rightCount int) float32
}

// Surface area heuristic: a ray that hits a node hits a child with a
// probability proportional to the child's surface area.
type SAHCost struct {
	TraversalCost    float32
	IntersectionCost float32
}

func (c SAHCost) LeafCost(count int) float32 {
	return c.IntersectionCost * float32(count)
}

func (c SAHCost) SplitCost(parentArea, leftArea float32, leftCount int, rightArea float32, rightCount int) float32 {
	if leftCount == 0 || rightCount == 0 || parentArea <= 0 {
		return math.MaxFloat32
	}
	return c.TraversalCost + c.IntersectionCost*(leftArea*float32(leftCount)+rightArea*float32(rightCount))/parentArea
}

// An axis aligned box that grows to enclose points or other boxes.
type aabb struct {
	min, max types.Vec3
}

func emptyBox() aabb {
	return aabb{
		min: types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		max: types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

func (b *aabb) grow(min, max types.Vec3) {
	b.min = types.MinVec3(b.min, min)
	b.max = types.MaxVec3(b.max, max)
}

func (b *aabb) merge(other aabb) {
	b.grow(other.min, other.max)
}

// Half the surface area of the box or 0 if the box is empty.
func (b aabb) halfArea() float32 {
	if b.min[0] > b.max[0] {
		return 0
	}
	return halfArea(b.min, b.max)
}

type bin struct {
	bounds aabb
	count  int
}

// The cheapest split found for a node.
type split struct {
	axis Axis

	// Items whose centroid falls in a bin <= lastLeftBin go to the left child.
	lastLeftBin int

	cost float32
}

type stats struct {
	partitionedItems int
	totalItems       int
	nodes            int
	leafs            int
	maxDepth         int
}

type builder struct {
	logger log.Logger

	// Bvh nodes in depth-first order. The left child of an inner node is
	// always stored right after its parent.
	nodes []Node

	// A callback invoked to set up BVH leafs.
	leafCb LeafCallback

	// Nodes with this many items or fewer always become leafs.
	minLeafItems int

	cost CostModel

	stats stats
}

// Construct a BVH from a set of bounded volumes using binned split
// evaluation.
//
// Work lists with minLeafItems or fewer entries always produce a leaf;
// larger lists are split only when the cost model prefers the split over a
// leaf. The tree only depends on the input order, never on timing.
//
// The root node is always stored at index 0.
func Build(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback, cost CostModel) []Node {
	b := &builder{
		logger:       log.New("bvh"),
		nodes:        make([]Node, 0, 2*len(workList)/max(minLeafItems, 1)+1),
		leafCb:       leafCb,
		minLeafItems: minLeafItems,
		cost:         cost,
		stats: stats{
			totalItems: len(workList),
		},
	}

	start := time.Now()
	b.partition(workList, 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, items: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs, b.stats.partitionedItems,
	)
	return b.nodes
}

// Partition worklist and return node index.
func (b *builder) partition(workList []BoundedVolume, depth int) uint32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	bounds, centroids := emptyBox(), emptyBox()
	for _, item := range workList {
		itemBBox := item.BBox()
		bounds.grow(itemBBox[0], itemBBox[1])
		center := item.Center()
		centroids.grow(center, center)
	}

	nodeIndex := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Min: bounds.min, Max: bounds.max})

	if len(workList) <= b.minLeafItems {
		return b.createLeaf(nodeIndex, workList)
	}

	best, found := b.findSplit(workList, bounds, centroids)
	if !found {
		return b.createLeaf(nodeIndex, workList)
	}

	// Split work list into two sets preserving the item order
	leftWorkList := make([]BoundedVolume, 0, len(workList)/2)
	rightWorkList := make([]BoundedVolume, 0, len(workList)/2)
	for _, item := range workList {
		if binIndex(item.Center()[best.axis], centroids, best.axis) <= best.lastLeftBin {
			leftWorkList = append(leftWorkList, item)
		} else {
			rightWorkList = append(rightWorkList, item)
		}
	}

	b.stats.nodes++
	leftNodeIndex := b.partition(leftWorkList, depth+1)
	rightNodeIndex := b.partition(rightWorkList, depth+1)
	b.nodes[nodeIndex].SetChildNodes(leftNodeIndex, rightNodeIndex)
	b.nodes[nodeIndex].Axis = best.axis

	return nodeIndex
}

// Bin the work list along each axis and return the cheapest split that
// beats storing every item in a leaf. Axes are visited in order and only a
// strictly cheaper split replaces the current best, so ties resolve to the
// lowest axis and bin.
func (b *builder) findSplit(workList []BoundedVolume, bounds, centroids aabb) (best split, found bool) {
	best.cost = b.cost.LeafCost(len(workList))
	parentArea := bounds.halfArea()

	var (
		bins       [binCount]bin
		rightAreas [binCount]float32
		rightCount [binCount]int
	)
	for axis := XAxis; axis <= ZAxis; axis++ {
		if centroids.max[axis]-centroids.min[axis] < minSideLength {
			continue
		}

		for i := range bins {
			bins[i] = bin{bounds: emptyBox()}
		}
		for _, item := range workList {
			itemBBox := item.BBox()
			bi := &bins[binIndex(item.Center()[axis], centroids, axis)]
			bi.bounds.grow(itemBBox[0], itemBBox[1])
			bi.count++
		}

		// Sweep from the right to collect the area and count of every
		// suffix, then from the left to score each boundary.
		acc, count := emptyBox(), 0
		for i := binCount - 1; i > 0; i-- {
			acc.merge(bins[i].bounds)
			count += bins[i].count
			rightAreas[i], rightCount[i] = acc.halfArea(), count
		}

		acc, count = emptyBox(), 0
		for i := 0; i < binCount-1; i++ {
			acc.merge(bins[i].bounds)
			count += bins[i].count
			cost := b.cost.SplitCost(parentArea, acc.halfArea(), count, rightAreas[i+1], rightCount[i+1])
			if cost < best.cost {
				best = split{axis: axis, lastLeftBin: i, cost: cost}
				found = true
			}
		}
	}

	return best, found
}

// Map a centroid coordinate to its bin along axis.
func binIndex(c float32, centroids aabb, axis Axis) int {
	extent := centroids.max[axis] - centroids.min[axis]
	if extent <= 0 {
		return 0
	}
	index := int(binCount * (c - centroids.min[axis]) / extent)
	if index >= binCount {
		index = binCount - 1
	} else if index < 0 {
		index = 0
	}
	return index
}

// Setup the node at nodeIndex as a leaf containing all items in the work
// list.
func (b *builder) createLeaf(nodeIndex uint32, workList []BoundedVolume) uint32 {
	b.leafCb(&b.nodes[nodeIndex], workList)

	b.stats.leafs++
	b.stats.partitionedItems += len(workList)

	return nodeIndex
}

// Half the surface area of an AABB.
func halfArea(min, max types.Vec3) float32 {
	side := max.Sub(min)
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}
