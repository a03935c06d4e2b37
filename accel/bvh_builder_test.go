package accel

import (
	"math"
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

type box struct {
	bbox [2]types.Vec3
}

func (b *box) BBox() [2]types.Vec3 {
	return b.bbox
}

func (b *box) Center() types.Vec3 {
	return b.bbox[0].Add(b.bbox[1]).Mul(0.5)
}

func TestLeafCallback(t *testing.T) {
	type primSpec struct {
		min types.Vec3
		max types.Vec3
	}

	primSpecs := []primSpec{
		{types.Vec3{-2, 0, -2}, types.Vec3{-1, 1, -1}},
		{types.Vec3{1, 0, -2}, types.Vec3{2, 1, -1}},
		{types.Vec3{-2, 0, 1}, types.Vec3{-1, 1, 2}},
		{types.Vec3{1, 0, 1}, types.Vec3{2, 1, 2}},
	}

	itemList := make([]BoundedVolume, len(primSpecs))
	for idx, ps := range primSpecs {
		itemList[idx] = &box{bbox: [2]types.Vec3{ps.min, ps.max}}
	}

	var cbCount = 0
	var expItemListCount = 0
	cb := func(leaf *Node, itemList []BoundedVolume) {
		cbCount++
		if len(itemList) != expItemListCount {
			t.Fatalf("expected leaf callback to be called with %d items; got %d", expItemListCount, len(itemList))
		}
	}

	var expCount = 0

	// Partition each item in a single leaf
	cbCount = 0
	expItemListCount = 1
	treeNodes := Build(itemList, 1, cb, SurfaceAreaHeuristic)

	expCount = 4
	if cbCount != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, cbCount)
	}
	expCount = 7
	if len(treeNodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(treeNodes))
	}

	// Partition two items in a single leaf
	cbCount = 0
	expItemListCount = 2
	treeNodes = Build(itemList, 2, cb, SurfaceAreaHeuristic)

	expCount = 2
	if cbCount != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, cbCount)
	}
	expCount = 3
	if len(treeNodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(treeNodes))
	}

	// Root splits along X; ties with the Z split resolve to the lower axis
	root := treeNodes[0]
	if root.IsLeaf() {
		t.Fatal("expected root to be an inner node")
	}
	left := treeNodes[root.Left]
	if left.Max[0] > 0 {
		t.Fatalf("expected left child to contain the items with negative X; got bbox %v - %v", left.Min, left.Max)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	itemList := make([]BoundedVolume, 0)
	for i := 0; i < 200; i++ {
		// Spread items on a jittered grid with many equal split scores
		x := float32(i%10) + float32(i%3)*0.25
		z := float32(i/10) + float32(i%7)*0.1
		itemList = append(itemList, &box{bbox: [2]types.Vec3{{x, 0, z}, {x + 1, 1, z + 1}}})
	}

	cb := func(leaf *Node, items []BoundedVolume) {}
	first := Build(itemList, 2, cb, SurfaceAreaHeuristic)
	for attempt := 0; attempt < 5; attempt++ {
		next := Build(itemList, 2, cb, SurfaceAreaHeuristic)
		if len(next) != len(first) {
			t.Fatalf("[attempt %d] expected %d nodes; got %d", attempt, len(first), len(next))
		}
		for nodeIndex := range first {
			if first[nodeIndex] != next[nodeIndex] {
				t.Fatalf("[attempt %d] node %d differs: %+v vs %+v", attempt, nodeIndex, first[nodeIndex], next[nodeIndex])
			}
		}
	}
}

func TestDepthFirstLayout(t *testing.T) {
	itemList := make([]BoundedVolume, 0)
	for i := 0; i < 64; i++ {
		x := float32(i%8) * 3
		y := float32(i/8) * 3
		itemList = append(itemList, &box{bbox: [2]types.Vec3{{x, y, 0}, {x + 1, y + 1, 1}}})
	}

	leafItems := 0
	nodes := Build(itemList, 1, func(leaf *Node, items []BoundedVolume) {
		leaf.SetPrimitives(uint32(leafItems), uint32(len(items)))
		leafItems += len(items)
	}, SurfaceAreaHeuristic)

	if leafItems != len(itemList) {
		t.Fatalf("expected leafs to cover %d items; got %d", len(itemList), leafItems)
	}
	for nodeIndex, node := range nodes {
		if node.IsLeaf() {
			continue
		}
		if node.Left != uint32(nodeIndex+1) {
			t.Fatalf("expected left child of node %d to follow its parent; got %d", nodeIndex, node.Left)
		}
		if node.Right <= node.Left || int(node.Right) >= len(nodes) {
			t.Fatalf("expected right child of node %d to follow the left subtree; got %d", nodeIndex, node.Right)
		}
		if node.Axis == ZAxis {
			t.Fatalf("expected node %d to split along X or Y; items share the same Z extent", nodeIndex)
		}
		left, right := nodes[node.Left], nodes[node.Right]
		if left.Max[node.Axis] > right.Max[node.Axis] {
			t.Fatalf("expected left child of node %d to lie on the low side of axis %d", nodeIndex, node.Axis)
		}
	}
}

func TestSAHCost(t *testing.T) {
	type spec struct {
		parentArea, leftArea, rightArea float32
		leftCount, rightCount           int
		exp                             float32
	}

	specs := []spec{
		{24, 9, 9, 2, 2, 0.125 + 36.0/24},
		{9, 3, 3, 1, 1, 0.125 + 6.0/9},
		{10, 10, 0, 4, 0, math.MaxFloat32},
		{0, 0, 0, 1, 1, math.MaxFloat32},
	}

	for specIndex, s := range specs {
		got := SurfaceAreaHeuristic.SplitCost(s.parentArea, s.leftArea, s.leftCount, s.rightArea, s.rightCount)
		if !types.ApproxEqual(got, s.exp) {
			t.Fatalf("[spec %d] expected split cost %f; got %f", specIndex, s.exp, got)
		}
	}

	if got := SurfaceAreaHeuristic.LeafCost(4); got != 4 {
		t.Fatalf("expected leaf cost 4; got %f", got)
	}
}

func TestOverlappingItemsFormSingleLeaf(t *testing.T) {
	itemList := make([]BoundedVolume, 6)
	for i := range itemList {
		itemList[i] = &box{bbox: [2]types.Vec3{{0, 0, 0}, {1, 1, 1}}}
	}

	leafs := 0
	nodes := Build(itemList, 1, func(leaf *Node, items []BoundedVolume) {
		leafs++
		if len(items) != len(itemList) {
			t.Fatalf("expected a single leaf with %d items; got %d", len(itemList), len(items))
		}
	}, SurfaceAreaHeuristic)

	if len(nodes) != 1 || leafs != 1 {
		t.Fatalf("expected a single leaf node; got %d nodes and %d leafs", len(nodes), leafs)
	}
}
