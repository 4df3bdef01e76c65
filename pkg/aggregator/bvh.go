package aggregator

import (
	"math"
	"sort"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// Split candidates evaluated per node during construction
const sahSplitCandidates = 7

// bvhNode is one node of the binary hierarchy. A leaf holds exactly one
// primitive token; an inner node holds two child indices.
type bvhNode struct {
	aabb   core.AABB
	token  geometry.EntityToken // Leaf primitive, empty for inner nodes
	child0 int32
	child1 int32
}

func (n *bvhNode) isLeaf() bool {
	return !n.token.IsEmpty()
}

// BVH is a binary bounding volume hierarchy built top-down with the surface
// area heuristic
type BVH struct {
	intersector Intersector
	nodes       []bvhNode
	root        int32
}

// NewBVH builds a hierarchy over the given token boxes
func NewBVH(intersector Intersector, items []TokenAABB) *BVH {
	bvh := &BVH{intersector: intersector}

	if len(items) == 0 {
		bvh.root = -1
		return bvh
	}

	// The builder sorts in place, keep the caller's slice intact
	scratch := make([]TokenAABB, len(items))
	copy(scratch, items)

	bvh.nodes = make([]bvhNode, 0, 2*len(items)-1)
	bvh.root = bvh.build(scratch)
	return bvh
}

// build recursively constructs the subtree over items and returns its index
func (b *BVH) build(items []TokenAABB) int32 {
	bounds := core.EmptyAABB()
	for i := range items {
		bounds = bounds.Union(items[i].AABB)
	}

	if len(items) == 1 {
		return b.addNode(bvhNode{aabb: bounds, token: items[0].Token, child0: -1, child1: -1})
	}

	sortByAxis(items, bounds.LongestAxis())
	mid := findSplit(items)

	index := b.addNode(bvhNode{aabb: bounds})
	child0 := b.build(items[:mid])
	child1 := b.build(items[mid:])
	b.nodes[index].child0 = child0
	b.nodes[index].child1 = child1
	return index
}

func (b *BVH) addNode(node bvhNode) int32 {
	b.nodes = append(b.nodes, node)
	return int32(len(b.nodes) - 1)
}

// sortByAxis orders token boxes by box center along the given axis
func sortByAxis(items []TokenAABB, axis int) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].AABB.Center().Axis(axis) < items[j].AABB.Center().Axis(axis)
	})
}

// findSplit picks the split index minimizing the surface area heuristic
// cost over stride-sampled candidates, falling back to the equal partition
// when every candidate degenerates
func findSplit(items []TokenAABB) int {
	count := len(items)

	stride := count / (sahSplitCandidates + 1)
	if stride == 0 {
		stride = 1
	}

	// Suffix bounds let each candidate's right cost come from one lookup
	suffix := make([]core.AABB, count+1)
	suffix[count] = core.EmptyAABB()
	for i := count - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1].Union(items[i].AABB)
	}

	bestSplit := count / 2
	bestCost := math.Inf(1)

	prefix := core.EmptyAABB()
	next := stride
	for i := 0; i < count-1; i++ {
		prefix = prefix.Union(items[i].AABB)
		split := i + 1
		if split != next {
			continue
		}
		next += stride

		cost := prefix.SurfaceArea()*float64(split) +
			suffix[split].SurfaceArea()*float64(count-split)
		if cost < bestCost {
			bestCost = cost
			bestSplit = split
		}
	}

	if math.IsInf(bestCost, 1) || math.IsNaN(bestCost) {
		return count / 2
	}
	return bestSplit
}

// Trace updates the query with the nearest hit in the hierarchy. Traversal
// is iterative; when both children are hit the nearer one is entered first
// and the farther is pruned against the shrinking query distance.
func (b *BVH) Trace(query *TraceQuery) {
	if b.root < 0 {
		return
	}

	var stack [192]int32
	depth := 0
	stack[depth] = b.root
	depth++

	for depth > 0 {
		depth--
		node := &b.nodes[stack[depth]]

		if node.isLeaf() {
			b.intersector.TraceToken(node.token, query)
			continue
		}

		distance0 := b.nodes[node.child0].aabb.Intersect(query.Ray)
		distance1 := b.nodes[node.child1].aabb.Intersect(query.Ray)

		near, far := node.child0, node.child1
		nearDistance, farDistance := distance0, distance1
		if distance1 < distance0 {
			near, far = far, near
			nearDistance, farDistance = farDistance, nearDistance
		}

		// Push the far child first so the near child is processed next
		if farDistance < query.Distance {
			stack[depth] = far
			depth++
		}
		if nearDistance < query.Distance {
			stack[depth] = near
			depth++
		}
	}
}

// Occlude returns true as soon as any primitive blocks the ray
func (b *BVH) Occlude(query *OccludeQuery) bool {
	if b.root < 0 {
		return false
	}

	var stack [192]int32
	depth := 0
	stack[depth] = b.root
	depth++

	for depth > 0 {
		depth--
		node := &b.nodes[stack[depth]]

		if node.aabb.Intersect(query.Ray) >= query.Travel {
			continue
		}

		if node.isLeaf() {
			if b.intersector.OccludeToken(node.token, query) {
				return true
			}
			continue
		}

		stack[depth] = node.child0
		depth++
		stack[depth] = node.child1
		depth++
	}
	return false
}

// TraceCost counts the boxes and primitives tested for the ray
func (b *BVH) TraceCost(ray core.Ray, distance *float64) int {
	if b.root < 0 {
		return 0
	}
	return b.traceCost(b.root, ray, distance)
}

func (b *BVH) traceCost(index int32, ray core.Ray, distance *float64) int {
	node := &b.nodes[index]
	cost := 1

	if node.aabb.Intersect(ray) >= *distance {
		return cost
	}
	if node.isLeaf() {
		return cost + b.intersector.TraceCostToken(node.token, ray, distance)
	}

	distance0 := b.nodes[node.child0].aabb.Intersect(ray)
	distance1 := b.nodes[node.child1].aabb.Intersect(ray)
	if distance0 <= distance1 {
		cost += b.traceCost(node.child0, ray, distance)
		cost += b.traceCost(node.child1, ray, distance)
	} else {
		cost += b.traceCost(node.child1, ray, distance)
		cost += b.traceCost(node.child0, ray, distance)
	}
	return cost
}

// TransformedAABB returns the union of the leaf boxes under the transform
func (b *BVH) TransformedAABB(transform core.Mat4) core.AABB {
	result := core.EmptyAABB()
	for i := range b.nodes {
		node := &b.nodes[i]
		if node.isLeaf() {
			result = result.Union(node.aabb.Transform(transform))
		}
	}
	if !result.IsValid() {
		return core.NewAABB(core.Vec3{}, core.Vec3{})
	}
	return result
}
