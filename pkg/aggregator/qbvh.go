package aggregator

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// qbvhWidth is the branching factor of the wide hierarchy
const qbvhWidth = 4

// qbvhNode holds up to four children tested together. A non-negative child
// indexes another node; a negative child encodes ^child into the token
// array; unused lanes are marked with the sentinel.
type qbvhNode struct {
	bounds   [qbvhWidth]core.AABB
	children [qbvhWidth]int32
}

const qbvhUnused int32 = math.MinInt32

// QBVH is a four-wide bounding volume hierarchy. Each traversal step tests
// the four child boxes of a node at once and enters the surviving children
// in near-to-far order.
type QBVH struct {
	intersector Intersector
	nodes       []qbvhNode
	tokens      []geometry.EntityToken
	root        int32
}

// NewQBVH builds a wide hierarchy by collapsing a binary surface area
// heuristic build, grouping each node with up to four grandchildren
func NewQBVH(intersector Intersector, items []TokenAABB) *QBVH {
	qbvh := &QBVH{intersector: intersector}

	if len(items) == 0 {
		qbvh.root = -1
		return qbvh
	}

	binary := NewBVH(intersector, items)
	qbvh.root = qbvh.collapse(binary, binary.root)
	return qbvh
}

// collapse converts the binary subtree at index into a wide node and
// returns its index
func (q *QBVH) collapse(binary *BVH, index int32) int32 {
	// Gather up to four descendants by splitting inner children once more
	adopted := q.gather(binary, index, nil)

	// Reserve the slot first so parents precede children in memory; the
	// finished node is stored after recursion since appends reallocate
	nodeIndex := int32(len(q.nodes))
	q.nodes = append(q.nodes, qbvhNode{})

	var node qbvhNode
	for lane := range node.children {
		node.bounds[lane] = core.EmptyAABB()
		node.children[lane] = qbvhUnused
	}

	for lane, childIndex := range adopted {
		child := &binary.nodes[childIndex]
		node.bounds[lane] = child.aabb

		if child.isLeaf() {
			node.children[lane] = ^int32(len(q.tokens))
			q.tokens = append(q.tokens, child.token)
		} else {
			node.children[lane] = q.collapse(binary, childIndex)
		}
	}

	q.nodes[nodeIndex] = node
	return nodeIndex
}

// gather collects the binary indices a wide node will adopt: the two
// children of each inner child, or the child itself when it is a leaf
func (q *QBVH) gather(binary *BVH, index int32, out []int32) []int32 {
	node := &binary.nodes[index]
	if node.isLeaf() {
		return append(out, index)
	}

	for _, childIndex := range [2]int32{node.child0, node.child1} {
		child := &binary.nodes[childIndex]
		if child.isLeaf() || len(out) >= qbvhWidth-1 {
			out = append(out, childIndex)
		} else {
			out = append(out, child.child0, child.child1)
		}
	}
	return out
}

// hitOrder holds the lanes of one node sorted by entry distance
type hitOrder struct {
	distances [qbvhWidth]float64
	lanes     [qbvhWidth]int
	count     int
}

// orderedHits tests the four child boxes and returns the hit lanes ordered
// by distance ascending, ties broken by lane index
func (n *qbvhNode) orderedHits(ray core.Ray, limit float64) hitOrder {
	var order hitOrder
	for lane := 0; lane < qbvhWidth; lane++ {
		if n.children[lane] == qbvhUnused {
			continue
		}
		distance := n.bounds[lane].Intersect(ray)
		if distance >= limit {
			continue
		}

		// Insertion sort keeps equal distances in lane order
		position := order.count
		for position > 0 && order.distances[position-1] > distance {
			order.distances[position] = order.distances[position-1]
			order.lanes[position] = order.lanes[position-1]
			position--
		}
		order.distances[position] = distance
		order.lanes[position] = lane
		order.count++
	}
	return order
}

// Trace updates the query with the nearest hit in the hierarchy
func (q *QBVH) Trace(query *TraceQuery) {
	if q.root < 0 {
		return
	}
	q.trace(q.root, query)
}

func (q *QBVH) trace(index int32, query *TraceQuery) {
	node := &q.nodes[index]
	order := node.orderedHits(query.Ray, query.Distance)

	for i := 0; i < order.count; i++ {
		// Re-mask: an earlier child may have shrunk the query distance
		if order.distances[i] >= query.Distance {
			continue
		}

		child := node.children[order.lanes[i]]
		if child < 0 {
			q.intersector.TraceToken(q.tokens[^child], query)
		} else {
			q.trace(child, query)
		}
	}
}

// Occlude returns true as soon as any primitive blocks the ray
func (q *QBVH) Occlude(query *OccludeQuery) bool {
	if q.root < 0 {
		return false
	}
	return q.occlude(q.root, query)
}

func (q *QBVH) occlude(index int32, query *OccludeQuery) bool {
	node := &q.nodes[index]

	for lane := 0; lane < qbvhWidth; lane++ {
		child := node.children[lane]
		if child == qbvhUnused {
			continue
		}
		if node.bounds[lane].Intersect(query.Ray) >= query.Travel {
			continue
		}

		if child < 0 {
			if q.intersector.OccludeToken(q.tokens[^child], query) {
				return true
			}
		} else if q.occlude(child, query) {
			return true
		}
	}
	return false
}

// TraceCost counts the boxes and primitives tested for the ray
func (q *QBVH) TraceCost(ray core.Ray, distance *float64) int {
	if q.root < 0 {
		return 0
	}
	return q.traceCost(q.root, ray, distance)
}

func (q *QBVH) traceCost(index int32, ray core.Ray, distance *float64) int {
	node := &q.nodes[index]
	order := node.orderedHits(ray, *distance)

	cost := qbvhWidth
	for i := 0; i < order.count; i++ {
		if order.distances[i] >= *distance {
			continue
		}

		child := node.children[order.lanes[i]]
		if child < 0 {
			cost += q.intersector.TraceCostToken(q.tokens[^child], ray, distance)
		} else {
			cost += q.traceCost(child, ray, distance)
		}
	}
	return cost
}

// TransformedAABB returns the union of the leaf boxes under the transform
func (q *QBVH) TransformedAABB(transform core.Mat4) core.AABB {
	result := core.EmptyAABB()
	for i := range q.nodes {
		node := &q.nodes[i]
		for lane := 0; lane < qbvhWidth; lane++ {
			if node.children[lane] < 0 && node.children[lane] != qbvhUnused {
				result = result.Union(node.bounds[lane].Transform(transform))
			}
		}
	}
	if !result.IsValid() {
		return core.NewAABB(core.Vec3{}, core.Vec3{})
	}
	return result
}
