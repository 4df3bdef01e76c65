package aggregator

import (
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// linearWidth is the number of lanes tested together per group
const linearWidth = 4

// linearGroup packs up to four token boxes for a wide test
type linearGroup struct {
	bounds [linearWidth]core.AABB
	tokens [linearWidth]geometry.EntityToken
	count  int
}

// Linear stores primitives packed in groups of four and tests every group
// on each query. Below a few dozen primitives the flat scan beats any
// hierarchy.
type Linear struct {
	intersector Intersector
	groups      []linearGroup
	bounds      core.AABB
}

// NewLinear builds a linear aggregator over the given token boxes
func NewLinear(intersector Intersector, items []TokenAABB) *Linear {
	groupCount := (len(items) + linearWidth - 1) / linearWidth
	linear := &Linear{
		intersector: intersector,
		groups:      make([]linearGroup, groupCount),
		bounds:      core.EmptyAABB(),
	}

	for i, item := range items {
		group := &linear.groups[i/linearWidth]
		group.bounds[group.count] = item.AABB
		group.tokens[group.count] = item.Token
		group.count++

		linear.bounds = linear.bounds.Union(item.AABB)
	}

	// Pad unused lanes with boxes that never intersect
	for g := range linear.groups {
		group := &linear.groups[g]
		for lane := group.count; lane < linearWidth; lane++ {
			group.bounds[lane] = core.EmptyAABB()
		}
	}

	return linear
}

// Trace updates the query with the nearest hit among all primitives
func (l *Linear) Trace(query *TraceQuery) {
	for g := range l.groups {
		group := &l.groups[g]

		var distances [linearWidth]float64
		for lane := 0; lane < linearWidth; lane++ {
			distances[lane] = group.bounds[lane].Intersect(query.Ray)
		}

		for lane := 0; lane < group.count; lane++ {
			if distances[lane] < query.Distance {
				l.intersector.TraceToken(group.tokens[lane], query)
			}
		}
	}
}

// Occlude returns true as soon as any primitive blocks the ray
func (l *Linear) Occlude(query *OccludeQuery) bool {
	for g := range l.groups {
		group := &l.groups[g]

		var distances [linearWidth]float64
		for lane := 0; lane < linearWidth; lane++ {
			distances[lane] = group.bounds[lane].Intersect(query.Ray)
		}

		for lane := 0; lane < group.count; lane++ {
			if distances[lane] < query.Travel &&
				l.intersector.OccludeToken(group.tokens[lane], query) {
				return true
			}
		}
	}
	return false
}

// TraceCost counts the boxes and primitives tested for the ray
func (l *Linear) TraceCost(ray core.Ray, distance *float64) int {
	cost := 0
	for g := range l.groups {
		group := &l.groups[g]
		cost += group.count

		for lane := 0; lane < group.count; lane++ {
			if group.bounds[lane].Intersect(ray) < *distance {
				cost += l.intersector.TraceCostToken(group.tokens[lane], ray, distance)
			}
		}
	}
	return cost
}

// TransformedAABB returns the union of all primitive boxes under the
// transform
func (l *Linear) TransformedAABB(transform core.Mat4) core.AABB {
	result := core.EmptyAABB()
	for g := range l.groups {
		group := &l.groups[g]
		for lane := 0; lane < group.count; lane++ {
			result = result.Union(group.bounds[lane].Transform(transform))
		}
	}
	if !result.IsValid() {
		return core.NewAABB(core.Vec3{}, core.Vec3{})
	}
	return result
}
