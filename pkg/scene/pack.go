package scene

import (
	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// A self-ignored sphere root below this distance is the departure point,
// not a crossing
const selfEpsilon = 1e-8

// GeometryCounts tallies the primitives of one prepared pack
type GeometryCounts struct {
	Triangles int
	Spheres   int
	Instances int
}

// Total returns the number of top-level entities in the pack
func (c GeometryCounts) Total() int {
	return c.Triangles + c.Spheres + c.Instances
}

// PreparedPack is the frozen geometry of one authoring scene: ordered
// primitive arrays, the aggregator over them, and the material swatch.
// Packs are immutable, shared between identical instances and read by all
// workers concurrently.
type PreparedPack struct {
	triangles []geometry.PreparedTriangle
	spheres   []geometry.PreparedSphere
	instances []*PreparedInstance

	aggregator aggregator.Aggregator
	swatch     *PreparedSwatch
	counts     GeometryCounts

	// power samples the pack's emitters in local space; nil when nothing
	// inside emits. Shared by every instance of the pack.
	power *PowerDistribution
}

// Counts returns the pack's geometry tallies
func (p *PreparedPack) Counts() GeometryCounts {
	return p.counts
}

// Swatch returns the pack's material table
func (p *PreparedPack) Swatch() *PreparedSwatch {
	return p.swatch
}

// Aggregator returns the pack's ray query structure
func (p *PreparedPack) Aggregator() aggregator.Aggregator {
	return p.aggregator
}

// Triangle returns the prepared triangle behind a token index
func (p *PreparedPack) Triangle(index int) *geometry.PreparedTriangle {
	return &p.triangles[index]
}

// Sphere returns the prepared sphere behind a token index
func (p *PreparedPack) Sphere(index int) *geometry.PreparedSphere {
	return &p.spheres[index]
}

// Instance returns the prepared instance behind a token index
func (p *PreparedPack) Instance(index int) *PreparedInstance {
	return p.instances[index]
}

// TraceToken intersects the entity behind token, committing to the query
// on an improvement. Implements aggregator.Intersector.
func (p *PreparedPack) TraceToken(token geometry.EntityToken, query *aggregator.TraceQuery) {
	switch token.Type() {
	case geometry.TokenTriangle:
		if query.ShouldIgnore(token) {
			return
		}
		triangle := &p.triangles[token.Index()]
		distance, uv := triangle.Intersect(query.Ray)
		if distance < query.Distance {
			query.Commit(token, distance, uv)
		}

	case geometry.TokenSphere:
		sphere := &p.spheres[token.Index()]

		// When the ignored primitive is this sphere the ray leaves its own
		// surface; the far root is the only legitimate hit, and a root at
		// the departure point itself is not a crossing
		findFar := query.ShouldIgnore(token)
		distance, uv := sphere.Intersect(query.Ray, findFar)
		if findFar && distance < selfEpsilon {
			return
		}
		if distance < query.Distance {
			query.Commit(token, distance, uv)
		}

	case geometry.TokenInstance:
		p.instances[token.Index()].Trace(query)
	}
}

// OccludeToken returns true if the entity behind token blocks the query
// ray. Implements aggregator.Intersector.
func (p *PreparedPack) OccludeToken(token geometry.EntityToken, query *aggregator.OccludeQuery) bool {
	switch token.Type() {
	case geometry.TokenTriangle:
		if query.ShouldIgnore(token) {
			return false
		}
		return p.triangles[token.Index()].IntersectOcclude(query.Ray, query.Travel)

	case geometry.TokenSphere:
		sphere := &p.spheres[token.Index()]
		if query.ShouldIgnore(token) {
			distance, _ := sphere.Intersect(query.Ray, true)
			return distance >= selfEpsilon && distance < query.Travel
		}
		return sphere.IntersectOcclude(query.Ray, query.Travel)

	case geometry.TokenInstance:
		return p.instances[token.Index()].Occlude(query)
	}
	return false
}

// TraceCostToken intersects the entity behind token while counting work.
// Implements aggregator.Intersector.
func (p *PreparedPack) TraceCostToken(token geometry.EntityToken, ray core.Ray, distance *float64) int {
	switch token.Type() {
	case geometry.TokenTriangle:
		hit, _ := p.triangles[token.Index()].Intersect(ray)
		if hit < *distance {
			*distance = hit
		}
		return 1

	case geometry.TokenSphere:
		hit, _ := p.spheres[token.Index()].Intersect(ray, false)
		if hit < *distance {
			*distance = hit
		}
		return 1

	case geometry.TokenInstance:
		return p.instances[token.Index()].TraceCost(ray, distance)
	}
	return 0
}

// TokenAABB returns the bounding box of the entity behind token.
// Implements aggregator.Intersector.
func (p *PreparedPack) TokenAABB(token geometry.EntityToken) core.AABB {
	switch token.Type() {
	case geometry.TokenTriangle:
		return p.triangles[token.Index()].AABB()
	case geometry.TokenSphere:
		return p.spheres[token.Index()].AABB()
	case geometry.TokenInstance:
		return p.instances[token.Index()].AABB()
	}
	return core.EmptyAABB()
}

// hasEmissive returns true when the pack or any nested instance can emit
func (p *PreparedPack) hasEmissive() bool {
	if len(p.swatch.Emissive()) > 0 {
		return true
	}
	for _, instance := range p.instances {
		if instance.Power() > 0 {
			return true
		}
	}
	return false
}
