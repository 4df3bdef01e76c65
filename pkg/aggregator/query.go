package aggregator

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// TraceQuery finds the nearest intersection along a ray. The ray starts in
// the space of the pack the query is handed to and is transformed in place
// as instances are entered; Distance is the shrinking upper bound.
type TraceQuery struct {
	Ray      core.Ray
	Distance float64

	// UV holds the barycentric or parametric surface coordinate of the
	// current nearest hit
	UV core.Vec2

	// Ignore is the full token path of a primitive that must be skipped,
	// so a spawned ray never re-hits its own emitter
	Ignore geometry.TokenHierarchy

	// Current is the instance path of the traversal position
	Current geometry.TokenHierarchy

	// Token is the instance path plus leaf token of the nearest hit
	Token geometry.TokenHierarchy
}

// NewTraceQuery creates a query with an unbounded search distance
func NewTraceQuery(ray core.Ray) TraceQuery {
	return TraceQuery{Ray: ray, Distance: math.Inf(1)}
}

// NewBoundedTraceQuery creates a query that only accepts hits below distance
func NewBoundedTraceQuery(ray core.Ray, distance float64) TraceQuery {
	return TraceQuery{Ray: ray, Distance: distance}
}

// Hit returns true once a hit below the original bound has been recorded
func (q *TraceQuery) Hit() bool {
	return !q.Token.IsEmpty()
}

// ShouldIgnore returns true when the leaf token, appended to the current
// instance path, matches the ignored primitive
func (q *TraceQuery) ShouldIgnore(leaf geometry.EntityToken) bool {
	if q.Ignore.IsEmpty() {
		return false
	}
	return q.Current.WithLeaf(leaf).Equals(q.Ignore)
}

// Commit records a new nearest hit
func (q *TraceQuery) Commit(leaf geometry.EntityToken, distance float64, uv core.Vec2) {
	q.Distance = distance
	q.UV = uv
	q.Token = q.Current.WithLeaf(leaf)
}

// OccludeQuery answers whether anything lies on the ray before Travel
type OccludeQuery struct {
	Ray    core.Ray
	Travel float64

	Ignore  geometry.TokenHierarchy
	Current geometry.TokenHierarchy
}

// NewOccludeQuery creates an occlusion query with the given travel limit
func NewOccludeQuery(ray core.Ray, travel float64) OccludeQuery {
	return OccludeQuery{Ray: ray, Travel: travel}
}

// ShouldIgnore returns true when the leaf token, appended to the current
// instance path, matches the ignored primitive
func (q *OccludeQuery) ShouldIgnore(leaf geometry.EntityToken) bool {
	if q.Ignore.IsEmpty() {
		return false
	}
	return q.Current.WithLeaf(leaf).Equals(q.Ignore)
}
