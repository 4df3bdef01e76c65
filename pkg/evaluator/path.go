package evaluator

import (
	"math"

	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

// DefaultBounceLimit caps path depth when a profile does not override it
const DefaultBounceLimit = 128

// PathTraced is the brute-force path tracer: at every hit it asks the
// material for its scattering functions, samples one direction, and
// recurses with the accumulated throughput until the ray escapes or the
// bounce limit forces termination. No Russian roulette; the depth bound is
// the only terminator.
type PathTraced struct {
	BounceLimit int
}

// NewPathTraced creates a path tracer with the default bounce limit
func NewPathTraced() *PathTraced {
	return &PathTraced{BounceLimit: DefaultBounceLimit}
}

// SetBounceLimit applies a profile's hard depth cap
func (e *PathTraced) SetBounceLimit(depth int) {
	e.BounceLimit = depth
}

// Evaluate traces one camera ray to completion
func (e *PathTraced) Evaluate(s *scene.PreparedScene, ray core.Ray,
	distribution sampling.ContinuousDistribution,
	allocator *material.Allocator) core.Vec3 {

	query := aggregator.NewTraceQuery(ray)
	return e.evaluate(s, query, distribution, allocator, e.BounceLimit)
}

// evaluate runs one path segment at the given remaining depth
func (e *PathTraced) evaluate(s *scene.PreparedScene, query aggregator.TraceQuery,
	distribution sampling.ContinuousDistribution,
	allocator *material.Allocator, depth int) core.Vec3 {

	if depth <= 0 {
		return core.Vec3{}
	}

	allocator.Restart()

	if !s.Trace(&query) {
		return s.Ambient(query.Ray.Direction)
	}

	touch := s.Interact(&query)
	touch.Material.Scatter(&touch, allocator)

	// Emitters are one sided: a path looking at the back face, including
	// its own continuation through a closed emitter, gathers nothing
	var emission core.Vec3
	if emissive, ok := touch.Material.(material.Emissive); ok {
		if touch.Normal.Dot(touch.Outgoing) > 0 {
			emission = emissive.Emit(touch.Point, touch.Outgoing)
		}
	}

	// A surface with no scattering set passes the path straight through
	if touch.BSDF == nil {
		next := spawnTrace(touch, query.Ray.Direction)
		return emission.Add(e.evaluate(s, next, distribution, allocator, depth-1))
	}

	// The depth bound counts scattering events; the last segment may still
	// escape to the ambient light
	if depth == 1 {
		return emission
	}

	incident, value, pdf := touch.BSDF.Sample(touch.Outgoing, distribution.Next2D())
	if pdf == 0 || value.IsZero() {
		return emission
	}

	cosine := math.Abs(touch.Normal.Dot(incident))
	throughput := value.Multiply(cosine / pdf)

	next := spawnTrace(touch, incident)
	radiance := e.evaluate(s, next, distribution, allocator, depth-1)
	return emission.Add(throughput.MultiplyVec(radiance))
}

// spawnTrace creates the continuation query leaving a surface hit. The new
// query ignores the primitive it departs so the path cannot immediately
// re-hit its own emitter.
func spawnTrace(touch material.Touch, direction core.Vec3) aggregator.TraceQuery {
	query := aggregator.NewTraceQuery(core.Ray{Origin: touch.Point, Direction: direction})
	query.Ignore = touch.Token
	return query
}
