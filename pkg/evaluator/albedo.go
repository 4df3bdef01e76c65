package evaluator

import (
	"math"

	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

// Albedo evaluates the surface color a ray first lands on, following
// specular and pass-through surfaces until it reaches something diffuse or
// escapes. The result feeds the auxiliary albedo layer used by denoisers.
type Albedo struct {
	// BounceLimit caps how many specular surfaces the probe follows
	BounceLimit int
}

// NewAlbedo creates an albedo evaluator with a modest bounce cap
func NewAlbedo() *Albedo {
	return &Albedo{BounceLimit: 16}
}

// SetBounceLimit applies a profile's hard depth cap
func (e *Albedo) SetBounceLimit(depth int) {
	e.BounceLimit = depth
}

// Evaluate probes the first non-specular surface along the ray
func (e *Albedo) Evaluate(s *scene.PreparedScene, ray core.Ray,
	distribution sampling.ContinuousDistribution,
	allocator *material.Allocator) core.Vec3 {

	query := aggregator.NewTraceQuery(ray)

	for depth := e.BounceLimit; depth > 0; depth-- {
		allocator.Restart()

		if !s.Trace(&query) {
			return s.Ambient(query.Ray.Direction)
		}

		touch := s.Interact(&query)
		touch.Material.Scatter(&touch, allocator)

		if touch.BSDF == nil {
			// Emissive or pass-through surface: its own radiance is the
			// best albedo available
			if emissive, ok := touch.Material.(material.Emissive); ok {
				return emissive.Emit(touch.Point, touch.Outgoing).Clamp(0, 1)
			}
			query = aggregator.NewTraceQuery(core.Ray{Origin: touch.Point, Direction: query.Ray.Direction})
			query.Ignore = touch.Token
			continue
		}

		// A diffuse surface reports its reflectance, the BSDF value times π
		if touch.BSDF.Count(material.TypeDiffuse) > 0 {
			value := touch.BSDF.Evaluate(touch.Outgoing, touch.Normal)
			return value.Multiply(math.Pi)
		}

		// Purely specular: follow the sampled bounce
		incident, _, pdf := touch.BSDF.Sample(touch.Outgoing, distribution.Next2D())
		if pdf == 0 {
			return core.Vec3{}
		}
		query = aggregator.NewTraceQuery(core.Ray{Origin: touch.Point, Direction: incident})
		query.Ignore = touch.Token
	}

	return core.Vec3{}
}
