package evaluator

import (
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

// Evaluator turns one camera ray into a pixel contribution. Evaluators are
// stateless aside from shared atomic counters, so one value serves all
// workers; mutable per-worker state arrives through the parameters.
type Evaluator interface {
	Evaluate(s *scene.PreparedScene, ray core.Ray,
		distribution sampling.ContinuousDistribution,
		allocator *material.Allocator) core.Vec3
}

// DepthLimited evaluators accept the render profile's hard depth cap.
// Configuration happens before any tile is dispatched, never concurrently
// with evaluation.
type DepthLimited interface {
	SetBounceLimit(depth int)
}
