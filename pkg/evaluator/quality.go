package evaluator

import (
	"math"
	"sync/atomic"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

// AcceleratorQuality visualizes aggregator efficiency: for each ray it
// reports the boxes-and-primitives cost of tracing it, alongside running
// totals shared across all workers
type AcceleratorQuality struct {
	totalCost   atomic.Int64
	totalSample atomic.Int64
}

// NewAcceleratorQuality creates a quality evaluator with zeroed counters
func NewAcceleratorQuality() *AcceleratorQuality {
	return &AcceleratorQuality{}
}

// Evaluate returns (cost of this ray, cost so far, samples so far)
func (e *AcceleratorQuality) Evaluate(s *scene.PreparedScene, ray core.Ray,
	distribution sampling.ContinuousDistribution,
	allocator *material.Allocator) core.Vec3 {

	distance := math.Inf(1)
	cost := s.TraceCost(ray, &distance)

	totalCost := e.totalCost.Add(int64(cost))
	totalSample := e.totalSample.Add(1)

	return core.NewVec3(float64(cost), float64(totalCost), float64(totalSample))
}

// TotalCost returns the cost accumulated across all rays so far
func (e *AcceleratorQuality) TotalCost() int64 {
	return e.totalCost.Load()
}

// TotalSample returns the number of rays measured so far
func (e *AcceleratorQuality) TotalSample() int64 {
	return e.totalSample.Load()
}
