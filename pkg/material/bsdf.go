package material

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// maxFunctionCount is the most components a single surface can compose
const maxFunctionCount = 8

// BSDF is the scattering function set of one surface hit: a shading frame
// with the normal along +Z and up to maxFunctionCount components. It lives
// in the worker's arena and is valid until the next allocator restart.
type BSDF struct {
	functions []BxDF

	normal    core.Vec3
	tangent   core.Vec3
	bitangent core.Vec3
}

// reset prepares a recycled set for a new hit
func (b *BSDF) reset(functions []BxDF) {
	b.functions = functions
}

// SetFrame builds the shading frame around the world-space normal
func (b *BSDF) SetFrame(normal core.Vec3) {
	b.normal = normal

	// Any axis not parallel to the normal seeds the tangent
	helper := core.NewVec3(1, 0, 0)
	if math.Abs(normal.X) > 0.9 {
		helper = core.NewVec3(0, 1, 0)
	}
	b.tangent = helper.Cross(normal).Normalize()
	b.bitangent = normal.Cross(b.tangent)
}

// Add appends a scattering component to the set
func (b *BSDF) Add(function BxDF) {
	b.functions = append(b.functions, function)
}

// Count returns the number of components, optionally filtered by type
func (b *BSDF) Count(mask FunctionType) int {
	count := 0
	for _, function := range b.functions {
		if function.Type().Any(mask) {
			count++
		}
	}
	return count
}

// toLocal transforms a world direction into the shading frame
func (b *BSDF) toLocal(direction core.Vec3) core.Vec3 {
	return core.NewVec3(
		direction.Dot(b.tangent),
		direction.Dot(b.bitangent),
		direction.Dot(b.normal),
	)
}

// toWorld transforms a shading frame direction back to world space
func (b *BSDF) toWorld(direction core.Vec3) core.Vec3 {
	return b.tangent.Multiply(direction.X).
		Add(b.bitangent.Multiply(direction.Y)).
		Add(b.normal.Multiply(direction.Z))
}

// Evaluate sums the non-delta components for a pair of world directions
func (b *BSDF) Evaluate(outgoingWorld, incidentWorld core.Vec3) core.Vec3 {
	outgoing := b.toLocal(outgoingWorld)
	incident := b.toLocal(incidentWorld)

	var total core.Vec3
	for _, function := range b.functions {
		total = total.Add(function.Evaluate(outgoing, incident))
	}
	return total
}

// Sample picks one component proportionally to count, draws an incident
// direction from it, and returns the combined value and density across all
// matching components. The returned world direction is unit length.
func (b *BSDF) Sample(outgoingWorld core.Vec3, sample sampling.Sample2D) (core.Vec3, core.Vec3, float64) {
	count := len(b.functions)
	if count == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}

	// Select a component and recycle the selector dimension
	index := sample.U.Range(count)
	remapped := sampling.Sample2D{
		U: sampling.Sample1D(float64(sample.U)*float64(count) - float64(index)),
		V: sample.V,
	}

	chosen := b.functions[index]
	outgoing := b.toLocal(outgoingWorld)

	incident, value, pdf := chosen.Sample(outgoing, remapped)
	if pdf == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}

	// A delta component owns its sample entirely
	if chosen.Type().Any(TypeSpecular) {
		return b.toWorld(incident), value, pdf / float64(count)
	}

	// Mix in the other components' values and densities
	for i, function := range b.functions {
		if i == index {
			continue
		}
		value = value.Add(function.Evaluate(outgoing, incident))
		pdf += function.ProbabilityDensity(outgoing, incident)
	}
	return b.toWorld(incident), value, pdf / float64(count)
}

// ProbabilityDensity averages the component densities for a pair of world
// directions
func (b *BSDF) ProbabilityDensity(outgoingWorld, incidentWorld core.Vec3) float64 {
	count := len(b.functions)
	if count == 0 {
		return 0
	}

	outgoing := b.toLocal(outgoingWorld)
	incident := b.toLocal(incidentWorld)

	total := 0.0
	for _, function := range b.functions {
		total += function.ProbabilityDensity(outgoing, incident)
	}
	return total / float64(count)
}
