package material

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// FunctionType is a bitmask describing a scattering component
type FunctionType uint8

const (
	// TypeReflective components scatter into the hemisphere of the normal
	TypeReflective FunctionType = 1 << iota
	// TypeTransmissive components scatter through the surface
	TypeTransmissive
	// TypeDiffuse components spread energy widely
	TypeDiffuse
	// TypeGlossy components concentrate energy around a lobe
	TypeGlossy
	// TypeSpecular components are delta distributions
	TypeSpecular

	// TypeAll matches every component
	TypeAll = TypeReflective | TypeTransmissive | TypeDiffuse | TypeGlossy | TypeSpecular
)

// Any returns true when the mask shares any bit with other
func (t FunctionType) Any(other FunctionType) bool {
	return t&other != 0
}

// BxDF is one scattering component in the local shading space, where the
// surface normal points along +Z
type BxDF interface {
	// Type returns the component's classification bits
	Type() FunctionType

	// Evaluate returns f(outgoing, incident). Delta components return zero
	// because the probability of two directions aligning is zero.
	Evaluate(outgoing, incident core.Vec3) core.Vec3

	// Sample draws an incident direction for the outgoing one, returning
	// the function value and the density the direction was drawn with
	Sample(outgoing core.Vec3, sample sampling.Sample2D) (incident core.Vec3, value core.Vec3, pdf float64)

	// ProbabilityDensity returns the density Sample would draw incident
	// with; zero for delta components and opposite hemispheres
	ProbabilityDensity(outgoing, incident core.Vec3) float64
}

// Shading space helpers. The normal is +Z, so the trigonometry of a
// direction against the normal reduces to component arithmetic.

// Cosine returns cos θ of a local direction against the normal
func Cosine(direction core.Vec3) float64 {
	return direction.Z
}

// AbsCosine returns |cos θ| of a local direction
func AbsCosine(direction core.Vec3) float64 {
	return math.Abs(direction.Z)
}

// CosineSquared returns cos²θ of a local direction
func CosineSquared(direction core.Vec3) float64 {
	return direction.Z * direction.Z
}

// SineSquared returns sin²θ of a local direction
func SineSquared(direction core.Vec3) float64 {
	return math.Max(0, 1-CosineSquared(direction))
}

// Sine returns sin θ of a local direction
func Sine(direction core.Vec3) float64 {
	return math.Sqrt(SineSquared(direction))
}

// Tangent returns tan θ of a local direction
func Tangent(direction core.Vec3) float64 {
	return Sine(direction) / Cosine(direction)
}

// CosinePhi returns cos φ of a local direction, guarding the sin θ = 0 pole
func CosinePhi(direction core.Vec3) float64 {
	sin := Sine(direction)
	if sin == 0 {
		return 1
	}
	return max(-1, min(1, direction.X/sin))
}

// SinePhi returns sin φ of a local direction, guarding the sin θ = 0 pole
func SinePhi(direction core.Vec3) float64 {
	sin := Sine(direction)
	if sin == 0 {
		return 0
	}
	return max(-1, min(1, direction.Y/sin))
}

// SameHemisphere returns true when both local directions point to the same
// side of the surface
func SameHemisphere(a, b core.Vec3) bool {
	return a.Z*b.Z > 0
}

// cosineSampleHemisphere draws a direction with density |cos θ|/π by
// lifting a concentric disk sample onto the hemisphere
func cosineSampleHemisphere(sample sampling.Sample2D) core.Vec3 {
	disk := concentricSampleDisk(sample)
	z := math.Sqrt(math.Max(0, 1-disk.X*disk.X-disk.Y*disk.Y))
	return core.NewVec3(disk.X, disk.Y, z)
}

// concentricSampleDisk maps the unit square onto the unit disk without
// distortion clustering
func concentricSampleDisk(sample sampling.Sample2D) core.Vec2 {
	offset := core.NewVec2(2*float64(sample.U)-1, 2*float64(sample.V)-1)
	if offset.X == 0 && offset.Y == 0 {
		return core.Vec2{}
	}

	var theta, radius float64
	if math.Abs(offset.X) > math.Abs(offset.Y) {
		radius = offset.X
		theta = math.Pi / 4 * (offset.Y / offset.X)
	} else {
		radius = offset.Y
		theta = math.Pi/2 - math.Pi/4*(offset.X/offset.Y)
	}
	return core.NewVec2(radius*math.Cos(theta), radius*math.Sin(theta))
}
