package material

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// Lambertian is the perfectly diffuse reflector, constant f = albedo/π
type Lambertian struct {
	Albedo core.Vec3
}

// Type classifies the component as diffuse reflection
func (l *Lambertian) Type() FunctionType {
	return TypeReflective | TypeDiffuse
}

// Evaluate returns albedo/π when both directions share the hemisphere
func (l *Lambertian) Evaluate(outgoing, incident core.Vec3) core.Vec3 {
	if !SameHemisphere(outgoing, incident) {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(1 / math.Pi)
}

// Sample draws a cosine-weighted incident direction in the hemisphere of
// the outgoing direction
func (l *Lambertian) Sample(outgoing core.Vec3, sample sampling.Sample2D) (core.Vec3, core.Vec3, float64) {
	incident := cosineSampleHemisphere(sample)
	if Cosine(outgoing) < 0 {
		incident.Z = -incident.Z
	}

	pdf := AbsCosine(incident) / math.Pi
	return incident, l.Evaluate(outgoing, incident), pdf
}

// ProbabilityDensity returns the cosine-weighted density |cos θ|/π
func (l *Lambertian) ProbabilityDensity(outgoing, incident core.Vec3) float64 {
	if !SameHemisphere(outgoing, incident) {
		return 0
	}
	return AbsCosine(incident) / math.Pi
}
