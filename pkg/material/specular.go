package material

import (
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// SpecularReflection is the delta mirror component. Its value carries the
// Fresnel reflectance divided by |cos θ| so the rendering equation's cosine
// cancels exactly.
type SpecularReflection struct {
	Albedo  core.Vec3
	Fresnel Fresnel
}

// Type classifies the component as specular reflection
func (s *SpecularReflection) Type() FunctionType {
	return TypeReflective | TypeSpecular
}

// Evaluate returns zero; a delta lobe never matches sampled direction pairs
func (s *SpecularReflection) Evaluate(outgoing, incident core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Sample mirrors the outgoing direction through the normal with pdf one
func (s *SpecularReflection) Sample(outgoing core.Vec3, sample sampling.Sample2D) (core.Vec3, core.Vec3, float64) {
	incident := core.NewVec3(-outgoing.X, -outgoing.Y, outgoing.Z)
	cosI := Cosine(incident)
	if cosI == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}

	value := s.Fresnel.Evaluate(cosI).MultiplyVec(s.Albedo).Divide(AbsCosine(incident))
	return incident, value, 1
}

// ProbabilityDensity is zero for a delta component
func (s *SpecularReflection) ProbabilityDensity(outgoing, incident core.Vec3) float64 {
	return 0
}

// SpecularTransmission is the delta refraction component through a
// dielectric boundary
type SpecularTransmission struct {
	Transmittance core.Vec3
	Fresnel       FresnelDielectric
}

// Type classifies the component as specular transmission
func (s *SpecularTransmission) Type() FunctionType {
	return TypeTransmissive | TypeSpecular
}

// Evaluate returns zero; a delta lobe never matches sampled direction pairs
func (s *SpecularTransmission) Evaluate(outgoing, incident core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Sample refracts the outgoing direction through the boundary with pdf one.
// The value scales transmittance by (1 − F) and the squared relative index,
// the radiance compression of entering the denser medium, divided by
// |cos θ| so the rendering equation's cosine cancels.
func (s *SpecularTransmission) Sample(outgoing core.Vec3, sample sampling.Sample2D) (core.Vec3, core.Vec3, float64) {
	incident, eta, ok := s.Fresnel.Refract(outgoing)
	if !ok {
		// Total internal reflection carries no transmitted energy
		return core.Vec3{}, core.Vec3{}, 0
	}

	cosI := Cosine(incident)
	if cosI == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}

	fresnel := s.Fresnel.Evaluate(Cosine(outgoing))
	value := core.NewVec3(1, 1, 1).Subtract(fresnel).
		MultiplyVec(s.Transmittance).
		Multiply(eta * eta / AbsCosine(incident))
	return incident, value, 1
}

// ProbabilityDensity is zero for a delta component
func (s *SpecularTransmission) ProbabilityDensity(outgoing, incident core.Vec3) float64 {
	return 0
}
