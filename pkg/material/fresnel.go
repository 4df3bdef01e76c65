package material

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// Fresnel evaluates the fraction of light reflected at a boundary for a
// given cosine of the incident angle
type Fresnel interface {
	Evaluate(cosI float64) core.Vec3
}

// FresnelDielectric evaluates the full Fresnel equations for a boundary
// between two dielectrics
type FresnelDielectric struct {
	EtaAbove float64 // Index of refraction on the normal side
	EtaBelow float64 // Index of refraction on the far side
}

// Evaluate returns the reflectance for cosI, the cosine against the normal.
// A negative cosI means the ray arrives from below the boundary.
func (f FresnelDielectric) Evaluate(cosI float64) core.Vec3 {
	cosI = max(-1, min(1, cosI))

	etaI, etaT := f.EtaAbove, f.EtaBelow
	if cosI < 0 {
		etaI, etaT = etaT, etaI
		cosI = -cosI
	}

	// Snell's law; total internal reflection reflects everything
	sinI := math.Sqrt(math.Max(0, 1-cosI*cosI))
	sinT := etaI / etaT * sinI
	if sinT >= 1 {
		return core.NewVec3(1, 1, 1)
	}
	cosT := math.Sqrt(math.Max(0, 1-sinT*sinT))

	parallel := (etaT*cosI - etaI*cosT) / (etaT*cosI + etaI*cosT)
	perpendicular := (etaI*cosI - etaT*cosT) / (etaI*cosI + etaT*cosT)
	reflectance := (parallel*parallel + perpendicular*perpendicular) / 2

	return core.NewVec3(reflectance, reflectance, reflectance)
}

// Refract computes the transmitted direction for a local outgoing direction,
// returning false under total internal reflection. The returned etaI/etaT
// ratio scales transmitted radiance.
func (f FresnelDielectric) Refract(outgoing core.Vec3) (incident core.Vec3, etaRatio float64, ok bool) {
	cosI := Cosine(outgoing)

	etaI, etaT := f.EtaAbove, f.EtaBelow
	normalZ := 1.0
	if cosI < 0 {
		etaI, etaT = etaT, etaI
		normalZ = -1
		cosI = -cosI
	}

	eta := etaI / etaT
	sinT2 := eta * eta * math.Max(0, 1-cosI*cosI)
	if sinT2 >= 1 {
		return core.Vec3{}, 0, false
	}
	cosT := math.Sqrt(1 - sinT2)

	incident = outgoing.Negate().Multiply(eta).
		Add(core.NewVec3(0, 0, normalZ).Multiply(eta*cosI - cosT))
	return incident, eta, true
}

// FresnelConductor evaluates the approximate Fresnel equations for a
// conductor with a complex index of refraction
type FresnelConductor struct {
	EtaAbove core.Vec3 // Index of the dielectric the light arrives in
	Eta      core.Vec3 // Real part of the conductor's index
	K        core.Vec3 // Absorption coefficient
}

// Evaluate returns the per-channel reflectance for cosI
func (f FresnelConductor) Evaluate(cosI float64) core.Vec3 {
	cosI = math.Abs(max(-1, min(1, cosI)))

	return core.NewVec3(
		conductorReflectance(cosI, f.Eta.X/f.EtaAbove.X, f.K.X/f.EtaAbove.X),
		conductorReflectance(cosI, f.Eta.Y/f.EtaAbove.Y, f.K.Y/f.EtaAbove.Y),
		conductorReflectance(cosI, f.Eta.Z/f.EtaAbove.Z, f.K.Z/f.EtaAbove.Z),
	)
}

// conductorReflectance evaluates one channel of the conductor equations
func conductorReflectance(cosI, eta, k float64) float64 {
	cos2 := cosI * cosI
	sin2 := 1 - cos2
	eta2 := eta * eta
	k2 := k * k

	t0 := eta2 - k2 - sin2
	a2b2 := math.Sqrt(math.Max(0, t0*t0+4*eta2*k2))
	t1 := a2b2 + cos2
	a := math.Sqrt(math.Max(0, (a2b2+t0)/2))
	t2 := 2 * a * cosI
	perpendicular := (t1 - t2) / (t1 + t2)

	t3 := cos2*a2b2 + sin2*sin2
	t4 := t2 * sin2
	parallel := perpendicular * (t3 - t4) / (t3 + t4)

	return (parallel + perpendicular) / 2
}

// SchlickApproximation returns the Schlick reflectance for cosI given the
// reflectance at normal incidence
func SchlickApproximation(cosI, r0 float64) float64 {
	cosI = math.Abs(max(-1, min(1, cosI)))
	complement := 1 - cosI
	c2 := complement * complement
	return r0 + (1-r0)*c2*c2*complement
}
