package material

import (
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// Texture supplies a color per texture coordinate. Defined here so
// materials accept any source; the texture package provides grid and pure
// implementations.
type Texture interface {
	Evaluate(uv core.Vec2) core.Vec3
}

// Touch is the local state at a ray-surface hit: world-space geometry, the
// outgoing direction back along the arriving ray, and the scattering
// function set the material populates
type Touch struct {
	Point           core.Vec3
	Normal          core.Vec3 // Shading normal
	GeometricNormal core.Vec3
	Outgoing        core.Vec3 // Unit direction away from the surface
	Texcoord        core.Vec2

	Token    geometry.TokenHierarchy
	Material Material

	// BSDF is populated by Material.Scatter; nil means the surface does
	// not scatter and the path passes through unchanged
	BSDF *BSDF
}

// Material turns a surface hit into scattering functions
type Material interface {
	// Scatter populates touch.BSDF from the arena allocator. A material
	// that does not scatter leaves it nil.
	Scatter(touch *Touch, allocator *Allocator)
}

// Emissive materials add radiance leaving the surface point along the
// outgoing direction
type Emissive interface {
	Emit(origin core.Vec3, outgoing core.Vec3) core.Vec3

	// Power returns the emitted radiant power per unit area, the weight
	// for light selection
	Power() float64
}

// Matte is a purely diffuse material
type Matte struct {
	Albedo Texture
}

// Scatter populates a single Lambertian component
func (m *Matte) Scatter(touch *Touch, allocator *Allocator) {
	bsdf := allocator.NewBSDF()
	bsdf.SetFrame(touch.Normal)

	lambertian := allocator.NewLambertian()
	lambertian.Albedo = m.Albedo.Evaluate(touch.Texcoord)
	bsdf.Add(lambertian)

	touch.BSDF = bsdf
}

// Mirror is a perfectly specular conductor
type Mirror struct {
	Albedo Texture
	Eta    core.Vec3 // Real part of the complex index of refraction
	K      core.Vec3 // Absorption coefficient
}

// Scatter populates a single specular reflection component
func (m *Mirror) Scatter(touch *Touch, allocator *Allocator) {
	bsdf := allocator.NewBSDF()
	bsdf.SetFrame(touch.Normal)

	reflection := allocator.NewSpecularReflection()
	reflection.Albedo = m.Albedo.Evaluate(touch.Texcoord)
	reflection.Fresnel = FresnelConductor{
		EtaAbove: core.NewVec3(1, 1, 1),
		Eta:      m.Eta,
		K:        m.K,
	}
	bsdf.Add(reflection)

	touch.BSDF = bsdf
}

// Glass is a clear dielectric with specular reflection and transmission
type Glass struct {
	Transmittance Texture
	EtaOutside    float64
	EtaInside     float64
}

// Scatter populates paired reflection and transmission components sharing
// one dielectric boundary
func (g *Glass) Scatter(touch *Touch, allocator *Allocator) {
	bsdf := allocator.NewBSDF()
	bsdf.SetFrame(touch.Normal)
	fresnel := FresnelDielectric{EtaAbove: g.EtaOutside, EtaBelow: g.EtaInside}

	transmittance := g.Transmittance.Evaluate(touch.Texcoord)

	reflection := allocator.NewSpecularReflection()
	reflection.Albedo = core.NewVec3(1, 1, 1)
	reflection.Fresnel = fresnel
	bsdf.Add(reflection)

	transmission := allocator.NewSpecularTransmission()
	transmission.Transmittance = transmittance
	transmission.Fresnel = fresnel
	bsdf.Add(transmission)

	touch.BSDF = bsdf
}

// DiffuseLight is an emissive surface that does not scatter
type DiffuseLight struct {
	Emission core.Vec3
}

// Scatter leaves the scattering set nil; light sources only emit
func (d *DiffuseLight) Scatter(touch *Touch, allocator *Allocator) {
	touch.BSDF = nil
}

// Emit returns the constant emission for every outgoing direction; it does
// not check which side of the surface is viewed
func (d *DiffuseLight) Emit(origin core.Vec3, outgoing core.Vec3) core.Vec3 {
	return d.Emission
}

// Power returns the emitted radiant power per unit area
func (d *DiffuseLight) Power() float64 {
	return d.Emission.Average()
}

// IsEmissive reports whether a material emits a positive amount of light
func IsEmissive(m Material) bool {
	emissive, ok := m.(Emissive)
	return ok && emissive.Power() > 0
}

// Pure is the constant color texture
type Pure core.Vec3

// Evaluate returns the constant color
func (p Pure) Evaluate(uv core.Vec2) core.Vec3 {
	return core.Vec3(p)
}
