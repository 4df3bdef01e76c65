package evaluator

import (
	"math"
	"testing"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
	"github.com/echo-render/echo/pkg/texture"
)

func prepare(t *testing.T, s *scene.Scene) *scene.PreparedScene {
	t.Helper()
	prepared, err := scene.NewPreparer().Prepare(s)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	return prepared
}

func TestPathTracedAmbientFallback(t *testing.T) {
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(0.25, 0.5, 0.75))
	prepared := prepare(t, s)

	evaluator := NewPathTraced()
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1))
	color := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	if color.Subtract(core.NewVec3(0.25, 0.5, 0.75)).Length() > 1e-12 {
		t.Errorf("empty scene should return the ambient color, got %v", color)
	}
}

func TestPathTracedLambertianUnderAmbient(t *testing.T) {
	// A 0.8 albedo Lambertian sphere under a uniform white ambient: one
	// bounce returns exactly the albedo because cosine sampling cancels
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(1, 1, 1))
	s.Add(&scene.Sphere{
		Center:   core.Vec3{},
		Radius:   1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.8, 0.8, 0.8))},
	})
	prepared := prepare(t, s)

	evaluator := &PathTraced{BounceLimit: 2}
	distribution := sampling.NewStratifiedDistribution(16, true, 3)
	allocator := material.NewAllocator()

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))

	distribution.BeginPixel(core.NewInt2(0, 0))
	for i := 0; i < 16; i++ {
		distribution.BeginSample(i)
		color := evaluator.Evaluate(prepared, ray, distribution, allocator)

		// The estimate is exact per sample, not merely in expectation
		if color.Subtract(core.NewVec3(0.8, 0.8, 0.8)).Length() > 1e-9 {
			t.Fatalf("sample %d: expected (0.8, 0.8, 0.8), got %v", i, color)
		}
	}
}

func TestPathTracedDirectionalAmbient(t *testing.T) {
	// An environment texture serves as the ambient light: a miss samples
	// the texture along the escaped direction
	grid := texture.NewGrid(8, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			grid.Set(x, y, core.NewVec3(0.5, 0.25, 0.125))
		}
	}

	s := scene.NewScene()
	s.Ambient = texture.NewDirectional(grid)
	prepared := prepare(t, s)

	evaluator := NewPathTraced()
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0).Normalize())
	color := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	if color.Subtract(core.NewVec3(0.5, 0.25, 0.125)).Length() > 1e-9 {
		t.Errorf("escaped ray should sample the environment, got %v", color)
	}
}

func TestPathTracedDepthOneStopsAtSurface(t *testing.T) {
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(1, 1, 1))
	s.Add(&scene.Sphere{
		Center:   core.Vec3{},
		Radius:   1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.8, 0.8, 0.8))},
	})
	prepared := prepare(t, s)

	evaluator := &PathTraced{BounceLimit: 1}
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))
	color := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	if !color.IsZero() {
		t.Errorf("depth 1 should not gather bounce light from a non-emitter, got %v", color)
	}
}

func TestPathTracedEmissiveSurface(t *testing.T) {
	s := scene.NewScene()
	s.Add(&scene.Sphere{
		Center:   core.Vec3{},
		Radius:   1,
		Material: &material.DiffuseLight{Emission: core.NewVec3(3, 2, 1)},
	})
	prepared := prepare(t, s)

	evaluator := NewPathTraced()
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))
	color := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	// The light does not scatter; the path passes through it and out the
	// far side into black, leaving only the emission
	if color.Subtract(core.NewVec3(3, 2, 1)).Length() > 1e-9 {
		t.Errorf("expected the emission (3,2,1), got %v", color)
	}
}

func TestPathTracedMirrorReflectsAmbient(t *testing.T) {
	// A perfect mirror reflects the ray into the ambient with the Fresnel
	// attenuation applied once
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(1, 1, 1))
	s.Add(&scene.Sphere{
		Center: core.Vec3{},
		Radius: 1,
		Material: &material.Mirror{
			Albedo: material.Pure(core.NewVec3(1, 1, 1)),
			Eta:    core.NewVec3(0.2, 0.2, 0.2),
			K:      core.NewVec3(3, 3, 3),
		},
	})
	prepared := prepare(t, s)

	evaluator := &PathTraced{BounceLimit: 3}
	distribution := sampling.NewStratifiedDistribution(1, false, 2)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))
	color := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	if color.IsZero() {
		t.Fatal("mirror under ambient light should not be black")
	}
	if color.X > 1 {
		t.Errorf("reflectance cannot exceed the ambient, got %v", color)
	}
}

func TestAlbedoEvaluator(t *testing.T) {
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(0.1, 0.1, 0.1))
	s.Add(&scene.Sphere{
		Center:   core.Vec3{},
		Radius:   1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.8, 0.4, 0.2))},
	})
	prepared := prepare(t, s)

	evaluator := NewAlbedo()
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	distribution.BeginPixel(core.NewInt2(0, 0))
	distribution.BeginSample(0)

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))
	albedo := evaluator.Evaluate(prepared, ray, distribution, material.NewAllocator())

	if albedo.Subtract(core.NewVec3(0.8, 0.4, 0.2)).Length() > 1e-9 {
		t.Errorf("expected the matte albedo, got %v", albedo)
	}

	miss := core.NewRay(core.NewVec3(0, 5, -3), core.NewVec3(0, 0, 1))
	background := evaluator.Evaluate(prepared, miss, distribution, material.NewAllocator())
	if background.Subtract(core.NewVec3(0.1, 0.1, 0.1)).Length() > 1e-9 {
		t.Errorf("missed albedo probe should return the ambient, got %v", background)
	}
}

func TestAcceleratorQualityCounters(t *testing.T) {
	s := scene.NewScene()
	s.Add(&scene.Sphere{Center: core.Vec3{}, Radius: 1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.5, 0.5, 0.5))}})
	prepared := prepare(t, s)

	evaluator := NewAcceleratorQuality()
	distribution := sampling.NewStratifiedDistribution(1, false, 1)
	allocator := material.NewAllocator()

	ray := core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1))

	first := evaluator.Evaluate(prepared, ray, distribution, allocator)
	if first.X <= 0 {
		t.Error("tracing through a primitive should cost something")
	}
	if first.Z != 1 {
		t.Errorf("first sample count should be 1, got %v", first.Z)
	}

	second := evaluator.Evaluate(prepared, ray, distribution, allocator)
	if second.Y != first.Y+first.X {
		t.Errorf("running cost should accumulate: %v then %v", first, second)
	}
	if evaluator.TotalSample() != 2 {
		t.Errorf("expected 2 samples, got %d", evaluator.TotalSample())
	}

	if math.Abs(second.X-first.X) > 1e-12 {
		t.Errorf("identical rays should cost the same, got %v and %v", first.X, second.X)
	}
}
