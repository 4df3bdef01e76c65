package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

func TestLambertianEvaluate(t *testing.T) {
	lambertian := &Lambertian{Albedo: core.NewVec3(0.8, 0.6, 0.4)}

	outgoing := core.NewVec3(0, 0, 1)
	incident := core.NewVec3(0.5, 0, 0.5).Normalize()

	value := lambertian.Evaluate(outgoing, incident)
	expected := core.NewVec3(0.8, 0.6, 0.4).Multiply(1 / math.Pi)
	if value.Subtract(expected).Length() > 1e-12 {
		t.Errorf("expected %v, got %v", expected, value)
	}

	below := core.NewVec3(0, 0, -1)
	if !lambertian.Evaluate(outgoing, below).IsZero() {
		t.Error("opposite hemispheres should evaluate to zero")
	}
}

func TestLambertianSampleConsistent(t *testing.T) {
	lambertian := &Lambertian{Albedo: core.NewVec3(0.5, 0.5, 0.5)}
	random := rand.New(rand.NewSource(8))
	outgoing := core.NewVec3(0.3, -0.2, 0.9).Normalize()

	for i := 0; i < 1000; i++ {
		sample := sampling.NewSample2D(random.Float64(), random.Float64())
		incident, value, pdf := lambertian.Sample(outgoing, sample)

		if pdf <= 0 {
			t.Fatal("sampled pdf must be positive")
		}
		if !SameHemisphere(outgoing, incident) {
			t.Fatalf("sampled direction in the wrong hemisphere: %v", incident)
		}
		if math.Abs(pdf-lambertian.ProbabilityDensity(outgoing, incident)) > 1e-12 {
			t.Fatal("sampled pdf disagrees with ProbabilityDensity")
		}
		if value.Subtract(lambertian.Evaluate(outgoing, incident)).Length() > 1e-12 {
			t.Fatal("sampled value disagrees with Evaluate")
		}
	}
}

func TestSpecularReflectionMirrors(t *testing.T) {
	reflection := &SpecularReflection{
		Albedo:  core.NewVec3(1, 1, 1),
		Fresnel: FresnelDielectric{EtaAbove: 1, EtaBelow: 1.5},
	}

	outgoing := core.NewVec3(0.6, 0, 0.8)
	incident, value, pdf := reflection.Sample(outgoing, sampling.Sample2D{})

	expected := core.NewVec3(-0.6, 0, 0.8)
	if incident.Subtract(expected).Length() > 1e-12 {
		t.Errorf("expected mirrored direction %v, got %v", expected, incident)
	}
	if pdf != 1 {
		t.Errorf("delta reflection pdf should be 1, got %v", pdf)
	}
	if value.IsZero() {
		t.Error("reflection value should be positive")
	}

	if reflection.ProbabilityDensity(outgoing, incident) != 0 {
		t.Error("delta components report zero density")
	}
	if !reflection.Evaluate(outgoing, incident).IsZero() {
		t.Error("delta components evaluate to zero")
	}
}

func TestSpecularTransmissionRefracts(t *testing.T) {
	transmission := &SpecularTransmission{
		Transmittance: core.NewVec3(1, 1, 1),
		Fresnel:       FresnelDielectric{EtaAbove: 1, EtaBelow: 1.5},
	}

	outgoing := core.NewVec3(0.6, 0, 0.8)
	incident, value, pdf := transmission.Sample(outgoing, sampling.Sample2D{})

	if pdf != 1 {
		t.Fatalf("delta transmission pdf should be 1, got %v", pdf)
	}
	if incident.Z >= 0 {
		t.Errorf("transmission should cross the boundary, got %v", incident)
	}
	if !incident.IsUnit() {
		t.Errorf("refracted direction should be unit length, got %v", incident)
	}

	// Snell: sinI * etaI == sinT * etaT
	sinI := Sine(outgoing)
	sinT := Sine(incident)
	if math.Abs(sinI*1-sinT*1.5) > 1e-9 {
		t.Errorf("Snell violated: sinI %v sinT %v", sinI, sinT)
	}
	if value.IsZero() {
		t.Error("transmission value should be positive")
	}
}

func TestSpecularTransmissionTotalInternal(t *testing.T) {
	// Leaving the dense medium at a grazing angle
	transmission := &SpecularTransmission{
		Transmittance: core.NewVec3(1, 1, 1),
		Fresnel:       FresnelDielectric{EtaAbove: 1, EtaBelow: 1.5},
	}

	outgoing := core.NewVec3(0.95, 0, -math.Sqrt(1-0.95*0.95))
	_, _, pdf := transmission.Sample(outgoing, sampling.Sample2D{})
	if pdf != 0 {
		t.Errorf("total internal reflection should yield pdf 0, got %v", pdf)
	}
}

func TestFresnelDielectricLimits(t *testing.T) {
	fresnel := FresnelDielectric{EtaAbove: 1, EtaBelow: 1.5}

	normalIncidence := fresnel.Evaluate(1).X
	expected := math.Pow(0.5/2.5, 2)
	if math.Abs(normalIncidence-expected) > 1e-9 {
		t.Errorf("normal incidence reflectance: expected %v, got %v", expected, normalIncidence)
	}

	grazing := fresnel.Evaluate(1e-9).X
	if grazing < 0.99 {
		t.Errorf("grazing reflectance should approach 1, got %v", grazing)
	}

	schlick := SchlickApproximation(1, expected)
	if math.Abs(schlick-expected) > 1e-12 {
		t.Errorf("Schlick at normal incidence should equal r0, got %v", schlick)
	}
}

func TestFresnelConductorReflective(t *testing.T) {
	// Gold-ish constants
	fresnel := FresnelConductor{
		EtaAbove: core.NewVec3(1, 1, 1),
		Eta:      core.NewVec3(0.14, 0.37, 1.44),
		K:        core.NewVec3(3.98, 2.39, 1.60),
	}

	value := fresnel.Evaluate(1)
	for _, channel := range []float64{value.X, value.Y, value.Z} {
		if channel <= 0 || channel > 1 {
			t.Errorf("conductor reflectance out of range: %v", value)
		}
	}
	if value.X < value.Z {
		t.Errorf("gold should reflect red more than blue, got %v", value)
	}
}

func TestShadingFrameHelpers(t *testing.T) {
	direction := core.NewVec3(0.48, 0.36, 0.8)

	if math.Abs(Cosine(direction)-0.8) > 1e-12 {
		t.Errorf("cosine should be the Z component, got %v", Cosine(direction))
	}
	if math.Abs(Sine(direction)-0.6) > 1e-12 {
		t.Errorf("sine: expected 0.6, got %v", Sine(direction))
	}

	// The poles must not divide by zero
	pole := core.NewVec3(0, 0, 1)
	if CosinePhi(pole) != 1 || SinePhi(pole) != 0 {
		t.Error("phi helpers should fall back to (1, 0) at the pole")
	}
}

func TestBSDFSampleMatte(t *testing.T) {
	allocator := NewAllocator()
	bsdf := allocator.NewBSDF()
	normal := core.NewVec3(0, 1, 0)
	bsdf.SetFrame(normal)

	lambertian := allocator.NewLambertian()
	lambertian.Albedo = core.NewVec3(0.8, 0.8, 0.8)
	bsdf.Add(lambertian)

	random := rand.New(rand.NewSource(21))
	outgoing := core.NewVec3(0, 1, 0)

	for i := 0; i < 500; i++ {
		sample := sampling.NewSample2D(random.Float64(), random.Float64())
		incident, value, pdf := bsdf.Sample(outgoing, sample)
		if pdf <= 0 {
			t.Fatal("matte sample pdf must be positive")
		}
		if incident.Dot(normal) < 0 {
			t.Fatalf("sampled direction below the surface: %v", incident)
		}

		// Cosine sampling cancels: value*cos/pdf equals the albedo
		weight := value.Multiply(incident.Dot(normal) / pdf)
		if weight.Subtract(core.NewVec3(0.8, 0.8, 0.8)).Length() > 1e-9 {
			t.Fatalf("importance weight should equal the albedo, got %v", weight)
		}
	}
}

func TestAllocatorRestartReuses(t *testing.T) {
	allocator := NewAllocator()

	first := allocator.NewLambertian()
	first.Albedo = core.NewVec3(1, 0, 0)

	allocator.Restart()

	second := allocator.NewLambertian()
	if first != second {
		t.Error("restart should recycle the same slot")
	}
	if !second.Albedo.IsZero() {
		t.Errorf("recycled component should be zeroed, got %v", second.Albedo)
	}
}

func TestAllocatorSeparatesBSDFs(t *testing.T) {
	allocator := NewAllocator()

	a := allocator.NewBSDF()
	a.SetFrame(core.NewVec3(0, 0, 1))
	a.Add(allocator.NewLambertian())

	b := allocator.NewBSDF()
	b.SetFrame(core.NewVec3(0, 0, 1))
	b.Add(allocator.NewSpecularReflection())
	b.Add(allocator.NewSpecularTransmission())

	if a.Count(TypeAll) != 1 {
		t.Errorf("first set should keep one component, got %d", a.Count(TypeAll))
	}
	if b.Count(TypeAll) != 2 {
		t.Errorf("second set should hold two components, got %d", b.Count(TypeAll))
	}
	if b.Count(TypeSpecular) != 2 {
		t.Errorf("both of the second set's components are specular, got %d", b.Count(TypeSpecular))
	}
}

func TestIsEmissive(t *testing.T) {
	if IsEmissive(&Matte{Albedo: Pure(core.NewVec3(1, 1, 1))}) {
		t.Error("matte is not emissive")
	}
	if IsEmissive(&DiffuseLight{}) {
		t.Error("a zero-emission light should not count as emissive")
	}
	if !IsEmissive(&DiffuseLight{Emission: core.NewVec3(5, 5, 5)}) {
		t.Error("a positive-emission light should count as emissive")
	}
}
