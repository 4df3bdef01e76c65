package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/echo-render/echo/pkg/core"
)

func TestPixelWelfordMatchesNaive(t *testing.T) {
	random := rand.New(rand.NewSource(31))

	var pixel Pixel
	var samples []core.Vec3
	for i := 0; i < 1000; i++ {
		sample := core.NewVec3(random.Float64()*10, random.Float64(), random.Float64()*0.1)
		samples = append(samples, sample)
		if !pixel.Accumulate(sample) {
			t.Fatal("finite sample rejected")
		}
	}

	// Naive mean for comparison
	var sum core.Vec3
	for _, sample := range samples {
		sum = sum.Add(sample)
	}
	mean := sum.Divide(float64(len(samples)))

	if pixel.Mean().Subtract(mean).Length() > 1e-9 {
		t.Errorf("Welford mean %v differs from naive %v", pixel.Mean(), mean)
	}

	// Naive per-channel population variances, averaged over the channels
	variance := 0.0
	for _, sample := range samples {
		delta := sample.Subtract(mean)
		variance += delta.MultiplyVec(delta).Average()
	}
	variance /= float64(len(samples))

	if math.Abs(pixel.Variance()-variance) > 1e-9 {
		t.Errorf("Welford variance %v differs from naive %v", pixel.Variance(), variance)
	}
}

func TestPixelRejectsNonFinite(t *testing.T) {
	var pixel Pixel
	pixel.Accumulate(core.NewVec3(1, 1, 1))

	if pixel.Accumulate(core.NewVec3(math.NaN(), 0, 0)) {
		t.Error("NaN sample should be rejected")
	}
	if pixel.Accumulate(core.NewVec3(0, math.Inf(1), 0)) {
		t.Error("infinite sample should be rejected")
	}

	if pixel.Count() != 1 {
		t.Errorf("rejected samples must not count, got %d", pixel.Count())
	}
	if pixel.Rejected() != 2 {
		t.Errorf("expected 2 rejections, got %d", pixel.Rejected())
	}
	if pixel.Mean() != core.NewVec3(1, 1, 1) {
		t.Errorf("rejections must not disturb the mean, got %v", pixel.Mean())
	}
}

func TestPixelDeviationFloor(t *testing.T) {
	var dark Pixel
	dark.Accumulate(core.NewVec3(0.001, 0.001, 0.001))
	dark.Accumulate(core.NewVec3(0.002, 0.002, 0.002))

	// The floor keeps near-black pixels from demanding endless samples
	if dark.Deviation() > 0.01 {
		t.Errorf("dark pixel deviation should be tiny under the floor, got %v", dark.Deviation())
	}

	var constant Pixel
	for i := 0; i < 10; i++ {
		constant.Accumulate(core.NewVec3(5, 5, 5))
	}
	if constant.Deviation() != 0 {
		t.Errorf("constant samples have zero deviation, got %v", constant.Deviation())
	}
}

func TestPixelAuxiliaryLayers(t *testing.T) {
	var pixel Pixel
	pixel.AccumulateAux(core.NewVec3(0.5, 0.5, 0.5), core.NewVec3(0, 0, 2))
	pixel.AccumulateAux(core.NewVec3(0.7, 0.7, 0.7), core.NewVec3(0, 0, 4))

	albedo := pixel.AlbedoMean()
	if albedo.Subtract(core.NewVec3(0.6, 0.6, 0.6)).Length() > 1e-12 {
		t.Errorf("expected averaged albedo 0.6, got %v", albedo)
	}

	normal := pixel.NormalMean()
	if normal.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
		t.Errorf("normal should be normalized, got %v", normal)
	}
}

func TestRenderBufferBounds(t *testing.T) {
	buffer := NewRenderBuffer(core.NewInt2(4, 3))

	if !buffer.Contains(core.NewInt2(0, 0)) || !buffer.Contains(core.NewInt2(3, 2)) {
		t.Error("corners should be inside")
	}
	if buffer.Contains(core.NewInt2(4, 0)) || buffer.Contains(core.NewInt2(0, -1)) {
		t.Error("out-of-range positions should be outside")
	}

	position := core.NewInt2(2, 1)
	buffer.SetColor(position, core.NewVec3(1, 2, 3))
	if buffer.GetColor(position) != core.NewVec3(1, 2, 3) {
		t.Error("color round trip failed")
	}
}
