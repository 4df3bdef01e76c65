package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/evaluator"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

func testContext(t *testing.T, size core.Int2, profile Profile) *Context {
	t.Helper()

	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(0.5, 0.5, 0.5))
	s.Add(&scene.Sphere{
		Center:   core.NewVec3(0, 0, 0),
		Radius:   1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.8, 0.8, 0.8))},
	})

	prepared, err := scene.NewPreparer().Prepare(s)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	return &Context{
		Scene:           prepared,
		Camera:          NewCamera(core.NewVec3(0, 0, -4), core.Vec3{}, 60),
		Buffer:          NewRenderBuffer(size),
		Evaluator:       &evaluator.PathTraced{BounceLimit: 4},
		AlbedoEvaluator: evaluator.NewAlbedo(),
		Profile:         profile,
	}
}

// runTile renders one tile synchronously and waits for the callback
func runTile(t *testing.T, worker *TileWorker, offset core.Int2) {
	t.Helper()

	var done sync.WaitGroup
	done.Add(1)
	worker.OnWorkCompleted = func(*TileWorker) { done.Done() }

	if err := worker.Reset(offset); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := worker.Dispatch(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	done.Wait()
}

func TestTileWorkerCompletesCounts(t *testing.T) {
	profile := Profile{TileSize: 16, PixelSample: 4, AdaptiveSample: 0, Jitter: false}
	context := testContext(t, core.NewInt2(32, 32), profile)

	distribution := sampling.NewStratifiedDistribution(profile.PixelSample, false, 1)
	worker := NewTileWorker(context, distribution, 1)
	defer worker.Abort()

	runTile(t, worker, core.NewInt2(0, 0))

	if worker.TotalPixel() != 256 {
		t.Errorf("16x16 tile inside the buffer covers 256 pixels, got %d", worker.TotalPixel())
	}
	if worker.CompletedPixel() != 256 {
		t.Errorf("expected 256 completed pixels, got %d", worker.CompletedPixel())
	}
	if worker.CompletedSample() != 1024 {
		t.Errorf("expected 256*4 = 1024 samples, got %d", worker.CompletedSample())
	}
}

func TestTileWorkerClipsToBuffer(t *testing.T) {
	profile := Profile{TileSize: 16, PixelSample: 1, AdaptiveSample: 0, Jitter: false}
	context := testContext(t, core.NewInt2(20, 20), profile)

	distribution := sampling.NewStratifiedDistribution(profile.PixelSample, false, 1)
	worker := NewTileWorker(context, distribution, 1)
	defer worker.Abort()

	// The tile at (16, 16) only overlaps a 4x4 corner
	runTile(t, worker, core.NewInt2(16, 16))

	if worker.TotalPixel() != 16 {
		t.Errorf("clipped tile covers 16 pixels, got %d", worker.TotalPixel())
	}
	if worker.CompletedPixel() != 16 {
		t.Errorf("expected 16 completed pixels, got %d", worker.CompletedPixel())
	}
}

func TestTileWorkerLifecycleErrors(t *testing.T) {
	profile := Profile{TileSize: 8, PixelSample: 4, AdaptiveSample: 0, Jitter: true}
	context := testContext(t, core.NewInt2(64, 64), profile)

	distribution := sampling.NewStratifiedDistribution(profile.PixelSample, true, 1)
	worker := NewTileWorker(context, distribution, 1)

	// Hold the worker at its first suspension point so the tile is
	// reliably mid-flight while the lifecycle calls are checked
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	worker.CheckSchedule = func() error {
		once.Do(func() {
			close(entered)
			<-release
		})
		return nil
	}

	var done sync.WaitGroup
	done.Add(1)
	worker.OnWorkCompleted = func(*TileWorker) { done.Done() }

	if err := worker.Reset(core.NewInt2(0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := worker.Dispatch(); err != nil {
		t.Fatal(err)
	}
	<-entered

	// While the tile renders, reset and a second dispatch must fail
	if err := worker.Dispatch(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double dispatch should fail with ErrInvalidState, got %v", err)
	}
	if err := worker.Reset(core.NewInt2(8, 0)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("reset while working should fail with ErrInvalidState, got %v", err)
	}

	close(release)
	done.Wait()
	worker.Abort()

	if err := worker.Dispatch(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("dispatch after abort should fail, got %v", err)
	}
}

func TestTileWorkerDeterministicWithoutJitter(t *testing.T) {
	profile := Profile{TileSize: 8, PixelSample: 1, AdaptiveSample: 0, Jitter: false}

	render := func() *RenderBuffer {
		context := testContext(t, core.NewInt2(8, 8), profile)
		distribution := sampling.NewStratifiedDistribution(profile.PixelSample, false, 7)
		worker := NewTileWorker(context, distribution, 7)
		defer worker.Abort()
		runTile(t, worker, core.NewInt2(0, 0))
		return context.Buffer
	}

	first := render()
	second := render()

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			position := core.NewInt2(x, y)
			if first.GetColor(position) != second.GetColor(position) {
				t.Fatalf("pixel %v differs between identical renders: %v vs %v",
					position, first.GetColor(position), second.GetColor(position))
			}
		}
	}
}

func TestDeviceRenderCompletes(t *testing.T) {
	profile := Profile{TileSize: 8, PixelSample: 2, AdaptiveSample: 4, Jitter: true}
	context := testContext(t, core.NewInt2(24, 16), profile)

	device := NewDevice(4)
	if err := device.Render(context); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if device.State() != StateUnassigned {
		t.Errorf("device should return to unassigned, got %v", device.State())
	}

	// Every pixel must have been written: the scene is never black
	size := context.Buffer.Size()
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if context.Buffer.GetColor(core.NewInt2(x, y)).IsZero() {
				t.Fatalf("pixel (%d, %d) was never written", x, y)
			}
		}
	}
}

func TestDeviceAppliesBounceLimit(t *testing.T) {
	// The profile's cap must reach the evaluators; a depth-1 render cannot
	// gather any bounce light off the non-emissive sphere
	profile := Profile{TileSize: 16, PixelSample: 2, AdaptiveSample: 0, Jitter: false, BounceLimit: 1}
	context := testContext(t, core.NewInt2(16, 16), profile)

	pathTraced := evaluator.NewPathTraced()
	context.Evaluator = pathTraced

	device := NewDevice(2)
	if err := device.Render(context); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if pathTraced.BounceLimit != 1 {
		t.Errorf("profile bounce limit not applied, evaluator kept %d", pathTraced.BounceLimit)
	}

	// The center pixel looks at the sphere and must be black at depth 1
	center := context.Buffer.GetColor(core.NewInt2(8, 8))
	if !center.IsZero() {
		t.Errorf("depth-1 sphere pixel should be black, got %v", center)
	}

	// A zero limit leaves the evaluator's own default in place
	unlimited := evaluator.NewPathTraced()
	context.Evaluator = unlimited
	context.Profile.BounceLimit = 0
	if err := device.Render(context); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if unlimited.BounceLimit != evaluator.DefaultBounceLimit {
		t.Errorf("zero limit should keep the default, got %d", unlimited.BounceLimit)
	}
	if context.Buffer.GetColor(core.NewInt2(8, 8)).IsZero() {
		t.Error("unbounded render should gather bounce light off the sphere")
	}
}

func TestDeviceRenderSceneUsesAggregatorProfile(t *testing.T) {
	s := scene.NewScene()
	s.Ambient = scene.ConstantAmbient(core.NewVec3(0.5, 0.5, 0.5))
	s.Add(&scene.Sphere{
		Center:   core.Vec3{},
		Radius:   1,
		Material: &material.Matte{Albedo: material.Pure(core.NewVec3(0.8, 0.8, 0.8))},
	})

	profile := Profile{
		TileSize:    8,
		PixelSample: 1,
		Jitter:      false,
		Aggregator:  aggregator.Profile{Type: aggregator.TypeQBVH},
	}
	context := &Context{
		Camera:    NewCamera(core.NewVec3(0, 0, -4), core.Vec3{}, 60),
		Buffer:    NewRenderBuffer(core.NewInt2(8, 8)),
		Evaluator: evaluator.NewPathTraced(),
		Profile:   profile,
	}

	device := NewDevice(2)
	if err := device.RenderScene(s, context); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if context.Scene == nil {
		t.Fatal("prepared scene should be bound to the context")
	}
	if _, ok := context.Scene.Pack().Aggregator().(*aggregator.QBVH); !ok {
		t.Errorf("profile requested a QBVH, got %T", context.Scene.Pack().Aggregator())
	}
	if context.Buffer.GetColor(core.NewInt2(4, 4)).IsZero() {
		t.Error("rendered buffer should not be black")
	}

	// An invalid accelerator selection fails before preparation
	context.Profile.Aggregator.Type = aggregator.Type(99)
	if err := device.RenderScene(s, context); !errors.Is(err, aggregator.ErrConfiguration) {
		t.Errorf("expected aggregator configuration error, got %v", err)
	}
}

func TestDeviceRejectsInvalidProfile(t *testing.T) {
	profile := Profile{TileSize: 0, PixelSample: 4}
	context := testContext(t, core.NewInt2(8, 8), Profile{TileSize: 8, PixelSample: 1})
	context.Profile = profile

	device := NewDevice(1)
	if err := device.Render(context); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestDeviceLifecycleErrors(t *testing.T) {
	device := NewDevice(1)

	if err := device.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pausing an idle device should fail, got %v", err)
	}
	if err := device.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resuming an idle device should fail, got %v", err)
	}
	if err := device.Abort(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("aborting an idle device should fail, got %v", err)
	}
}

func TestProfileValidation(t *testing.T) {
	valid := NewProfile()
	if err := valid.Validate(); err != nil {
		t.Errorf("default profile should validate, got %v", err)
	}

	invalid := []Profile{
		{TileSize: 0, PixelSample: 1},
		{TileSize: 16, PixelSample: 0},
		{TileSize: 16, PixelSample: 1, AdaptiveSample: -1},
		{TileSize: 16, PixelSample: 1, BounceLimit: -5},
	}
	for i, profile := range invalid {
		if err := profile.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Errorf("profile %d should fail validation, got %v", i, err)
		}
	}
}
