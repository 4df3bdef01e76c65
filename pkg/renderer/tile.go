package renderer

import (
	"errors"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/evaluator"
	"github.com/echo-render/echo/pkg/material"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

// ErrCanceled is the distinguished outcome of an aborted render operation
var ErrCanceled = errors.New("render operation canceled")

// Context is the immutable state one render operation shares across all
// tile workers
type Context struct {
	Scene     *scene.PreparedScene
	Camera    *Camera
	Buffer    *RenderBuffer
	Evaluator evaluator.Evaluator

	// AlbedoEvaluator fills the auxiliary layers; nil skips them
	AlbedoEvaluator evaluator.Evaluator

	Profile Profile
}

// TileWorker renders one square tile at a time on its own dedicated
// goroutine. A worker cycles through Reset, Dispatch and the completion
// callback until it is aborted.
type TileWorker struct {
	context      *Context
	distribution sampling.ContinuousDistribution
	allocator    *material.Allocator
	spiral       []core.Vec2
	random       *rand.Rand

	offset     core.Int2
	totalPixel int

	completedPixel  atomic.Int64
	completedSample atomic.Int64

	working atomic.Bool
	aborted atomic.Bool
	started bool

	// dispatch is the manual-reset event the worker loop waits on
	dispatch chan struct{}
	exited   chan struct{}

	// OnWorkCompleted is invoked on the worker goroutine after a tile
	// finishes or is canceled mid-tile
	OnWorkCompleted func(*TileWorker)

	// CheckSchedule is the cooperative suspension point, called between
	// pixel samples; returning an error unwinds the current tile
	CheckSchedule func() error
}

// NewTileWorker creates a worker bound to a render context. The seed
// separates this worker's sample streams from its siblings'.
func NewTileWorker(context *Context, distribution sampling.ContinuousDistribution, seed int64) *TileWorker {
	return &TileWorker{
		context:      context,
		distribution: distribution,
		allocator:    material.NewAllocator(),
		spiral:       sampling.GoldenSpiral(context.Profile.PixelSample),
		random:       rand.New(rand.NewSource(seed)),
		dispatch:     make(chan struct{}, 1),
		exited:       make(chan struct{}),
	}
}

// Offset returns the tile origin of the current assignment
func (w *TileWorker) Offset() core.Int2 {
	return w.offset
}

// TotalPixel returns the number of buffer pixels the current tile covers
func (w *TileWorker) TotalPixel() int {
	return w.totalPixel
}

// CompletedPixel returns the pixels finished in the current tile
func (w *TileWorker) CompletedPixel() int {
	return int(w.completedPixel.Load())
}

// CompletedSample returns the samples finished in the current tile
func (w *TileWorker) CompletedSample() int {
	return int(w.completedSample.Load())
}

// Working returns true while a dispatched tile is rendering
func (w *TileWorker) Working() bool {
	return w.working.Load()
}

// Reset binds the worker to a new tile origin and clears its counters.
// Resetting a working worker is a lifecycle violation.
func (w *TileWorker) Reset(offset core.Int2) error {
	if w.working.Load() {
		return ErrInvalidState
	}

	w.offset = offset
	w.totalPixel = w.countPixels(offset)
	w.completedPixel.Store(0)
	w.completedSample.Store(0)
	return nil
}

// countPixels intersects the tile square with the buffer bounds
func (w *TileWorker) countPixels(offset core.Int2) int {
	size := w.context.Profile.TileSize
	buffer := w.context.Buffer.Size()

	width := min(offset.X+size, buffer.X) - max(offset.X, 0)
	height := min(offset.Y+size, buffer.Y) - max(offset.Y, 0)
	if width <= 0 || height <= 0 {
		return 0
	}
	return width * height
}

// Dispatch starts the worker goroutine on first use and signals it to
// render the tile bound by the last Reset. Dispatching a working worker is
// a lifecycle violation.
func (w *TileWorker) Dispatch() error {
	if w.aborted.Load() {
		return ErrInvalidState
	}
	if !w.working.CompareAndSwap(false, true) {
		return ErrInvalidState
	}

	if !w.started {
		w.started = true
		go w.work()
	}

	w.dispatch <- struct{}{}
	return nil
}

// Abort stops the worker permanently and joins its goroutine
func (w *TileWorker) Abort() {
	w.aborted.Store(true)

	if !w.started {
		return
	}

	// Release the loop if it is parked on the dispatch event
	select {
	case w.dispatch <- struct{}{}:
	default:
	}
	<-w.exited
}

// work is the dedicated goroutine loop: wait for a dispatch, render the
// tile, report completion, park again
func (w *TileWorker) work() {
	defer close(w.exited)

	for range w.dispatch {
		if w.aborted.Load() {
			return
		}

		w.renderTile()

		w.working.Store(false)
		if w.OnWorkCompleted != nil {
			w.OnWorkCompleted(w)
		}
	}
}

// renderTile iterates the tile's pixel coordinates row-major
func (w *TileWorker) renderTile() {
	size := w.context.Profile.TileSize
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if w.aborted.Load() {
				return
			}
			if err := w.workPixel(x, y); err != nil {
				return
			}
		}
	}
}

// workPixel renders one pixel: the deterministic base pass over the golden
// spiral offsets, then the adaptive pass scaled by the pixel's noise
func (w *TileWorker) workPixel(x, y int) error {
	position := w.offset.Add(core.NewInt2(x, y))
	buffer := w.context.Buffer
	if !buffer.Contains(position) {
		return nil
	}

	profile := &w.context.Profile
	w.distribution.BeginPixel(position)

	var pixel Pixel
	w.probeAuxiliary(position, &pixel)

	// Base pass with deterministic spiral offsets
	for i := 0; i < profile.PixelSample; i++ {
		if err := w.checkSchedule(); err != nil {
			return err
		}

		w.sampleOnce(position, w.spiral[i%len(w.spiral)], i, &pixel)
	}

	// Adaptive pass with random offsets, sized by the measured noise
	extra := int(math.Round(pixel.Deviation() * float64(profile.AdaptiveSample)))
	for i := 0; i < extra; i++ {
		if err := w.checkSchedule(); err != nil {
			return err
		}

		offset := core.NewVec2(w.random.Float64(), w.random.Float64())
		w.sampleOnce(position, offset, profile.PixelSample+i, &pixel)
	}

	buffer.SetColor(position, pixel.Mean())
	buffer.SetAlbedo(position, pixel.AlbedoMean())
	buffer.SetNormal(position, pixel.NormalMean())
	w.completedPixel.Add(1)
	return nil
}

// sampleOnce evaluates one camera ray for the pixel and accumulates it
func (w *TileWorker) sampleOnce(position core.Int2, offset core.Vec2, index int, pixel *Pixel) {
	w.distribution.BeginSample(index % w.distribution.SampleCount())

	ray := w.spawnRay(position, offset)
	color := w.context.Evaluator.Evaluate(w.context.Scene, ray, w.distribution, w.allocator)
	pixel.Accumulate(color)
	w.completedSample.Add(1)
}

// spawnRay maps a pixel position plus sub-pixel offset to a camera ray
func (w *TileWorker) spawnRay(position core.Int2, offset core.Vec2) core.Ray {
	buffer := w.context.Buffer.Size()
	uv := core.NewVec2(
		(float64(position.X)+offset.X)/float64(buffer.X)-0.5,
		(float64(position.Y)+offset.Y)/float64(buffer.Y)-0.5,
	)
	uv.Y /= w.context.Buffer.Aspect()
	return w.context.Camera.SpawnRay(uv)
}

// probeAuxiliary fills the pixel's albedo and normal sums with one probe
// through the pixel center
func (w *TileWorker) probeAuxiliary(position core.Int2, pixel *Pixel) {
	if w.context.AlbedoEvaluator == nil {
		return
	}

	ray := w.spawnRay(position, core.NewVec2(0.5, 0.5))

	w.allocator.Restart()
	albedo := w.context.AlbedoEvaluator.Evaluate(w.context.Scene, ray, w.distribution, w.allocator)

	var normal core.Vec3
	query := aggregator.NewTraceQuery(ray)
	if w.context.Scene.Trace(&query) {
		touch := w.context.Scene.Interact(&query)
		normal = touch.Normal
	}

	pixel.AccumulateAux(albedo, normal)
}

// checkSchedule runs the cooperative suspension hook when one is installed
func (w *TileWorker) checkSchedule() error {
	if w.aborted.Load() {
		return ErrCanceled
	}
	if w.CheckSchedule != nil {
		return w.CheckSchedule()
	}
	return nil
}
