package renderer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/evaluator"
	"github.com/echo-render/echo/pkg/log"
	"github.com/echo-render/echo/pkg/sampling"
	"github.com/echo-render/echo/pkg/scene"
)

var logger = log.New("renderer")

// OperationState tracks a device's render lifecycle
type OperationState int32

const (
	// StateUnassigned means no operation is bound
	StateUnassigned OperationState = iota
	// StateRunning means tiles are rendering
	StateRunning
	// StatePausing means a pause was requested and workers are draining
	// to their next suspension point
	StatePausing
	// StatePaused means all workers are parked
	StatePaused
	// StateAborting means the operation is unwinding
	StateAborting
)

// Device schedules a render operation across a pool of tile workers, one
// dedicated goroutine each. State transitions are serialized through the
// device lock and announced with a broadcast.
type Device struct {
	workerCount int

	mu    sync.Mutex
	cond  *sync.Cond
	state OperationState
}

// NewDevice creates a device with the given worker count; zero or negative
// selects the hardware concurrency
func NewDevice(workerCount int) *Device {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	device := &Device{workerCount: workerCount}
	device.cond = sync.NewCond(&device.mu)
	return device
}

// State returns the current operation state
func (d *Device) State() OperationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// RenderScene prepares an authoring scene with the profile's accelerator
// selection, binds the result to the context, and renders it
func (d *Device) RenderScene(s *scene.Scene, context *Context) error {
	if err := context.Profile.Validate(); err != nil {
		return err
	}

	preparer := &scene.Preparer{Profile: context.Profile.Aggregator}
	prepared, err := preparer.Prepare(s)
	if err != nil {
		return err
	}

	context.Scene = prepared
	return d.Render(context)
}

// Render runs one operation to completion: the buffer is tiled, tiles are
// handed to idle workers as they finish, and the call returns when every
// tile is done or the operation is aborted. Configuration errors surface
// before any tile is dispatched.
func (d *Device) Render(context *Context) error {
	if err := context.Profile.Validate(); err != nil {
		return err
	}
	d.applyBounceLimit(context)

	d.mu.Lock()
	if d.state != StateUnassigned {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.state = StateRunning
	d.mu.Unlock()

	tiles := tileOffsets(context.Buffer.Size(), context.Profile.TileSize)
	logger.Infof("rendering %d tiles on %d workers", len(tiles), d.workerCount)

	var nextTile atomic.Int64
	var remaining sync.WaitGroup
	remaining.Add(len(tiles))

	workerCount := min(d.workerCount, len(tiles))
	workers := make([]*TileWorker, workerCount)

	base := sampling.NewStratifiedDistribution(context.Profile.PixelSample, context.Profile.Jitter, 0)
	tick := time.Now().UnixNano()

	for i := range workers {
		seed := workerSeed(i, tick)
		worker := NewTileWorker(context, base.Replicate(seed), seed)
		worker.CheckSchedule = d.checkSchedule

		worker.OnWorkCompleted = func(w *TileWorker) {
			remaining.Done()
			d.assignNext(w, tiles, &nextTile)
		}
		workers[i] = worker
	}

	// Seed every worker with its first tile
	for _, worker := range workers {
		d.assignNext(worker, tiles, &nextTile)
	}

	remaining.Wait()

	for _, worker := range workers {
		worker.Abort()
	}

	d.mu.Lock()
	aborted := d.state == StateAborting
	d.state = StateUnassigned
	d.cond.Broadcast()
	d.mu.Unlock()

	if aborted {
		return ErrCanceled
	}
	return nil
}

// applyBounceLimit pushes the profile's hard depth cap into the operation's
// evaluators; a zero limit keeps each evaluator's own default
func (d *Device) applyBounceLimit(context *Context) {
	if context.Profile.BounceLimit <= 0 {
		return
	}
	if limited, ok := context.Evaluator.(evaluator.DepthLimited); ok {
		limited.SetBounceLimit(context.Profile.BounceLimit)
	}
	if limited, ok := context.AlbedoEvaluator.(evaluator.DepthLimited); ok {
		limited.SetBounceLimit(context.Profile.BounceLimit)
	}
}

// assignNext hands the worker the next unclaimed tile, if any
func (d *Device) assignNext(worker *TileWorker, tiles []core.Int2, nextTile *atomic.Int64) {
	index := int(nextTile.Add(1)) - 1
	if index >= len(tiles) {
		return
	}
	if err := worker.Reset(tiles[index]); err != nil {
		logger.Errorf("tile reset failed: %v", err)
		return
	}
	if err := worker.Dispatch(); err != nil {
		logger.Errorf("tile dispatch failed: %v", err)
	}
}

// Pause requests a cooperative pause; workers park at their next
// suspension point
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRunning {
		return ErrInvalidState
	}
	d.state = StatePausing
	return nil
}

// Resume releases paused workers
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StatePausing && d.state != StatePaused {
		return ErrInvalidState
	}
	d.state = StateRunning
	d.cond.Broadcast()
	return nil
}

// Abort cancels the running operation; Render returns ErrCanceled once the
// workers unwind
func (d *Device) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateRunning, StatePausing, StatePaused:
		d.state = StateAborting
		d.cond.Broadcast()
		return nil
	default:
		return ErrInvalidState
	}
}

// checkSchedule is the suspension point every worker calls between pixel
// samples
func (d *Device) checkSchedule() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.state == StatePausing || d.state == StatePaused {
		d.state = StatePaused
		d.cond.Broadcast()
		d.cond.Wait()
	}
	if d.state == StateAborting {
		return ErrCanceled
	}
	return nil
}

// tileOffsets lists the tile origins covering a buffer, row-major
func tileOffsets(size core.Int2, tileSize int) []core.Int2 {
	var offsets []core.Int2
	for y := 0; y < size.Y; y += tileSize {
		for x := 0; x < size.X; x += tileSize {
			offsets = append(offsets, core.NewInt2(x, y))
		}
	}
	return offsets
}

// workerSeed mixes a worker index with the start tick so no two workers,
// and no two operations, share sample streams
func workerSeed(index int, tick int64) int64 {
	z := uint64(tick) ^ uint64(index)<<48
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	return int64(z ^ (z >> 27))
}
