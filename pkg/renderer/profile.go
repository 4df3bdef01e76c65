package renderer

import (
	"errors"
	"fmt"

	"github.com/echo-render/echo/pkg/aggregator"
)

// ErrConfiguration marks an invalid render profile
var ErrConfiguration = errors.New("invalid render configuration")

// ErrInvalidState marks a lifecycle violation: a worker reset while
// working, dispatched twice, or a device operation in a disallowed state
var ErrInvalidState = errors.New("invalid operation state")

// Profile configures one render operation
type Profile struct {
	// TileSize is the pixel edge length of a tile; powers of two keep
	// tiles cache friendly
	TileSize int

	// PixelSample is the deterministic base sample count per pixel
	PixelSample int

	// AdaptiveSample is the maximum extra samples per pixel, scaled by
	// the pixel's normalized deviation
	AdaptiveSample int

	// BounceLimit is the hard path depth cap, applied to the operation's
	// evaluators when a render starts; zero keeps each evaluator's default
	BounceLimit int

	// Jitter disables to produce canonical stratum-center samples for
	// reproducible golden renders
	Jitter bool

	// Aggregator selects the accelerator built when Device.RenderScene
	// prepares the authoring scene
	Aggregator aggregator.Profile
}

// NewProfile returns a profile with workable defaults
func NewProfile() Profile {
	return Profile{
		TileSize:       32,
		PixelSample:    16,
		AdaptiveSample: 64,
		Jitter:         true,
	}
}

// Validate reports profile errors before any tile is dispatched
func (p Profile) Validate() error {
	if p.TileSize <= 0 {
		return fmt.Errorf("%w: tile size %d is not positive", ErrConfiguration, p.TileSize)
	}
	if p.PixelSample <= 0 {
		return fmt.Errorf("%w: pixel sample %d is not positive", ErrConfiguration, p.PixelSample)
	}
	if p.AdaptiveSample < 0 {
		return fmt.Errorf("%w: adaptive sample %d is negative", ErrConfiguration, p.AdaptiveSample)
	}
	if p.BounceLimit < 0 {
		return fmt.Errorf("%w: bounce limit %d is negative", ErrConfiguration, p.BounceLimit)
	}
	return p.Aggregator.Validate()
}
