package renderer

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// Camera is a pinhole perspective camera mapping normalized pixel offsets
// to world rays. The uv domain is [-½, ½] horizontally with the vertical
// extent already divided by the buffer aspect.
type Camera struct {
	Position core.Vec3

	forward core.Vec3
	right   core.Vec3
	up      core.Vec3

	// Distance from the pinhole to the uv plane for the configured field
	// of view
	planeDistance float64
}

// NewCamera creates a camera at position looking at target with the given
// horizontal field of view in degrees
func NewCamera(position, target core.Vec3, fieldOfView float64) *Camera {
	forward := target.Subtract(position).Normalize()

	worldUp := core.NewVec3(0, 1, 0)
	if math.Abs(forward.Y) > 0.999 {
		worldUp = core.NewVec3(0, 0, 1)
	}
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	return &Camera{
		Position:      position,
		forward:       forward,
		right:         right,
		up:            up,
		planeDistance: 0.5 / math.Tan(fieldOfView/2*math.Pi/180),
	}
}

// SpawnRay maps a normalized pixel offset to a world ray
func (c *Camera) SpawnRay(uv core.Vec2) core.Ray {
	direction := c.forward.Multiply(c.planeDistance).
		Add(c.right.Multiply(uv.X)).
		Add(c.up.Multiply(uv.Y))
	return core.Ray{Origin: c.Position, Direction: direction.Normalize()}
}
