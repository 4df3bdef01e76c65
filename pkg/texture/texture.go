package texture

import (
	"github.com/echo-render/echo/pkg/core"
)

// Grid is a dense 2D texture addressed by uv in [0, 1)² with wrap-around
type Grid struct {
	width  int
	height int
	pixels []core.Vec3
}

// NewGrid creates a black texture of the given size
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Size returns the texture dimensions
func (g *Grid) Size() (int, int) {
	return g.width, g.height
}

// Set writes one texel
func (g *Grid) Set(x, y int, color core.Vec3) {
	g.pixels[y*g.width+x] = color
}

// At reads one texel with wrapped coordinates
func (g *Grid) At(x, y int) core.Vec3 {
	x = wrap(x, g.width)
	y = wrap(y, g.height)
	return g.pixels[y*g.width+x]
}

// Evaluate samples the texture bilinearly at uv, wrapping out-of-range
// coordinates
func (g *Grid) Evaluate(uv core.Vec2) core.Vec3 {
	// Texel centers sit at (i+½)/size
	x := uv.X*float64(g.width) - 0.5
	y := uv.Y*float64(g.height) - 0.5

	x0 := floorInt(x)
	y0 := floorInt(y)
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := g.At(x0, y0)
	c10 := g.At(x0+1, y0)
	c01 := g.At(x0, y0+1)
	c11 := g.At(x0+1, y0+1)

	top := c00.Multiply(1 - fx).Add(c10.Multiply(fx))
	bottom := c01.Multiply(1 - fx).Add(c11.Multiply(fx))
	return top.Multiply(1 - fy).Add(bottom.Multiply(fy))
}

func wrap(i, size int) int {
	i %= size
	if i < 0 {
		i += size
	}
	return i
}

func floorInt(x float64) int {
	i := int(x)
	if x < 0 && float64(i) != x {
		i--
	}
	return i
}
