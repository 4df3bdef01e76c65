package sampling

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// goldenRatio is the fractional rotation between consecutive spiral points
const goldenRatio = 1.61803398874989484820

// GoldenSpiral returns count sub-pixel offsets distributed on a golden-ratio
// spiral over the unit square centered at (0.5, 0.5)
func GoldenSpiral(count int) []core.Vec2 {
	offsets := make([]core.Vec2, count)
	for i := range offsets {
		theta := 2 * math.Pi * goldenRatio * float64(i)
		radius := math.Sqrt((float64(i)+0.5)/float64(count)) * math.Sqrt2 * squareDistance(theta) / 2

		offsets[i] = core.NewVec2(
			radius*math.Cos(theta)+0.5,
			radius*math.Sin(theta)+0.5,
		)
	}
	return offsets
}

// squareDistance is the inverse square-to-disk correction: the distance
// from the center of an axis-aligned square with half-diagonal 1 to its edge
// along theta (1/√2 along an axis, 1 along a diagonal)
func squareDistance(theta float64) float64 {
	rotated := theta + math.Pi/4
	return 1 / (math.Abs(math.Cos(rotated)) + math.Abs(math.Sin(rotated)))
}
