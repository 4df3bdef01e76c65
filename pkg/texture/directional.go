package texture

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// Directional wraps an environment texture in cylindrical parameterization
// with a precomputed 2D discrete distribution, so environment directions
// can be importance sampled proportionally to radiance
type Directional struct {
	texture      *Grid
	distribution *sampling.DiscreteDistribution2D
	average      core.Vec3
}

// NewDirectional builds the distribution for an environment texture. Each
// row is weighted by sin(π(y+½)/H), the Jacobian of the cylindrical
// mapping, so polar texels do not draw more samples than the solid angle
// they cover.
func NewDirectional(grid *Grid) *Directional {
	width, height := grid.Size()

	weights := make([]float64, width*height)
	var sum core.Vec3Summation
	for y := 0; y < height; y++ {
		jacobian := math.Sin(math.Pi * (float64(y) + 0.5) / float64(height))
		for x := 0; x < width; x++ {
			color := grid.At(x, y)
			weights[y*width+x] = color.Luminance() * jacobian
			sum.Add(color.Multiply(jacobian))
		}
	}

	average := sum.Sum().Multiply(2 * math.Pi * math.Pi / float64(width*height))

	return &Directional{
		texture:      grid,
		distribution: sampling.NewDiscreteDistribution2D(weights, width),
		average:      average,
	}
}

// Average returns the environment radiance integrated over the sphere
func (d *Directional) Average() core.Vec3 {
	return d.average
}

// Evaluate returns the environment radiance arriving from a world direction
func (d *Directional) Evaluate(direction core.Vec3) core.Vec3 {
	u, v := invertDirection(direction)
	return d.texture.Evaluate(core.NewVec2(u, v))
}

// Sample draws a direction proportionally to radiance and returns its
// density over solid angle. A degenerate draw at the poles returns a zero
// pair.
func (d *Directional) Sample(sample sampling.Sample2D) core.Probable[core.Vec3] {
	u, v, pdfUV := d.distribution.Sample(sample)

	theta := 2 * math.Pi * u
	phi := math.Pi * v
	sinPhi := math.Sin(phi)
	if sinPhi <= 0 {
		return core.Impossible[core.Vec3]()
	}

	direction := core.NewVec3(
		-sinPhi*math.Sin(theta),
		-math.Cos(phi),
		-sinPhi*math.Cos(theta),
	)

	pdf := pdfUV / (2 * math.Pi * math.Pi) / sinPhi
	return core.NewProbable(direction, pdf)
}

// ProbabilityDensity returns the density Sample would draw direction with
func (d *Directional) ProbabilityDensity(direction core.Vec3) float64 {
	u, v := invertDirection(direction)

	sinPhi := math.Sin(math.Pi * v)
	if sinPhi <= 0 {
		return 0
	}

	return d.distribution.ProbabilityDensity(u, v) / (2 * math.Pi * math.Pi) / sinPhi
}

// invertDirection maps a world direction back to cylindrical uv
func invertDirection(direction core.Vec3) (float64, float64) {
	direction = direction.Normalize()

	phi := math.Acos(max(-1, min(1, -direction.Y)))
	theta := math.Atan2(-direction.X, -direction.Z)
	if theta < 0 {
		theta += 2 * math.Pi
	}

	return theta / (2 * math.Pi), phi / math.Pi
}
