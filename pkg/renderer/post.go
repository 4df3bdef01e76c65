package renderer

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// Number of histogram bins auto exposure builds in log-luminance space
const exposureBins = 128

// AutoExposure scales a rendered layer so its trimmed mean luminance lands
// on a target. Luminances are histogrammed in log space with a
// center-weighted sigmoid so the frame's middle dominates the metering,
// and the configured percentile tails are discarded before averaging.
type AutoExposure struct {
	// LowerPercentile and UpperPercentile trim the histogram tails, in
	// [0, 1]
	LowerPercentile float64
	UpperPercentile float64

	// TargetLuminance is the luminance the trimmed mean is mapped to
	TargetLuminance float64
}

// NewAutoExposure returns an exposure pass with common metering defaults
func NewAutoExposure() AutoExposure {
	return AutoExposure{
		LowerPercentile: 0.05,
		UpperPercentile: 0.95,
		TargetLuminance: 0.18,
	}
}

// Apply meters the buffer and multiplies its color layer in place
func (a AutoExposure) Apply(buffer *RenderBuffer) {
	size := buffer.Size()

	// Find the luminance range
	minLog := math.Inf(1)
	maxLog := math.Inf(-1)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			luminance := buffer.GetColor(core.NewInt2(x, y)).Luminance()
			if luminance <= 0 {
				continue
			}
			logL := math.Log2(luminance)
			minLog = math.Min(minLog, logL)
			maxLog = math.Max(maxLog, logL)
		}
	}
	if minLog >= maxLog {
		return
	}

	// Histogram in log space, weighted toward the frame center
	var histogram [exposureBins]float64
	scale := float64(exposureBins-1) / (maxLog - minLog)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			position := core.NewInt2(x, y)
			luminance := buffer.GetColor(position).Luminance()
			if luminance <= 0 {
				continue
			}
			bin := int((math.Log2(luminance) - minLog) * scale)
			histogram[bin] += centerWeight(position, size)
		}
	}

	total := 0.0
	for _, weight := range histogram {
		total += weight
	}
	if total == 0 {
		return
	}

	// Trimmed mean over the surviving bins
	lower := total * a.LowerPercentile
	upper := total * a.UpperPercentile

	cumulative := 0.0
	weightSum := 0.0
	logSum := 0.0
	for bin, weight := range histogram {
		previous := cumulative
		cumulative += weight

		// Clip the portion of this bin outside the percentile window
		kept := math.Min(cumulative, upper) - math.Max(previous, lower)
		if kept <= 0 {
			continue
		}

		binLog := minLog + float64(bin)/scale
		weightSum += kept
		logSum += binLog * kept
	}
	if weightSum == 0 {
		return
	}

	meanLuminance := math.Exp2(logSum / weightSum)
	factor := a.TargetLuminance / meanLuminance

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			position := core.NewInt2(x, y)
			buffer.SetColor(position, buffer.GetColor(position).Multiply(factor))
		}
	}
}

// centerWeight is the sigmoid falloff from the frame center to its edges
func centerWeight(position, size core.Int2) float64 {
	u := (float64(position.X)+0.5)/float64(size.X) - 0.5
	v := (float64(position.Y)+0.5)/float64(size.Y) - 0.5
	distance := math.Sqrt(u*u+v*v) * 2

	return 1 / (1 + math.Exp(8*(distance-0.5)))
}

// Vignette darkens pixels toward the frame corners with a small noise term
// breaking up the gradient
type Vignette struct {
	// Strength scales the quadratic falloff
	Strength float64

	// Jitter is the amplitude of the per-pixel noise
	Jitter float64
}

// Apply multiplies the color layer in place. The noise is a hash of the
// pixel position, keeping the pass deterministic.
func (v Vignette) Apply(buffer *RenderBuffer) {
	size := buffer.Size()

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			position := core.NewInt2(x, y)
			u := (float64(x)+0.5)/float64(size.X) - 0.5
			w := (float64(y)+0.5)/float64(size.Y) - 0.5

			noise := v.Jitter * positionNoise(position)
			factor := 1 + noise - v.Strength*(u*u+w*w)

			buffer.SetColor(position, buffer.GetColor(position).Multiply(factor))
		}
	}
}

// positionNoise hashes a position into [0, 1)
func positionNoise(position core.Int2) float64 {
	z := uint64(position.X)<<32 ^ uint64(position.Y)
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return float64(z>>11) / float64(1<<53)
}
