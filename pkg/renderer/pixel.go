package renderer

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// deviationFloor keeps dark pixels from reporting enormous relative noise
const deviationFloor = 0.3

// Pixel accumulates the samples of one pixel with Welford's online
// mean-and-variance update in double precision, plus running sums for the
// auxiliary albedo and normal layers. Non-finite samples are rejected and
// counted instead of accumulated.
type Pixel struct {
	mean core.Vec3
	m2   core.Vec3 // Sum of squared deviations from the running mean

	albedo core.Vec3
	normal core.Vec3

	accumulated int
	rejected    int
	auxCount    int
}

// Accumulate folds one radiance sample into the estimate, returning false
// when the sample is rejected for being non-finite
func (p *Pixel) Accumulate(sample core.Vec3) bool {
	if !sample.IsFinite() {
		p.rejected++
		return false
	}

	p.accumulated++
	count := float64(p.accumulated)

	delta := sample.Subtract(p.mean)
	p.mean = p.mean.Add(delta.Divide(count))
	p.m2 = p.m2.Add(delta.MultiplyVec(sample.Subtract(p.mean)))
	return true
}

// AccumulateAux folds one albedo and normal probe into the auxiliary sums
func (p *Pixel) AccumulateAux(albedo, normal core.Vec3) {
	p.albedo = p.albedo.Add(albedo)
	p.normal = p.normal.Add(normal)
	p.auxCount++
}

// Count returns the number of accumulated samples
func (p *Pixel) Count() int {
	return p.accumulated
}

// Rejected returns the number of rejected non-finite samples
func (p *Pixel) Rejected() int {
	return p.rejected
}

// Mean returns the current radiance estimate
func (p *Pixel) Mean() core.Vec3 {
	return p.mean
}

// Variance returns the per-channel population variances averaged over the
// three channels
func (p *Pixel) Variance() float64 {
	if p.accumulated == 0 {
		return 0
	}
	return p.m2.Average() / float64(p.accumulated)
}

// Deviation returns the normalized standard deviation driving adaptive
// sampling: the channel-average stddev relative to the floored mean
func (p *Pixel) Deviation() float64 {
	if p.accumulated == 0 {
		return 0
	}
	return math.Sqrt(p.Variance()) / math.Max(p.mean.Average(), deviationFloor)
}

// AlbedoMean returns the averaged auxiliary albedo
func (p *Pixel) AlbedoMean() core.Vec3 {
	if p.auxCount == 0 {
		return core.Vec3{}
	}
	return p.albedo.Divide(float64(p.auxCount))
}

// NormalMean returns the averaged auxiliary normal, normalized
func (p *Pixel) NormalMean() core.Vec3 {
	return p.normal.Normalize()
}
