package sampling

import (
	"math"
	"math/rand"

	"github.com/echo-render/echo/pkg/core"
)

// Dimensions with precomputed stratified samples per pixel. Requests past
// this count fall back to plain pseudorandom values.
const precomputedDimensions = 24

// ContinuousDistribution yields the random sample stream an evaluator
// consumes while rendering one pixel. Implementations are not safe for
// concurrent use; each worker owns a Replicate of the original.
type ContinuousDistribution interface {
	// BeginPixel reseeds the generator for a new pixel position and fills
	// the precomputed sample arrays
	BeginPixel(position core.Int2)

	// BeginSample positions the stream at pixel sample index
	BeginSample(index int)

	// Next1D returns the next 1D sample of the current pixel sample
	Next1D() Sample1D

	// Next2D returns the next 2D sample of the current pixel sample
	Next2D() Sample2D

	// SampleCount returns the number of pixel samples per pixel
	SampleCount() int

	// Replicate clones the configuration for a new worker, independently
	// seeded
	Replicate(seed int64) ContinuousDistribution
}

// StratifiedDistribution generates stratified sample streams per pixel:
// shuffled 1D strata, and 2D grid strata that fall back to a Latin
// hypercube when the sample count has no workable grid. Jitter is optional.
type StratifiedDistribution struct {
	sampleCount int
	sizeX       int // 2D stratum grid width, sizeX * sizeY == sampleCount
	sizeY       int
	jitter      bool
	epoch       int64

	random *rand.Rand

	// singles1D[d][i] holds dimension d, pixel sample i
	singles1D [precomputedDimensions][]Sample1D
	singles2D [precomputedDimensions][]Sample2D

	sampleIndex int
	next1D      int
	next2D      int
}

// NewStratifiedDistribution creates a distribution yielding sampleCount
// pixel samples. When jitter is false every stratum returns its center,
// which makes renders reproducible for golden tests.
func NewStratifiedDistribution(sampleCount int, jitter bool, seed int64) *StratifiedDistribution {
	if sampleCount < 1 {
		sampleCount = 1
	}
	sizeX, sizeY := factorGrid(sampleCount)

	d := &StratifiedDistribution{
		sampleCount: sizeX * sizeY,
		sizeX:       sizeX,
		sizeY:       sizeY,
		jitter:      jitter,
		epoch:       seed,
		random:      rand.New(rand.NewSource(seed)),
	}
	for i := range d.singles1D {
		d.singles1D[i] = make([]Sample1D, d.sampleCount)
		d.singles2D[i] = make([]Sample2D, d.sampleCount)
	}
	return d
}

// factorGrid splits count into the most-square integer grid
func factorGrid(count int) (int, int) {
	sizeX := int(math.Sqrt(float64(count)))
	for count%sizeX != 0 {
		sizeX--
	}
	return sizeX, count / sizeX
}

// SampleCount returns the number of pixel samples per pixel
func (d *StratifiedDistribution) SampleCount() int {
	return d.sampleCount
}

// BeginPixel reseeds from the pixel position and the worker's epoch, then
// regenerates all precomputed sample arrays. The same position and epoch
// always produce the same stream, which keeps renders reproducible.
func (d *StratifiedDistribution) BeginPixel(position core.Int2) {
	seed := pixelSeed(position, d.epoch)
	d.random = rand.New(rand.NewSource(seed))

	for dim := 0; dim < precomputedDimensions; dim++ {
		d.fillStratified1D(d.singles1D[dim])

		// A degenerate one-row grid stratifies only one axis; the Latin
		// hypercube pattern keeps both axes stratified in that case
		if d.sizeX == 1 || d.sizeY == 1 {
			d.fillLatinHypercube(d.singles2D[dim])
		} else {
			d.fillStratifiedGrid(d.singles2D[dim])
		}
	}
}

// BeginSample positions the stream at the given pixel sample index
func (d *StratifiedDistribution) BeginSample(index int) {
	d.sampleIndex = index
	d.next1D = 0
	d.next2D = 0
}

// Next1D returns the next 1D sample of the current pixel sample
func (d *StratifiedDistribution) Next1D() Sample1D {
	if d.next1D < precomputedDimensions {
		sample := d.singles1D[d.next1D][d.sampleIndex]
		d.next1D++
		return sample
	}
	return Sample1D(d.random.Float64())
}

// Next2D returns the next 2D sample of the current pixel sample
func (d *StratifiedDistribution) Next2D() Sample2D {
	if d.next2D < precomputedDimensions {
		sample := d.singles2D[d.next2D][d.sampleIndex]
		d.next2D++
		return sample
	}
	return NewSample2D(d.random.Float64(), d.random.Float64())
}

// Replicate clones the configuration for a new worker
func (d *StratifiedDistribution) Replicate(seed int64) ContinuousDistribution {
	return NewStratifiedDistribution(d.sampleCount, d.jitter, seed)
}

// fillStratified1D fills target with one jittered sample per stratum of
// [0, 1), shuffled
func (d *StratifiedDistribution) fillStratified1D(target []Sample1D) {
	count := len(target)
	scale := 1.0 / float64(count)
	for i := range target {
		target[i] = Sample1D((float64(i) + d.jitterValue()) * scale)
	}
	d.random.Shuffle(count, func(i, j int) {
		target[i], target[j] = target[j], target[i]
	})
}

// fillLatinHypercube fills target with a Latin hypercube pattern: each axis
// is an independently shuffled stratification, paired index-wise
func (d *StratifiedDistribution) fillLatinHypercube(target []Sample2D) {
	count := len(target)
	scale := 1.0 / float64(count)

	permU := d.random.Perm(count)
	permV := d.random.Perm(count)
	for i := range target {
		u := (float64(permU[i]) + d.jitterValue()) * scale
		v := (float64(permV[i]) + d.jitterValue()) * scale
		target[i] = NewSample2D(u, v)
	}
}

// fillStratifiedGrid fills target with one jittered sample per cell of the
// sizeX by sizeY stratum grid, shuffled
func (d *StratifiedDistribution) fillStratifiedGrid(target []Sample2D) {
	scaleX := 1.0 / float64(d.sizeX)
	scaleY := 1.0 / float64(d.sizeY)
	for y := 0; y < d.sizeY; y++ {
		for x := 0; x < d.sizeX; x++ {
			u := (float64(x) + d.jitterValue()) * scaleX
			v := (float64(y) + d.jitterValue()) * scaleY
			target[y*d.sizeX+x] = NewSample2D(u, v)
		}
	}
	d.random.Shuffle(len(target), func(i, j int) {
		target[i], target[j] = target[j], target[i]
	})
}

// jitterValue returns the in-stratum offset: random when jittering, the
// center otherwise
func (d *StratifiedDistribution) jitterValue() float64 {
	if d.jitter {
		return d.random.Float64()
	}
	return 0.5
}

// pixelSeed hashes a pixel position and epoch into a PRNG seed using the
// splitmix64 finalizer
func pixelSeed(position core.Int2, epoch int64) int64 {
	z := uint64(position.X)<<40 ^ uint64(position.Y)<<16 ^ uint64(epoch)
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
