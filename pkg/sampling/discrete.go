package sampling

// DiscreteDistribution1D samples an index (or a continuous coordinate)
// proportionally to a fixed array of non-negative weights
type DiscreteDistribution1D struct {
	cdf      []float64 // Cumulative distribution, cdf[len-1] == 1 when sum > 0
	pdf      []float64 // Per-entry probability
	sum      float64   // Total weight before normalization
	integral float64   // sum / count, the mean weight
}

// NewDiscreteDistribution1D builds a distribution over the given weights.
// An all-zero weight array degenerates to the uniform distribution.
func NewDiscreteDistribution1D(weights []float64) *DiscreteDistribution1D {
	count := len(weights)
	d := &DiscreteDistribution1D{
		cdf: make([]float64, count),
		pdf: make([]float64, count),
	}
	if count == 0 {
		return d
	}

	running := 0.0
	for _, weight := range weights {
		running += weight
	}
	d.sum = running
	d.integral = running / float64(count)

	if running <= 0 {
		// Degenerate input, fall back to uniform
		uniform := 1.0 / float64(count)
		cumulative := 0.0
		for i := range weights {
			d.pdf[i] = uniform
			cumulative += uniform
			d.cdf[i] = cumulative
		}
		d.cdf[count-1] = 1
		return d
	}

	cumulative := 0.0
	for i, weight := range weights {
		d.pdf[i] = weight / running
		cumulative += d.pdf[i]
		d.cdf[i] = cumulative
	}
	d.cdf[count-1] = 1

	return d
}

// Count returns the number of weights
func (d *DiscreteDistribution1D) Count() int {
	return len(d.cdf)
}

// Sum returns the total weight the distribution was built with
func (d *DiscreteDistribution1D) Sum() float64 {
	return d.sum
}

// Integral returns the mean weight, the normalization constant for the
// continuous density
func (d *DiscreteDistribution1D) Integral() float64 {
	return d.integral
}

// Pick selects an index proportionally to its weight and returns the
// discrete probability of the selection
func (d *DiscreteDistribution1D) Pick(sample Sample1D) (int, float64) {
	index := d.findIndex(float64(sample))
	return index, d.pdf[index]
}

// Sample maps the sample to a continuous coordinate in [0, 1) distributed
// proportionally to the weights, with the density relative to uniform
func (d *DiscreteDistribution1D) Sample(sample Sample1D) (float64, float64) {
	index := d.findIndex(float64(sample))

	lower := 0.0
	if index > 0 {
		lower = d.cdf[index-1]
	}
	width := d.cdf[index] - lower

	// Remap the sample to the cell interior
	offset := 0.5
	if width > 0 {
		offset = (float64(sample) - lower) / width
	}

	count := float64(len(d.cdf))
	x := (float64(index) + offset) / count
	return x, d.pdf[index] * count
}

// ProbabilityDensity returns the continuous density at coordinate x in [0, 1)
func (d *DiscreteDistribution1D) ProbabilityDensity(x float64) float64 {
	count := len(d.cdf)
	index := int(x * float64(count))
	if index < 0 {
		index = 0
	}
	if index >= count {
		index = count - 1
	}
	return d.pdf[index] * float64(count)
}

// findIndex locates the first cdf entry not below u by binary search
func (d *DiscreteDistribution1D) findIndex(u float64) int {
	lo, hi := 0, len(d.cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if d.cdf[mid] < u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// DiscreteDistribution2D samples a 2D coordinate proportionally to a grid of
// weights, as a marginal distribution over rows and one conditional
// distribution per row
type DiscreteDistribution2D struct {
	conditional []*DiscreteDistribution1D // One per row
	marginal    *DiscreteDistribution1D   // Over row sums
}

// NewDiscreteDistribution2D builds a distribution over a row-major weight
// grid of the given width; len(weights) must be width * height
func NewDiscreteDistribution2D(weights []float64, width int) *DiscreteDistribution2D {
	height := len(weights) / width

	conditional := make([]*DiscreteDistribution1D, height)
	rowSums := make([]float64, height)
	for y := 0; y < height; y++ {
		row := weights[y*width : (y+1)*width]
		conditional[y] = NewDiscreteDistribution1D(row)
		rowSums[y] = conditional[y].Sum()
	}

	return &DiscreteDistribution2D{
		conditional: conditional,
		marginal:    NewDiscreteDistribution1D(rowSums),
	}
}

// Size returns the grid dimensions (width, height)
func (d *DiscreteDistribution2D) Size() (int, int) {
	return d.conditional[0].Count(), len(d.conditional)
}

// Sum returns the total weight of the grid
func (d *DiscreteDistribution2D) Sum() float64 {
	return d.marginal.Sum()
}

// Sample draws a continuous (u, v) coordinate in [0, 1)² with density
// proportional to the weights, relative to the uniform unit square
func (d *DiscreteDistribution2D) Sample(sample Sample2D) (u, v, pdf float64) {
	v, pdfV := d.marginal.Sample(sample.V)

	row := int(v * float64(len(d.conditional)))
	if row >= len(d.conditional) {
		row = len(d.conditional) - 1
	}
	u, pdfU := d.conditional[row].Sample(sample.U)

	return u, v, pdfU * pdfV
}

// ProbabilityDensity returns the density at (u, v) relative to the uniform
// unit square
func (d *DiscreteDistribution2D) ProbabilityDensity(u, v float64) float64 {
	height := len(d.conditional)
	row := int(v * float64(height))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return d.marginal.ProbabilityDensity(v) * d.conditional[row].ProbabilityDensity(u)
}
