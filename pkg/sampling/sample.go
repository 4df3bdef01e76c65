package sampling

// Sample1D is a canonical random value in [0, 1)
type Sample1D float64

// Range maps the sample to an integer in [0, limit)
func (s Sample1D) Range(limit int) int {
	index := int(float64(s) * float64(limit))
	if index >= limit {
		index = limit - 1
	}
	return index
}

// Sample2D is a pair of canonical random values in [0, 1)²
type Sample2D struct {
	U, V Sample1D
}

// NewSample2D creates a sample pair
func NewSample2D(u, v float64) Sample2D {
	return Sample2D{U: Sample1D(u), V: Sample1D(v)}
}
