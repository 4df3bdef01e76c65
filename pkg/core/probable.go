package core

// Probable pairs a sampled value with the probability density it was drawn
// with. A zero pdf marks the pair as degenerate and the value unusable.
type Probable[T any] struct {
	Content T
	PDF     float64
}

// NewProbable creates a value-pdf pair
func NewProbable[T any](content T, pdf float64) Probable[T] {
	return Probable[T]{Content: content, PDF: pdf}
}

// Impossible returns the degenerate pair with a zero pdf
func Impossible[T any]() Probable[T] {
	return Probable[T]{}
}

// IsImpossible returns true when the pdf is zero
func (p Probable[T]) IsImpossible() bool {
	return p.PDF == 0
}

// Summation accumulates float64 values with Kahan compensation so long
// running sums keep full precision
type Summation struct {
	sum          float64
	compensation float64
}

// Add accumulates one value
func (s *Summation) Add(value float64) {
	corrected := value - s.compensation
	next := s.sum + corrected
	s.compensation = (next - s.sum) - corrected
	s.sum = next
}

// Sum returns the accumulated total
func (s *Summation) Sum() float64 {
	return s.sum
}

// Vec3Summation accumulates Vec3 values with per-channel compensation
type Vec3Summation struct {
	X, Y, Z Summation
}

// Add accumulates one vector
func (s *Vec3Summation) Add(value Vec3) {
	s.X.Add(value.X)
	s.Y.Add(value.Y)
	s.Z.Add(value.Z)
}

// Sum returns the accumulated total
func (s *Vec3Summation) Sum() Vec3 {
	return Vec3{X: s.X.Sum(), Y: s.Y.Sum(), Z: s.Z.Sum()}
}
