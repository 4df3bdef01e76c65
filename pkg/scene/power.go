package scene

import (
	"github.com/echo-render/echo/pkg/geometry"
	"github.com/echo-render/echo/pkg/sampling"
)

// PowerSegment is one contiguous span of weighted emitter tokens feeding a
// power distribution: geometry tokens weighted by area times radiant power,
// or instance tokens weighted by their cached pack power
type PowerSegment struct {
	Tokens  []geometry.EntityToken
	Weights []float64
}

// PowerDistribution selects emitters proportionally to radiant power. The
// segments partition the token array, so a pack can feed its own emissive
// geometry and its nested emissive instances as separate spans.
type PowerDistribution struct {
	distribution *sampling.DiscreteDistribution1D
	tokens       []geometry.EntityToken
}

// NewPowerDistribution builds a distribution over the given segments;
// returns nil when the segments hold no tokens
func NewPowerDistribution(segments ...PowerSegment) *PowerDistribution {
	var tokens []geometry.EntityToken
	var weights []float64
	for _, segment := range segments {
		tokens = append(tokens, segment.Tokens...)
		weights = append(weights, segment.Weights...)
	}
	if len(tokens) == 0 {
		return nil
	}

	return &PowerDistribution{
		distribution: sampling.NewDiscreteDistribution1D(weights),
		tokens:       tokens,
	}
}

// Total returns the summed weight, the pack's radiant power
func (p *PowerDistribution) Total() float64 {
	return p.distribution.Sum()
}

// Count returns the number of selectable emitters
func (p *PowerDistribution) Count() int {
	return len(p.tokens)
}

// Pick selects an emitter token proportionally to its power and returns
// the discrete probability of the selection
func (p *PowerDistribution) Pick(sample sampling.Sample1D) (geometry.EntityToken, float64) {
	index, pdf := p.distribution.Pick(sample)
	return p.tokens[index], pdf
}
