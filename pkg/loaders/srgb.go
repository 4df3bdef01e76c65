package loaders

import "math"

// The sRGB transfer function constants
const (
	srgbThreshold = 0.0031308
	srgbSlope     = 12.92
	srgbPower     = 2.4
	srgbOffset    = 0.055
)

// ForwardGamma maps linear light in [0, 1] to the sRGB encoded value
func ForwardGamma(linear float64) float64 {
	if linear <= srgbThreshold {
		return linear * srgbSlope
	}
	return (1+srgbOffset)*math.Pow(linear, 1/srgbPower) - srgbOffset
}

// InverseGamma maps an sRGB encoded value in [0, 1] back to linear light
func InverseGamma(encoded float64) float64 {
	if encoded <= srgbThreshold*srgbSlope {
		return encoded / srgbSlope
	}
	return math.Pow((encoded+srgbOffset)/(1+srgbOffset), srgbPower)
}
