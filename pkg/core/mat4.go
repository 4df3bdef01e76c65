package core

import "math"

// Mat4 represents a row-major 4x4 affine transformation matrix.
// The last row is implicitly (0, 0, 0, 1).
type Mat4 struct {
	M [3][4]float64
}

// IdentityMat4 returns the identity transform
func IdentityMat4() Mat4 {
	return Mat4{M: [3][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}}
}

// TranslationMat4 returns a translation transform
func TranslationMat4(offset Vec3) Mat4 {
	return Mat4{M: [3][4]float64{
		{1, 0, 0, offset.X},
		{0, 1, 0, offset.Y},
		{0, 0, 1, offset.Z},
	}}
}

// ScaleMat4 returns a uniform scaling transform
func ScaleMat4(scale float64) Mat4 {
	return Mat4{M: [3][4]float64{
		{scale, 0, 0, 0},
		{0, scale, 0, 0},
		{0, 0, scale, 0},
	}}
}

// RotationMat4 returns a rotation of angle radians around a unit axis
// using the Rodrigues formula
func RotationMat4(axis Vec3, angle float64) Mat4 {
	axis = axis.Normalize()
	sin := math.Sin(angle)
	cos := math.Cos(angle)
	oneMinusCos := 1 - cos
	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{M: [3][4]float64{
		{cos + x*x*oneMinusCos, x*y*oneMinusCos - z*sin, x*z*oneMinusCos + y*sin, 0},
		{y*x*oneMinusCos + z*sin, cos + y*y*oneMinusCos, y*z*oneMinusCos - x*sin, 0},
		{z*x*oneMinusCos - y*sin, z*y*oneMinusCos + x*sin, cos + z*z*oneMinusCos, 0},
	}}
}

// Multiply returns the composition this * other (other applied first)
func (m Mat4) Multiply(other Mat4) Mat4 {
	var result Mat4
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += m.M[row][k] * other.M[k][col]
			}
			if col == 3 {
				sum += m.M[row][3]
			}
			result.M[row][col] = sum
		}
	}
	return result
}

// ApplyPoint transforms a point, including translation
func (m Mat4) ApplyPoint(p Vec3) Vec3 {
	return Vec3{
		X: m.M[0][0]*p.X + m.M[0][1]*p.Y + m.M[0][2]*p.Z + m.M[0][3],
		Y: m.M[1][0]*p.X + m.M[1][1]*p.Y + m.M[1][2]*p.Z + m.M[1][3],
		Z: m.M[2][0]*p.X + m.M[2][1]*p.Y + m.M[2][2]*p.Z + m.M[2][3],
	}
}

// ApplyDirection transforms a direction, ignoring translation
func (m Mat4) ApplyDirection(d Vec3) Vec3 {
	return Vec3{
		X: m.M[0][0]*d.X + m.M[0][1]*d.Y + m.M[0][2]*d.Z,
		Y: m.M[1][0]*d.X + m.M[1][1]*d.Y + m.M[1][2]*d.Z,
		Z: m.M[2][0]*d.X + m.M[2][1]*d.Y + m.M[2][2]*d.Z,
	}
}

// RowScale returns the magnitude of the indexed linear row, which for a
// similarity transform equals the uniform scale factor
func (m Mat4) RowScale(row int) float64 {
	r := m.M[row]
	return math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
}

// IsUniformScale reports whether all three rows carry the same scale
// within tolerance
func (m Mat4) IsUniformScale(tolerance float64) bool {
	s0 := m.RowScale(0)
	s1 := m.RowScale(1)
	s2 := m.RowScale(2)
	return math.Abs(s0-s1) <= tolerance && math.Abs(s1-s2) <= tolerance
}

// Inverse returns the inverse of the affine transform. The linear part is
// inverted with the adjugate method; a singular matrix returns identity.
func (m Mat4) Inverse() Mat4 {
	a := m.M

	// Cofactors of the 3x3 linear block
	c00 := a[1][1]*a[2][2] - a[1][2]*a[2][1]
	c01 := a[1][2]*a[2][0] - a[1][0]*a[2][2]
	c02 := a[1][0]*a[2][1] - a[1][1]*a[2][0]

	det := a[0][0]*c00 + a[0][1]*c01 + a[0][2]*c02
	if det == 0 {
		return IdentityMat4()
	}
	invDet := 1.0 / det

	var inv Mat4
	inv.M[0][0] = c00 * invDet
	inv.M[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) * invDet
	inv.M[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) * invDet
	inv.M[1][0] = c01 * invDet
	inv.M[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) * invDet
	inv.M[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) * invDet
	inv.M[2][0] = c02 * invDet
	inv.M[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) * invDet
	inv.M[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) * invDet

	// Inverse translation: -R⁻¹ * t
	tx, ty, tz := a[0][3], a[1][3], a[2][3]
	inv.M[0][3] = -(inv.M[0][0]*tx + inv.M[0][1]*ty + inv.M[0][2]*tz)
	inv.M[1][3] = -(inv.M[1][0]*tx + inv.M[1][1]*ty + inv.M[1][2]*tz)
	inv.M[2][3] = -(inv.M[2][0]*tx + inv.M[2][1]*ty + inv.M[2][2]*tz)

	return inv
}
