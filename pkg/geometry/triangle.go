package geometry

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

// MaterialIndex references a material inside a prepared swatch
type MaterialIndex int

// PreparedTriangle is a triangle frozen for ray queries: one vertex and two
// edges, with per-vertex shading normals and texture coordinates
type PreparedTriangle struct {
	Vertex0 core.Vec3
	Edge1   core.Vec3 // Vertex1 - Vertex0
	Edge2   core.Vec3 // Vertex2 - Vertex0

	Normal0, Normal1, Normal2       core.Vec3 // Unit shading normals, or all zero for flat
	Texcoord0, Texcoord1, Texcoord2 core.Vec2

	Material MaterialIndex
}

// NewPreparedTriangle creates a prepared triangle from three vertices with
// shading normals and texture coordinates. Zero normals fall back to the
// flat geometric normal.
func NewPreparedTriangle(v0, v1, v2 core.Vec3, n0, n1, n2 core.Vec3,
	t0, t1, t2 core.Vec2, material MaterialIndex) PreparedTriangle {

	triangle := PreparedTriangle{
		Vertex0:   v0,
		Edge1:     v1.Subtract(v0),
		Edge2:     v2.Subtract(v0),
		Texcoord0: t0,
		Texcoord1: t1,
		Texcoord2: t2,
		Material:  material,
	}

	if n0.IsZero() && n1.IsZero() && n2.IsZero() {
		flat := triangle.GeometricNormal()
		triangle.Normal0, triangle.Normal1, triangle.Normal2 = flat, flat, flat
	} else {
		triangle.Normal0 = n0.Normalize()
		triangle.Normal1 = n1.Normalize()
		triangle.Normal2 = n2.Normalize()
	}

	return triangle
}

const triangleEpsilon = 1e-12

// Intersect tests the ray against the triangle with the Möller-Trumbore
// algorithm, returning the hit distance and barycentric uv, or +Inf on miss
func (t *PreparedTriangle) Intersect(ray core.Ray) (float64, core.Vec2) {
	miss := math.Inf(1)

	h := ray.Direction.Cross(t.Edge2)
	determinant := t.Edge1.Dot(h)
	if determinant > -triangleEpsilon && determinant < triangleEpsilon {
		return miss, core.Vec2{}
	}

	inverse := 1.0 / determinant
	s := ray.Origin.Subtract(t.Vertex0)
	u := inverse * s.Dot(h)
	if u < 0 || u > 1 {
		return miss, core.Vec2{}
	}

	q := s.Cross(t.Edge1)
	v := inverse * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return miss, core.Vec2{}
	}

	distance := inverse * t.Edge2.Dot(q)
	if distance < 0 {
		return miss, core.Vec2{}
	}

	return distance, core.NewVec2(u, v)
}

// IntersectOcclude tests whether the ray hits the triangle before travel.
// It shares the Möller-Trumbore branches but stays division free.
func (t *PreparedTriangle) IntersectOcclude(ray core.Ray, travel float64) bool {
	h := ray.Direction.Cross(t.Edge2)
	determinant := t.Edge1.Dot(h)
	if determinant > -triangleEpsilon && determinant < triangleEpsilon {
		return false
	}

	// Scale the barycentric tests by the determinant instead of dividing,
	// flipping comparisons when it is negative
	s := ray.Origin.Subtract(t.Vertex0)
	uScaled := s.Dot(h)
	q := s.Cross(t.Edge1)
	vScaled := ray.Direction.Dot(q)
	tScaled := t.Edge2.Dot(q)

	if determinant < 0 {
		uScaled = -uScaled
		vScaled = -vScaled
		tScaled = -tScaled
		determinant = -determinant
	}

	if uScaled < 0 || uScaled > determinant {
		return false
	}
	if vScaled < 0 || uScaled+vScaled > determinant {
		return false
	}

	return tScaled >= 0 && tScaled < travel*determinant
}

// GeometricNormal returns the unit flat normal of the triangle plane
func (t *PreparedTriangle) GeometricNormal() core.Vec3 {
	return t.Edge1.Cross(t.Edge2).Normalize()
}

// GetNormal interpolates the shading normal at barycentric uv
func (t *PreparedTriangle) GetNormal(uv core.Vec2) core.Vec3 {
	w := 1 - uv.X - uv.Y
	normal := t.Normal0.Multiply(w).
		Add(t.Normal1.Multiply(uv.X)).
		Add(t.Normal2.Multiply(uv.Y))
	return normal.Normalize()
}

// GetTexcoord interpolates the texture coordinate at barycentric uv
func (t *PreparedTriangle) GetTexcoord(uv core.Vec2) core.Vec2 {
	w := 1 - uv.X - uv.Y
	return t.Texcoord0.Multiply(w).
		Add(t.Texcoord1.Multiply(uv.X)).
		Add(t.Texcoord2.Multiply(uv.Y))
}

// GetPoint returns the surface point at barycentric uv
func (t *PreparedTriangle) GetPoint(uv core.Vec2) core.Vec3 {
	return t.Vertex0.
		Add(t.Edge1.Multiply(uv.X)).
		Add(t.Edge2.Multiply(uv.Y))
}

// Area returns the surface area, half the edge cross product magnitude
func (t *PreparedTriangle) Area() float64 {
	return t.Edge1.Cross(t.Edge2).Length() / 2
}

// AABB returns the bounding box over the three vertices
func (t *PreparedTriangle) AABB() core.AABB {
	return core.NewAABBFromPoints(
		t.Vertex0,
		t.Vertex0.Add(t.Edge1),
		t.Vertex0.Add(t.Edge2),
	)
}

// Sample draws a uniform point on the triangle surface and returns its
// barycentric coordinates
func (t *PreparedTriangle) Sample(sample sampling.Sample2D) core.Vec2 {
	root := math.Sqrt(float64(sample.U))
	return core.NewVec2(1-root, float64(sample.V)*root)
}

// SolidAnglePDF returns the density of sampling the surface point at uv
// uniformly by area, measured over solid angle from origin
func (t *PreparedTriangle) SolidAnglePDF(origin core.Vec3, uv core.Vec2) float64 {
	point := t.GetPoint(uv)
	delta := point.Subtract(origin)
	distanceSquared := delta.LengthSquared()
	if distanceSquared == 0 {
		return 0
	}

	cosine := math.Abs(t.GetNormal(uv).Dot(delta.Normalize()))
	area := t.Area()
	if cosine == 0 || area == 0 {
		return 0
	}
	return distanceSquared / (cosine * area)
}
