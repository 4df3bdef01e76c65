package geometry

import (
	"math"

	"github.com/echo-render/echo/pkg/core"
)

// PreparedSphere is a sphere frozen for ray queries
type PreparedSphere struct {
	Center   core.Vec3
	Radius   float64
	Material MaterialIndex
}

// NewPreparedSphere creates a prepared sphere
func NewPreparedSphere(center core.Vec3, radius float64, material MaterialIndex) PreparedSphere {
	return PreparedSphere{Center: center, Radius: radius, Material: material}
}

// Intersect solves |origin + t*direction - center|² = radius² and returns
// the nearest non-negative root, or +Inf on miss. When findFar is set the
// far root is selected instead, which suppresses self intersection when a
// shadow ray leaves the sphere's own surface.
func (s *PreparedSphere) Intersect(ray core.Ray, findFar bool) (float64, core.Vec2) {
	miss := math.Inf(1)

	// Offset by the center first to keep the quadratic well conditioned
	oc := ray.Origin.Subtract(s.Center)
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return miss, core.Vec2{}
	}
	sqrtD := math.Sqrt(discriminant)

	root := -halfB - sqrtD
	if findFar || root < 0 {
		root = -halfB + sqrtD
	}
	if root < 0 {
		return miss, core.Vec2{}
	}

	point := ray.At(root).Subtract(s.Center)
	return root, s.texcoordOf(point)
}

// IntersectOcclude tests whether the ray hits the sphere before travel
func (s *PreparedSphere) IntersectOcclude(ray core.Ray, travel float64) bool {
	oc := ray.Origin.Subtract(s.Center)
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return false
	}
	sqrtD := math.Sqrt(discriminant)

	root := -halfB - sqrtD
	if root < 0 {
		root = -halfB + sqrtD
	}
	return root >= 0 && root < travel
}

// GetNormal returns the outward unit normal at a surface point
func (s *PreparedSphere) GetNormal(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Divide(s.Radius)
}

// GetTexcoord returns the cylindrical texture coordinate at a surface point
func (s *PreparedSphere) GetTexcoord(point core.Vec3) core.Vec2 {
	return s.texcoordOf(point.Subtract(s.Center))
}

// texcoordOf maps a center-relative point to cylindrical uv
func (s *PreparedSphere) texcoordOf(local core.Vec3) core.Vec2 {
	direction := local.Normalize()
	theta := math.Atan2(direction.X, direction.Z)
	phi := math.Acos(max(-1, min(1, direction.Y)))
	return core.NewVec2(theta/(2*math.Pi)+0.5, phi/math.Pi)
}

// Area returns the surface area, 4πr²
func (s *PreparedSphere) Area() float64 {
	return 4 * math.Pi * s.Radius * s.Radius
}

// AABB returns the bounding box of the sphere
func (s *PreparedSphere) AABB() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}
