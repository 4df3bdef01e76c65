package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/sampling"
)

func unitTriangle() PreparedTriangle {
	return NewPreparedTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.Vec3{}, core.Vec3{}, core.Vec3{},
		core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(0, 1),
		0,
	)
}

func TestTriangleIntersectHit(t *testing.T) {
	triangle := unitTriangle()
	ray := core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1))

	distance, uv := triangle.Intersect(ray)
	if math.Abs(distance-1) > 1e-12 {
		t.Errorf("expected distance 1, got %v", distance)
	}
	if math.Abs(uv.X-0.25) > 1e-12 || math.Abs(uv.Y-0.25) > 1e-12 {
		t.Errorf("expected uv (0.25, 0.25), got %v", uv)
	}
}

func TestTriangleIntersectOutside(t *testing.T) {
	triangle := unitTriangle()

	// Beyond the hypotenuse: u+v > 1
	ray := core.NewRay(core.NewVec3(0.75, 0.75, 1), core.NewVec3(0, 0, -1))
	if distance, _ := triangle.Intersect(ray); !math.IsInf(distance, 1) {
		t.Errorf("ray outside the triangle should miss, got %v", distance)
	}
}

func TestTriangleIntersectParallel(t *testing.T) {
	triangle := unitTriangle()

	// In the triangle's plane: determinant exactly zero
	ray := core.NewRay(core.NewVec3(-1, 0.25, 0), core.NewVec3(1, 0, 0))
	if distance, _ := triangle.Intersect(ray); !math.IsInf(distance, 1) {
		t.Errorf("parallel ray should miss, got %v", distance)
	}
}

func TestTriangleIntersectBehind(t *testing.T) {
	triangle := unitTriangle()
	ray := core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, -1))

	if distance, _ := triangle.Intersect(ray); !math.IsInf(distance, 1) {
		t.Errorf("triangle behind the ray should miss, got %v", distance)
	}
}

func TestTriangleOccludeMatchesIntersect(t *testing.T) {
	random := rand.New(rand.NewSource(13))
	triangle := NewPreparedTriangle(
		core.NewVec3(-1, -1, 0), core.NewVec3(2, -0.5, 0.5), core.NewVec3(0, 2, -0.5),
		core.Vec3{}, core.Vec3{}, core.Vec3{},
		core.Vec2{}, core.Vec2{}, core.Vec2{},
		0,
	)

	for i := 0; i < 1000; i++ {
		origin := core.NewVec3(random.Float64()*4-2, random.Float64()*4-2, 3)
		direction := core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, -1)
		ray := core.NewRay(origin, direction)
		travel := random.Float64() * 6

		distance, _ := triangle.Intersect(ray)
		expected := distance < travel
		if got := triangle.IntersectOcclude(ray, travel); got != expected {
			t.Fatalf("occlude disagrees with intersect: ray %+v travel %v distance %v",
				ray, travel, distance)
		}
	}
}

func TestTriangleArea(t *testing.T) {
	triangle := unitTriangle()
	if got := triangle.Area(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("unit right triangle area should be 0.5, got %v", got)
	}
}

func TestTriangleNormalInterpolation(t *testing.T) {
	triangle := NewPreparedTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 1), core.NewVec3(0, 1, 1),
		core.Vec2{}, core.Vec2{}, core.Vec2{},
		0,
	)

	// At a vertex the interpolated normal equals the vertex normal
	normal := triangle.GetNormal(core.NewVec2(1, 0))
	expected := core.NewVec3(1, 0, 1).Normalize()
	if normal.Subtract(expected).Length() > 1e-12 {
		t.Errorf("expected %v at vertex 1, got %v", expected, normal)
	}

	if !triangle.GetNormal(core.NewVec2(0.3, 0.4)).IsUnit() {
		t.Error("interpolated normal should be unit length")
	}
}

func TestTriangleFlatNormalFallback(t *testing.T) {
	triangle := unitTriangle()

	normal := triangle.GetNormal(core.NewVec2(0.2, 0.3))
	if normal.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
		t.Errorf("zero vertex normals should fall back to the flat normal, got %v", normal)
	}
}

func TestTriangleSampleUniform(t *testing.T) {
	triangle := unitTriangle()
	random := rand.New(rand.NewSource(17))

	for i := 0; i < 1000; i++ {
		uv := triangle.Sample(sampling.NewSample2D(random.Float64(), random.Float64()))
		if uv.X < 0 || uv.Y < 0 || uv.X+uv.Y > 1+1e-12 {
			t.Fatalf("sampled barycentric outside the triangle: %v", uv)
		}
	}
}

func TestTriangleSolidAnglePDF(t *testing.T) {
	triangle := unitTriangle()
	origin := core.NewVec3(0.25, 0.25, 2)
	uv := core.NewVec2(0.25, 0.25)

	// Directly above the sample point: pdf = d² / (cos·A) with cos = 1
	pdf := triangle.SolidAnglePDF(origin, uv)
	expected := 4.0 / 0.5
	if math.Abs(pdf-expected) > 1e-9 {
		t.Errorf("expected pdf %v, got %v", expected, pdf)
	}
}
