package scene

import (
	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
	"github.com/echo-render/echo/pkg/material"
)

// PreparedScene is the frozen render-ready scene: the root pack, a root
// instance wrapping it at identity, and the ambient light. It is immutable
// and shared by every worker.
type PreparedScene struct {
	pack    *PreparedPack
	root    *PreparedInstance
	ambient AmbientLight
}

// Root returns the identity instance over the root pack
func (s *PreparedScene) Root() *PreparedInstance {
	return s.root
}

// Pack returns the root pack
func (s *PreparedScene) Pack() *PreparedPack {
	return s.pack
}

// Ambient returns the radiance arriving from an escaped direction
func (s *PreparedScene) Ambient(direction core.Vec3) core.Vec3 {
	return s.ambient.Evaluate(direction)
}

// Trace finds the nearest hit for the query and reports whether one exists
func (s *PreparedScene) Trace(query *aggregator.TraceQuery) bool {
	s.pack.aggregator.Trace(query)
	return query.Hit()
}

// Occlude reports whether anything blocks the query ray before its travel
// limit
func (s *PreparedScene) Occlude(query *aggregator.OccludeQuery) bool {
	return s.pack.aggregator.Occlude(query)
}

// TraceCost traces the ray while counting boxes and primitives tested
func (s *PreparedScene) TraceCost(ray core.Ray, distance *float64) int {
	return s.pack.aggregator.TraceCost(ray, distance)
}

// Interact resolves a completed trace query into the world-space surface
// state the material layer consumes. The query must have hit.
func (s *PreparedScene) Interact(query *aggregator.TraceQuery) material.Touch {
	point := query.Ray.At(query.Distance)

	// Descend the instance chain, tracking the local-space hit point and
	// the instances passed through
	var chain [geometry.HierarchyDepth]*PreparedInstance
	chainDepth := 0

	pack := s.pack
	localPoint := point
	for i := 0; i < query.Token.Depth()-1; i++ {
		instance := pack.Instance(query.Token.At(i).Index())
		chain[chainDepth] = instance
		chainDepth++

		localPoint = instance.transformToLocal(localPoint)
		pack = instance.pack
	}

	swatch := pack.swatch

	leaf := query.Token.Top()
	var normal, geometricNormal core.Vec3
	var texcoord core.Vec2
	var materialIndex geometry.MaterialIndex

	switch leaf.Type() {
	case geometry.TokenTriangle:
		triangle := pack.Triangle(leaf.Index())
		normal = triangle.GetNormal(query.UV)
		geometricNormal = triangle.GeometricNormal()
		texcoord = triangle.GetTexcoord(query.UV)
		materialIndex = triangle.Material

	case geometry.TokenSphere:
		sphere := pack.Sphere(leaf.Index())
		normal = sphere.GetNormal(localPoint)
		geometricNormal = normal
		texcoord = query.UV
		materialIndex = sphere.Material
	}

	// Lift the local normals back out through the instance chain
	for i := chainDepth - 1; i >= 0; i-- {
		normal = chain[i].transformNormalToParent(normal)
		geometricNormal = chain[i].transformNormalToParent(geometricNormal)
	}

	return material.Touch{
		Point:           point,
		Normal:          normal,
		GeometricNormal: geometricNormal,
		Outgoing:        query.Ray.Direction.Negate(),
		Texcoord:        texcoord,
		Token:           query.Token,
		Material:        swatch.Get(materialIndex),
	}
}
