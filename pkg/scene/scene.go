package scene

import (
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/material"
)

// Scene is the mutable authoring tree. It is assembled freely, then frozen
// by a Preparer into the immutable prepared form that rendering reads.
type Scene struct {
	entities []Entity

	// Ambient supplies radiance for rays that escape the scene; nil means
	// black
	Ambient AmbientLight
}

// NewScene creates an empty authoring scene
func NewScene() *Scene {
	return &Scene{}
}

// Add appends an entity to the scene
func (s *Scene) Add(entity Entity) {
	s.entities = append(s.entities, entity)
}

// Entities returns the authored entities in insertion order
func (s *Scene) Entities() []Entity {
	return s.entities
}

// Entity is anything an authoring scene can hold
type Entity interface {
	isEntity()
}

// Triangle is one authored triangle with optional shading normals and
// texture coordinates
type Triangle struct {
	Vertex0, Vertex1, Vertex2       core.Vec3
	Normal0, Normal1, Normal2       core.Vec3
	Texcoord0, Texcoord1, Texcoord2 core.Vec2
}

// Mesh is a triangle soup sharing one material
type Mesh struct {
	Triangles []Triangle
	Material  material.Material
}

func (*Mesh) isEntity() {}

// Sphere is one authored sphere
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

func (*Sphere) isEntity() {}

// Instance embeds another scene under an affine transform with uniform
// scale. The same scene may be instanced many times; preparation shares
// the frozen pack between them.
type Instance struct {
	Scene     *Scene
	Transform core.Mat4 // Local to parent
}

func (*Instance) isEntity() {}

// AmbientLight supplies the radiance arriving from an escaped direction
type AmbientLight interface {
	Evaluate(direction core.Vec3) core.Vec3
}

// ConstantAmbient is a uniform ambient color
type ConstantAmbient core.Vec3

// Evaluate returns the constant ambient color
func (c ConstantAmbient) Evaluate(direction core.Vec3) core.Vec3 {
	return core.Vec3(c)
}
