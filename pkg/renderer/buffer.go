package renderer

import (
	"github.com/echo-render/echo/pkg/core"
)

// RenderBuffer is the canonical render output: a dense grid of RGB colors
// with parallel albedo and normal layers. Coordinates are (0, 0) at the
// bottom left. Concurrent writers must target disjoint positions, which
// tile scheduling guarantees.
type RenderBuffer struct {
	size   core.Int2
	color  []core.Vec3
	albedo []core.Vec3
	normal []core.Vec3
}

// NewRenderBuffer creates a black buffer of the given size
func NewRenderBuffer(size core.Int2) *RenderBuffer {
	count := size.Product()
	return &RenderBuffer{
		size:   size,
		color:  make([]core.Vec3, count),
		albedo: make([]core.Vec3, count),
		normal: make([]core.Vec3, count),
	}
}

// Size returns the buffer dimensions
func (b *RenderBuffer) Size() core.Int2 {
	return b.size
}

// Aspect returns the width-over-height ratio
func (b *RenderBuffer) Aspect() float64 {
	return float64(b.size.X) / float64(b.size.Y)
}

// Contains returns true when the position lies inside the buffer
func (b *RenderBuffer) Contains(position core.Int2) bool {
	return position.X >= 0 && position.X < b.size.X &&
		position.Y >= 0 && position.Y < b.size.Y
}

func (b *RenderBuffer) index(position core.Int2) int {
	return position.Y*b.size.X + position.X
}

// SetColor writes the color layer at position
func (b *RenderBuffer) SetColor(position core.Int2, color core.Vec3) {
	b.color[b.index(position)] = color
}

// GetColor reads the color layer at position
func (b *RenderBuffer) GetColor(position core.Int2) core.Vec3 {
	return b.color[b.index(position)]
}

// SetAlbedo writes the albedo layer at position
func (b *RenderBuffer) SetAlbedo(position core.Int2, albedo core.Vec3) {
	b.albedo[b.index(position)] = albedo
}

// GetAlbedo reads the albedo layer at position
func (b *RenderBuffer) GetAlbedo(position core.Int2) core.Vec3 {
	return b.albedo[b.index(position)]
}

// SetNormal writes the normal layer at position
func (b *RenderBuffer) SetNormal(position core.Int2, normal core.Vec3) {
	b.normal[b.index(position)] = normal
}

// GetNormal reads the normal layer at position
func (b *RenderBuffer) GetNormal(position core.Int2) core.Vec3 {
	return b.normal[b.index(position)]
}
