package scene

import (
	"github.com/echo-render/echo/pkg/geometry"
	"github.com/echo-render/echo/pkg/material"
)

// PreparedSwatch is the immutable dense material table of one prepared
// pack, with the emissive entries listed separately for light selection
type PreparedSwatch struct {
	materials []material.Material
	emissive  []geometry.MaterialIndex
}

// Get returns the material behind an index
func (s *PreparedSwatch) Get(index geometry.MaterialIndex) material.Material {
	return s.materials[index]
}

// Count returns the number of distinct materials
func (s *PreparedSwatch) Count() int {
	return len(s.materials)
}

// Emissive returns the indices of materials that emit light
func (s *PreparedSwatch) Emissive() []geometry.MaterialIndex {
	return s.emissive
}

// IsEmissive returns true when the indexed material emits light
func (s *PreparedSwatch) IsEmissive(index geometry.MaterialIndex) bool {
	return material.IsEmissive(s.materials[index])
}

// SwatchExtractor deduplicates the materials of one pack while assigning
// indices to its primitives
type SwatchExtractor struct {
	indices   map[material.Material]geometry.MaterialIndex
	materials []material.Material
}

// NewSwatchExtractor creates an empty extractor
func NewSwatchExtractor() *SwatchExtractor {
	return &SwatchExtractor{indices: make(map[material.Material]geometry.MaterialIndex)}
}

// Register returns the index for a material, assigning a new one on first
// sight
func (e *SwatchExtractor) Register(m material.Material) geometry.MaterialIndex {
	if index, ok := e.indices[m]; ok {
		return index
	}
	index := geometry.MaterialIndex(len(e.materials))
	e.indices[m] = index
	e.materials = append(e.materials, m)
	return index
}

// Swatch freezes the extracted table, scanning for emissive entries
func (e *SwatchExtractor) Swatch() *PreparedSwatch {
	swatch := &PreparedSwatch{materials: e.materials}
	for i, m := range e.materials {
		if material.IsEmissive(m) {
			swatch.emissive = append(swatch.emissive, geometry.MaterialIndex(i))
		}
	}
	return swatch
}
