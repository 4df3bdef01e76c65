package scene

import (
	"fmt"

	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
	"github.com/echo-render/echo/pkg/log"
	"github.com/echo-render/echo/pkg/material"
)

var logger = log.New("scene")

// Tolerance for accepting an instance transform as uniformly scaled,
// relative to the scale itself
const scaleTolerance = 1e-6

// Preparer freezes an authoring scene into its prepared form. The same
// preparer can be reused; every Prepare call works from a fresh pack cache.
type Preparer struct {
	// Profile configures aggregator construction for every pack
	Profile aggregator.Profile
}

// NewPreparer creates a preparer with automatic aggregator selection
func NewPreparer() *Preparer {
	return &Preparer{}
}

// visit colors for cycle detection
const (
	unvisited = iota
	preparing
	prepared
)

// Prepare freezes the scene graph. Identical sub-scenes share one prepared
// pack; a scene that transitively instances itself fails.
func (p *Preparer) Prepare(s *Scene) (*PreparedScene, error) {
	if err := p.Profile.Validate(); err != nil {
		return nil, err
	}

	cache := make(map[*Scene]*PreparedPack)
	colors := make(map[*Scene]int)

	pack, err := p.preparePack(s, cache, colors)
	if err != nil {
		return nil, err
	}

	root := &PreparedInstance{
		pack:         pack,
		swatch:       pack.swatch,
		forward:      core.IdentityMat4(),
		inverse:      core.IdentityMat4(),
		forwardScale: 1,
		inverseScale: 1,
		power:        pack.power,
	}

	ambient := s.Ambient
	if ambient == nil {
		ambient = ConstantAmbient{}
	}

	counts := pack.Counts()
	logger.Infof("prepared scene: %d triangles, %d spheres, %d instances, %d materials",
		counts.Triangles, counts.Spheres, counts.Instances, pack.swatch.Count())

	return &PreparedScene{pack: pack, root: root, ambient: ambient}, nil
}

// preparePack freezes one authoring scene into a pack, reusing cached
// packs for scenes already frozen
func (p *Preparer) preparePack(s *Scene, cache map[*Scene]*PreparedPack, colors map[*Scene]int) (*PreparedPack, error) {
	switch colors[s] {
	case preparing:
		return nil, fmt.Errorf("%w: instance graph contains a cycle", ErrPreparation)
	case prepared:
		return cache[s], nil
	}
	colors[s] = preparing

	pack := &PreparedPack{}
	extractor := NewSwatchExtractor()

	for _, entity := range s.entities {
		switch e := entity.(type) {
		case *Mesh:
			if err := p.prepareMesh(pack, extractor, e); err != nil {
				return nil, err
			}

		case *Sphere:
			if err := p.prepareSphere(pack, extractor, e); err != nil {
				return nil, err
			}

		case *Instance:
			instance, err := p.prepareInstance(pack, e, cache, colors)
			if err != nil {
				return nil, err
			}
			pack.instances = append(pack.instances, instance)

		default:
			return nil, fmt.Errorf("%w: unknown entity %T", ErrPreparation, entity)
		}
	}

	pack.swatch = extractor.Swatch()
	pack.counts = GeometryCounts{
		Triangles: len(pack.triangles),
		Spheres:   len(pack.spheres),
		Instances: len(pack.instances),
	}

	if err := p.buildAggregator(pack); err != nil {
		return nil, err
	}

	// Only emitting packs, directly or through a nested instance, carry a
	// power distribution
	if pack.hasEmissive() {
		pack.power = buildPowerDistribution(pack)
	}

	colors[s] = prepared
	cache[s] = pack
	return pack, nil
}

// prepareMesh flattens a mesh's triangles into the pack
func (p *Preparer) prepareMesh(pack *PreparedPack, extractor *SwatchExtractor, mesh *Mesh) error {
	if mesh.Material == nil {
		return fmt.Errorf("%w: mesh with no material", ErrPreparation)
	}
	index := extractor.Register(mesh.Material)
	emissive := material.IsEmissive(mesh.Material)

	for _, t := range mesh.Triangles {
		triangle := geometry.NewPreparedTriangle(
			t.Vertex0, t.Vertex1, t.Vertex2,
			t.Normal0, t.Normal1, t.Normal2,
			t.Texcoord0, t.Texcoord1, t.Texcoord2,
			index,
		)

		if triangle.Area() == 0 {
			if emissive {
				return fmt.Errorf("%w: zero-area emissive triangle", ErrPreparation)
			}
			// Degenerate non-emitting triangles cannot be hit, drop them
			continue
		}
		pack.triangles = append(pack.triangles, triangle)
	}
	return nil
}

// prepareSphere freezes one authored sphere into the pack
func (p *Preparer) prepareSphere(pack *PreparedPack, extractor *SwatchExtractor, sphere *Sphere) error {
	if sphere.Material == nil {
		return fmt.Errorf("%w: sphere with no material", ErrPreparation)
	}
	if sphere.Radius <= 0 {
		return fmt.Errorf("%w: sphere with non-positive radius %v", ErrPreparation, sphere.Radius)
	}

	index := extractor.Register(sphere.Material)
	pack.spheres = append(pack.spheres, geometry.NewPreparedSphere(sphere.Center, sphere.Radius, index))
	return nil
}

// prepareInstance validates the transform and freezes the child scene
func (p *Preparer) prepareInstance(pack *PreparedPack, instance *Instance, cache map[*Scene]*PreparedPack, colors map[*Scene]int) (*PreparedInstance, error) {
	if instance.Scene == nil {
		return nil, fmt.Errorf("%w: instance with no scene", ErrPreparation)
	}

	// The authored transform maps local to parent; its row scale is the
	// local-to-parent scale factor
	inverseScale := instance.Transform.RowScale(0)
	if inverseScale == 0 {
		return nil, fmt.Errorf("%w: instance transform is singular", ErrPreparation)
	}
	if !instance.Transform.IsUniformScale(scaleTolerance * inverseScale) {
		return nil, fmt.Errorf("%w: instance transform has non-uniform scale", ErrPreparation)
	}

	child, err := p.preparePack(instance.Scene, cache, colors)
	if err != nil {
		return nil, err
	}

	return &PreparedInstance{
		pack:         child,
		swatch:       child.swatch,
		forward:      instance.Transform.Inverse(),
		inverse:      instance.Transform,
		forwardScale: 1 / inverseScale,
		inverseScale: inverseScale,
		token:        geometry.NewEntityToken(geometry.TokenInstance, len(pack.instances)),
		power:        child.power,
	}, nil
}

// buildAggregator assembles the token-box list and builds the pack's
// aggregator according to the profile
func (p *Preparer) buildAggregator(pack *PreparedPack) error {
	items := make([]aggregator.TokenAABB, 0, pack.counts.Total())

	for i := range pack.triangles {
		token := geometry.NewEntityToken(geometry.TokenTriangle, i)
		items = append(items, aggregator.TokenAABB{Token: token, AABB: pack.triangles[i].AABB()})
	}
	for i := range pack.spheres {
		token := geometry.NewEntityToken(geometry.TokenSphere, i)
		items = append(items, aggregator.TokenAABB{Token: token, AABB: pack.spheres[i].AABB()})
	}
	for i, instance := range pack.instances {
		token := geometry.NewEntityToken(geometry.TokenInstance, i)
		items = append(items, aggregator.TokenAABB{Token: token, AABB: instance.AABB()})
	}

	built, err := aggregator.New(p.Profile, pack, items, len(pack.instances) > 0)
	if err != nil {
		return err
	}
	pack.aggregator = built
	return nil
}

// buildPowerDistribution collects the pack's emitters into a power
// distribution: emissive geometry weighted by area times radiant power,
// and nested instances weighted by their scaled pack power
func buildPowerDistribution(pack *PreparedPack) *PowerDistribution {
	var geometrySegment PowerSegment
	for index, m := range pack.swatch.materials {
		emissive, ok := m.(material.Emissive)
		if !ok || emissive.Power() <= 0 {
			continue
		}
		materialIndex := geometry.MaterialIndex(index)

		for i := range pack.triangles {
			triangle := &pack.triangles[i]
			if triangle.Material != materialIndex {
				continue
			}
			geometrySegment.Tokens = append(geometrySegment.Tokens,
				geometry.NewEntityToken(geometry.TokenTriangle, i))
			geometrySegment.Weights = append(geometrySegment.Weights,
				triangle.Area()*emissive.Power())
		}
		for i := range pack.spheres {
			sphere := &pack.spheres[i]
			if sphere.Material != materialIndex {
				continue
			}
			geometrySegment.Tokens = append(geometrySegment.Tokens,
				geometry.NewEntityToken(geometry.TokenSphere, i))
			geometrySegment.Weights = append(geometrySegment.Weights,
				sphere.Area()*emissive.Power())
		}
	}

	var instanceSegment PowerSegment
	for i, instance := range pack.instances {
		power := instance.Power()
		if power <= 0 {
			continue
		}
		instanceSegment.Tokens = append(instanceSegment.Tokens,
			geometry.NewEntityToken(geometry.TokenInstance, i))
		instanceSegment.Weights = append(instanceSegment.Weights, power)
	}

	return NewPowerDistribution(geometrySegment, instanceSegment)
}
