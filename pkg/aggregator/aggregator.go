package aggregator

import (
	"errors"
	"fmt"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// ErrConfiguration marks an invalid aggregator profile
var ErrConfiguration = errors.New("invalid aggregator configuration")

// Aggregator answers ray queries over a fixed set of entity tokens. All
// implementations are immutable after construction and safe for concurrent
// readers.
type Aggregator interface {
	// Trace updates the query with the nearest hit, if any
	Trace(query *TraceQuery)

	// Occlude returns true as soon as any hit before query.Travel is found
	Occlude(query *OccludeQuery) bool

	// TraceCost traces the ray while counting boxes and primitives tested,
	// shrinking distance like Trace would
	TraceCost(ray core.Ray, distance *float64) int

	// TransformedAABB returns a conservative bound of the contents under an
	// affine transform
	TransformedAABB(transform core.Mat4) core.AABB
}

// Intersector resolves the leaf tokens an aggregator stores. The prepared
// pack implements it for its triangles, spheres and child instances.
type Intersector interface {
	// TraceToken intersects the entity behind token, committing to the
	// query if it beats the current nearest hit
	TraceToken(token geometry.EntityToken, query *TraceQuery)

	// OccludeToken returns true if the entity occludes the query ray
	OccludeToken(token geometry.EntityToken, query *OccludeQuery) bool

	// TraceCostToken intersects the entity while counting work, shrinking
	// distance on a hit
	TraceCostToken(token geometry.EntityToken, ray core.Ray, distance *float64) int

	// TokenAABB returns the bounding box of the entity
	TokenAABB(token geometry.EntityToken) core.AABB
}

// TokenAABB pairs an entity token with its bounding box, the build input of
// every aggregator
type TokenAABB struct {
	Token geometry.EntityToken
	AABB  core.AABB
}

// Type selects an aggregator implementation
type Type int

const (
	// TypeAuto selects by primitive count
	TypeAuto Type = iota
	// TypeLinear iterates all primitives in groups of four
	TypeLinear
	// TypeBVH is the binary surface-area-heuristic hierarchy
	TypeBVH
	// TypeQBVH is the four-wide hierarchy
	TypeQBVH
)

// String returns the type name
func (t Type) String() string {
	switch t {
	case TypeAuto:
		return "auto"
	case TypeLinear:
		return "linear"
	case TypeBVH:
		return "bvh"
	case TypeQBVH:
		return "qbvh"
	default:
		return "invalid"
	}
}

// Automatic selection thresholds
const (
	bvhThreshold  = 32
	qbvhThreshold = 512
)

// Profile configures aggregator construction
type Profile struct {
	// Type forces an implementation; TypeAuto selects by primitive count
	Type Type

	// LinearForInstances permits the linear aggregator over packs that
	// contain instances
	LinearForInstances bool
}

// Validate reports profile errors before any build happens
func (p Profile) Validate() error {
	if p.Type < TypeAuto || p.Type > TypeQBVH {
		return fmt.Errorf("%w: unknown aggregator type %d", ErrConfiguration, int(p.Type))
	}
	return nil
}

// New builds an aggregator over the given token boxes according to the
// profile. hasInstances tells the auto selector whether the pack nests
// other packs.
func New(profile Profile, intersector Intersector, items []TokenAABB, hasInstances bool) (Aggregator, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	chosen := profile.Type
	if chosen == TypeAuto {
		total := len(items)
		switch {
		case total >= qbvhThreshold:
			chosen = TypeQBVH
		case total >= bvhThreshold:
			chosen = TypeBVH
		case hasInstances && !profile.LinearForInstances:
			chosen = TypeBVH
		default:
			chosen = TypeLinear
		}
	}

	switch chosen {
	case TypeLinear:
		return NewLinear(intersector, items), nil
	case TypeBVH:
		return NewBVH(intersector, items), nil
	default:
		return NewQBVH(intersector, items), nil
	}
}
