package scene

import (
	"github.com/echo-render/echo/pkg/aggregator"
	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/geometry"
)

// PreparedInstance places a shared prepared pack under an affine transform
// with uniform scale. Queries are transformed into the pack's local space
// on entry and restored on exit, so the pack itself stays oblivious to
// where it is instanced.
type PreparedInstance struct {
	pack   *PreparedPack
	swatch *PreparedSwatch

	forward core.Mat4 // Parent to local
	inverse core.Mat4 // Local to parent

	// forwardScale = 1/inverseScale; inverseScale is the local-to-parent
	// scale factor
	forwardScale float64
	inverseScale float64

	// token identifies this instance inside its parent pack
	token geometry.EntityToken

	power *PowerDistribution
}

// Pack returns the shared pack this instance places
func (i *PreparedInstance) Pack() *PreparedPack {
	return i.pack
}

// Swatch returns the material table hits inside this instance resolve with
func (i *PreparedInstance) Swatch() *PreparedSwatch {
	return i.swatch
}

// Token returns this instance's token inside its parent pack
func (i *PreparedInstance) Token() geometry.EntityToken {
	return i.token
}

// PowerDistribution returns the emitter sampler of the pack under this
// instance, or nil when nothing inside emits
func (i *PreparedInstance) PowerDistribution() *PowerDistribution {
	return i.power
}

// Power returns the radiant power of the instanced pack in parent space.
// Scaling a pack scales emitting areas by the square of the scale factor.
func (i *PreparedInstance) Power() float64 {
	if i.power == nil {
		return 0
	}
	return i.power.Total() * i.inverseScale * i.inverseScale
}

// AABB returns the instance bound in parent space
func (i *PreparedInstance) AABB() core.AABB {
	return i.pack.aggregator.TransformedAABB(i.inverse)
}

// Trace transforms the query into local space, delegates to the pack's
// aggregator, and restores parent space on return
func (i *PreparedInstance) Trace(query *aggregator.TraceQuery) {
	saved := query.Ray
	query.Ray = core.Ray{
		Origin:    i.forward.ApplyPoint(saved.Origin),
		Direction: i.forward.ApplyDirection(saved.Direction).Multiply(i.inverseScale),
	}
	query.Distance *= i.forwardScale
	query.Current.Push(i.token)

	i.pack.aggregator.Trace(query)

	query.Current.Pop()
	query.Distance *= i.inverseScale
	query.Ray = saved
}

// Occlude mirrors Trace for the boolean query
func (i *PreparedInstance) Occlude(query *aggregator.OccludeQuery) bool {
	saved := query.Ray
	savedTravel := query.Travel
	query.Ray = core.Ray{
		Origin:    i.forward.ApplyPoint(saved.Origin),
		Direction: i.forward.ApplyDirection(saved.Direction).Multiply(i.inverseScale),
	}
	query.Travel *= i.forwardScale
	query.Current.Push(i.token)

	occluded := i.pack.aggregator.Occlude(query)

	query.Current.Pop()
	query.Travel = savedTravel
	query.Ray = saved
	return occluded
}

// TraceCost counts traversal work inside the instance, keeping the
// distance bound consistent across the space change
func (i *PreparedInstance) TraceCost(ray core.Ray, distance *float64) int {
	local := core.Ray{
		Origin:    i.forward.ApplyPoint(ray.Origin),
		Direction: i.forward.ApplyDirection(ray.Direction).Multiply(i.inverseScale),
	}

	*distance *= i.forwardScale
	cost := i.pack.aggregator.TraceCost(local, distance)
	*distance *= i.inverseScale
	return cost
}

// transformToLocal maps a parent-space point into the pack's local space
func (i *PreparedInstance) transformToLocal(point core.Vec3) core.Vec3 {
	return i.forward.ApplyPoint(point)
}

// transformNormalToParent maps a local-space normal back to parent space
func (i *PreparedInstance) transformNormalToParent(normal core.Vec3) core.Vec3 {
	return i.inverse.ApplyDirection(normal).Normalize()
}
