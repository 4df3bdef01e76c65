package scene

import "errors"

// ErrPreparation marks a scene that cannot be frozen: a non-uniform
// instance scale, a missing material, a zero-area emissive triangle, or a
// cyclic instance graph. Preparation failures are fatal and surface before
// any rendering starts.
var ErrPreparation = errors.New("scene preparation failed")
