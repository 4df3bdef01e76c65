package material

// Allocator is a per-worker arena for the scattering functions built at
// every surface hit. Allocation bumps an index into a typed pool that is
// reused after Restart, so a pixel sample's worth of scattering state costs
// no garbage. All pooled values are plain data; nothing is finalized.
type Allocator struct {
	bsdfs         []BSDF
	lambertians   []Lambertian
	reflections   []SpecularReflection
	transmissions []SpecularTransmission
	functions     []BxDF

	bsdfCount         int
	lambertianCount   int
	reflectionCount   int
	transmissionCount int
	functionCount     int
}

// NewAllocator creates an empty arena; pools grow on demand and stay grown
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Restart resets all bump indices, invalidating everything allocated since
// the previous restart. Memory is retained for reuse.
func (a *Allocator) Restart() {
	a.bsdfCount = 0
	a.lambertianCount = 0
	a.reflectionCount = 0
	a.transmissionCount = 0
	a.functionCount = 0
}

// NewBSDF allocates an empty scattering function set
func (a *Allocator) NewBSDF() *BSDF {
	if a.bsdfCount == len(a.bsdfs) {
		a.bsdfs = append(a.bsdfs, BSDF{})
	}
	bsdf := &a.bsdfs[a.bsdfCount]
	a.bsdfCount++

	bsdf.reset(a.takeFunctions())
	return bsdf
}

// NewLambertian allocates a Lambertian component
func (a *Allocator) NewLambertian() *Lambertian {
	if a.lambertianCount == len(a.lambertians) {
		a.lambertians = append(a.lambertians, Lambertian{})
	}
	function := &a.lambertians[a.lambertianCount]
	a.lambertianCount++
	*function = Lambertian{}
	return function
}

// NewSpecularReflection allocates a specular reflection component
func (a *Allocator) NewSpecularReflection() *SpecularReflection {
	if a.reflectionCount == len(a.reflections) {
		a.reflections = append(a.reflections, SpecularReflection{})
	}
	function := &a.reflections[a.reflectionCount]
	a.reflectionCount++
	*function = SpecularReflection{}
	return function
}

// NewSpecularTransmission allocates a specular transmission component
func (a *Allocator) NewSpecularTransmission() *SpecularTransmission {
	if a.transmissionCount == len(a.transmissions) {
		a.transmissions = append(a.transmissions, SpecularTransmission{})
	}
	function := &a.transmissions[a.transmissionCount]
	a.transmissionCount++
	*function = SpecularTransmission{}
	return function
}

// takeFunctions hands out a zero-length view of the shared component slice
// for a BSDF to append into
func (a *Allocator) takeFunctions() []BxDF {
	// Each BSDF gets a fixed-capacity window so appends never overlap
	const window = maxFunctionCount

	need := a.functionCount + window
	for len(a.functions) < need {
		a.functions = append(a.functions, nil)
	}
	view := a.functions[a.functionCount:a.functionCount:need]
	a.functionCount = need
	return view
}
