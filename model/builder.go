package model

// A Builder accumulates variable declarations and compiles them into an
// immutable Model. It is an explicit object passed by the caller; there is no
// ambient "current model" scope. Declarations are only validated when Build
// runs, so a Builder can be populated in any convenient order for
// deterministics, while prior parameters must reference previously declared
// variables.
type Builder struct {
	name string
	vars []*RandomVariable
	dets []*Deterministic
	obs  []*Observation
}

// NewBuilder starts an empty model builder
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// RV declares a scalar random variable with the given prior
func (b *Builder) RV(name string, prior Dist) *Builder {
	b.vars = append(b.vars, &RandomVariable{Name: name, Prior: prior, Shape: 1})
	return b
}

// RVVec declares a fixed-size vector random variable. For scalar-parameter
// priors the components are independent draws from the prior; a Dirichlet
// prior covers the vector jointly (shape must match the concentration).
func (b *Builder) RVVec(name string, prior Dist, shape int) *Builder {
	b.vars = append(b.vars, &RandomVariable{Name: name, Prior: prior, Shape: shape})
	return b
}

// RVShifted declares a scalar random variable whose support is shifted up by
// lower: the prior describes (value - lower). The standard use is flooring a
// Student-t degrees-of-freedom parameter above 1 with an Exponential base.
func (b *Builder) RVShifted(name string, prior Dist, lower float64) *Builder {
	b.vars = append(b.vars, &RandomVariable{Name: name, Prior: prior, Shape: 1, Lower: lower})
	return b
}

// Det declares a named scalar computed from the referenced dependencies.
// The function receives dependency values in the order given and must be
// pure: it is re-run for every density evaluation and every retained draw.
func (b *Builder) Det(name string, fn func(args []float64) float64, deps ...Ref) *Builder {
	b.dets = append(b.dets, &Deterministic{Name: name, Deps: deps, Fn: fn})
	return b
}

// Observe binds a likelihood to a fixed numeric sample
func (b *Builder) Observe(name string, like Dist, data []float64) *Builder {
	cp := make([]float64, len(data))
	copy(cp, data)
	b.obs = append(b.obs, &Observation{Name: name, Like: like, Data: cp})
	return b
}

// ObserveGrouped binds a likelihood whose whole-vector parameters are
// indexed per datum: groups[i] selects the component of each vector
// parameter used for data[i]. The mapping is validated at Build for bounds
// and completeness.
func (b *Builder) ObserveGrouped(name string, like Dist, data []float64, groups []int) *Builder {
	cp := make([]float64, len(data))
	copy(cp, data)
	gp := make([]int, len(groups))
	copy(gp, groups)
	b.obs = append(b.obs, &Observation{Name: name, Like: like, Data: cp, Groups: gp})
	return b
}

// Build validates the declarations, resolves every parameter reference,
// verifies the deterministic graph is acyclic, and returns the compiled
// Model. All spec/shape problems surface here, before any sampling.
func (b *Builder) Build() (*Model, error) {
	return compile(b)
}
