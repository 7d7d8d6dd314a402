package model

import (
	"math"
)

// Transform tags: how a variable's unconstrained slice maps to its
// constrained value.
type xform int

const (
	xIdentity xform = iota // real line
	xLog                   // lower + exp(z), positive support
	xLogit                 // lo + (hi-lo)*sigmoid(z), bounded interval
	xStick                 // stick-breaking simplex (Dirichlet)
)

// operand is a compiled scalar parameter: a constant or an index into the
// model's value vector.
type operand struct {
	c   float64
	idx int // -1 for constant
}

func (op operand) resolve(vals []float64) float64 {
	if op.idx < 0 {
		return op.c
	}
	return vals[op.idx]
}

// varSlot is one compiled random variable
type varSlot struct {
	v      *RandomVariable
	zOff   int // offset into the unconstrained vector
	zLen   int
	vOff   int // offset into the value vector
	vLen   int
	tf     xform
	lo, hi float64 // xLogit bounds
	params []operand
}

// detSlot is one compiled deterministic; deps index the value vector
type detSlot struct {
	d    *Deterministic
	vOff int
	deps []operand
}

// Compiled observation likelihood parameters
const (
	opConst   = iota // literal value
	opScalar         // one value-vector slot
	opGrouped        // vector base, indexed per datum by the group mapping
)

type obsParam struct {
	kind int
	c    float64
	idx  int
	off  int
}

type obsSlot struct {
	o        *Observation
	params   []obsParam
	probsOff int // Multinomial probability vector base
	probsLen int
}

// Model is the closed, validated set of random variables, deterministics and
// observations. It is immutable after Build and safe for concurrent
// LogProb/Values calls from multiple chains.
type Model struct {
	Name string
	Vars []*RandomVariable
	Dets []*Deterministic
	Obs  []*Observation

	slots    []varSlot
	detSlots []detSlot // in dependency (topological) order
	obsSlots []obsSlot
	dim      int // unconstrained dimension
	valLen   int // value-vector length (all RV components + deterministics)
	names    []string
}

// Dim returns the size of the unconstrained parameter vector the sampler
// proposes over.
func (m *Model) Dim() int {
	return m.dim
}

// ValLen returns the length of the value vector: every random-variable
// component followed by every deterministic, in declaration order.
func (m *Model) ValLen() int {
	return m.valLen
}

// ComponentNames returns the value-vector component names: scalar variables
// keep their name, vector components render as name[i].
func (m *Model) ComponentNames() []string {
	cp := make([]string, len(m.names))
	copy(cp, m.names)
	return cp
}

// compile resolves and validates a Builder's declarations
func compile(b *Builder) (*Model, error) {
	m := &Model{
		Name: b.name,
		Vars: b.vars,
		Dets: b.dets,
		Obs:  b.obs,
	}

	if len(m.Vars) < 1 {
		return nil, specErrf("Model %s declares no random variables", m.Name)
	}

	// Value-vector layout and per-name lookup. Variables, deterministics and
	// observations share one namespace.
	seen := make(map[string]nameEntry)
	simplex := make(map[string]bool)

	declared := func(name string) bool {
		_, ok := seen[name]
		return ok
	}

	zOff, vOff := 0, 0
	for _, v := range m.Vars {
		if err := v.Check(); err != nil {
			return nil, err
		}
		if declared(v.Name) {
			return nil, specErrf("Duplicate declaration of %s", v.Name)
		}

		sl := varSlot{v: v, zOff: zOff, vOff: vOff, vLen: v.Shape}
		switch {
		case v.Prior.Family == Dirichlet:
			sl.tf = xStick
			sl.zLen = v.Shape - 1
		case positiveSupport(v.Prior.Family):
			sl.tf = xLog
			sl.zLen = v.Shape
		case v.Prior.Family == Beta:
			sl.tf = xLogit
			sl.lo, sl.hi = 0.0, 1.0
			sl.zLen = v.Shape
		case v.Prior.Family == Uniform:
			sl.tf = xLogit
			sl.lo, sl.hi = v.Prior.Params[0].Value, v.Prior.Params[1].Value
			sl.zLen = v.Shape
		default:
			sl.tf = xIdentity
			sl.zLen = v.Shape
		}

		// Prior parameters must reference previously declared variables
		for _, r := range v.Prior.Params {
			op, err := compileScalar(r, seen, "prior of "+v.Name)
			if err != nil {
				return nil, err
			}
			sl.params = append(sl.params, op)
		}

		m.slots = append(m.slots, sl)
		seen[v.Name] = nameEntry{off: vOff, n: v.Shape}
		if v.Prior.Family == Dirichlet {
			simplex[v.Name] = true
		}
		for i := 0; i < v.Shape; i++ {
			m.names = append(m.names, componentName(v.Name, v.Shape, i))
		}
		zOff += sl.zLen
		vOff += v.Shape
	}
	m.dim = zOff

	// Deterministics claim value slots in declaration order; dependencies may
	// reference any variable or deterministic, so cycles are possible and
	// checked below.
	for _, d := range m.Dets {
		if err := d.Check(); err != nil {
			return nil, err
		}
		if declared(d.Name) {
			return nil, specErrf("Duplicate declaration of %s", d.Name)
		}
		seen[d.Name] = nameEntry{off: vOff, n: 1}
		m.names = append(m.names, d.Name)
		vOff++
	}
	m.valLen = vOff

	// Resolve deterministic dependencies now that every name has a slot
	detByName := make(map[string]*Deterministic, len(m.Dets))
	for _, d := range m.Dets {
		detByName[d.Name] = d
	}
	order, err := detTopoOrder(m.Dets, detByName)
	if err != nil {
		return nil, err
	}
	for _, d := range order {
		sl := detSlot{d: d, vOff: seen[d.Name].off}
		for _, r := range d.Deps {
			if !declared(r.Name) {
				return nil, specErrf("Deterministic %s references undeclared %s", d.Name, r.Name)
			}
			op, err := compileScalar(r, seen, "deterministic "+d.Name)
			if err != nil {
				return nil, err
			}
			sl.deps = append(sl.deps, op)
		}
		m.detSlots = append(m.detSlots, sl)
	}

	// Observations
	for _, o := range m.Obs {
		if err := o.Check(); err != nil {
			return nil, err
		}
		if declared(o.Name) {
			return nil, specErrf("Duplicate declaration of %s", o.Name)
		}
		seen[o.Name] = nameEntry{} // name reserved, no value slot

		sl := obsSlot{o: o, probsOff: -1}

		if o.Like.Family == Multinomial {
			r := o.Like.Probs
			if r.IsConst() || r.Index != -1 {
				return nil, specErrf("Observation %s: Multinomial probabilities must reference a whole vector variable", o.Name)
			}
			ent, ok := seen[r.Name]
			if !ok || ent.n < 1 {
				return nil, specErrf("Observation %s references undeclared vector %s", o.Name, r.Name)
			}
			if !simplex[r.Name] {
				return nil, specErrf("Observation %s: Multinomial probabilities must be a Dirichlet-prior vector, %s is not", o.Name, r.Name)
			}
			if ent.n != len(o.Data) {
				return nil, shapeErrf("Observation %s has %d counts but %s has %d components", o.Name, len(o.Data), r.Name, ent.n)
			}
			sl.probsOff, sl.probsLen = ent.off, ent.n
			m.obsSlots = append(m.obsSlots, sl)
			continue
		}

		vecLen := -1
		for pi, r := range o.Like.Params {
			switch {
			case r.IsConst():
				sl.params = append(sl.params, obsParam{kind: opConst, c: r.Value})
			case r.Index == -1 && seen[r.Name].n > 1:
				// Whole-vector parameter: requires the group mapping
				ent, ok := seen[r.Name]
				if !ok {
					return nil, specErrf("Observation %s references undeclared %s", o.Name, r.Name)
				}
				if o.Groups == nil {
					return nil, shapeErrf("Observation %s parameter %d references vector %s without a group mapping", o.Name, pi, r.Name)
				}
				if vecLen >= 0 && vecLen != ent.n {
					return nil, shapeErrf("Observation %s mixes vector parameters of size %d and %d", o.Name, vecLen, ent.n)
				}
				vecLen = ent.n
				sl.params = append(sl.params, obsParam{kind: opGrouped, off: ent.off})
			default:
				op, err := compileScalar(r, seen, "likelihood of "+o.Name)
				if err != nil {
					return nil, err
				}
				sl.params = append(sl.params, obsParam{kind: opScalar, idx: op.idx})
			}
		}

		if o.Groups != nil {
			if vecLen < 0 {
				return nil, shapeErrf("Observation %s declares a group mapping but no vector parameter", o.Name)
			}
			present := make([]bool, vecLen)
			for i, g := range o.Groups {
				if g < 0 || g >= vecLen {
					return nil, shapeErrf("Observation %s group[%d]=%d out of range [0,%d)", o.Name, i, g, vecLen)
				}
				present[g] = true
			}
			for g, ok := range present {
				if !ok {
					return nil, shapeErrf("Observation %s group mapping never uses component %d", o.Name, g)
				}
			}
		}

		m.obsSlots = append(m.obsSlots, sl)
	}

	return m, nil
}

// nameEntry locates a declared name in the value vector
type nameEntry struct {
	off, n int
}

// compileScalar resolves a Ref in a scalar position
func compileScalar(r Ref, seen map[string]nameEntry, where string) (operand, error) {
	if r.IsConst() {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return operand{}, specErrf("Non-finite constant %v in %s", r.Value, where)
		}
		return operand{c: r.Value, idx: -1}, nil
	}

	ent, ok := seen[r.Name]
	if !ok {
		return operand{}, specErrf("Unresolved reference to %s in %s", r.Name, where)
	}
	if ent.n < 1 {
		return operand{}, specErrf("Reference to %s in %s does not name a value", r.Name, where)
	}

	idx := r.Index
	if idx == -1 {
		if ent.n != 1 {
			return operand{}, shapeErrf("Reference to vector %s in %s needs a component index", r.Name, where)
		}
		idx = 0
	}
	if idx < 0 || idx >= ent.n {
		return operand{}, shapeErrf("Index %d out of range for %s (size %d) in %s", idx, r.Name, ent.n, where)
	}

	return operand{idx: ent.off + idx}, nil
}

// detTopoOrder orders deterministics so every dependency is computed first.
// A cycle is a specification error.
func detTopoOrder(dets []*Deterministic, byName map[string]*Deterministic) ([]*Deterministic, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(dets))
	order := make([]*Deterministic, 0, len(dets))

	var visit func(d *Deterministic) error
	visit = func(d *Deterministic) error {
		switch color[d.Name] {
		case gray:
			return specErrf("Cyclic deterministic dependency through %s", d.Name)
		case black:
			return nil
		}
		color[d.Name] = gray
		for _, r := range d.Deps {
			if dep, ok := byName[r.Name]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[d.Name] = black
		order = append(order, d)
		return nil
	}

	for _, d := range dets {
		if err := visit(d); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// constrain maps the unconstrained vector into the value vector and returns
// the accumulated log-Jacobian. A non-finite mapping returns -Inf.
func (m *Model) constrain(z []float64, vals []float64) float64 {
	var logJac float64

	for _, sl := range m.slots {
		zs := z[sl.zOff : sl.zOff+sl.zLen]
		vs := vals[sl.vOff : sl.vOff+sl.vLen]

		switch sl.tf {
		case xIdentity:
			copy(vs, zs)

		case xLog:
			for i, zi := range zs {
				vs[i] = sl.v.Lower + math.Exp(zi)
				logJac += zi
			}

		case xLogit:
			width := sl.hi - sl.lo
			lw := math.Log(width)
			for i, zi := range zs {
				s := sigmoid(zi)
				vs[i] = sl.lo + width*s
				logJac += lw + math.Log(s) + math.Log(1.0-s)
			}

		case xStick:
			// Stan-style stick-breaking: K-1 unconstrained values to a
			// K-simplex, with the log-Jacobian of each break.
			stick := 1.0
			k := len(vs)
			for i, zi := range zs {
				adj := zi - math.Log(float64(k-1-i))
				u := sigmoid(adj)
				vs[i] = stick * u
				logJac += math.Log(stick) + math.Log(u) + math.Log(1.0-u)
				stick -= vs[i]
			}
			vs[k-1] = stick
		}
	}

	if math.IsNaN(logJac) || math.IsInf(logJac, 1) {
		return math.Inf(-1)
	}
	for _, v := range vals[:m.valLen-len(m.Dets)] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(-1)
		}
	}

	return logJac
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}

// computeDets fills deterministic slots (dependency order)
func (m *Model) computeDets(vals []float64) {
	for _, sl := range m.detSlots {
		args := make([]float64, len(sl.deps))
		for i, op := range sl.deps {
			args[i] = op.resolve(vals)
		}
		vals[sl.vOff] = sl.d.Fn(args)
	}
}

// LogProb evaluates the joint unnormalized log posterior at the
// unconstrained point z: every prior density plus every likelihood density
// plus the transform Jacobians. Numerically invalid points return -Inf and
// never panic; the sampler treats them as rejections.
func (m *Model) LogProb(z []float64) float64 {
	if len(z) != m.dim {
		return math.Inf(-1)
	}

	vals := make([]float64, m.valLen)
	lp := m.constrain(z, vals)
	if math.IsInf(lp, -1) {
		return lp
	}
	m.computeDets(vals)

	// Priors
	p := make([]float64, 4)
	for _, sl := range m.slots {
		if sl.v.Prior.Family == Dirichlet {
			lp += logPdfDirichlet(sl.v.Prior.Alpha, vals[sl.vOff:sl.vOff+sl.vLen])
			continue
		}

		pp := p[:len(sl.params)]
		for i, op := range sl.params {
			pp[i] = op.resolve(vals)
		}
		for i := 0; i < sl.vLen; i++ {
			lp += logPdf(sl.v.Prior.Family, pp, vals[sl.vOff+i]-sl.v.Lower)
		}
	}

	// Likelihoods
	for _, sl := range m.obsSlots {
		o := sl.o

		if o.Like.Family == Multinomial {
			lp += logPmfMultinomial(o.Data, vals[sl.probsOff:sl.probsOff+sl.probsLen])
			continue
		}

		np := len(sl.params)
		pp := make([]float64, np, np+1)
		if o.Like.Family == Binomial {
			pp = append(pp, float64(o.Like.Trials))
		}

		grouped := false
		for i, op := range sl.params {
			switch op.kind {
			case opConst:
				pp[i] = op.c
			case opScalar:
				pp[i] = vals[op.idx]
			case opGrouped:
				grouped = true
			}
		}

		if !grouped {
			for _, x := range o.Data {
				lp += logPdf(o.Like.Family, pp, x)
			}
		} else {
			for di, x := range o.Data {
				g := o.Groups[di]
				for i, op := range sl.params {
					if op.kind == opGrouped {
						pp[i] = vals[op.off+g]
					}
				}
				lp += logPdf(o.Like.Family, pp, x)
			}
		}
	}

	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// Values maps an unconstrained point to the full value vector (constrained
// variable components followed by deterministics). This is what the sampler
// records per retained draw.
func (m *Model) Values(z []float64) []float64 {
	vals := make([]float64, m.valLen)
	m.constrain(z, vals)
	m.computeDets(vals)
	return vals
}

// InitCenter returns a reasonable unconstrained starting point: identity
// variables start at their prior location (when constant), positive-support
// variables at the log of their prior scale, bounded and simplex variables
// at their midpoint. Chains jitter around this point.
func (m *Model) InitCenter() []float64 {
	z := make([]float64, m.dim)

	for _, sl := range m.slots {
		var c float64
		switch sl.tf {
		case xIdentity:
			// Location families carry the location as their first or second
			// parameter (StudentT: nu, mu, sigma).
			loc := 0
			if sl.v.Prior.Family == StudentT {
				loc = 1
			}
			if len(sl.params) > loc && sl.params[loc].idx < 0 {
				c = sl.params[loc].c
			}
		case xLog:
			switch sl.v.Prior.Family {
			case Exponential:
				if sl.params[0].idx < 0 && sl.params[0].c > 0 {
					c = -math.Log(sl.params[0].c) // prior mean 1/rate
				}
			default:
				if sl.params[0].idx < 0 && sl.params[0].c > 0 {
					c = math.Log(sl.params[0].c)
				}
			}
		case xLogit, xStick:
			c = 0.0
		}

		for i := 0; i < sl.zLen; i++ {
			z[sl.zOff+i] = c
		}
	}

	return z
}
