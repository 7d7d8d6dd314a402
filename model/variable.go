package model

import (
	"fmt"
	"math"
)

// RandomVariable is a named quantity with a prior distribution. Shape 1 is a
// scalar; Shape > 1 declares a fixed-size vector whose components share the
// prior (a Dirichlet prior instead covers the whole vector jointly). Lower
// is an additive shift applied under the prior: the prior describes
// (value - Lower), which is how degrees-of-freedom parameters are floored
// above 1. Immutable after model construction.
type RandomVariable struct {
	Name  string
	Prior Dist
	Shape int
	Lower float64
}

// Check returns an error if the declaration itself is invalid, before any
// graph-level resolution happens.
func (v *RandomVariable) Check() error {
	if v.Name == "" {
		return specErrf("Random variable with empty name")
	}
	if v.Shape < 1 {
		return specErrf("Variable %s has invalid shape %d", v.Name, v.Shape)
	}

	fam := v.Prior.Family
	if !continuous(fam) {
		return specErrf("Variable %s has non-continuous prior %s - discrete families are likelihood-only", v.Name, fam)
	}

	if fam == Dirichlet {
		if len(v.Prior.Alpha) != v.Shape {
			return shapeErrf("Variable %s: Dirichlet concentration has %d components but shape is %d", v.Name, len(v.Prior.Alpha), v.Shape)
		}
		if v.Shape < 2 {
			return shapeErrf("Variable %s: Dirichlet shape must be >= 2, have %d", v.Name, v.Shape)
		}
		for i, a := range v.Prior.Alpha {
			if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
				return specErrf("Variable %s: Dirichlet concentration[%d]=%v must be positive and finite", v.Name, i, a)
			}
		}
	} else if pc := paramCount(fam); pc != len(v.Prior.Params) {
		return specErrf("Variable %s: %s takes %d parameters, have %d", v.Name, fam, pc, len(v.Prior.Params))
	}

	if v.Lower != 0 && !positiveSupport(fam) {
		return specErrf("Variable %s: lower shift %v requires a positive-support prior, have %s", v.Name, v.Lower, fam)
	}

	if fam == Uniform {
		lo, hi := v.Prior.Params[0], v.Prior.Params[1]
		if !lo.IsConst() || !hi.IsConst() {
			return specErrf("Variable %s: Uniform bounds must be constants", v.Name)
		}
		if hi.Value <= lo.Value {
			return specErrf("Variable %s: Uniform bounds [%v, %v] are empty", v.Name, lo.Value, hi.Value)
		}
	}

	return nil
}

// positiveSupport reports whether the family's support is the positive reals
func positiveSupport(family string) bool {
	switch family {
	case HalfNormal, HalfCauchy, Exponential:
		return true
	}
	return false
}

// Deterministic is a named scalar computed as a pure function of other
// declared variables. It is recomputed from each posterior draw and recorded
// in the trace, never directly sampled.
type Deterministic struct {
	Name string
	Deps []Ref
	Fn   func(args []float64) float64
}

// Check validates the declaration shape (graph resolution happens at Build)
func (d *Deterministic) Check() error {
	if d.Name == "" {
		return specErrf("Deterministic with empty name")
	}
	if d.Fn == nil {
		return specErrf("Deterministic %s has no function", d.Name)
	}
	if len(d.Deps) < 1 {
		return specErrf("Deterministic %s has no dependencies", d.Name)
	}
	for i, dep := range d.Deps {
		if dep.IsConst() {
			return specErrf("Deterministic %s dependency %d is a constant - fold it into the function", d.Name, i)
		}
	}
	return nil
}

// Observation binds a likelihood distribution to a fixed numeric sample.
// Groups, when present, map each datum to a component index of any
// whole-vector parameter in the likelihood (the static replacement for
// broadcast-by-label indexing). Immutable once constructed.
type Observation struct {
	Name   string
	Like   Dist
	Data   []float64
	Groups []int
}

// Check validates data shape against the declared likelihood
func (o *Observation) Check() error {
	if o.Name == "" {
		return specErrf("Observation with empty name")
	}
	if len(o.Data) < 1 {
		return shapeErrf("Observation %s has no data", o.Name)
	}
	for i, x := range o.Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return shapeErrf("Observation %s datum %d is not finite: %v", o.Name, i, x)
		}
	}

	fam := o.Like.Family
	switch fam {
	case Multinomial:
		if o.Groups != nil {
			return shapeErrf("Observation %s: Multinomial does not take a group mapping", o.Name)
		}
		var sum float64
		for i, k := range o.Data {
			if k < 0 || k != math.Trunc(k) {
				return shapeErrf("Observation %s count[%d]=%v must be a non-negative integer", o.Name, i, k)
			}
			sum += k
		}
		if o.Like.Trials > 0 && int(sum) != o.Like.Trials {
			return shapeErrf("Observation %s counts sum to %d but %d trials declared", o.Name, int(sum), o.Like.Trials)
		}
	case Poisson, Binomial:
		for i, k := range o.Data {
			if k < 0 || k != math.Trunc(k) {
				return shapeErrf("Observation %s count[%d]=%v must be a non-negative integer", o.Name, i, k)
			}
		}
	case Dirichlet:
		return specErrf("Observation %s: Dirichlet is prior-only", o.Name)
	default:
		if pc := paramCount(fam); pc < 0 {
			return specErrf("Observation %s has unknown likelihood family %q", o.Name, fam)
		} else if pc != len(o.Like.Params) {
			return specErrf("Observation %s: %s takes %d parameters, have %d", o.Name, fam, pc, len(o.Like.Params))
		}
	}

	if o.Groups != nil && len(o.Groups) != len(o.Data) {
		return shapeErrf("Observation %s has %d group indexes for %d data", o.Name, len(o.Groups), len(o.Data))
	}

	return nil
}

// componentName renders the flattened name of one vector component
func componentName(name string, shape, idx int) string {
	if shape == 1 {
		return name
	}
	return fmt.Sprintf("%s[%d]", name, idx)
}
