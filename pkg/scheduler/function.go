package scheduler

import (
	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// CostFunction evaluates a resource's per-period cost at a given period
// value (a busy interval's bs or be), grounded on the original's
// function.py (ConstantFunction/LinearFunction/PolynomialFunction),
// supplemented into SPEC_FULL §4 beyond spec.md's constant/linear mention.
//
// The backend (package csp) is strictly linear-integer arithmetic (spec
// §1 Non-goals), so only ConstantCost and LinearCost evaluate as a direct
// affine assertion. PolynomialCost (degree >= 2) cannot: a solver variable
// multiplied by itself is not a linear relation. Since every period symbol
// here has a small, finite, already-bounded domain (the problem horizon),
// PolynomialCost instead evaluates via a table: one reified equality per
// candidate period value, guarding the one applicable pre-computed cost.
// This is the standard finite-domain "element constraint" technique, not
// an approximation — it is exact, just enumerated rather than computed
// in-model.
type CostFunction interface {
	// eval returns a symbol equal to this function's value at x;
	// constantValue reports whether the function is constant (so
	// ResourceCost can skip the trapezoid entirely and use the cheaper
	// c*(be-bs) form, per spec §4.5).
	eval(sp *symbol.Space, name string, x symbol.IntSym) (symbol.IntSym, error)
	constantValue() (int, bool)
}

// constantCost is a fixed per-period cost, independent of x.
type constantCost struct{ value int }

// ConstantCost returns a cost function with a fixed value per period.
func ConstantCost(value int) CostFunction { return constantCost{value: value} }

func (c constantCost) constantValue() (int, bool) { return c.value, true }

func (c constantCost) eval(sp *symbol.Space, name string, _ symbol.IntSym) (symbol.IntSym, error) {
	return sp.NewConst(name, c.value), nil
}

// linearCost is cost(x) = slope*x + intercept.
type linearCost struct {
	slope, intercept int
}

// LinearCost returns a cost function linear in the period value.
func LinearCost(slope, intercept int) CostFunction {
	return linearCost{slope: slope, intercept: intercept}
}

func (c linearCost) constantValue() (int, bool) {
	if c.slope == 0 {
		return c.intercept, true
	}
	return 0, false
}

func (c linearCost) eval(sp *symbol.Space, name string, x symbol.IntSym) (symbol.IntSym, error) {
	lo := c.slope*(x.Var().Domain().Min()+x.Offset()) + c.intercept
	hi := c.slope*(x.Var().Domain().Max()+x.Offset()) + c.intercept
	if lo > hi {
		lo, hi = hi, lo
	}
	intercept := sp.NewConst(name+"_intercept", c.intercept)
	return sp.WeightedSum(name, lo, hi, []int{c.slope, 1}, []symbol.IntSym{x, intercept})
}

// polynomialCost is cost(x) = Σ coeffs[i] * x^i, evaluated via a table over
// x's finite domain (see the CostFunction doc comment).
type polynomialCost struct{ coeffs []int }

// PolynomialCost returns cost(x) = coeffs[0] + coeffs[1]*x + coeffs[2]*x^2 + ...
func PolynomialCost(coeffs ...int) CostFunction {
	return polynomialCost{coeffs: append([]int(nil), coeffs...)}
}

func (c polynomialCost) constantValue() (int, bool) {
	for _, v := range c.coeffs[1:] {
		if v != 0 {
			return 0, false
		}
	}
	if len(c.coeffs) == 0 {
		return 0, true
	}
	return c.coeffs[0], true
}

func (c polynomialCost) evalAt(x int) int {
	result := 0
	p := 1
	for _, coeff := range c.coeffs {
		result += coeff * p
		p *= x
	}
	return result
}

func (c polynomialCost) eval(sp *symbol.Space, name string, x symbol.IntSym) (symbol.IntSym, error) {
	var values []int
	x.Var().Domain().IterateValues(func(d int) { values = append(values, d) })
	lo, hi := 0, 0
	first := true
	for _, d := range values {
		period := d + x.Offset()
		v := c.evalAt(period)
		if first {
			lo, hi = v, v
			first = false
		} else {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	result, err := sp.NewInt(name, lo, hi)
	if err != nil {
		return symbol.IntSym{}, err
	}
	for _, d := range values {
		period := d + x.Offset()
		v := c.evalAt(period)
		matchX, err := sp.ReifyEqual(name+"_at", x, sp.NewConst(name+"_xv", period))
		if err != nil {
			return symbol.IntSym{}, err
		}
		eqV, err := sp.ReifyEqual(name+"_eqv", result, sp.NewConst(name+"_v", v))
		if err != nil {
			return symbol.IntSym{}, err
		}
		if err := sp.Guard(matchX, eqV); err != nil {
			return symbol.IntSym{}, err
		}
	}
	return result, nil
}
