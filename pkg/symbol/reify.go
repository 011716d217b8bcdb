package symbol

import "github.com/procscheduler/goscheduler/pkg/csp"

// This file turns plain relations between symbols into boolean symbols
// ("reification"), the piece that lets package scheduler express a guarded
// constraint ("if task is scheduled then start = 5") as an ordinary boolean
// implication instead of a solver-level conditional. ReifyEqual is built on
// the backend's bidirectional EqualityReified; ReifyCompare wraps an
// Inequality in the backend's general-purpose ReifiedConstraint, which
// already knows how to propagate both directions for Inequality and
// Arithmetic.

// ReifyEqual returns a boolean symbol equal to (x == y).
func (sp *Space) ReifyEqual(name string, x, y IntSym) (BoolSym, error) {
	if x.offset != y.offset {
		target := y.offset
		if low := x.v.Domain().Min() + x.offset - 1; low < target {
			target = low
			ys, err := sp.shadowOf(y, 0, target)
			if err != nil {
				return BoolSym{}, err
			}
			y = ys
		}
		shadow, err := sp.shadowOf(x, 0, target)
		if err != nil {
			return BoolSym{}, err
		}
		x = shadow
	}
	b := sp.NewBool(name)
	c, err := csp.NewEqualityReified(x.v, y.v, b.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(c)
	return b, nil
}

// ReifyCompare returns a boolean symbol equal to (x op y), where op is one
// of "<", "<=", ">", ">=", "!=". When the offsets differ, x (and, if x can
// fall below y's range, y as well) is shadowed into a common offset first.
func (sp *Space) ReifyCompare(name string, x IntSym, op string, y IntSym) (BoolSym, error) {
	if x.offset != y.offset {
		target := y.offset
		if low := x.v.Domain().Min() + x.offset - 1; low < target {
			target = low
			ys, err := sp.shadowOf(y, 0, target)
			if err != nil {
				return BoolSym{}, err
			}
			y = ys
		}
		shadow, err := sp.shadowOf(x, 0, target)
		if err != nil {
			return BoolSym{}, err
		}
		x = shadow
	}
	kind, err := toInequalityKind(op)
	if err != nil {
		return BoolSym{}, err
	}
	ineq, err := csp.NewInequality(x.v, y.v, kind)
	if err != nil {
		return BoolSym{}, err
	}
	b := sp.NewBool(name)
	rc, err := csp.NewReifiedConstraint(ineq, b.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(rc)
	return b, nil
}

// ReifyOffsetCompare is the offset-aware counterpart of ReifyCompare, for
// "x + delta op y" in period coordinates.
func (sp *Space) ReifyOffsetCompare(name string, x IntSym, delta int, op string, y IntSym) (BoolSym, error) {
	shadow, err := sp.shadowOf(x, delta, x.offset+delta)
	if err != nil {
		return BoolSym{}, err
	}
	return sp.ReifyCompare(name, shadow, op, y)
}

// Guard posts "cond ⇒ body" as a hard fact: the usual shape of an optional
// task's or optional constraint's conditional assertion set.
func (sp *Space) Guard(cond BoolSym, body ...BoolSym) error {
	g, err := sp.Implies(cond, body...)
	if err != nil {
		return err
	}
	return sp.AssertTrue(g)
}
