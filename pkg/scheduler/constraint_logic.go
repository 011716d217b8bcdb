package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// constraintOrBool accepts either an existing Constraint or a raw boolean
// expression as a child of a first-order combinator (spec §4.4: "take
// existing constraints or raw boolean expressions"). A Constraint child is
// marked consumed so solve assembly (solver.go) never asserts its Body both
// standalone and folded into the parent.
func constraintOrBool(v interface{}) (symbol.BoolSym, error) {
	switch x := v.(type) {
	case Constraint:
		x.markConsumed()
		return x.Body(), nil
	case symbol.BoolSym:
		return x, nil
	default:
		return symbol.BoolSym{}, fmt.Errorf("scheduler: combinator child must be a Constraint or symbol.BoolSym, got %T", v)
	}
}

func constraintsOrBools(vs []interface{}) ([]symbol.BoolSym, error) {
	out := make([]symbol.BoolSym, len(vs))
	for i, v := range vs {
		b, err := constraintOrBool(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

type rawConstraint struct{ baseConstraint }

// NewRawConstraint wraps an already-built boolean expression as a Constraint
// so it can be registered, named, and fed to combinators/cardinality helpers
// uniformly (spec §4.4 "raw boolean expression" child kind).
func NewRawConstraint(name string, body symbol.BoolSym) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("RawConstraint")
	}
	c := &rawConstraint{baseConstraint: baseConstraint{name: name, body: body, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type notConstraint struct{ baseConstraint }

// Not negates child's body (spec §4.4 first-order combinators).
func Not(name string, child interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Not")
	}
	b, err := constraintOrBool(child)
	if err != nil {
		return nil, err
	}
	body, err := p.sp.Not(b)
	if err != nil {
		return nil, err
	}
	c := &notConstraint{baseConstraint: baseConstraint{name: name, body: body, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type andConstraint struct{ baseConstraint }

// And conjoins every child's body.
func And(name string, children ...interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, invalidParam("children", "must not be empty")
	}
	if name == "" {
		name = genName("And")
	}
	bs, err := constraintsOrBools(children)
	if err != nil {
		return nil, err
	}
	body, err := p.sp.And(bs...)
	if err != nil {
		return nil, err
	}
	c := &andConstraint{baseConstraint: baseConstraint{name: name, body: body, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type orConstraint struct{ baseConstraint }

// Or disjoins every child's body.
func Or(name string, children ...interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, invalidParam("children", "must not be empty")
	}
	if name == "" {
		name = genName("Or")
	}
	bs, err := constraintsOrBools(children)
	if err != nil {
		return nil, err
	}
	body, err := p.sp.Or(bs...)
	if err != nil {
		return nil, err
	}
	c := &orConstraint{baseConstraint: baseConstraint{name: name, body: body, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type xorConstraint struct{ baseConstraint }

// Xor requires exactly one of a, b to hold.
func Xor(name string, a, b interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Xor")
	}
	ba, err := constraintOrBool(a)
	if err != nil {
		return nil, err
	}
	bb, err := constraintOrBool(b)
	if err != nil {
		return nil, err
	}
	body, err := p.sp.Xor(ba, bb)
	if err != nil {
		return nil, err
	}
	c := &xorConstraint{baseConstraint: baseConstraint{name: name, body: body, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type impliesConstraint struct{ baseConstraint }

// Implies asserts cond ⇒ body.
func Implies(name string, cond, body interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Implies")
	}
	bc, err := constraintOrBool(cond)
	if err != nil {
		return nil, err
	}
	bb, err := constraintOrBool(body)
	if err != nil {
		return nil, err
	}
	rel, err := p.sp.Implies(bc, bb)
	if err != nil {
		return nil, err
	}
	c := &impliesConstraint{baseConstraint: baseConstraint{name: name, body: rel, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}

type ifThenElseConstraint struct{ baseConstraint }

// IfThenElse asserts (cond ⇒ thenC) ∧ (¬cond ⇒ elseC).
func IfThenElse(name string, cond, thenC, elseC interface{}) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("IfThenElse")
	}
	bc, err := constraintOrBool(cond)
	if err != nil {
		return nil, err
	}
	bt, err := constraintOrBool(thenC)
	if err != nil {
		return nil, err
	}
	be, err := constraintOrBool(elseC)
	if err != nil {
		return nil, err
	}
	rel, err := p.sp.IfThenElse(bc, bt, be)
	if err != nil {
		return nil, err
	}
	c := &ifThenElseConstraint{baseConstraint: baseConstraint{name: name, body: rel, applied: p.sp.True()}}
	return registerAndReturn(p, name, c)
}
