package symbol

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/csp"
)

// This file builds Not/And/Or/Xor/Implies/IfThenElse over BoolSym values.
// The backend (package csp) has no general boolean-formula propagator: it
// only reifies specific relations (equality, set membership, counting).
// Every composite here is therefore one fresh boolean tied to a counting
// or equality-reified constraint over its operands, the same trick the
// csp package itself uses to reify a single relation, just applied one
// level higher. This keeps the whole constraint library expressible
// without a SAT-clause layer underneath pkg/csp.

// AssertTrue posts a hard constraint that b must hold.
func (sp *Space) AssertTrue(b BoolSym) error {
	c, err := csp.NewArithmetic(b.v, sp.trueConst().v, 0)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(c)
	return nil
}

// AssertFalse posts a hard constraint that b must not hold.
func (sp *Space) AssertFalse(b BoolSym) error {
	c, err := csp.NewArithmetic(b.v, sp.falseConst().v, 0)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(c)
	return nil
}

// trueConst/falseConst memoize one shared singleton-domain boolean per
// Space so AssertTrue/AssertFalse don't create a fresh variable every call.
func (sp *Space) trueConst() BoolSym {
	if !sp.trueSym.Valid() {
		sp.trueSym = sp.NewConstBool("true", true)
	}
	return sp.trueSym
}

func (sp *Space) falseConst() BoolSym {
	if !sp.falseSym.Valid() {
		sp.falseSym = sp.NewConstBool("false", false)
	}
	return sp.falseSym
}

// True returns the Space's shared constant-true boolean symbol, used for a
// mandatory task/constraint's "always applies" flag.
func (sp *Space) True() BoolSym { return sp.trueConst() }

// False returns the Space's shared constant-false boolean symbol.
func (sp *Space) False() BoolSym { return sp.falseConst() }

// Not returns a boolean symbol equal to the logical negation of b.
func (sp *Space) Not(b BoolSym) (BoolSym, error) {
	nb := sp.NewBool(fmt.Sprintf("not_%s", b.v.Name()))
	c, err := csp.NewEqualityReified(b.v, sp.falseConst().v, nb.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(c)
	return nb, nil
}

// countTrue builds the count-of-true auxiliary variable shared by And/Or/Xor.
func (sp *Space) countTrue(bs []BoolSym, name string) (*csp.FDVariable, error) {
	n := len(bs)
	vars := make([]*csp.FDVariable, n)
	for i, b := range bs {
		vars[i] = b.v
	}
	countDomain := csp.NewBitSetDomain(n + 1)
	countVar := sp.Model.NewVariableWithName(countDomain, name)
	c, err := csp.NewCount(sp.Model, vars, boolTrue, countVar)
	if err != nil {
		return nil, err
	}
	sp.Model.AddConstraint(c)
	return countVar, nil
}

// And returns a boolean symbol equal to the conjunction of bs.
func (sp *Space) And(bs ...BoolSym) (BoolSym, error) {
	if len(bs) == 0 {
		return sp.trueConst(), nil
	}
	if len(bs) == 1 {
		return bs[0], nil
	}
	countVar, err := sp.countTrue(bs, "and_count")
	if err != nil {
		return BoolSym{}, err
	}
	result := sp.NewBool("and")
	allTrueConst := sp.Model.NewVariableWithName(csp.NewBitSetDomain(len(bs)+1), "and_n")
	if err := sp.fixConst(allTrueConst, len(bs)+1); err != nil {
		return BoolSym{}, err
	}
	c, err := csp.NewEqualityReified(countVar, allTrueConst, result.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(c)
	return result, nil
}

// Or returns a boolean symbol equal to the disjunction of bs.
func (sp *Space) Or(bs ...BoolSym) (BoolSym, error) {
	if len(bs) == 0 {
		return sp.falseConst(), nil
	}
	if len(bs) == 1 {
		return bs[0], nil
	}
	countVar, err := sp.countTrue(bs, "or_count")
	if err != nil {
		return BoolSym{}, err
	}
	result := sp.NewBool("or")
	atLeastOne := make([]int, 0, len(bs))
	for v := 2; v <= len(bs)+1; v++ {
		atLeastOne = append(atLeastOne, v)
	}
	c, err := csp.NewInSetReified(countVar, atLeastOne, result.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(c)
	return result, nil
}

// Xor returns a boolean symbol true iff exactly one of a, b holds.
func (sp *Space) Xor(a, b BoolSym) (BoolSym, error) {
	countVar, err := sp.countTrue([]BoolSym{a, b}, "xor_count")
	if err != nil {
		return BoolSym{}, err
	}
	result := sp.NewBool("xor")
	exactlyOneConst := sp.Model.NewVariableWithName(csp.NewBitSetDomain(3), "xor_n")
	if err := sp.fixConst(exactlyOneConst, 2); err != nil {
		return BoolSym{}, err
	}
	c, err := csp.NewEqualityReified(countVar, exactlyOneConst, result.v)
	if err != nil {
		return BoolSym{}, err
	}
	sp.Model.AddConstraint(c)
	return result, nil
}

// Implies returns a boolean symbol equal to cond ⇒ (body[0] ∧ body[1] ∧ ...).
// Posting it as a hard top-level fact (the usual use in the constraint
// library) is done by the caller via AssertTrue.
func (sp *Space) Implies(cond BoolSym, body ...BoolSym) (BoolSym, error) {
	notCond, err := sp.Not(cond)
	if err != nil {
		return BoolSym{}, err
	}
	bodyAnd, err := sp.And(body...)
	if err != nil {
		return BoolSym{}, err
	}
	return sp.Or(notCond, bodyAnd)
}

// IfThenElse returns a boolean symbol equal to (cond ∧ thenB) ∨ (¬cond ∧ elseB).
func (sp *Space) IfThenElse(cond, thenB, elseB BoolSym) (BoolSym, error) {
	notCond, err := sp.Not(cond)
	if err != nil {
		return BoolSym{}, err
	}
	left, err := sp.And(cond, thenB)
	if err != nil {
		return BoolSym{}, err
	}
	right, err := sp.And(notCond, elseB)
	if err != nil {
		return BoolSym{}, err
	}
	return sp.Or(left, right)
}

// fixConst restricts a freshly created variable's domain to the singleton {value}.
func (sp *Space) fixConst(v *csp.FDVariable, value int) error {
	v.SetDomain(csp.NewBitSetDomainFromValues(v.Domain().MaxValue(), []int{value}))
	return nil
}
