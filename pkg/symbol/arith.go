package symbol

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/csp"
)

// This file generalizes the pairwise offset-aware equality/comparison in
// symbol.go to N-ary weighted sums and min/max-of-array, the two shapes the
// indicator library (spec §4.5) and the work-amount contract (spec §4.7
// step 3) need repeatedly: Flowtime/Tardiness/Earliness/WorkLoad are all
// "total = Σ coeff_i * term_i" and MaximumLateness/Max/MinBufferLevel are
// both "result = extremum(terms)".
//
// The backend's LinearSum and Min/MaxOfArray propagators (package csp) work
// on raw 1-indexed domain values with no notion of a symbol's period
// offset, so both helpers fold the necessary offset into the computation:
// AssertWeightedSumEqual folds a constant into a dedicated "unit" carrier
// variable (any const symbol's raw singleton value is always 1, regardless
// of which period it denotes) so the weighted-sum constant term never has
// to be represented directly as a sub-1 raw domain value, which the
// backend's 1-indexed BitSetDomain cannot hold. Min/Max instead normalize
// every operand into one shared offset via shadowOf before delegating to
// the raw propagator.

// unit returns a Space-wide memoized variable whose raw domain value is
// always 1 no matter which period it was constructed to denote, used as a
// coefficient carrier to fold a constant into a LinearSum.
func (sp *Space) unit() *csp.FDVariable {
	if sp.unitVar == nil {
		sp.unitVar = sp.NewConst("_unit", 0).v
	}
	return sp.unitVar
}

// AssertWeightedSumEqual posts, in period coordinates:
//
//	total = Σ coeffs[i] * terms[i]
func (sp *Space) AssertWeightedSumEqual(total IntSym, coeffs []int, terms []IntSym) error {
	if len(coeffs) != len(terms) {
		return fmt.Errorf("symbol: AssertWeightedSumEqual: len(coeffs)=%d != len(terms)=%d", len(coeffs), len(terms))
	}
	if len(terms) == 0 {
		return sp.AssertConst(total, 0)
	}
	k := -total.offset
	vars := make([]*csp.FDVariable, 0, len(terms)+1)
	cs := make([]int, 0, len(terms)+1)
	for i, t := range terms {
		vars = append(vars, t.v)
		cs = append(cs, coeffs[i])
		k += coeffs[i] * t.offset
	}
	vars = append(vars, sp.unit())
	cs = append(cs, k)
	ls, err := csp.NewLinearSum(vars, cs, total.v)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(ls)
	return nil
}

// AssertSumEqual posts total = Σ terms (all coefficients 1), the common
// case (Flowtime, buffer level deltas, busy-interval durations).
func (sp *Space) AssertSumEqual(total IntSym, terms ...IntSym) error {
	coeffs := make([]int, len(terms))
	for i := range coeffs {
		coeffs[i] = 1
	}
	return sp.AssertWeightedSumEqual(total, coeffs, terms)
}

// WeightedSum creates a fresh result symbol and asserts it equal to
// Σ coeffs[i]*terms[i], choosing its domain from the terms' own bounds.
// lo/hi bound the *result*, since a tight conservative bound is not always
// derivable purely from term bounds when coefficients have mixed sign
// (e.g. tardiness's lateness terms, which may be negative before the
// max-with-zero clamp is applied elsewhere).
func (sp *Space) WeightedSum(name string, lo, hi int, coeffs []int, terms []IntSym) (IntSym, error) {
	result, err := sp.NewInt(name, lo, hi)
	if err != nil {
		return IntSym{}, err
	}
	if err := sp.AssertWeightedSumEqual(result, coeffs, terms); err != nil {
		return IntSym{}, err
	}
	return result, nil
}

// Sum is the unweighted counterpart of WeightedSum.
func (sp *Space) Sum(name string, lo, hi int, terms ...IntSym) (IntSym, error) {
	coeffs := make([]int, len(terms))
	for i := range coeffs {
		coeffs[i] = 1
	}
	return sp.WeightedSum(name, lo, hi, coeffs, terms)
}

// commonOffsetTerms shadows every term into the offset of terms[0], so a
// raw-domain propagator (Min/MaxOfArray) can compare them directly.
func (sp *Space) commonOffsetTerms(terms []IntSym) ([]*csp.FDVariable, int, error) {
	target := terms[0].offset
	vars := make([]*csp.FDVariable, len(terms))
	for i, t := range terms {
		if t.offset == target {
			vars[i] = t.v
			continue
		}
		shadow, err := sp.shadowOf(t, 0, target)
		if err != nil {
			return nil, 0, err
		}
		vars[i] = shadow.v
	}
	return vars, target, nil
}

// Max creates a fresh symbol equal to the maximum of terms.
func (sp *Space) Max(name string, terms ...IntSym) (IntSym, error) {
	if len(terms) == 0 {
		return IntSym{}, fmt.Errorf("symbol: Max: no terms")
	}
	vars, offset, err := sp.commonOffsetTerms(terms)
	if err != nil {
		return IntSym{}, err
	}
	lo, hi := commonRawBounds(vars)
	resultVar := sp.Model.NewVariableWithName(csp.NewBitSetDomain(hi), name)
	if lo > 1 {
		resultVar.SetDomain(resultVar.Domain().RemoveBelow(lo))
	}
	c, err := csp.NewMax(vars, resultVar)
	if err != nil {
		return IntSym{}, err
	}
	sp.Model.AddConstraint(c)
	return IntSym{v: resultVar, offset: offset}, nil
}

// Min creates a fresh symbol equal to the minimum of terms.
func (sp *Space) Min(name string, terms ...IntSym) (IntSym, error) {
	if len(terms) == 0 {
		return IntSym{}, fmt.Errorf("symbol: Min: no terms")
	}
	vars, offset, err := sp.commonOffsetTerms(terms)
	if err != nil {
		return IntSym{}, err
	}
	lo, hi := commonRawBounds(vars)
	resultVar := sp.Model.NewVariableWithName(csp.NewBitSetDomain(hi), name)
	if lo > 1 {
		resultVar.SetDomain(resultVar.Domain().RemoveBelow(lo))
	}
	c, err := csp.NewMin(vars, resultVar)
	if err != nil {
		return IntSym{}, err
	}
	sp.Model.AddConstraint(c)
	return IntSym{v: resultVar, offset: offset}, nil
}

func commonRawBounds(vars []*csp.FDVariable) (lo, hi int) {
	lo = vars[0].Domain().Min()
	hi = vars[0].Domain().Max()
	for _, v := range vars[1:] {
		if m := v.Domain().Min(); m < lo {
			lo = m
		}
		if m := v.Domain().Max(); m > hi {
			hi = m
		}
	}
	return lo, hi
}

// AssertCardinalityExact posts count(bs == true) == n.
func (sp *Space) AssertCardinalityExact(bs []BoolSym, n int) error {
	return sp.assertCardinality(bs, n, cardExact)
}

// AssertCardinalityAtLeast posts count(bs == true) >= n.
func (sp *Space) AssertCardinalityAtLeast(bs []BoolSym, n int) error {
	return sp.assertCardinality(bs, n, cardMin)
}

// AssertCardinalityAtMost posts count(bs == true) <= n.
func (sp *Space) AssertCardinalityAtMost(bs []BoolSym, n int) error {
	return sp.assertCardinality(bs, n, cardMax)
}

type cardinalityKind int

const (
	cardExact cardinalityKind = iota
	cardMin
	cardMax
)

func (sp *Space) assertCardinality(bs []BoolSym, n int, kind cardinalityKind) error {
	countVar, err := sp.countTrue(bs, "card_count")
	if err != nil {
		return err
	}
	switch kind {
	case cardExact:
		countVar.SetDomain(csp.NewBitSetDomainFromValues(len(bs)+1, []int{n + 1}))
		return nil
	case cardMin:
		countVar.SetDomain(countVar.Domain().RemoveBelow(n + 1))
		return nil
	case cardMax:
		countVar.SetDomain(countVar.Domain().RemoveAbove(n + 1))
		return nil
	default:
		return fmt.Errorf("symbol: unknown cardinality kind %d", kind)
	}
}

// CountTrue returns an integer symbol (period-coordinate, offset -1) equal
// to the number of true values among bs (0..len(bs)), for callers that need the count
// itself rather than just a bound on it (e.g. NumberOfTardyTasks).
func (sp *Space) CountTrue(name string, bs []BoolSym) (IntSym, error) {
	countVar, err := sp.countTrue(bs, name)
	if err != nil {
		return IntSym{}, err
	}
	// csp.Count's countVar is offset by +1 (1-indexed domain starting at
	// "0 matches"), so the period value is raw-1: offset = -1.
	return IntSym{v: countVar, offset: -1}, nil
}
