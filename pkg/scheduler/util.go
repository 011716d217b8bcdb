package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// sortNoDuplicates returns a fresh list of symbols constrained to be a
// strictly increasing permutation of terms (spec §4.4 TasksContiguous,
// grounded on the original's assignment-based sort_no_duplicates: each
// result slot is asserted equal to *one* of the inputs via a reified
// disjunction, and the whole result list is asserted strictly increasing).
// It assumes terms carries no duplicate values, which holds for task
// start/end symbols in any schedule with positive durations.
func sortNoDuplicates(sp *symbol.Space, name string, terms []symbol.IntSym) ([]symbol.IntSym, []symbol.BoolSym, error) {
	n := len(terms)
	lo, hi := periodBounds(terms)
	sorted := make([]symbol.IntSym, n)
	var rels []symbol.BoolSym

	for i := 0; i < n; i++ {
		slot, err := sp.NewInt(fmt.Sprintf("%s_sorted_%d", name, i), lo, hi)
		if err != nil {
			return nil, nil, err
		}
		eqs := make([]symbol.BoolSym, n)
		for j, term := range terms {
			eq, err := sp.ReifyEqual(fmt.Sprintf("%s_assign_%d_%d", name, i, j), slot, term)
			if err != nil {
				return nil, nil, err
			}
			eqs[j] = eq
		}
		anyEq, err := sp.Or(eqs...)
		if err != nil {
			return nil, nil, err
		}
		rels = append(rels, anyEq)
		sorted[i] = slot
	}

	for i := 0; i < n-1; i++ {
		lt, err := sp.ReifyCompare(fmt.Sprintf("%s_lt_%d", name, i), sorted[i], "<", sorted[i+1])
		if err != nil {
			return nil, nil, err
		}
		rels = append(rels, lt)
	}

	return sorted, rels, nil
}

// overlapDuration computes max(0, min(be,U) - max(bs,L)), the number of
// periods busy interval [bs,be] overlaps the fixed window [L,U] (spec §4.5
// WorkLoad, §4.4 WorkLoad-adjacent uses): built from Min/Max rather than
// IfThenElse-over-signs, since package symbol already exposes an integer
// Min/Max propagator that composes more directly than nested boolean ITEs.
func overlapDuration(sp *symbol.Space, name string, bs, be symbol.IntSym, low, high int) (symbol.IntSym, error) {
	lConst := sp.NewConst(name+"_L", low)
	uConst := sp.NewConst(name+"_U", high)
	upper, err := sp.Min(name+"_min_be_u", be, uConst)
	if err != nil {
		return symbol.IntSym{}, err
	}
	lower, err := sp.Max(name+"_max_bs_l", bs, lConst)
	if err != nil {
		return symbol.IntSym{}, err
	}
	span := high - low
	diff, err := sp.WeightedSum(name+"_diff", -span, span, []int{1, -1}, []symbol.IntSym{upper, lower})
	if err != nil {
		return symbol.IntSym{}, err
	}
	zero := sp.NewConst(name+"_zero", 0)
	return sp.Max(name+"_overlap", diff, zero)
}

// resourceWorkers flattens resource into the atomic Workers backing it: a
// Worker is itself; a SelectWorkers/CumulativeWorker contributes every
// candidate (its own selection/aggregation assertions already make an
// unselected candidate's busy intervals zero-width, so summing/bounding over
// all candidates unconditionally is safe, spec §4.3/§4.4).
func resourceWorkers(r Resource) []*Worker {
	switch res := r.(type) {
	case *Worker:
		return []*Worker{res}
	case *SelectWorkers:
		return res.Candidates()
	case *CumulativeWorker:
		return res.Workers()
	default:
		return nil
	}
}

// selectInt returns a fresh symbol equal to whenTrue if cond holds and
// whenFalse otherwise (spec §4.5 Flowtime/ResourceIdle: an optional task's
// or gap's contribution collapses to a harmless value rather than the raw
// sentinel/negative span when the guard fails), built the same Guard-based
// way newTaskCommon ties an optional task's start/end to its sentinel.
func selectInt(sp *symbol.Space, name string, cond symbol.BoolSym, whenTrue, whenFalse symbol.IntSym) (symbol.IntSym, error) {
	lo, hi := periodBounds([]symbol.IntSym{whenTrue, whenFalse})
	result, err := sp.NewInt(name, lo, hi)
	if err != nil {
		return symbol.IntSym{}, err
	}
	eqT, err := sp.ReifyEqual(name+"_eqT", result, whenTrue)
	if err != nil {
		return symbol.IntSym{}, err
	}
	eqF, err := sp.ReifyEqual(name+"_eqF", result, whenFalse)
	if err != nil {
		return symbol.IntSym{}, err
	}
	notCond, err := sp.Not(cond)
	if err != nil {
		return symbol.IntSym{}, err
	}
	if err := sp.Guard(cond, eqT); err != nil {
		return symbol.IntSym{}, err
	}
	if err := sp.Guard(notCond, eqF); err != nil {
		return symbol.IntSym{}, err
	}
	return result, nil
}

// maxWithZero returns max(0, x) via the shared Max-based clamp idiom (spec
// §4.5 Tardiness/Earliness: "encoded with if-then-else" — here encoded via
// the package symbol Min/Max propagator instead of nested boolean ITEs, for
// the same reason as overlapDuration).
func maxWithZero(sp *symbol.Space, name string, x symbol.IntSym) (symbol.IntSym, error) {
	zero := sp.NewConst(name+"_zero", 0)
	return sp.Max(name, x, zero)
}

// floorDivVar returns floor(numerator/denom) for a denom whose domain is a
// small finite set of positive candidate values (e.g. the problem horizon,
// fixed or free), using the same per-candidate element-constraint technique
// as function.go's PolynomialCost.eval: the backend is strictly linear, so
// dividing by a *variable* denom is encoded by guarding, for each concrete
// candidate value d in denom's domain, the linear fact
// "0 <= numerator - result*d < d" (linear because d is a constant inside
// that guarded branch), rather than attempting the division directly.
func floorDivVar(sp *symbol.Space, name string, numerator, denom symbol.IntSym, resultHi int) (symbol.IntSym, error) {
	result, err := sp.NewInt(name, 0, resultHi)
	if err != nil {
		return symbol.IntSym{}, err
	}
	numLo, numHi := periodBounds([]symbol.IntSym{numerator})
	var denomValues []int
	denom.Var().Domain().IterateValues(func(d int) { denomValues = append(denomValues, d) })
	for _, d := range denomValues {
		period := d + denom.Offset()
		if period <= 0 {
			continue
		}
		eqD, err := sp.ReifyEqual(fmt.Sprintf("%s_eqd_%d", name, period), denom, sp.NewConst(fmt.Sprintf("%s_dv_%d", name, period), period))
		if err != nil {
			return symbol.IntSym{}, err
		}
		diffLo, diffHi := numLo-resultHi*period, numHi
		diff, err := sp.WeightedSum(fmt.Sprintf("%s_diff_%d", name, period), diffLo, diffHi, []int{1, -period}, []symbol.IntSym{numerator, result})
		if err != nil {
			return symbol.IntSym{}, err
		}
		geq0, err := sp.ReifyCompare(fmt.Sprintf("%s_geq0_%d", name, period), diff, ">=", sp.NewConst(fmt.Sprintf("%s_z_%d", name, period), 0))
		if err != nil {
			return symbol.IntSym{}, err
		}
		ltP, err := sp.ReifyCompare(fmt.Sprintf("%s_ltp_%d", name, period), diff, "<", sp.NewConst(fmt.Sprintf("%s_p_%d", name, period), period))
		if err != nil {
			return symbol.IntSym{}, err
		}
		both, err := sp.And(geq0, ltP)
		if err != nil {
			return symbol.IntSym{}, err
		}
		if err := sp.Guard(eqD, both); err != nil {
			return symbol.IntSym{}, err
		}
	}
	return result, nil
}

// periodBounds returns the widest [lo, hi] period interval spanning terms'
// own domains, used to size an auxiliary symbol meant to hold any of them.
func periodBounds(terms []symbol.IntSym) (lo, hi int) {
	first := true
	for _, t := range terms {
		l := t.Var().Domain().Min() + t.Offset()
		h := t.Var().Domain().Max() + t.Offset()
		if first {
			lo, hi = l, h
			first = false
			continue
		}
		if l < lo {
			lo = l
		}
		if h > hi {
			hi = h
		}
	}
	return lo, hi
}
