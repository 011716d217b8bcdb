// Package symbol is the thin layer between the scheduling domain and the
// finite-domain backend in package csp. It wraps csp.FDVariable in
// period-coordinate symbols (IntSym, BoolSym) so the rest of the scheduler
// never has to reason about 1-indexed bitset domains or the sentinel
// bookkeeping optional tasks and unselected workers need.
package symbol

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/csp"
)

// Space owns the csp.Model for one scheduling problem and the sentinel
// counter shared by every symbol created from it.
type Space struct {
	Model        *csp.Model
	nextSentinel int // next value handed out by NextSentinel, counts down from -1
	maxSentinels int

	trueSym  BoolSym // memoized by trueConst, see logic.go
	falseSym BoolSym // memoized by falseConst, see logic.go

	unitVar *csp.FDVariable // memoized by unit, see arith.go
}

// NewSpace creates a symbol space backed by a fresh csp.Model. maxSentinels
// bounds how many distinct negative sentinel values (one per optional task
// or unselected alternative-worker candidate) the problem may need.
func NewSpace(maxSentinels int) *Space {
	return &Space{
		Model:        csp.NewModel(),
		nextSentinel: -1,
		maxSentinels: maxSentinels,
	}
}

// NextSentinel allocates the next unique negative sentinel period value.
func (sp *Space) NextSentinel() (int, error) {
	if -sp.nextSentinel > sp.maxSentinels {
		return 0, fmt.Errorf("symbol: exhausted sentinel budget of %d", sp.maxSentinels)
	}
	v := sp.nextSentinel
	sp.nextSentinel--
	return v, nil
}

// IntSym is an integer-valued symbol in period coordinates, backed by one
// csp.FDVariable whose domain is shifted so period = domainValue + offset.
type IntSym struct {
	v      *csp.FDVariable
	offset int
}

// Var returns the backing finite-domain variable.
func (s IntSym) Var() *csp.FDVariable { return s.v }

// Valid reports whether s wraps a variable (the zero value does not).
func (s IntSym) Valid() bool { return s.v != nil }

// Offset returns the period-coordinate offset backing s (period =
// domainValue + Offset()). Exposed for callers that need to convert raw
// domain values read directly off s.Var() back into period coordinates,
// such as a finite-domain table-constraint builder.
func (s IntSym) Offset() int { return s.offset }

func (s IntSym) toDomain(period int) int { return period - s.offset }
func (s IntSym) fromDomain(d int) int    { return d + s.offset }

// Value returns the bound period value of s. Panics if unbound, mirroring
// csp.FDVariable.Value.
func (s IntSym) Value() int { return s.fromDomain(s.v.Value()) }

// TryValue is the safe counterpart of Value.
func (s IntSym) TryValue() (int, error) {
	d, err := s.v.TryValue()
	if err != nil {
		return 0, err
	}
	return s.fromDomain(d), nil
}

// ValueIn reads s's bound value out of a flat solver solution (as returned
// by csp.Solver.Solve / SolveOptimalWithOptions, indexed by variable ID).
func (s IntSym) ValueIn(solution []int) int { return s.fromDomain(solution[s.v.ID()]) }

// NewInt creates an integer symbol ranging over the inclusive period
// interval [lo, hi].
func (sp *Space) NewInt(name string, lo, hi int) (IntSym, error) {
	if hi < lo {
		return IntSym{}, fmt.Errorf("symbol: NewInt %s: empty range [%d,%d]", name, lo, hi)
	}
	offset := lo - 1
	domain := csp.NewBitSetDomain(hi - offset)
	v := sp.Model.NewVariableWithName(domain, name)
	return IntSym{v: v, offset: offset}, nil
}

// NewIntWithSentinels is like NewInt but also reserves room in the domain
// for the given extra sentinel values (which may be far below lo).
func (sp *Space) NewIntWithSentinels(name string, lo, hi int, sentinels []int) (IntSym, error) {
	if hi < lo {
		return IntSym{}, fmt.Errorf("symbol: NewIntWithSentinels %s: empty range [%d,%d]", name, lo, hi)
	}
	minVal := lo
	for _, sVal := range sentinels {
		if sVal < minVal {
			minVal = sVal
		}
	}
	offset := minVal - 1
	values := make([]int, 0, hi-lo+1+len(sentinels))
	for p := lo; p <= hi; p++ {
		values = append(values, p-offset)
	}
	for _, sVal := range sentinels {
		values = append(values, sVal-offset)
	}
	domain := csp.NewBitSetDomainFromValues(hi-offset, values)
	v := sp.Model.NewVariableWithName(domain, name)
	return IntSym{v: v, offset: offset}, nil
}

// NewConst creates a singleton-domain symbol fixed to value.
func (sp *Space) NewConst(name string, value int) IntSym {
	offset := value - 1
	domain := csp.NewBitSetDomain(1)
	v := sp.Model.NewVariableWithName(domain, name)
	return IntSym{v: v, offset: offset}
}

// BoolSym is a boolean symbol. Its backing domain follows the csp package's
// own reification convention: 1 means false, 2 means true.
type BoolSym struct {
	v *csp.FDVariable
}

const (
	boolFalse = 1
	boolTrue  = 2
)

// Var returns the backing finite-domain variable.
func (b BoolSym) Var() *csp.FDVariable { return b.v }

// Valid reports whether b wraps a variable.
func (b BoolSym) Valid() bool { return b.v != nil }

// Value returns the bound boolean value of b.
func (b BoolSym) Value() bool { return b.v.Value() == boolTrue }

// ValueIn reads b's bound value out of a flat solver solution.
func (b BoolSym) ValueIn(solution []int) bool { return solution[b.v.ID()] == boolTrue }

// NewBool creates a fresh, unconstrained boolean symbol.
func (sp *Space) NewBool(name string) BoolSym {
	domain := csp.NewBitSetDomain(2)
	v := sp.Model.NewVariableWithName(domain, name)
	return BoolSym{v: v}
}

// NewConstBool creates a boolean symbol fixed to value.
func (sp *Space) NewConstBool(name string, value bool) BoolSym {
	n := boolFalse
	if value {
		n = boolTrue
	}
	domain := csp.NewBitSetDomainFromValues(2, []int{n})
	v := sp.Model.NewVariableWithName(domain, name)
	return BoolSym{v: v}
}

// BoolAsInt views b as an integer symbol valued 0 (false) or 1 (true),
// reusing b's own backing variable rather than creating a new one: the
// csp package's boolean convention (1=false, 2=true) already makes this a
// pure relabeling. Used wherever a boolean needs to enter a weighted sum as
// a 0/1 coefficient carrier (buffer level accumulation, §4.6).
func (sp *Space) BoolAsInt(b BoolSym) IntSym {
	return IntSym{v: b.v, offset: -1}
}

// Assert primitives: these post hard (always-applied) constraints. Every
// optional/guarded variant in package scheduler composes these with the
// boolean-algebra helpers in logic.go instead of calling them directly.

// AssertEqual posts x == y.
func (sp *Space) AssertEqual(x, y IntSym) error {
	if x.offset == y.offset {
		c, err := csp.NewArithmetic(x.v, y.v, 0)
		if err != nil {
			return err
		}
		sp.Model.AddConstraint(c)
		return nil
	}
	c, err := csp.NewArithmetic(x.v, y.v, x.offset-y.offset)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(c)
	return nil
}

// AssertEqualOffset posts x + delta == y, in period coordinates.
func (sp *Space) AssertEqualOffset(x IntSym, delta int, y IntSym) error {
	// x + delta == y  <=>  (xDom + x.offset + delta) == (yDom + y.offset)
	// <=>  yDom == xDom + (x.offset + delta - y.offset)
	c, err := csp.NewArithmetic(x.v, y.v, x.offset+delta-y.offset)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(c)
	return nil
}

// AssertConst posts x == value.
func (sp *Space) AssertConst(x IntSym, value int) error {
	c := sp.NewConst(fmt.Sprintf("%s_const%d", x.v.Name(), value), value)
	return sp.AssertEqual(x, c)
}

func toInequalityKind(op string) (csp.InequalityKind, error) {
	switch op {
	case "<":
		return csp.LessThan, nil
	case "<=":
		return csp.LessEqual, nil
	case ">":
		return csp.GreaterThan, nil
	case ">=":
		return csp.GreaterEqual, nil
	case "!=":
		return csp.NotEqual, nil
	default:
		return 0, fmt.Errorf("symbol: unknown inequality operator %q", op)
	}
}

// AssertCompare posts the relation "x op y" where op is one of
// "<", "<=", ">", ">=", "!=". When x and y have different offsets it
// delegates to AssertOffsetCompare with delta 0.
func (sp *Space) AssertCompare(x IntSym, op string, y IntSym) error {
	if x.offset != y.offset {
		return sp.AssertOffsetCompare(x, 0, op, y)
	}
	kind, err := toInequalityKind(op)
	if err != nil {
		return err
	}
	c, err := csp.NewInequality(x.v, y.v, kind)
	if err != nil {
		return err
	}
	sp.Model.AddConstraint(c)
	return nil
}

// AssertOffsetCompare posts "x + delta op y" in period coordinates by
// introducing a shifted shadow variable for x in y's offset, or, when
// x+delta can fall below y's range, shadows of both in a lower offset.
func (sp *Space) AssertOffsetCompare(x IntSym, delta int, op string, y IntSym) error {
	target := y.offset
	if low := x.v.Domain().Min() + x.offset + delta - 1; low < target {
		target = low
		ys, err := sp.shadowOf(y, 0, target)
		if err != nil {
			return err
		}
		y = ys
	}
	shadow, err := sp.shadowOf(x, delta, target)
	if err != nil {
		return err
	}
	return sp.AssertCompare(shadow, op, y)
}

// shadowOf creates a fresh symbol equal to x+delta but expressed with the
// given target offset, so it can be compared against y using a plain
// Inequality (which requires its two operands to be the same coordinate
// system, since it operates on raw domain values).
func (sp *Space) shadowOf(x IntSym, delta int, targetOffset int) (IntSym, error) {
	dom := x.v.Domain()
	lo, hi := dom.Min()+x.offset+delta-targetOffset, dom.Max()+x.offset+delta-targetOffset
	if lo < 1 {
		return IntSym{}, fmt.Errorf("symbol: shadowOf %s: target offset %d leaves domain value %d < 1", x.v.Name(), targetOffset, lo)
	}
	values := make([]int, 0, hi-lo+1)
	for d := lo; d <= hi; d++ {
		values = append(values, d)
	}
	domain := csp.NewBitSetDomainFromValues(hi, values)
	v := sp.Model.NewVariableWithName(domain, fmt.Sprintf("%s_shadow", x.v.Name()))
	shadow := IntSym{v: v, offset: targetOffset}
	if err := sp.AssertEqualOffset(x, delta, shadow); err != nil {
		return IntSym{}, err
	}
	return shadow, nil
}
