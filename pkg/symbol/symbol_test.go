package symbol

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/csp"
)

// solve runs sp's model to exhaustion (bounded by limit) the way
// pkg/scheduler's solver.go drives csp.Solver directly: Space has no Solve
// method of its own, it only builds the Model.
func solve(t *testing.T, sp *Space, limit int) [][]int {
	t.Helper()
	solver := csp.NewSolver(sp.Model)
	solutions, err := solver.Solve(context.Background(), limit)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return solutions
}

// TestNewIntRoundTripsPeriodCoordinates checks the core offset identity
// every symbol in this package relies on: a period value written through
// AssertConst comes back out the same way via ValueIn, even though the
// backing csp.FDVariable only ever holds a 1-indexed raw domain value.
func TestNewIntRoundTripsPeriodCoordinates(t *testing.T) {
	sp := NewSpace(0)
	x, err := sp.NewInt("x", 5, 10)
	if err != nil {
		t.Fatalf("NewInt: %v", err)
	}
	if err := sp.AssertConst(x, 7); err != nil {
		t.Fatalf("AssertConst: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 1 {
		t.Fatalf("expected exactly one solution, got %d", len(solutions))
	}
	if got := x.ValueIn(solutions[0]); got != 7 {
		t.Fatalf("ValueIn: got %d, want 7", got)
	}
	// The raw backing variable never sees a negative or zero value even
	// though the period range starts at 5: the offset absorbs it.
	if raw := solutions[0][x.Var().ID()]; raw < 1 {
		t.Fatalf("raw domain value %d escaped the 1-indexed backend domain", raw)
	}
}

// TestNewIntWithSentinelsKeepsSentinelReachable checks that a sentinel far
// below the symbol's normal period range round-trips correctly: an
// optional task's unscheduled branch (spec §4.2) pins start/end to a
// negative sentinel that must still be a legal value of the same symbol.
func TestNewIntWithSentinelsKeepsSentinelReachable(t *testing.T) {
	sp := NewSpace(4)
	sentinel, err := sp.NextSentinel()
	if err != nil {
		t.Fatalf("NextSentinel: %v", err)
	}
	if sentinel != -1 {
		t.Fatalf("expected first sentinel to be -1, got %d", sentinel)
	}

	x, err := sp.NewIntWithSentinels("x", 0, 5, []int{sentinel})
	if err != nil {
		t.Fatalf("NewIntWithSentinels: %v", err)
	}
	if err := sp.AssertConst(x, sentinel); err != nil {
		t.Fatalf("AssertConst: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 1 {
		t.Fatalf("expected exactly one solution, got %d", len(solutions))
	}
	if got := x.ValueIn(solutions[0]); got != sentinel {
		t.Fatalf("ValueIn: got %d, want sentinel %d", got, sentinel)
	}
}

// TestAssertEqualAcrossDifferingOffsets checks that two symbols built with
// different period ranges (and therefore different offsets) can still be
// asserted equal, the case a precedence constraint between two tasks whose
// horizons were sized differently relies on.
func TestAssertEqualAcrossDifferingOffsets(t *testing.T) {
	sp := NewSpace(0)
	x, err := sp.NewInt("x", 0, 10)
	if err != nil {
		t.Fatalf("NewInt x: %v", err)
	}
	y, err := sp.NewInt("y", 3, 13)
	if err != nil {
		t.Fatalf("NewInt y: %v", err)
	}
	if x.Offset() == y.Offset() {
		t.Fatalf("test setup: expected x and y to have different offsets")
	}
	if err := sp.AssertEqual(x, y); err != nil {
		t.Fatalf("AssertEqual: %v", err)
	}
	if err := sp.AssertConst(x, 6); err != nil {
		t.Fatalf("AssertConst: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 1 {
		t.Fatalf("expected exactly one solution, got %d", len(solutions))
	}
	if got := y.ValueIn(solutions[0]); got != 6 {
		t.Fatalf("y.ValueIn: got %d, want 6 (equal to x)", got)
	}
}

// TestAssertOffsetCompareAcrossDifferingOffsets exercises shadowOf, the
// mechanism every precedence/sync constraint in pkg/scheduler relies on to
// compare two IntSym values that don't share a coordinate system.
func TestAssertOffsetCompareAcrossDifferingOffsets(t *testing.T) {
	sp := NewSpace(0)
	beforeEnd, err := sp.NewInt("before_end", 0, 10)
	if err != nil {
		t.Fatalf("NewInt: %v", err)
	}
	afterStart, err := sp.NewInt("after_start", 5, 20)
	if err != nil {
		t.Fatalf("NewInt: %v", err)
	}
	if err := sp.AssertOffsetCompare(beforeEnd, 2, "<=", afterStart); err != nil {
		t.Fatalf("AssertOffsetCompare: %v", err)
	}
	if err := sp.AssertConst(beforeEnd, 8); err != nil {
		t.Fatalf("AssertConst: %v", err)
	}

	solutions := solve(t, sp, 2000)
	if len(solutions) == 0 {
		t.Fatalf("expected at least one solution")
	}
	for _, sol := range solutions {
		if afterStart.ValueIn(sol) < beforeEnd.ValueIn(sol)+2 {
			t.Fatalf("solution %v violates before_end+2 <= after_start", sol)
		}
	}
}
