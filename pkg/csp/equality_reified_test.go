package csp

import (
	"context"
	"testing"
)

// TestEqualityReifiedMatchesBooleanToEquality exercises EqualityReified the
// way pkg/symbol/reify.go's ReifyEqual does: every enumerated solution's
// boolean must agree with whether the two operand variables actually hold
// equal values.
func TestEqualityReifiedMatchesBooleanToEquality(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(3)
	x := model.NewVariable(dom)
	y := model.NewVariable(dom)
	b := model.NewVariable(NewBitSetDomain(2))

	c, err := NewEqualityReified(x, y, b)
	if err != nil {
		t.Fatalf("NewEqualityReified: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 100)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) != 9 {
		t.Fatalf("expected 9 solutions (3x3 domain), got %d", len(solutions))
	}
	for _, sol := range solutions {
		eq := sol[x.ID()] == sol[y.ID()]
		gotTrue := sol[b.ID()] == 2
		if eq != gotTrue {
			t.Fatalf("solution %v: x==y is %v but boolVar encodes %v", sol, eq, gotTrue)
		}
	}
}

// TestEqualityReifiedTrueForcesOperandsEqual checks the reverse direction:
// pinning the boolean true must propagate x==y rather than leaving it to
// search to discover by accident.
func TestEqualityReifiedTrueForcesOperandsEqual(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(3)
	x := model.NewVariable(dom)
	y := model.NewVariable(dom)
	b := model.NewVariable(NewBitSetDomainFromValues(2, []int{2}))

	c, err := NewEqualityReified(x, y, b)
	if err != nil {
		t.Fatalf("NewEqualityReified: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 100)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) != 3 {
		t.Fatalf("expected 3 solutions (one per shared value), got %d", len(solutions))
	}
	for _, sol := range solutions {
		if sol[x.ID()] != sol[y.ID()] {
			t.Fatalf("solution %v: boolVar pinned true but x != y", sol)
		}
	}
}
