package csp

import (
	"context"
	"testing"
)

// TestMinEqualsLowestVariable exercises Min the way pkg/symbol's Min helper
// uses it: every enumerated solution must have r equal to the smallest of
// the input variables (the encoding arith.go's MaximumLateness-style
// extremum indicators build on, once their operands are normalized to one
// shared offset by shadowOf).
func TestMinEqualsLowestVariable(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(5)
	vars := []*FDVariable{model.NewVariable(dom), model.NewVariable(dom), model.NewVariable(dom)}
	r := model.NewVariable(dom)

	c, err := NewMin(vars, r)
	if err != nil {
		t.Fatalf("NewMin: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 2000)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) == 0 {
		t.Fatalf("expected at least one solution")
	}
	for _, sol := range solutions {
		want := sol[vars[0].ID()]
		for _, v := range vars[1:] {
			if sol[v.ID()] < want {
				want = sol[v.ID()]
			}
		}
		if sol[r.ID()] != want {
			t.Fatalf("solution %v: r=%d, want min=%d", sol, sol[r.ID()], want)
		}
	}
}

// TestMaxEqualsHighestVariable is Min's mirror for Max.
func TestMaxEqualsHighestVariable(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(5)
	vars := []*FDVariable{model.NewVariable(dom), model.NewVariable(dom), model.NewVariable(dom)}
	r := model.NewVariable(dom)

	c, err := NewMax(vars, r)
	if err != nil {
		t.Fatalf("NewMax: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 2000)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) == 0 {
		t.Fatalf("expected at least one solution")
	}
	for _, sol := range solutions {
		want := sol[vars[0].ID()]
		for _, v := range vars[1:] {
			if sol[v.ID()] > want {
				want = sol[v.ID()]
			}
		}
		if sol[r.ID()] != want {
			t.Fatalf("solution %v: r=%d, want max=%d", sol, sol[r.ID()], want)
		}
	}
}

// TestMinPropagatesLowerBoundOntoOperands checks that pinning r forces
// every operand at or above r.min — the pruning half of Min's contract,
// not just the extractable-solution half.
func TestMinPropagatesLowerBoundOntoOperands(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(5)
	vars := []*FDVariable{model.NewVariable(dom), model.NewVariable(dom)}
	r := model.NewVariable(NewBitSetDomainFromValues(5, []int{4}))

	c, err := NewMin(vars, r)
	if err != nil {
		t.Fatalf("NewMin: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 2000)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) == 0 {
		t.Fatalf("expected at least one solution")
	}
	for _, sol := range solutions {
		for _, v := range vars {
			if sol[v.ID()] < 4 {
				t.Fatalf("solution %v: variable %d fell below the pinned min %d", sol, v.ID(), 4)
			}
		}
	}
}
