package csp

import (
	"context"
	"testing"
)

// TestCountTracksExactDistribution exercises Count the way
// pkg/symbol's countTrue uses it: a fixed "target value" (the boolean-true
// encoding, 2) counted across a set of candidate variables, with the count
// itself exposed as a variable rather than a fixed constant. This mirrors
// how pkg/scheduler's cardinality constraints (k-of-n worker selection,
// "at least one of" logical combinators) read off a Count result.
func TestCountTracksExactDistribution(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(3)
	vars := []*FDVariable{
		model.NewVariable(dom),
		model.NewVariable(dom),
		model.NewVariable(dom),
	}
	countVar := model.NewVariable(NewBitSetDomain(4))

	c, err := NewCount(model, vars, 2, countVar)
	if err != nil {
		t.Fatalf("NewCount: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) != 27 {
		t.Fatalf("expected 27 solutions, got %d", len(solutions))
	}

	for _, sol := range solutions {
		reported := sol[countVar.ID()] - 1
		actual := 0
		for _, v := range vars {
			if sol[v.ID()] == 2 {
				actual++
			}
		}
		if actual != reported {
			t.Fatalf("solution %v: Count reported %d, actual %d", sol, reported, actual)
		}
	}
}

// TestCountForcesAllVarsAwayFromTarget checks that pinning the count
// variable to 0 (encoded 1) propagates "no candidate equals the target
// value" to every variable, the case a k-of-n selection with k=0 relies on.
func TestCountForcesAllVarsAwayFromTarget(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(5)
	vars := []*FDVariable{
		model.NewVariable(dom),
		model.NewVariable(dom),
		model.NewVariable(dom),
	}
	countZero := model.NewVariable(NewBitSetDomainFromValues(4, []int{1}))

	c, err := NewCount(model, vars, 5, countZero)
	if err != nil {
		t.Fatalf("NewCount: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) == 0 {
		t.Fatalf("expected at least one solution")
	}
	for _, sol := range solutions {
		for _, v := range vars {
			if sol[v.ID()] == 5 {
				t.Fatalf("solution %v: variable %d took the excluded target value", sol, v.ID())
			}
		}
	}
}

// TestCountRejectsImpossibleTarget checks that a count variable whose
// domain cannot match any achievable count makes the model unsatisfiable,
// rather than Count silently under-constraining.
func TestCountRejectsImpossibleTarget(t *testing.T) {
	model := NewModel()
	dom := NewBitSetDomain(2)
	vars := []*FDVariable{
		model.NewVariable(dom),
		model.NewVariable(dom),
	}
	// Only 0, 1, or 2 matches of value 1 are possible; pin countVar to the
	// encoding of 3 matches (unreachable with only two variables).
	countVar := model.NewVariable(NewBitSetDomainFromValues(4, []int{4}))

	c, err := NewCount(model, vars, 1, countVar)
	if err != nil {
		t.Fatalf("NewCount: %v", err)
	}
	model.AddConstraint(c)

	solver := NewSolver(model)
	solutions, err := solver.Solve(context.Background(), 10)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(solutions) != 0 {
		t.Fatalf("expected no solutions for an impossible count, got %v", solutions)
	}
}
