package symbol

import "testing"

// TestAndMatchesConjunction checks that the boolean And returns agrees with
// the conjunction of its operands across every enumerated solution.
func TestAndMatchesConjunction(t *testing.T) {
	sp := NewSpace(0)
	a := sp.NewBool("a")
	b := sp.NewBool("b")
	and, err := sp.And(a, b)
	if err != nil {
		t.Fatalf("And: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 4 {
		t.Fatalf("expected 4 solutions (2 free booleans), got %d", len(solutions))
	}
	for _, sol := range solutions {
		want := a.ValueIn(sol) && b.ValueIn(sol)
		if and.ValueIn(sol) != want {
			t.Fatalf("solution %v: And=%v, want %v", sol, and.ValueIn(sol), want)
		}
	}
}

// TestOrMatchesDisjunction mirrors TestAndMatchesConjunction for Or.
func TestOrMatchesDisjunction(t *testing.T) {
	sp := NewSpace(0)
	a := sp.NewBool("a")
	b := sp.NewBool("b")
	c := sp.NewBool("c")
	or, err := sp.Or(a, b, c)
	if err != nil {
		t.Fatalf("Or: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 8 {
		t.Fatalf("expected 8 solutions (3 free booleans), got %d", len(solutions))
	}
	for _, sol := range solutions {
		want := a.ValueIn(sol) || b.ValueIn(sol) || c.ValueIn(sol)
		if or.ValueIn(sol) != want {
			t.Fatalf("solution %v: Or=%v, want %v", sol, or.ValueIn(sol), want)
		}
	}
}

// TestXorMatchesExclusiveOr checks Xor against exactly-one-of-two semantics.
func TestXorMatchesExclusiveOr(t *testing.T) {
	sp := NewSpace(0)
	a := sp.NewBool("a")
	b := sp.NewBool("b")
	xor, err := sp.Xor(a, b)
	if err != nil {
		t.Fatalf("Xor: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 4 {
		t.Fatalf("expected 4 solutions, got %d", len(solutions))
	}
	for _, sol := range solutions {
		want := a.ValueIn(sol) != b.ValueIn(sol)
		if xor.ValueIn(sol) != want {
			t.Fatalf("solution %v: Xor=%v, want %v", sol, xor.ValueIn(sol), want)
		}
	}
}

// TestGuardForcesImplication checks Guard posts cond => body as a hard
// fact: whenever cond holds in a solution, body must too.
func TestGuardForcesImplication(t *testing.T) {
	sp := NewSpace(0)
	cond := sp.NewBool("cond")
	body := sp.NewBool("body")
	if err := sp.Guard(cond, body); err != nil {
		t.Fatalf("Guard: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 3 {
		t.Fatalf("expected 3 solutions (cond&&body, !cond&&body, !cond&&!body), got %d", len(solutions))
	}
	for _, sol := range solutions {
		if cond.ValueIn(sol) && !body.ValueIn(sol) {
			t.Fatalf("solution %v violates cond => body", sol)
		}
	}
}

// TestCountTrueMatchesActualCount checks CountTrue's period-coordinate
// result (offset -1 over csp.Count's 1-indexed countVar) against the
// number of true operands in every enumerated solution.
func TestCountTrueMatchesActualCount(t *testing.T) {
	sp := NewSpace(0)
	bs := []BoolSym{sp.NewBool("a"), sp.NewBool("b"), sp.NewBool("c")}
	count, err := sp.CountTrue("count", bs)
	if err != nil {
		t.Fatalf("CountTrue: %v", err)
	}

	solutions := solve(t, sp, 10)
	if len(solutions) != 8 {
		t.Fatalf("expected 8 solutions (3 free booleans), got %d", len(solutions))
	}
	for _, sol := range solutions {
		want := 0
		for _, b := range bs {
			if b.ValueIn(sol) {
				want++
			}
		}
		if got := count.ValueIn(sol); got != want {
			t.Fatalf("solution %v: CountTrue=%d, want %d", sol, got, want)
		}
	}
}
