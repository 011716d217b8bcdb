package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestLaxPrecedenceHolds checks spec §8 invariant 7 for a lax precedence:
// before.end + offset <= after.start.
func TestLaxPrecedenceHolds(t *testing.T) {
	p, err := scheduler.OpenProblem("precedence", scheduler.FixedHorizon(5))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 3)
	require.NoError(t, err)
	_, err = scheduler.NewTaskPrecedence("t1-before-t2", t1, t2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	require.LessOrEqual(t, ts1.End, ts2.Start)
}

func TestTasksDontOverlapRejectsOverlap(t *testing.T) {
	p, err := scheduler.OpenProblem("no-overlap", scheduler.FixedHorizon(4))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTasksDontOverlap("disjoint", t1, t2, false)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	overlap := ts1.Start < ts2.End && ts2.Start < ts1.End
	require.False(t, overlap)
}

func TestResourceUnavailableForcesDelay(t *testing.T) {
	p, err := scheduler.OpenProblem("unavailable", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.ResourceUnavailable("w-unavailable", w, []scheduler.TimeInterval{
		{Low: 1, High: 3},
		{Low: 6, High: 8},
	})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	require.Equal(t, 3, ts1.Start)
	require.Equal(t, 6, ts1.End)
}

// TestTaskStartAtRejectsDuplicateAssertion checks spec §5/§7: resubmitting
// the identical point assertion on one task fails with DuplicateAssertion
// instead of silently accepting a second, redundant constraint.
func TestTaskStartAtRejectsDuplicateAssertion(t *testing.T) {
	p, err := scheduler.OpenProblem("dup-assertion", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-1", t1, 3)
	require.NoError(t, err)

	_, err = scheduler.NewTaskStartAt("pin-2", t1, 3)
	require.Error(t, err)
	var dup *scheduler.DuplicateAssertionError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "t1", dup.Entity)
}

// TestTaskStartAfterDistinguishesStrictness checks that NewTaskStartAfter
// with a different strictness against the same value is tracked as a
// distinct assertion, not rejected as a duplicate.
func TestTaskStartAfterDistinguishesStrictness(t *testing.T) {
	p, err := scheduler.OpenProblem("dup-assertion-strict", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAfter("after-lax", t1, 3, false)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAfter("after-strict", t1, 3, true)
	require.NoError(t, err)

	_, err = scheduler.NewTaskStartAfter("after-lax-again", t1, 3, false)
	require.Error(t, err)
	var dup *scheduler.DuplicateAssertionError
	require.True(t, errors.As(err, &dup))
}
