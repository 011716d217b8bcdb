package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestXorAllowsExactlyOneAlternative checks spec §4.4's Xor combinator:
// exactly one of the two child start-time pins holds.
func TestXorAllowsExactlyOneAlternative(t *testing.T) {
	p, err := scheduler.OpenProblem("xor", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	startAtZero, err := scheduler.NewTaskStartAt("at-zero", t1, 0)
	require.NoError(t, err)
	startAtFive, err := scheduler.NewTaskStartAt("at-five", t1, 5)
	require.NoError(t, err)
	_, err = scheduler.Xor("start-choice", startAtZero, startAtFive)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.True(t, ts.Start == 0 || ts.Start == 5)
}

// TestImpliesForcesConsequentWhenConditionHolds checks spec §4.4's Implies
// combinator: once cond is true, body must also hold.
func TestImpliesForcesConsequentWhenConditionHolds(t *testing.T) {
	p, err := scheduler.OpenProblem("implies", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	cond, err := scheduler.NewTaskStartAt("cond", t1, 0)
	require.NoError(t, err)
	body, err := scheduler.NewTaskStartAt("consequent", t2, 3)
	require.NoError(t, err)
	_, err = scheduler.Implies("implication", cond, body)
	require.NoError(t, err)
	// Implies does not force its condition; pin t1's end (duration 2) so
	// that it holds.
	_, err = scheduler.NewTaskEndAt("cond-holds", t1, 2)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	require.Equal(t, 0, ts1.Start)
	require.Equal(t, 3, ts2.Start)
}

// TestNotNegatesChildBody checks spec §4.4's Not combinator against a raw
// boolean expression child.
func TestNotNegatesChildBody(t *testing.T) {
	p, err := scheduler.OpenProblem("not", scheduler.FixedHorizon(5))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	startAtZero, err := scheduler.NewTaskStartAt("at-zero", t1, 0)
	require.NoError(t, err)
	_, err = scheduler.Not("not-at-zero", startAtZero)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.NotEqual(t, 0, ts.Start)
}
