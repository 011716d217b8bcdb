package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestMinimizeMakespanPicksEarliestFinish checks spec §4.7's default Single
// policy: with one objective the solver optimizes it directly.
func TestMinimizeMakespanPicksEarliestFinish(t *testing.T) {
	p, err := scheduler.OpenProblem("minimize", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("minimize-makespan", makespan)
	require.NoError(t, err)
	_ = t1

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, sol.Horizon)
}

// TestLexPolicyHonorsPrecedenceOrder checks spec §4.7's lex policy: the
// first-declared objective's optimum is pinned before the second is
// optimized, so the second objective never regresses the first.
func TestLexPolicyHonorsPrecedenceOrder(t *testing.T) {
	p, err := scheduler.OpenProblem("lex", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskPrecedence("t1-before-t2", t1, t2)
	require.NoError(t, err)

	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	flow, err := scheduler.NewFlowtime("flow", []scheduler.Task{t1, t2})
	require.NoError(t, err)

	_, err = scheduler.NewMinimize("minimize-makespan", makespan, scheduler.WithPolicy(scheduler.Lex))
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("minimize-flow", flow, scheduler.WithPolicy(scheduler.Lex))
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, sol.Horizon)
	require.Equal(t, 5, sol.Indicators["makespan"])
}

// TestWeightedSumCombinesObjectives checks spec §4.7's weighted_sum policy:
// every registered objective contributes to one combined minimized
// expression, each scaled by its own weight.
func TestWeightedSumCombinesObjectives(t *testing.T) {
	p, err := scheduler.OpenProblem("weighted", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 3)
	require.NoError(t, err)
	_, err = scheduler.NewTaskPrecedence("t1-before-t2", t1, t2)
	require.NoError(t, err)

	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	flow, err := scheduler.NewFlowtime("flow", []scheduler.Task{t1, t2})
	require.NoError(t, err)

	_, err = scheduler.NewMinimize("minimize-makespan", makespan, scheduler.WithPolicy(scheduler.WeightedSum), scheduler.WithWeight(2))
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("minimize-flow", flow, scheduler.WithPolicy(scheduler.WeightedSum), scheduler.WithWeight(1))
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, sol.Horizon)
	require.Equal(t, 5, sol.Indicators["makespan"])
}
