package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestLinearCostAreaUnderBusyInterval checks spec §4.5's trapezoid-area
// contract for a non-constant cost function: LinearCost(2, 0) over a busy
// span [0,4) contributes (cost(0)+cost(4))*4/2.
func TestLinearCostAreaUnderBusyInterval(t *testing.T) {
	p, err := scheduler.OpenProblem("linear-cost", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w", scheduler.WithCost(scheduler.LinearCost(2, 0)))
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	_, err = scheduler.NewResourceCost("cost", []*scheduler.Worker{w})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["cost"]
	require.True(t, ok)
	require.Equal(t, 16, got)
}

// TestPolynomialCostAreaUnderBusyInterval checks the same trapezoid contract
// for a degree-2 PolynomialCost, resolved through the element-constraint
// table technique since x^2 is not linear.
func TestPolynomialCostAreaUnderBusyInterval(t *testing.T) {
	p, err := scheduler.OpenProblem("polynomial-cost", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w", scheduler.WithCost(scheduler.PolynomialCost(0, 0, 1)))
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	_, err = scheduler.NewResourceCost("cost", []*scheduler.Worker{w})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["cost"]
	require.True(t, ok)
	require.Equal(t, 32, got)
}
