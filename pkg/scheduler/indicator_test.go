package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestFlowtimeSumsEnds checks spec §4.5: Flowtime sums task end times.
func TestFlowtimeSumsEnds(t *testing.T) {
	p, err := scheduler.OpenProblem("flowtime", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 3)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t2", t2, 2)
	require.NoError(t, err)

	ind, err := scheduler.NewFlowtime("flow", []scheduler.Task{t1, t2})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["flow"]
	require.True(t, ok)
	require.Equal(t, 2+5, got)
	require.Equal(t, "flow", ind.Name())
}

// TestMakespanIsHorizon checks spec §4.5: Makespan exposes the problem's own
// horizon symbol.
func TestMakespanIsHorizon(t *testing.T) {
	p, err := scheduler.OpenProblem("makespan", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)
	_, err = scheduler.NewMakespan("makespan")
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["makespan"]
	require.True(t, ok)
	require.Equal(t, 10, got)
}

// TestNumberOfTardyTasksCountsLateOnes checks spec §4.5: a task ending after
// its due date counts as tardy, one that ends on or before it does not.
func TestNumberOfTardyTasksCountsLateOnes(t *testing.T) {
	p, err := scheduler.OpenProblem("tardy", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3, scheduler.DueDate(2, false))
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2, scheduler.DueDate(5, false))
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t2", t2, 0)
	require.NoError(t, err)

	_, err = scheduler.NewNumberOfTardyTasks("tardy-count", []scheduler.Task{t1, t2})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["tardy-count"]
	require.True(t, ok)
	require.Equal(t, 1, got)
}

// TestTardinessWeightsByPriority checks spec §4.5: tardiness is
// max(0, end-due) scaled by the task's priority.
func TestTardinessWeightsByPriority(t *testing.T) {
	p, err := scheduler.OpenProblem("tardiness", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3, scheduler.DueDate(1, false), scheduler.Priority(2))
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	_, err = scheduler.NewTardiness("tardiness", []scheduler.Task{t1})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["tardiness"]
	require.True(t, ok)
	require.Equal(t, (3-1)*2, got)
}

// TestResourceCostSumsProductivityWeightedTime checks spec §4.5: a constant
// cost function contributes cost * busy-duration.
func TestResourceCostSumsProductivityWeightedTime(t *testing.T) {
	p, err := scheduler.OpenProblem("resource-cost", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w", scheduler.WithCost(scheduler.ConstantCost(3)))
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
	require.Equal(t, 3*4, got)
}

// TestMaxBufferLevelMatchesTimeline checks spec §4.5/§4.6: MaxBufferLevel is
// the maximum over the buffer's compiled level sequence.
func TestMaxBufferLevelMatchesTimeline(t *testing.T) {
	p, err := scheduler.OpenProblem("max-buffer", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 5)
	require.NoError(t, err)
	b, err := scheduler.NewNonConcurrentBuffer("b", 10)
	require.NoError(t, err)
	_, err = scheduler.NewTaskLoadBuffer("load", t1, b, 4)
	require.NoError(t, err)

	_, err = scheduler.NewMaxBufferLevel("max-level", b)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	got, ok := sol.Indicators["max-level"]
	require.True(t, ok)
	require.Equal(t, 14, got)
}
