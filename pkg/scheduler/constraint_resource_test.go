package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestResourcePeriodicallyUnavailableBlocksRepeatedWindow checks spec §4.4:
// a periodic unavailability window excludes tasks from every repeated
// occurrence inside [start, end].
func TestResourcePeriodicallyUnavailableBlocksRepeatedWindow(t *testing.T) {
	p, err := scheduler.OpenProblem("periodic-unavailable", scheduler.FixedHorizon(20))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	_, err = scheduler.ResourcePeriodicallyUnavailable("periodic", w, []scheduler.TimeInterval{{Low: 0, High: 2}}, 5, 0, 0, 20)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.Error(t, err)
	_ = sol
}

// TestResourceInterruptedForbidsStraddling checks spec §4.4: a task bound to
// the resource may not straddle the interrupted window.
func TestResourceInterruptedForbidsStraddling(t *testing.T) {
	p, err := scheduler.OpenProblem("interrupted", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.ResourceInterrupted("cut", w, []scheduler.TimeInterval{{Low: 3, High: 5}})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	straddles := ts.Start < 5 && ts.End > 3
	require.False(t, straddles)
}

// TestResourceTasksDistanceEnforcesExactGap checks spec §4.4: consecutive
// busy intervals on the resource are separated by exactly the given
// distance under DistanceExact.
func TestResourceTasksDistanceEnforcesExactGap(t *testing.T) {
	p, err := scheduler.OpenProblem("distance", scheduler.FixedHorizon(20))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t2, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)
	_, err = scheduler.ResourceTasksDistance("gap", w, 3, scheduler.DistanceExact)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	require.Equal(t, 3, ts2.Start-ts1.End)
}

// TestWorkLoadBoundsOverlapDuration checks spec §4.4/§4.5: WorkLoad bounds
// the total overlap between a resource's busy intervals and a given window.
func TestWorkLoadBoundsOverlapDuration(t *testing.T) {
	p, err := scheduler.OpenProblem("workload", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)

	_, err = scheduler.WorkLoad("bound", w, []scheduler.WorkLoadBound{
		{Interval: scheduler.TimeInterval{Low: 0, High: 10}, Bound: 4},
	}, scheduler.Exact)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sol)
}
