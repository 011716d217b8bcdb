package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestMandatoryTaskInvariant checks spec §8 invariant 1: for every
// mandatory task, 0 <= start <= end <= horizon and end-start = duration.
func TestMandatoryTaskInvariant(t *testing.T) {
	p, err := scheduler.OpenProblem("mandatory", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task(t1.Name())
	require.True(t, ok)
	require.True(t, ts.Scheduled)
	require.GreaterOrEqual(t, ts.Start, 0)
	require.LessOrEqual(t, ts.End, sol.Horizon)
	require.LessOrEqual(t, ts.Start, ts.End)
	require.Equal(t, ts.End-ts.Start, ts.Duration)
	require.Equal(t, 4, ts.Duration)
}

// TestOptionalUnscheduledTaskSentinel checks spec §8 invariant 2: an
// optional task left unscheduled reports start=end<0, duration=0.
func TestOptionalUnscheduledTaskSentinel(t *testing.T) {
	p, err := scheduler.OpenProblem("optional", scheduler.FixedHorizon(2))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3, scheduler.Optional())
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin", t1, 1)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.False(t, ts.Scheduled)
}

func TestVariableDurationTaskRespectsBounds(t *testing.T) {
	p, err := scheduler.OpenProblem("variable", scheduler.FixedHorizon(20))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewVariableDurationTask("t1", 2, scheduler.MaxDuration(5))
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task(t1.Name())
	require.True(t, ok)
	require.True(t, ts.Scheduled)
	require.GreaterOrEqual(t, ts.Duration, 2)
	require.LessOrEqual(t, ts.Duration, 5)
}

func TestNegativeDurationRejected(t *testing.T) {
	p, err := scheduler.OpenProblem("invalid", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.NewFixedDurationTask("t1", -1)
	require.Error(t, err)
}
