package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestStaticBindingPinsBusyIntervalToTask checks spec §4.3's static binding:
// the busy interval coincides exactly with the task's own span.
func TestStaticBindingPinsBusyIntervalToTask(t *testing.T) {
	p, err := scheduler.OpenProblem("static-binding", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin", t1, 2)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ws, ok := sol.Worker("w")
	require.True(t, ok)
	require.Len(t, ws.Assignments, 1)
	require.Equal(t, 2, ws.Assignments[0].Start)
	require.Equal(t, 5, ws.Assignments[0].End)
}

// TestDynamicBindingAllowsNarrowerInterval checks spec §4.3's dynamic
// binding: busy_start >= task.start and busy_end <= task.end, rather than
// pinned equality, so a narrower busy window is feasible.
func TestDynamicBindingAllowsNarrowerInterval(t *testing.T) {
	p, err := scheduler.OpenProblem("dynamic-binding", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 5)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w, scheduler.Dynamic())
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin", t1, 0)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ws, ok := sol.Worker("w")
	require.True(t, ok)
	require.Len(t, ws.Assignments, 1)
	require.GreaterOrEqual(t, ws.Assignments[0].Start, 0)
	require.LessOrEqual(t, ws.Assignments[0].End, 5)
}

// TestAddRequiredResourceRejectsDuplicateBinding checks spec §4.3: the same
// resource may not be bound twice to one task.
func TestAddRequiredResourceRejectsDuplicateBinding(t *testing.T) {
	p, err := scheduler.OpenProblem("duplicate-binding", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w)
	require.NoError(t, err)

	_, err = scheduler.AddRequiredResource(t1, w)
	require.Error(t, err)
	var dup *scheduler.DuplicateRequirementError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "t1", dup.Task)
	require.Equal(t, "w", dup.Resource)
}

// TestDelayInShiftsBusyStartLater checks spec §4.3's DelayIn option for a
// static binding.
func TestDelayInShiftsBusyStartLater(t *testing.T) {
	p, err := scheduler.OpenProblem("delay-in", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 5)
	require.NoError(t, err)
	w, err := scheduler.NewWorker("w")
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, w, scheduler.DelayIn(2))
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin", t1, 0)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ws, ok := sol.Worker("w")
	require.True(t, ok)
	require.Len(t, ws.Assignments, 1)
	require.Equal(t, 2, ws.Assignments[0].Start)
}
