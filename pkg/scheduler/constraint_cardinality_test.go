package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestForceScheduleNOptionalTasksExact checks spec §4.4: exactly n of the
// all-optional tasks end up scheduled.
func TestForceScheduleNOptionalTasksExact(t *testing.T) {
	p, err := scheduler.OpenProblem("force-schedule-n", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	var tasks []scheduler.Task
	for i := 0; i < 3; i++ {
		task, err := scheduler.NewFixedDurationTask(taskName(i), 2, scheduler.Optional())
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	_, err = scheduler.ForceScheduleNOptionalTasks("force-two", tasks, 2, scheduler.Exact)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	scheduled := 0
	for _, task := range tasks {
		ts, ok := sol.Task(task.Name())
		require.True(t, ok)
		if ts.Scheduled {
			scheduled++
		}
	}
	require.Equal(t, 2, scheduled)
}

// TestForceScheduleNOptionalTasksRejectsMandatoryMember checks spec §4.4:
// the combinator refuses a mandatory task in its member list.
func TestForceScheduleNOptionalTasksRejectsMandatoryMember(t *testing.T) {
	p, err := scheduler.OpenProblem("force-schedule-mandatory", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	mandatory, err := scheduler.NewFixedDurationTask("mandatory", 2)
	require.NoError(t, err)

	_, err = scheduler.ForceScheduleNOptionalTasks("force-one", []scheduler.Task{mandatory}, 1, scheduler.Exact)
	require.Error(t, err)
}

// TestScheduleNTasksInTimeIntervalsRestrictsPlacement checks spec §4.4: a
// counted task must lie entirely within one declared interval.
func TestScheduleNTasksInTimeIntervalsRestrictsPlacement(t *testing.T) {
	p, err := scheduler.OpenProblem("schedule-n-intervals", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	_, err = scheduler.ScheduleNTasksInTimeIntervals("within", []scheduler.Task{t1}, 1, []scheduler.TimeInterval{
		{Low: 4, High: 8},
	}, scheduler.Exact)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.GreaterOrEqual(t, ts.Start, 4)
	require.LessOrEqual(t, ts.End, 8)
}

// TestOptionalTaskConditionScheduleTiesToCondition checks the
// OptionalTaskConditionSchedule supplement: the task is scheduled iff the
// given condition holds. condition here is a mandatory constraint's own
// Body, which solve assembly forces true in every solution, so t1 must end
// up scheduled.
func TestOptionalTaskConditionScheduleTiesToCondition(t *testing.T) {
	p, err := scheduler.OpenProblem("condition-schedule", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2, scheduler.Optional())
	require.NoError(t, err)
	trigger, err := scheduler.NewFixedDurationTask("trigger", 2)
	require.NoError(t, err)
	pinTrigger, err := scheduler.NewTaskStartAt("pin-trigger", trigger, 0)
	require.NoError(t, err)

	_, err = scheduler.OptionalTaskConditionSchedule("gated", t1, pinTrigger.Body())
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.True(t, ts.Scheduled)
}

// TestOptionalTasksDependencyMirrorsSchedule checks the
// OptionalTasksDependency supplement: task2 is scheduled iff task1 is.
func TestOptionalTasksDependencyMirrorsSchedule(t *testing.T) {
	p, err := scheduler.OpenProblem("tasks-dependency", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2, scheduler.Optional())
	require.NoError(t, err)
	_, err = scheduler.OptionalTasksDependency("dep", t1, t2)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	require.Equal(t, ts1.Scheduled, ts2.Scheduled)
}
