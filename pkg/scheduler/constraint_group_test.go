package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestUnorderedTaskGroupBoundsMembersByInterval checks spec §4.4: every
// member's span lies within the group's declared interval, with no ordering
// imposed between members.
func TestUnorderedTaskGroupBoundsMembersByInterval(t *testing.T) {
	p, err := scheduler.OpenProblem("unordered-group", scheduler.FixedHorizon(20))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	_, err = scheduler.NewUnorderedTaskGroup("group", []scheduler.Task{t1, t2}, scheduler.WithGroupInterval(5, 15))
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"t1", "t2"} {
		ts, ok := sol.Task(name)
		require.True(t, ok)
		require.GreaterOrEqual(t, ts.Start, 5)
		require.LessOrEqual(t, ts.End, 15)
	}
}

// TestOrderedTaskGroupChainsMembersByPrecedence checks spec §4.4: an
// OrderedTaskGroup additionally chains consecutive members by precedence.
func TestOrderedTaskGroupChainsMembersByPrecedence(t *testing.T) {
	p, err := scheduler.OpenProblem("ordered-group", scheduler.FixedHorizon(20))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	t2, err := scheduler.NewFixedDurationTask("t2", 2)
	require.NoError(t, err)
	t3, err := scheduler.NewFixedDurationTask("t3", 2)
	require.NoError(t, err)
	_, err = scheduler.NewOrderedTaskGroup("group", []scheduler.Task{t1, t2, t3})
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	ts3, _ := sol.Task("t3")
	require.LessOrEqual(t, ts1.End, ts2.Start)
	require.LessOrEqual(t, ts2.End, ts3.Start)
}

// TestTaskGroupRejectsSingleMember checks spec §4.4: a task group needs at
// least 2 members.
func TestTaskGroupRejectsSingleMember(t *testing.T) {
	p, err := scheduler.OpenProblem("group-too-small", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	_, err = scheduler.NewUnorderedTaskGroup("group", []scheduler.Task{t1})
	require.Error(t, err)
}
