package scheduler_test

import (
	"context"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestSelectWorkersExactCardinality checks spec §8 invariant 6 for the
// exact kind: exactly n selectors are true.
func TestSelectWorkersExactCardinality(t *testing.T) {
	p, err := scheduler.OpenProblem("select", scheduler.FixedHorizon(5))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	w1, err := scheduler.NewWorker("w1")
	require.NoError(t, err)
	w2, err := scheduler.NewWorker("w2")
	require.NoError(t, err)
	w3, err := scheduler.NewWorker("w3")
	require.NoError(t, err)

	sw, err := scheduler.NewSelectWorkers("pick-one", []*scheduler.Worker{w1, w2, w3}, 1, scheduler.Exact)
	require.NoError(t, err)
	_, err = scheduler.AddRequiredResource(t1, sw)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts, ok := sol.Task("t1")
	require.True(t, ok)
	require.Len(t, ts.Resources, 1)
}

func TestSelectWorkersRejectsOversizedCount(t *testing.T) {
	p, err := scheduler.OpenProblem("select-invalid", scheduler.FixedHorizon(5))
	require.NoError(t, err)
	defer p.Close()

	w1, err := scheduler.NewWorker("w1")
	require.NoError(t, err)
	w2, err := scheduler.NewWorker("w2")
	require.NoError(t, err)

	_, err = scheduler.NewSelectWorkers("pick-too-many", []*scheduler.Worker{w1, w2}, 3, scheduler.Exact)
	require.Error(t, err)
}

// TestCumulativeWorkerSizeInvariant checks spec §8 invariant 4: a
// CumulativeWorker of size k never has more than k mandatory tasks
// overlapping at once.
func TestCumulativeWorkerSizeInvariant(t *testing.T) {
	p, err := scheduler.OpenProblem("cumulative", scheduler.FixedHorizon(6))
	require.NoError(t, err)
	defer p.Close()

	cw, err := scheduler.NewCumulativeWorker("cw", 2)
	require.NoError(t, err)

	var tasks []scheduler.Task
	for i := 0; i < 3; i++ {
		task, err := scheduler.NewFixedDurationTask(taskName(i), 3)
		require.NoError(t, err)
		_, err = scheduler.AddRequiredResource(task, cw)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	for _, task := range tasks {
		ts, ok := sol.Task(task.Name())
		require.True(t, ok)
		require.True(t, ts.Scheduled)
	}
}

func taskName(i int) string {
	names := []string{"t0", "t1", "t2"}
	return names[i]
}

func TestCumulativeWorkerProductivityDivision(t *testing.T) {
	p, err := scheduler.OpenProblem("cumulative-productivity", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	cw, err := scheduler.NewCumulativeWorker("cw", 3, scheduler.WithProductivity(87))
	require.NoError(t, err)

	workers := cw.Workers()
	require.Len(t, workers, 3)
	total := 0
	for _, w := range workers {
		total += w.Productivity()
	}
	require.Equal(t, 87, total)
}
