package scheduler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestFindAnotherSolutionExcludesPreviousValue checks spec §4.7's
// incrementality contract: re-solving with a variable pinned away from its
// previous value yields a solution where that variable differs.
func TestFindAnotherSolutionExcludesPreviousValue(t *testing.T) {
	p, err := scheduler.OpenProblem("find-another", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	ts, ok := sol.Task("t1")
	require.True(t, ok)
	firstStart := ts.Start

	next, err := p.FindAnotherSolution(context.Background(), t1.Start(), firstStart)
	if err == scheduler.ErrUnsat {
		return
	}
	require.NoError(t, err)
	ts2, ok := next.Task("t1")
	require.True(t, ok)
	require.NotEqual(t, firstStart, ts2.Start)
}

// TestExportDebugWritesPlainTextDump checks ExportDebug's documented
// contract: a readable, non-SMT-LIB2 text dump of the assembled model.
func TestExportDebugWritesPlainTextDump(t *testing.T) {
	p, err := scheduler.OpenProblem("export-debug", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dump.txt")
	require.NoError(t, p.ExportDebug(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "not SMT-LIB2")
	require.Contains(t, string(data), "variables")
	require.Contains(t, string(data), "constraints")
}

// TestParetoPolicyReturnsFeasibleSolution checks spec §4.7's pareto policy
// dispatch path returns a feasible schedule when two objectives are
// registered with Policy Pareto.
func TestParetoPolicyReturnsFeasibleSolution(t *testing.T) {
	p, err := scheduler.OpenProblem("pareto", scheduler.FreeHorizon())
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

	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	flow, err := scheduler.NewFlowtime("flow", []scheduler.Task{t1, t2})
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("min-makespan", makespan, scheduler.WithPolicy(scheduler.Pareto))
	require.NoError(t, err)
	_, err = scheduler.NewMaximize("max-flow", flow, scheduler.WithPolicy(scheduler.Pareto))
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	ts1, _ := sol.Task("t1")
	ts2, _ := sol.Task("t2")
	overlap := ts1.Start < ts2.End && ts2.Start < ts1.End
	require.False(t, overlap)
}

// TestEnumerateSolutionsCollectsDistinctStarts checks the EnumerateSolutions
// supplement: repeated re-solves yield solutions with pairwise distinct
// values for the pinned symbol, up to the requested limit.
func TestEnumerateSolutionsCollectsDistinctStarts(t *testing.T) {
	p, err := scheduler.OpenProblem("enumerate", scheduler.FixedHorizon(6))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	sols, err := p.EnumerateSolutions(context.Background(), t1.Start(), func(s *scheduler.Solution) int {
		ts, _ := s.Task("t1")
		return ts.Start
	}, 3, 100)
	require.NoError(t, err)
	require.LessOrEqual(t, len(sols), 3)
	require.GreaterOrEqual(t, len(sols), 1)

	seen := map[int]bool{}
	for _, sol := range sols {
		ts, ok := sol.Task("t1")
		require.True(t, ok)
		require.False(t, seen[ts.Start])
		seen[ts.Start] = true
	}
}

// TestSolveWithWorkStealingPortfolioStillFindsOptimum checks that the
// work-stealing portfolio variant reaches the same optimum as the default
// fixed-pool portfolio search.
func TestSolveWithWorkStealingPortfolioStillFindsOptimum(t *testing.T) {
	p, err := scheduler.OpenProblem("work-stealing", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	_ = t1
	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("min-makespan", makespan)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background(), scheduler.WithParallel(2), scheduler.WithWorkStealingPortfolio(true))
	require.NoError(t, err)
	require.Equal(t, 3, sol.Horizon)
}

// TestSolveWithParallelUsesPortfolioSearch checks spec §4.7's "parallel
// hint": WithParallel(n>1) still yields a feasible, optimal-for-makespan
// solution via the internal/workpool-backed portfolio path.
func TestSolveWithParallelUsesPortfolioSearch(t *testing.T) {
	p, err := scheduler.OpenProblem("parallel", scheduler.FreeHorizon())
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	_ = t1
	makespan, err := scheduler.NewMakespan("makespan")
	require.NoError(t, err)
	_, err = scheduler.NewMinimize("min-makespan", makespan)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background(), scheduler.WithParallel(2))
	require.NoError(t, err)
	require.Equal(t, 3, sol.Horizon)
}
