package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

func TestOpenProblemReentrantRejected(t *testing.T) {
	p, err := scheduler.OpenProblem("p1", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.OpenProblem("p2", scheduler.FixedHorizon(10))
	require.ErrorIs(t, err, scheduler.ErrReentrantProblem)
}

func TestCloseThenConstructFails(t *testing.T) {
	p, err := scheduler.OpenProblem("p1", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = scheduler.NewWorker("w")
	require.ErrorIs(t, err, scheduler.ErrNoActiveProblem)
}

func TestDuplicateTaskNameRejected(t *testing.T) {
	p, err := scheduler.OpenProblem("p1", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	_, err = scheduler.NewFixedDurationTask("t1", 3)
	require.Error(t, err)
	var dup *scheduler.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "t1", dup.Name)
}

func TestZeroTaskProblemSolvesToZeroHorizon(t *testing.T) {
	p, err := scheduler.OpenProblem("empty", scheduler.FixedHorizon(0))
	require.NoError(t, err)
	defer p.Close()

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, sol.Horizon)
	require.Empty(t, sol.TaskOrder)
}
