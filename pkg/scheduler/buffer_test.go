package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// TestBufferUnloadLowersLevel checks spec §8 S4: unloading a buffer as a
// task starts subtracts the quantity from the running level at that time.
func TestBufferUnloadLowersLevel(t *testing.T) {
	p, err := scheduler.OpenProblem("buffer", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 3)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 5)
	require.NoError(t, err)
	b, err := scheduler.NewNonConcurrentBuffer("b", 10)
	require.NoError(t, err)
	_, err = scheduler.NewTaskUnloadBuffer("unload", t1, b, 3)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	bs, ok := sol.Buffer("b")
	require.True(t, ok)
	require.Equal(t, []int{10, 7}, bs.Levels)
	require.Equal(t, []int{5}, bs.ChangeTimes)
}

// TestBufferLowerBoundEnforced checks spec §8 invariant 5: level stays
// within declared bounds at every change point.
func TestBufferLowerBoundEnforced(t *testing.T) {
	p, err := scheduler.OpenProblem("buffer-bounds", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	_, err = scheduler.NewTaskStartAt("pin-t1", t1, 0)
	require.NoError(t, err)
	b, err := scheduler.NewNonConcurrentBuffer("b", 5, scheduler.WithLowerBound(0))
	require.NoError(t, err)
	_, err = scheduler.NewTaskUnloadBuffer("unload", t1, b, 5)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	bs, ok := sol.Buffer("b")
	require.True(t, ok)
	for _, lvl := range bs.Levels {
		require.GreaterOrEqual(t, lvl, 0)
	}
}

// TestTaskLoadBufferRejectsDuplicateEvent checks spec §5/§7: registering the
// identical (task, quantity) load event on one buffer twice fails with
// DuplicateAssertion rather than silently double-counting the deposit.
func TestTaskLoadBufferRejectsDuplicateEvent(t *testing.T) {
	p, err := scheduler.OpenProblem("buffer-dup-assertion", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	b, err := scheduler.NewNonConcurrentBuffer("b", 0)
	require.NoError(t, err)
	_, err = scheduler.NewTaskLoadBuffer("load-1", t1, b, 4)
	require.NoError(t, err)

	_, err = scheduler.NewTaskLoadBuffer("load-2", t1, b, 4)
	require.Error(t, err)
	var dup *scheduler.DuplicateAssertionError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "b", dup.Entity)
}

// TestTaskLoadAndUnloadSameQuantityNotDuplicate checks that a load and an
// unload of the same quantity on the same task are tracked as distinct
// assertions (opposite signed deltas), not rejected as duplicates.
func TestTaskLoadAndUnloadSameQuantityNotDuplicate(t *testing.T) {
	p, err := scheduler.OpenProblem("buffer-load-unload", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)
	b, err := scheduler.NewNonConcurrentBuffer("b", 4)
	require.NoError(t, err)
	_, err = scheduler.NewTaskUnloadBuffer("unload", t1, b, 4)
	require.NoError(t, err)
	_, err = scheduler.NewTaskLoadBuffer("load", t1, b, 4)
	require.NoError(t, err)
}
