package scheduler_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/procscheduler/goscheduler/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

func TestTaskJSONRoundTrip(t *testing.T) {
	p, err := scheduler.OpenProblem("json-task", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	t1, err := scheduler.NewFixedDurationTask("t1", 4, scheduler.Priority(2))
	require.NoError(t, err)

	data, err := scheduler.TaskJSON(t1)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "t1", raw["name"])
	require.Equal(t, "FixedDurationTask", raw["type"])
	require.Equal(t, float64(4), raw["duration"])

	// Decode into a fresh problem: "t1" is already registered in p.
	require.NoError(t, p.Close())
	p2, err := scheduler.OpenProblem("json-task-decoded", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p2.Close()

	decoded, err := scheduler.AddFromJSON(data)
	require.NoError(t, err)
	decodedTask, ok := decoded.(scheduler.Task)
	require.True(t, ok)
	require.Equal(t, "t1", decodedTask.Name())
}

func TestWorkerJSONRoundTrip(t *testing.T) {
	p, err := scheduler.OpenProblem("json-worker", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	w, err := scheduler.NewWorker("w1", scheduler.WithProductivity(5), scheduler.WithCost(scheduler.ConstantCost(12)))
	require.NoError(t, err)

	data, err := scheduler.WorkerJSON(w)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "Worker", raw["type"])
	require.Equal(t, "constant", raw["cost_type"])
	require.Equal(t, float64(12), raw["cost_value"])
}

func TestAddFromJSONRejectsUnknownType(t *testing.T) {
	p, err := scheduler.OpenProblem("json-unknown", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.AddFromJSON([]byte(`{"name":"x","type":"NotARealType"}`))
	require.Error(t, err)
}

func TestAddFromJSONRejectsUnknownField(t *testing.T) {
	p, err := scheduler.OpenProblem("json-extra", scheduler.FixedHorizon(10))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.AddFromJSON([]byte(`{"name":"w","type":"Worker","bogus_field":1}`))
	require.Error(t, err)
}

func TestSolutionJSONShape(t *testing.T) {
	p, err := scheduler.OpenProblem("json-solution", scheduler.FixedHorizon(5))
	require.NoError(t, err)
	defer p.Close()

	_, err = scheduler.NewFixedDurationTask("t1", 2)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)

	data, err := p.SolutionJSON(sol)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "horizon")
	require.Contains(t, raw, "tasks")
	require.Contains(t, raw, "resources")
	require.Contains(t, raw, "buffers")
	require.Contains(t, raw, "indicators")
	require.Contains(t, raw, "problem_properties")
}
