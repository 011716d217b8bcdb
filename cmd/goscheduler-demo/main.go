// Command goscheduler-demo runs the concrete seeded scenarios from spec
// §8 (S1-S6) and prints each solution's relevant fields, so a reader can
// see the engine exercised end to end without writing a test harness.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/procscheduler/goscheduler/examples"
	"github.com/procscheduler/goscheduler/pkg/scheduler"
)

func main() {
	fmt.Println("=== goscheduler demo: seeded scenarios (spec §8) ===")
	fmt.Println()

	ctx := context.Background()
	failed := false

	runTask("S1 Two precedences", func() (*scheduler.Solution, error) {
		return examples.TwoPrecedences(ctx)
	}, &failed)

	runTask("S2 Alternative workers", func() (*scheduler.Solution, error) {
		return examples.AlternativeWorkers(ctx)
	}, &failed)

	runTask("S3 Unavailability", func() (*scheduler.Solution, error) {
		return examples.Unavailability(ctx)
	}, &failed)

	runTask("S4 Buffer", func() (*scheduler.Solution, error) {
		return examples.Buffer(ctx)
	}, &failed)

	runTask("S5 Optional task unschedulable", func() (*scheduler.Solution, error) {
		return examples.OptionalTaskUnschedulable(ctx)
	}, &failed)

	runTask("S6 Makespan optimum", func() (*scheduler.Solution, error) {
		return examples.MakespanOptimum(ctx)
	}, &failed)

	if failed {
		os.Exit(1)
	}
}

func runTask(label string, run func() (*scheduler.Solution, error), failed *bool) {
	fmt.Printf("%s:\n", label)
	sol, err := run()
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		*failed = true
		fmt.Println()
		return
	}
	printSolution(sol)
	fmt.Println()
}

func printSolution(sol *scheduler.Solution) {
	fmt.Printf("  horizon = %d\n", sol.Horizon)
	for _, name := range sol.TaskOrder {
		t, _ := sol.Task(name)
		if !t.Scheduled {
			fmt.Printf("  task %-6s unscheduled\n", t.Name)
			continue
		}
		fmt.Printf("  task %-6s start=%d end=%d duration=%d resources=%v\n",
			t.Name, t.Start, t.End, t.Duration, t.Resources)
	}
	for _, name := range sol.WorkerOrder {
		w, _ := sol.Worker(name)
		if len(w.Assignments) == 0 {
			continue
		}
		fmt.Printf("  worker %-6s assignments=%v\n", w.Name, w.Assignments)
	}
	for _, name := range sol.BufferOrder {
		b, _ := sol.Buffer(name)
		fmt.Printf("  buffer %-6s levels=%v change_times=%v\n", b.Name, b.Levels, b.ChangeTimes)
	}
	for _, name := range sol.IndicatorOrder {
		v, _ := sol.Indicator(name)
		fmt.Printf("  indicator %-12s = %d\n", name, v)
	}
}
