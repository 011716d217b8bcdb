package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// reifyCardinality reifies "count(bs) {>=,<=,==} n" without posting a hard
// assertion, so it can serve as a Constraint Body that solve assembly later
// guards by Applied (spec §4.4: cardinality constraints are ordinary library
// members, not backend primitives).
func reifyCardinality(sp *symbol.Space, name string, bs []symbol.BoolSym, n int, kind CardinalityKind) (symbol.BoolSym, error) {
	count, err := sp.CountTrue(name+"_count", bs)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	target := sp.NewConst(name+"_n", n)
	switch kind {
	case AtLeast:
		return sp.ReifyCompare(name+"_rel", count, ">=", target)
	case AtMost:
		return sp.ReifyCompare(name+"_rel", count, "<=", target)
	default:
		return sp.ReifyEqual(name+"_rel", count, target)
	}
}

func requireAllOptional(tasks []Task) error {
	for _, t := range tasks {
		if !t.Optional() {
			return fmt.Errorf("%w: task %q", ErrNonOptionalMember, t.Name())
		}
	}
	return nil
}

type forceScheduleN struct {
	baseConstraint
	tasks []Task
	n     int
	kind  CardinalityKind
}

// ForceScheduleNOptionalTasks forces exactly/at least/at most n of the
// (necessarily all-optional) tasks in the list to be scheduled (spec §4.4).
func ForceScheduleNOptionalTasks(name string, tasks []Task, n int, kind CardinalityKind) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, invalidParam("tasks", "must not be empty")
	}
	if err := requireAllOptional(tasks); err != nil {
		return nil, err
	}
	if n <= 0 || n > len(tasks) {
		return nil, invalidParam("n", "must satisfy 0 < n <= len(tasks)")
	}
	if name == "" {
		name = genName("ForceScheduleNOptionalTasks")
	}
	scheds := make([]symbol.BoolSym, len(tasks))
	for i, t := range tasks {
		scheds[i] = t.Scheduled()
	}
	rel, err := reifyCardinality(p.sp, name, scheds, n, kind)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, false, []symbol.BoolSym{rel})
	if err != nil {
		return nil, err
	}
	c := &forceScheduleN{baseConstraint: *base, tasks: tasks, n: n, kind: kind}
	return registerAndReturn(p, name, c)
}

type forceApplyN struct {
	baseConstraint
	constraints []Constraint
	n           int
	kind        CardinalityKind
}

// ForceApplyNOptionalConstraints forces exactly/at least/at most n of the
// (necessarily all-optional) constraints in the list to be applied (spec
// §4.4).
func ForceApplyNOptionalConstraints(name string, constraints []Constraint, n int, kind CardinalityKind) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(constraints) == 0 {
		return nil, invalidParam("constraints", "must not be empty")
	}
	for _, c := range constraints {
		if !c.Optional() {
			return nil, fmt.Errorf("%w: constraint %q", ErrNonOptionalMember, c.Name())
		}
	}
	if n <= 0 || n > len(constraints) {
		return nil, invalidParam("n", "must satisfy 0 < n <= len(constraints)")
	}
	if name == "" {
		name = genName("ForceApplyNOptionalConstraints")
	}
	applied := make([]symbol.BoolSym, len(constraints))
	for i, c := range constraints {
		applied[i] = c.Applied()
	}
	rel, err := reifyCardinality(p.sp, name, applied, n, kind)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, false, []symbol.BoolSym{rel})
	if err != nil {
		return nil, err
	}
	c := &forceApplyN{baseConstraint: *base, constraints: constraints, n: n, kind: kind}
	return registerAndReturn(p, name, c)
}

type scheduleNInIntervals struct {
	baseConstraint
	tasks     []Task
	n         int
	intervals []TimeInterval
	kind      CardinalityKind
}

// ScheduleNTasksInTimeIntervals requires exactly/at least/at most n of the
// tasks to lie entirely within one of the given intervals, with each task
// counted toward at most one interval (spec §4.4).
func ScheduleNTasksInTimeIntervals(name string, tasks []Task, n int, intervals []TimeInterval, kind CardinalityKind) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, invalidParam("tasks", "must not be empty")
	}
	if len(intervals) == 0 {
		return nil, invalidParam("intervals", "must not be empty")
	}
	if name == "" {
		name = genName("ScheduleNTasksInTimeIntervals")
	}
	sp := p.sp

	var allBools []symbol.BoolSym
	var terms []symbol.BoolSym
	for _, t := range tasks {
		taskBools := make([]symbol.BoolSym, 0, len(intervals))
		for k, iv := range intervals {
			inInterval := sp.NewBool(fmt.Sprintf("%s_in_%s_%d", name, t.Name(), k))
			lo := sp.NewConst(fmt.Sprintf("%s_lo_%s_%d", name, t.Name(), k), iv.Low)
			hi := sp.NewConst(fmt.Sprintf("%s_hi_%s_%d", name, t.Name(), k), iv.High)
			startGE, err := sp.ReifyCompare(fmt.Sprintf("%s_sge_%s_%d", name, t.Name(), k), t.Start(), ">=", lo)
			if err != nil {
				return nil, err
			}
			endLE, err := sp.ReifyCompare(fmt.Sprintf("%s_ele_%s_%d", name, t.Name(), k), t.End(), "<=", hi)
			if err != nil {
				return nil, err
			}
			within, err := sp.And(startGE, endLE)
			if err != nil {
				return nil, err
			}
			rel, err := reifyEqualBool(sp, inInterval, within)
			if err != nil {
				return nil, err
			}
			terms = append(terms, rel)
			taskBools = append(taskBools, inInterval)
		}
		atMostOne, err := reifyCardinality(sp, fmt.Sprintf("%s_atmostone_%s", name, t.Name()), taskBools, 1, AtMost)
		if err != nil {
			return nil, err
		}
		terms = append(terms, atMostOne)
		allBools = append(allBools, taskBools...)
	}

	globalRel, err := reifyCardinality(sp, name+"_global", allBools, n, kind)
	if err != nil {
		return nil, err
	}
	terms = append(terms, globalRel)

	base, err := newConstraintCommon(p, name, false, terms)
	if err != nil {
		return nil, err
	}
	c := &scheduleNInIntervals{baseConstraint: *base, tasks: tasks, n: n, intervals: intervals, kind: kind}
	return registerAndReturn(p, name, c)
}

// reifyEqualBool reifies "a == b" for two boolean symbols as And(a=>b, b=>a).
func reifyEqualBool(sp *symbol.Space, a, b symbol.BoolSym) (symbol.BoolSym, error) {
	fwd, err := sp.Implies(a, b)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	back, err := sp.Implies(b, a)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	return sp.And(fwd, back)
}

type optionalTaskConditionSchedule struct {
	baseConstraint
	task      Task
	condition symbol.BoolSym
}

// OptionalTaskConditionSchedule schedules task if and only if condition
// holds (spec-adjacent supplement, grounded on the original's
// OptionalTaskConditionSchedule): task must be optional.
func OptionalTaskConditionSchedule(name string, task Task, condition symbol.BoolSym) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if !task.Optional() {
		return nil, fmt.Errorf("%w: task %q", ErrNonOptionalMember, task.Name())
	}
	if name == "" {
		name = genName("OptionalTaskConditionSchedule")
	}
	rel, err := reifyEqualBool(p.sp, task.Scheduled(), condition)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, false, []symbol.BoolSym{rel})
	if err != nil {
		return nil, err
	}
	c := &optionalTaskConditionSchedule{baseConstraint: *base, task: task, condition: condition}
	return registerAndReturn(p, name, c)
}

type optionalTasksDependency struct {
	baseConstraint
	task1, task2 Task
}

// OptionalTasksDependency asserts task2 is scheduled iff task1 is scheduled;
// task2 must be optional (spec-adjacent supplement, grounded on the
// original's OptionalTasksDependency).
func OptionalTasksDependency(name string, task1, task2 Task) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if !task2.Optional() {
		return nil, fmt.Errorf("%w: task %q", ErrNonOptionalMember, task2.Name())
	}
	if name == "" {
		name = genName("OptionalTasksDependency")
	}
	rel, err := reifyEqualBool(p.sp, task1.Scheduled(), task2.Scheduled())
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, false, []symbol.BoolSym{rel})
	if err != nil {
		return nil, err
	}
	c := &optionalTasksDependency{baseConstraint: *base, task1: task1, task2: task2}
	return registerAndReturn(p, name, c)
}
