package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// Constraint is implemented by every member of the constraint library (spec
// §3, §4.4): an immutable value owning a reified Body ("this constraint's
// own relation holds") and, when optional, a fresh Applied flag guarding it.
// Body is built eagerly at construction (every symbol it references already
// exists); the hard fact "Applied ⇒ Body" is posted later, during solve
// assembly (solver.go), so a first-order combinator (Not/And/Or/Xor/
// Implies/IfThenElse, constraint_logic.go) can fold a child's Body into its
// own before anything becomes an unconditional top-level fact.
type Constraint interface {
	Name() string
	Optional() bool
	Applied() symbol.BoolSym
	Body() symbol.BoolSym

	// consumed reports whether this constraint was folded into a parent
	// composite and must be skipped by solve assembly to avoid asserting
	// its body both standalone and as part of the parent.
	consumed() bool
	markConsumed()
}

type baseConstraint struct {
	name     string
	optional bool
	applied  symbol.BoolSym
	body     symbol.BoolSym
	isConsumed bool
}

func (c *baseConstraint) Name() string             { return c.name }
func (c *baseConstraint) Optional() bool           { return c.optional }
func (c *baseConstraint) Applied() symbol.BoolSym  { return c.applied }
func (c *baseConstraint) Body() symbol.BoolSym     { return c.body }
func (c *baseConstraint) consumed() bool           { return c.isConsumed }
func (c *baseConstraint) markConsumed()            { c.isConsumed = true }

// scheduledGuard returns the conjunction of referenced tasks' scheduled
// flags, or the Space's true constant when none of them are optional (spec
// §4.4: "when any referenced task is optional, wrap the body in
// AND(referenced.scheduled) => body; otherwise emit the body directly").
func scheduledGuard(sp *symbol.Space, tasks ...Task) (symbol.BoolSym, error) {
	anyOptional := false
	scheds := make([]symbol.BoolSym, 0, len(tasks))
	for _, t := range tasks {
		if t.Optional() {
			anyOptional = true
		}
		scheds = append(scheds, t.Scheduled())
	}
	if !anyOptional {
		return sp.True(), nil
	}
	return sp.And(scheds...)
}

// newConstraintCommon builds a baseConstraint whose Body is the
// task.scheduled-guarded conjunction of terms, and whose Applied flag is a
// fresh boolean when optional or the Space's true constant otherwise.
func newConstraintCommon(p *Problem, name string, optional bool, terms []symbol.BoolSym, referenced ...Task) (*baseConstraint, error) {
	sp := p.sp
	guard, err := scheduledGuard(sp, referenced...)
	if err != nil {
		return nil, err
	}
	termsAnd, err := sp.And(terms...)
	if err != nil {
		return nil, err
	}
	var body symbol.BoolSym
	if guard == sp.True() {
		body = termsAnd
	} else {
		body, err = sp.Implies(guard, termsAnd)
		if err != nil {
			return nil, err
		}
	}
	c := &baseConstraint{name: name, optional: optional, body: body}
	if optional {
		c.applied = sp.NewBool(name + "_applied")
	} else {
		c.applied = sp.True()
	}
	return c, nil
}

// registerAndReturn registers c under name and returns it as a Constraint,
// the common tail of every public constructor in this file.
func registerAndReturn(p *Problem, name string, c Constraint) (Constraint, error) {
	if err := p.registerConstraint(name, c); err != nil {
		return nil, err
	}
	p.log.Debug().Str("constraint", name).Str("kind", fmtType(c)).Msg("constraint registered")
	return c, nil
}

func fmtType(c Constraint) string {
	switch c.(type) {
	case *taskPrecedence:
		return "TaskPrecedence"
	case *tasksStartSynced:
		return "TasksStartSynced"
	case *tasksEndSynced:
		return "TasksEndSynced"
	case *tasksDontOverlap:
		return "TasksDontOverlap"
	case *tasksContiguous:
		return "TasksContiguous"
	case *taskGroup:
		return "TaskGroup"
	case *baseConstraintWrapper:
		return "BufferEvent"
	case *forceScheduleN:
		return "ForceScheduleNOptionalTasks"
	case *forceApplyN:
		return "ForceApplyNOptionalConstraints"
	case *scheduleNInIntervals:
		return "ScheduleNTasksInTimeIntervals"
	case *optionalTaskConditionSchedule:
		return "OptionalTaskConditionSchedule"
	case *optionalTasksDependency:
		return "OptionalTasksDependency"
	case *resourceUnavailable:
		return "ResourceUnavailable"
	case *resourcePeriodicallyUnavailable:
		return "ResourcePeriodicallyUnavailable"
	case *resourceInterrupted:
		return "ResourceInterrupted"
	case *resourceTasksDistance:
		return "ResourceTasksDistance"
	case *workLoad:
		return "WorkLoad"
	case *rawConstraint:
		return "RawConstraint"
	case *notConstraint:
		return "Not"
	case *andConstraint:
		return "And"
	case *orConstraint:
		return "Or"
	case *xorConstraint:
		return "Xor"
	case *impliesConstraint:
		return "Implies"
	case *ifThenElseConstraint:
		return "IfThenElse"
	default:
		return "Constraint"
	}
}

// PrecedenceKind selects how strictly a precedence relation binds (spec §4.4).
type PrecedenceKind int

const (
	Lax    PrecedenceKind = iota // before.end + offset <= after.start
	Strict                       // before.end + offset <  after.start
	Tight                        // before.end + offset == after.start
)

func precedenceOp(k PrecedenceKind) string {
	switch k {
	case Strict:
		return "<"
	case Tight:
		return "=="
	default:
		return "<="
	}
}

type taskPrecedence struct {
	baseConstraint
	before, after Task
	offset        int
	kind          PrecedenceKind
}

// TaskPrecedenceOption configures NewTaskPrecedence.
type TaskPrecedenceOption func(*precedenceConfig)

type precedenceConfig struct {
	offset   int
	kind     PrecedenceKind
	optional bool
}

// WithOffset sets the minimum gap (>= 0) between before.end and after.start.
func WithOffset(offset int) TaskPrecedenceOption {
	return func(c *precedenceConfig) { c.offset = offset }
}

// WithPrecedenceKind sets lax/strict/tight comparison (spec §4.4).
func WithPrecedenceKind(k PrecedenceKind) TaskPrecedenceOption {
	return func(c *precedenceConfig) { c.kind = k }
}

// OptionalConstraint marks the constraint itself as optional (spec §3): its
// application becomes a decision variable, the Applied flag.
func OptionalConstraint() TaskPrecedenceOption {
	return func(c *precedenceConfig) { c.optional = true }
}

// NewTaskPrecedence asserts before.end + offset {<=,<,==} after.start (spec
// §4.4), guarded by both tasks' scheduled flags when either is optional.
func NewTaskPrecedence(name string, before, after Task, opts ...TaskPrecedenceOption) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("TaskPrecedence")
	}
	cfg := &precedenceConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.offset < 0 {
		return nil, invalidParam("offset", "must be >= 0")
	}

	op := precedenceOp(cfg.kind)
	var rel symbol.BoolSym
	if op == "==" {
		rel, err = reifyEqualOffset(p.sp, before.End(), cfg.offset, after.Start())
	} else {
		rel, err = p.sp.ReifyOffsetCompare(name+"_rel", before.End(), cfg.offset, op, after.Start())
	}
	if err != nil {
		return nil, err
	}

	base, err := newConstraintCommon(p, name, cfg.optional, []symbol.BoolSym{rel}, before, after)
	if err != nil {
		return nil, err
	}
	c := &taskPrecedence{baseConstraint: *base, before: before, after: after, offset: cfg.offset, kind: cfg.kind}
	return registerAndReturn(p, name, c)
}

type tasksStartSynced struct {
	baseConstraint
	t1, t2 Task
}

// NewTasksStartSynced asserts t1.start == t2.start (spec §4.4).
func NewTasksStartSynced(name string, t1, t2 Task, optional bool) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("TasksStartSynced")
	}
	rel, err := p.sp.ReifyEqual(name+"_rel", t1.Start(), t2.Start())
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, optional, []symbol.BoolSym{rel}, t1, t2)
	if err != nil {
		return nil, err
	}
	c := &tasksStartSynced{baseConstraint: *base, t1: t1, t2: t2}
	return registerAndReturn(p, name, c)
}

type tasksEndSynced struct {
	baseConstraint
	t1, t2 Task
}

// NewTasksEndSynced asserts t1.end == t2.end (spec §4.4).
func NewTasksEndSynced(name string, t1, t2 Task, optional bool) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("TasksEndSynced")
	}
	rel, err := p.sp.ReifyEqual(name+"_rel", t1.End(), t2.End())
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, optional, []symbol.BoolSym{rel}, t1, t2)
	if err != nil {
		return nil, err
	}
	c := &tasksEndSynced{baseConstraint: *base, t1: t1, t2: t2}
	return registerAndReturn(p, name, c)
}

type tasksDontOverlap struct {
	baseConstraint
	t1, t2 Task
}

// NewTasksDontOverlap asserts XOR(t2.start >= t1.end, t1.start >= t2.end)
// (spec §4.4).
func NewTasksDontOverlap(name string, t1, t2 Task, optional bool) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("TasksDontOverlap")
	}
	sp := p.sp
	left, err := sp.ReifyOffsetCompare(name+"_left", t2.Start(), 0, ">=", t1.End())
	if err != nil {
		return nil, err
	}
	right, err := sp.ReifyOffsetCompare(name+"_right", t1.Start(), 0, ">=", t2.End())
	if err != nil {
		return nil, err
	}
	rel, err := sp.Xor(left, right)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, optional, []symbol.BoolSym{rel}, t1, t2)
	if err != nil {
		return nil, err
	}
	c := &tasksDontOverlap{baseConstraint: *base, t1: t1, t2: t2}
	return registerAndReturn(p, name, c)
}

type tasksContiguous struct {
	baseConstraint
	tasks []Task
}

// NewTasksContiguous sorts the list's starts and ends with util.go's
// assignment-based sortNoDuplicates and requires each sorted start to equal the previous
// sorted end, once both are non-negative (spec §4.4): the tasks occupy one
// unbroken span with no gaps, in whatever order the solver picks.
func NewTasksContiguous(name string, tasks []Task, optional bool) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(tasks) < 2 {
		return nil, invalidParam("tasks", "TasksContiguous needs at least 2 tasks")
	}
	if name == "" {
		name = genName("TasksContiguous")
	}
	sp := p.sp

	starts := make([]symbol.IntSym, len(tasks))
	ends := make([]symbol.IntSym, len(tasks))
	for i, t := range tasks {
		starts[i] = t.Start()
		ends[i] = t.End()
	}
	sortedStarts, startRels, err := sortNoDuplicates(sp, name+"_start", starts)
	if err != nil {
		return nil, err
	}
	sortedEnds, endRels, err := sortNoDuplicates(sp, name+"_end", ends)
	if err != nil {
		return nil, err
	}

	terms := append([]symbol.BoolSym{}, startRels...)
	terms = append(terms, endRels...)

	for i := 1; i < len(sortedStarts); i++ {
		eq, err := sp.ReifyEqual(name+"_eq", sortedStarts[i], sortedEnds[i-1])
		if err != nil {
			return nil, err
		}
		startNonNeg, err := sp.ReifyCompare(name+"_s_nonneg", sortedStarts[i], ">=", sp.NewConst(name+"_zero", 0))
		if err != nil {
			return nil, err
		}
		endNonNeg, err := sp.ReifyCompare(name+"_e_nonneg", sortedEnds[i-1], ">=", sp.NewConst(name+"_zero2", 0))
		if err != nil {
			return nil, err
		}
		bothNonNeg, err := sp.And(startNonNeg, endNonNeg)
		if err != nil {
			return nil, err
		}
		guarded, err := sp.Implies(bothNonNeg, eq)
		if err != nil {
			return nil, err
		}
		terms = append(terms, guarded)
	}

	base, err := newConstraintCommon(p, name, optional, terms, tasks...)
	if err != nil {
		return nil, err
	}
	c := &tasksContiguous{baseConstraint: *base, tasks: tasks}
	return registerAndReturn(p, name, c)
}

type taskPointConstraint struct {
	baseConstraint
	task  Task
	value int
}

// NewTaskStartAt asserts task.start == value (spec §4.4).
func NewTaskStartAt(name string, task Task, value int) (Constraint, error) {
	return newTaskPoint(name, "TaskStartAt", task, value, func(sp *symbol.Space, n string, t Task) (symbol.BoolSym, error) {
		return sp.ReifyEqual(n, t.Start(), sp.NewConst(n+"_v", value))
	})
}

// NewTaskEndAt asserts task.end == value (spec §4.4).
func NewTaskEndAt(name string, task Task, value int) (Constraint, error) {
	return newTaskPoint(name, "TaskEndAt", task, value, func(sp *symbol.Space, n string, t Task) (symbol.BoolSym, error) {
		return sp.ReifyEqual(n, t.End(), sp.NewConst(n+"_v", value))
	})
}

// NewTaskStartAfter asserts task.start >= value (lax) or > value (strict).
func NewTaskStartAfter(name string, task Task, value int, strict bool) (Constraint, error) {
	op := ">="
	if strict {
		op = ">"
	}
	return newTaskPointOp(name, "TaskStartAfter", op, task, value, func(sp *symbol.Space, n string, t Task) (symbol.BoolSym, error) {
		return sp.ReifyCompare(n, t.Start(), op, sp.NewConst(n+"_v", value))
	})
}

// NewTaskEndBefore asserts task.end <= value (lax) or < value (strict).
func NewTaskEndBefore(name string, task Task, value int, strict bool) (Constraint, error) {
	op := "<="
	if strict {
		op = "<"
	}
	return newTaskPointOp(name, "TaskEndBefore", op, task, value, func(sp *symbol.Space, n string, t Task) (symbol.BoolSym, error) {
		return sp.ReifyCompare(n, t.End(), op, sp.NewConst(n+"_v", value))
	})
}

func newTaskPoint(name, typeTag string, task Task, value int, build func(*symbol.Space, string, Task) (symbol.BoolSym, error)) (Constraint, error) {
	return newTaskPointOp(name, typeTag, "", task, value, build)
}

// newTaskPointOp is newTaskPoint with op folded into the duplicate-assertion
// key, so TaskStartAfter(t, 5, strict=false) and TaskStartAfter(t, 5,
// strict=true) are tracked as distinct assertions on t.
func newTaskPointOp(name, typeTag, op string, task Task, value int, build func(*symbol.Space, string, Task) (symbol.BoolSym, error)) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if bt, ok := task.(interface{ recordAssertion(string) error }); ok {
		if err := bt.recordAssertion(fmt.Sprintf("%s%s(%d)", typeTag, op, value)); err != nil {
			return nil, err
		}
	}
	if name == "" {
		name = genName(typeTag)
	}
	rel, err := build(p.sp, name+"_rel", task)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, false, []symbol.BoolSym{rel}, task)
	if err != nil {
		return nil, err
	}
	c := &taskPointConstraint{baseConstraint: *base, task: task, value: value}
	return registerAndReturn(p, name, c)
}
