package scheduler

import (
	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// TimeInterval is an inclusive [Low, High] bound used by TaskGroup,
// ScheduleNTasksInTimeIntervals and ResourceUnavailable (spec §4.4).
type TimeInterval struct {
	Low, High int
}

// taskGroup is the shared base of UnorderedTaskGroup/OrderedTaskGroup (spec
// §4.4): a synthesized [GroupStart, GroupEnd] envelope containing every
// member task.
type taskGroup struct {
	baseConstraint
	tasks             []Task
	groupStart        symbol.IntSym
	groupEnd          symbol.IntSym
}

// GroupStart returns the group's synthesized start symbol.
func (g *taskGroup) GroupStart() symbol.IntSym { return g.groupStart }

// GroupEnd returns the group's synthesized end symbol.
func (g *taskGroup) GroupEnd() symbol.IntSym { return g.groupEnd }

// groupConfig configures NewUnorderedTaskGroup/NewOrderedTaskGroup: exactly
// one of Interval/IntervalLength should be set.
type groupConfig struct {
	interval       *TimeInterval
	intervalLength int
	optional       bool
	kind           PrecedenceKind
}

// TaskGroupOption configures group construction.
type TaskGroupOption func(*groupConfig)

// WithGroupInterval bounds the group to lie within [low, high].
func WithGroupInterval(low, high int) TaskGroupOption {
	return func(c *groupConfig) { c.interval = &TimeInterval{Low: low, High: high} }
}

// WithGroupLength bounds the group's own span to at most length periods.
func WithGroupLength(length int) TaskGroupOption {
	return func(c *groupConfig) { c.intervalLength = length }
}

// WithGroupKind sets the precedence kind chaining an OrderedTaskGroup's
// members; ignored by UnorderedTaskGroup.
func WithGroupKind(k PrecedenceKind) TaskGroupOption {
	return func(c *groupConfig) { c.kind = k }
}

func buildTaskGroup(p *Problem, name string, tasks []Task, cfg *groupConfig) (*taskGroup, []symbol.BoolSym, error) {
	if len(tasks) < 2 {
		return nil, nil, invalidParam("tasks", "a task group needs at least 2 tasks")
	}
	sp := p.sp
	hi := p.horizonUpperBound()
	gs, err := sp.NewInt(name+"_start", 0, hi)
	if err != nil {
		return nil, nil, err
	}
	ge, err := sp.NewInt(name+"_end", 0, hi)
	if err != nil {
		return nil, nil, err
	}

	var terms []symbol.BoolSym
	if cfg.interval != nil {
		geL, err := sp.ReifyCompare(name+"_gs_ge_l", gs, ">=", sp.NewConst(name+"_l", cfg.interval.Low))
		if err != nil {
			return nil, nil, err
		}
		geU, err := sp.ReifyCompare(name+"_ge_le_u", ge, "<=", sp.NewConst(name+"_u", cfg.interval.High))
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, geL, geU)
	} else if cfg.intervalLength > 0 {
		lenOk, err := sp.ReifyOffsetCompare(name+"_len_ok", gs, cfg.intervalLength, ">=", ge)
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, lenOk)
	}

	for _, t := range tasks {
		startIn, err := sp.ReifyCompare(name+"_m_start_ge", t.Start(), ">=", gs)
		if err != nil {
			return nil, nil, err
		}
		endIn, err := sp.ReifyCompare(name+"_m_end_le", t.End(), "<=", ge)
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, startIn, endIn)
	}

	g := &taskGroup{tasks: tasks, groupStart: gs, groupEnd: ge}
	return g, terms, nil
}

// NewUnorderedTaskGroup constrains every member's [start,end] inside a
// synthesized [GroupStart, GroupEnd] envelope with no ordering between
// members (spec §4.4).
func NewUnorderedTaskGroup(name string, tasks []Task, opts ...TaskGroupOption) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("UnorderedTaskGroup")
	}
	cfg := &groupConfig{}
	for _, o := range opts {
		o(cfg)
	}
	g, terms, err := buildTaskGroup(p, name, tasks, cfg)
	if err != nil {
		return nil, err
	}
	base, err := newConstraintCommon(p, name, cfg.optional, terms, tasks...)
	if err != nil {
		return nil, err
	}
	g.baseConstraint = *base
	return registerAndReturn(p, name, g)
}

// NewOrderedTaskGroup is NewUnorderedTaskGroup plus a precedence chain
// between consecutive members, per kind (spec §4.4).
func NewOrderedTaskGroup(name string, tasks []Task, opts ...TaskGroupOption) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("OrderedTaskGroup")
	}
	cfg := &groupConfig{}
	for _, o := range opts {
		o(cfg)
	}
	g, terms, err := buildTaskGroup(p, name, tasks, cfg)
	if err != nil {
		return nil, err
	}

	sp := p.sp
	op := precedenceOp(cfg.kind)
	for i := 0; i < len(tasks)-1; i++ {
		var rel symbol.BoolSym
		var err error
		if op == "==" {
			rel, err = reifyEqualOffset(sp, tasks[i].End(), 0, tasks[i+1].Start())
		} else {
			rel, err = sp.ReifyOffsetCompare(name+"_chain", tasks[i].End(), 0, op, tasks[i+1].Start())
		}
		if err != nil {
			return nil, err
		}
		terms = append(terms, rel)
	}

	base, err := newConstraintCommon(p, name, cfg.optional, terms, tasks...)
	if err != nil {
		return nil, err
	}
	g.baseConstraint = *base
	return registerAndReturn(p, name, g)
}
