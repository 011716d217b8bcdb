package scheduler

import (
	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// Task is implemented by every task variant (spec §3: ZeroDuration,
// FixedDuration, VariableDuration). A Task owns start/end (and, for
// variable tasks, duration) integer symbols, a scheduled boolean, and the
// optional attributes release_date/due_date/priority/work_amount.
type Task interface {
	Name() string
	Start() symbol.IntSym
	End() symbol.IntSym
	Duration() symbol.IntSym
	Scheduled() symbol.BoolSym
	Optional() bool
	OptionalRank() int // 0 for mandatory tasks

	ReleaseDate() (int, bool)
	DueDate() (value int, set bool, isDeadline bool)
	Priority() int
	WorkAmount() int

	Requirements() []*ResourceRequirement
	addRequirement(r *ResourceRequirement)
}

// TaskOption configures a task at construction time.
type TaskOption func(*taskConfig)

type taskConfig struct {
	optional    bool
	releaseDate int
	dueDate     int
	dueSet      bool
	deadline    bool
	priority    int
	workAmount  int
	varMax      int
	varMaxSet   bool
	allowed     []int
}

// Optional marks the task as optional: its inclusion in the schedule is a
// decision variable (spec §3, Glossary "Optional task").
func Optional() TaskOption { return func(c *taskConfig) { c.optional = true } }

// ReleaseDate sets a lower bound on the task's start (spec §4.2).
func ReleaseDate(d int) TaskOption { return func(c *taskConfig) { c.releaseDate = d } }

// DueDate sets the task's due date. If isDeadline, it is asserted as a hard
// upper bound on end; otherwise it only informs tardiness/earliness
// indicators (spec §3, §4.2).
func DueDate(d int, isDeadline bool) TaskOption {
	return func(c *taskConfig) { c.dueDate = d; c.dueSet = true; c.deadline = isDeadline }
}

// Priority sets the non-negative weight used by Tardiness (spec §4.5).
func Priority(p int) TaskOption { return func(c *taskConfig) { c.priority = p } }

// WorkAmount sets the productivity contract a task's required workers must
// jointly satisfy (spec §4.7 step 3).
func WorkAmount(w int) TaskOption { return func(c *taskConfig) { c.workAmount = w } }

// MaxDuration bounds a VariableDurationTask's duration from above. Ignored
// by other task variants.
func MaxDuration(v int) TaskOption { return func(c *taskConfig) { c.varMax = v; c.varMaxSet = true } }

// AllowedDurations restricts a VariableDurationTask's duration to an
// explicit enumeration. Ignored by other task variants.
func AllowedDurations(values ...int) TaskOption {
	return func(c *taskConfig) { c.allowed = append([]int(nil), values...) }
}

func applyTaskOptions(opts []TaskOption) *taskConfig {
	c := &taskConfig{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// baseTask holds the fields and behavior common to every task variant.
type baseTask struct {
	name         string
	start        symbol.IntSym
	end          symbol.IntSym
	duration     symbol.IntSym
	scheduled    symbol.BoolSym
	optional     bool
	optionalRank int

	releaseDate int
	dueDate     int
	dueSet      bool
	deadline    bool
	priority    int
	workAmount  int

	requirements []*ResourceRequirement

	assertions map[string]struct{}
}

// recordAssertion marks key as already asserted on this task, failing with
// ErrDuplicateAssertion if the same key was recorded before (spec §5/§7:
// assertions are idempotent in semantics but not in identity, and a repeat
// submission on one entity signals a modeling bug rather than a no-op).
func (t *baseTask) recordAssertion(key string) error {
	if t.assertions == nil {
		t.assertions = make(map[string]struct{})
	}
	if _, seen := t.assertions[key]; seen {
		return &DuplicateAssertionError{Entity: t.name, Key: key}
	}
	t.assertions[key] = struct{}{}
	return nil
}

func (t *baseTask) Name() string              { return t.name }
func (t *baseTask) Start() symbol.IntSym      { return t.start }
func (t *baseTask) End() symbol.IntSym        { return t.end }
func (t *baseTask) Duration() symbol.IntSym   { return t.duration }
func (t *baseTask) Scheduled() symbol.BoolSym { return t.scheduled }
func (t *baseTask) Optional() bool            { return t.optional }
func (t *baseTask) OptionalRank() int         { return t.optionalRank }
func (t *baseTask) Priority() int             { return t.priority }
func (t *baseTask) WorkAmount() int           { return t.workAmount }

func (t *baseTask) ReleaseDate() (int, bool) { return t.releaseDate, t.releaseDate > 0 }
func (t *baseTask) DueDate() (int, bool, bool) { return t.dueDate, t.dueSet, t.deadline }

func (t *baseTask) Requirements() []*ResourceRequirement { return t.requirements }
func (t *baseTask) addRequirement(r *ResourceRequirement) {
	t.requirements = append(t.requirements, r)
}

// horizonUpperBound returns the integer domain ceiling to size task
// start/end symbols with: the declared horizon if fixed, else the
// free-horizon search cap.
func (p *Problem) horizonUpperBound() int {
	if p.Horizon.fixed {
		return p.Horizon.value
	}
	return freeHorizonUpperBound
}

// newTaskCommon builds start/end/scheduled for any task variant and applies
// the shared release_date/due_date assertions, guarded by scheduled when
// optional (spec §4.2).
func (p *Problem) newTaskCommon(name string, cfg *taskConfig) (*baseTask, error) {
	hi := p.horizonUpperBound()
	t := &baseTask{
		name:        name,
		optional:    cfg.optional,
		releaseDate: cfg.releaseDate,
		dueDate:     cfg.dueDate,
		dueSet:      cfg.dueSet,
		deadline:    cfg.deadline,
		priority:    cfg.priority,
		workAmount:  cfg.workAmount,
	}

	sp := p.sp
	if cfg.optional {
		t.optionalRank = p.newOptionalRank()
		sentinel := -t.optionalRank
		startSym, err := sp.NewIntWithSentinels(name+"_start", 0, hi, []int{sentinel})
		if err != nil {
			return nil, err
		}
		endSym, err := sp.NewIntWithSentinels(name+"_end", 0, hi, []int{sentinel})
		if err != nil {
			return nil, err
		}
		t.start, t.end = startSym, endSym
		t.scheduled = sp.NewBool(name + "_scheduled")

		// scheduled ⇒ normal bounds; ¬scheduled ⇒ start=end=sentinel.
		notScheduled, err := sp.Not(t.scheduled)
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(notScheduled,
			mustReifyEqualConst(sp, t.start, sentinel),
			mustReifyEqualConst(sp, t.end, sentinel),
		); err != nil {
			return nil, err
		}
	} else {
		startSym, err := sp.NewInt(name+"_start", 0, hi)
		if err != nil {
			return nil, err
		}
		endSym, err := sp.NewInt(name+"_end", 0, hi)
		if err != nil {
			return nil, err
		}
		t.start, t.end = startSym, endSym
		t.scheduled = sp.True()
	}

	if cfg.releaseDate > 0 {
		rd := sp.NewConst(name+"_release_date", cfg.releaseDate)
		geq, err := sp.ReifyCompare(name+"_release_date_ok", t.start, ">=", rd)
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(t.scheduled, geq); err != nil {
			return nil, err
		}
	}

	if cfg.dueSet && cfg.deadline {
		dd := sp.NewConst(name+"_due_date", cfg.dueDate)
		leq, err := sp.ReifyCompare(name+"_due_date_ok", t.end, "<=", dd)
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(t.scheduled, leq); err != nil {
			return nil, err
		}
	}

	// end <= horizon, unless optional and unscheduled (the sentinel branch
	// above already pinned end to a negative value in that case, which is
	// trivially <= horizon, so the guard is harmless to add unconditionally
	// but cheaper to gate by scheduled).
	leqHorizon, err := sp.ReifyOffsetCompare(name+"_within_horizon", t.end, 0, "<=", p.horizonSym)
	if err != nil {
		return nil, err
	}
	if err := sp.Guard(t.scheduled, leqHorizon); err != nil {
		return nil, err
	}

	return t, nil
}

// mustReifyEqualConst returns a BoolSym asserting x == value, panicking only
// on the kind of programming error (bad Space) that would already have
// failed earlier calls on the same task; kept private and used solely in
// the optional-task wiring path above where failure is not recoverable
// per-call without threading more error plumbing through Guard.
func mustReifyEqualConst(sp *symbol.Space, x symbol.IntSym, value int) symbol.BoolSym {
	c := sp.NewConst("_const", value)
	b, err := sp.ReifyEqual("_eqconst", x, c)
	if err != nil {
		panic(err)
	}
	return b
}

// zeroDurationTask implements Task for ZeroDurationTask (spec §3, §4.2).
type zeroDurationTask struct{ baseTask }

// NewZeroDurationTask creates a task whose start equals its end (spec §4.2:
// "assert start = end"). Duration is always the constant 0, in both the
// scheduled and unscheduled branches, so no optional-wrapping is needed for
// the duration symbol itself.
func NewZeroDurationTask(name string, opts ...TaskOption) (Task, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	cfg := applyTaskOptions(opts)
	base, err := p.newTaskCommon(name, cfg)
	if err != nil {
		return nil, err
	}
	base.duration = p.sp.NewConst(name+"_duration", 0)
	if err := p.sp.AssertEqual(base.start, base.end); err != nil {
		return nil, err
	}
	t := &zeroDurationTask{baseTask: *base}
	if err := p.registerTask(name, t); err != nil {
		return nil, err
	}
	p.log.Debug().Str("task", name).Str("kind", "zero").Msg("task registered")
	return t, nil
}

// fixedDurationTask implements Task for FixedDurationTask(d).
type fixedDurationTask struct{ baseTask }

// NewFixedDurationTask creates a task of duration d (spec §4.2: "assert
// end - start = d, start >= 0"). When optional, duration is a genuine
// two-valued symbol {0, d} tied to scheduled via end-start, matching the
// sentinel discipline: end-start is forced to 0 in the unscheduled branch.
func NewFixedDurationTask(name string, d int, opts ...TaskOption) (Task, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if d < 0 {
		return nil, invalidParam("duration", "must be >= 0")
	}
	cfg := applyTaskOptions(opts)
	base, err := p.newTaskCommon(name, cfg)
	if err != nil {
		return nil, err
	}

	sp := p.sp
	if cfg.optional {
		durSym, err := sp.NewIntWithSentinels(name+"_duration", d, d, []int{0})
		if err != nil {
			return nil, err
		}
		base.duration = durSym
		eqD, err := sp.ReifyEqual(name+"_dur_is_d", durSym, sp.NewConst(name+"_d", d))
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(base.scheduled, eqD); err != nil {
			return nil, err
		}
		notScheduled, err := sp.Not(base.scheduled)
		if err != nil {
			return nil, err
		}
		eq0, err := sp.ReifyEqual(name+"_dur_is_0", durSym, sp.NewConst(name+"_zero", 0))
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(notScheduled, eq0); err != nil {
			return nil, err
		}
	} else {
		base.duration = sp.NewConst(name+"_duration", d)
	}

	// end = start + duration holds unconditionally: in the unscheduled
	// branch start=end=sentinel and duration=0 already make it trivially
	// true, so no scheduled-guard is needed here (spec §4.2, §9 sentinel
	// discipline).
	if err := sp.AssertSumEqual(base.end, base.start, base.duration); err != nil {
		return nil, err
	}

	t := &fixedDurationTask{baseTask: *base}
	if err := p.registerTask(name, t); err != nil {
		return nil, err
	}
	p.log.Debug().Str("task", name).Str("kind", "fixed").Int("duration", d).Msg("task registered")
	return t, nil
}

// variableDurationTask implements Task for VariableDurationTask{min,max,allowed}.
type variableDurationTask struct{ baseTask }

// NewVariableDurationTask creates a task whose duration ranges over
// [min, max] (optionally further restricted to an enumeration), per spec
// §4.2. Use MaxDuration/AllowedDurations options to set max/allowed.
func NewVariableDurationTask(name string, min int, opts ...TaskOption) (Task, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if min < 0 {
		return nil, invalidParam("min", "must be >= 0")
	}
	cfg := applyTaskOptions(opts)
	if cfg.varMaxSet && cfg.varMax < min {
		return nil, invalidParam("max", "must be >= min")
	}
	base, err := p.newTaskCommon(name, cfg)
	if err != nil {
		return nil, err
	}

	sp := p.sp
	hi := p.horizonUpperBound()
	max := hi
	if cfg.varMaxSet {
		max = cfg.varMax
	}

	var durSym symbol.IntSym
	if cfg.optional && min > 0 {
		durSym, err = sp.NewIntWithSentinels(name+"_duration", min, max, []int{0})
	} else {
		lo := min
		if cfg.optional {
			lo = 0 // 0 already within [0,max] so no sentinel slot needed
		}
		durSym, err = sp.NewInt(name+"_duration", lo, max)
	}
	if err != nil {
		return nil, err
	}
	base.duration = durSym

	if cfg.optional {
		notScheduled, err := sp.Not(base.scheduled)
		if err != nil {
			return nil, err
		}
		eq0, err := sp.ReifyEqual(name+"_dur_is_0", durSym, sp.NewConst(name+"_zero", 0))
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(notScheduled, eq0); err != nil {
			return nil, err
		}
		geqMin, err := sp.ReifyCompare(name+"_dur_geq_min", durSym, ">=", sp.NewConst(name+"_min", min))
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(base.scheduled, geqMin); err != nil {
			return nil, err
		}
	} else if min > 0 {
		if err := sp.AssertCompare(durSym, ">=", sp.NewConst(name+"_min", min)); err != nil {
			return nil, err
		}
	}

	if len(cfg.allowed) > 0 {
		allowedBools := make([]symbol.BoolSym, 0, len(cfg.allowed))
		for _, v := range cfg.allowed {
			b, err := sp.ReifyEqual(name+"_dur_allowed", durSym, sp.NewConst(name+"_allowedv", v))
			if err != nil {
				return nil, err
			}
			allowedBools = append(allowedBools, b)
		}
		anyAllowed, err := sp.Or(allowedBools...)
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(base.scheduled, anyAllowed); err != nil {
			return nil, err
		}
	}

	// end = start + duration, unconditionally (see the fixed-duration
	// variant above for why no scheduled-guard is needed).
	if err := sp.AssertSumEqual(base.end, base.start, durSym); err != nil {
		return nil, err
	}

	t := &variableDurationTask{baseTask: *base}
	if err := p.registerTask(name, t); err != nil {
		return nil, err
	}
	p.log.Debug().Str("task", name).Str("kind", "variable").Int("min", min).Int("max", max).Msg("task registered")
	return t, nil
}
