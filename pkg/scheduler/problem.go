// Package scheduler is the symbolic encoding layer described in spec §2–§4:
// it owns the declarative problem graph (tasks, resources, constraints,
// indicators, objectives, buffers), compiles it into a pkg/csp model, drives
// the backend search, and lifts the result back into a typed Solution.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// Horizon is the problem's time upper bound: either a fixed positive integer
// or free (minimized by a makespan objective elsewhere in the model).
type Horizon struct {
	fixed bool
	value int // meaningful only if fixed
}

// FixedHorizon returns a horizon pinned at value periods.
func FixedHorizon(value int) Horizon { return Horizon{fixed: true, value: value} }

// FreeHorizon returns a horizon left as a solver-chosen non-negative integer.
func FreeHorizon() Horizon { return Horizon{fixed: false} }

// WallClock projects period coordinates onto real timestamps at the output
// boundary only (spec §4.8); internal computation always stays in periods.
type WallClock struct {
	Start  time.Time
	Period time.Duration
}

var (
	activeMu sync.Mutex
	active   *Problem
)

// Problem is the root of the declarative problem graph (spec §3). Exactly
// one Problem is active at a time; OpenProblem installs it as the implicit
// target of every entity constructor until Close releases it.
type Problem struct {
	Name   string
	Horizon Horizon
	Wall   *WallClock

	sp     *symbol.Space
	log    zerolog.Logger
	closed bool

	horizonSym symbol.IntSym // always present: fixed const or free var

	tasks     map[string]Task
	taskOrder []string
	optRank   int // 1-based creation rank counter for optional tasks (sentinel -i)

	resources     map[string]Resource
	resourceOrder []string

	constraints     map[string]Constraint
	constraintOrder []string

	indicators     map[string]*Indicator
	indicatorOrder []string

	objectives []*Objective

	buffers     map[string]Buffer
	bufferOrder []string

	bufferModels map[string]*BufferModel // built by solve assembly, see solver.go

	assembled bool // set once Solve's assembly pass has run, see solver.go
}

// ProblemOption configures OpenProblem.
type ProblemOption func(*Problem)

// WithWallClock attaches a (start, period) pair used only for output
// projection (spec §4.8).
func WithWallClock(start time.Time, period time.Duration) ProblemOption {
	return func(p *Problem) { p.Wall = &WallClock{Start: start, Period: period} }
}

// WithLogger attaches a structured logger. The default is a disabled
// zerolog.Logger, matching the teacher's convention of silence unless a
// caller opts in.
func WithLogger(l zerolog.Logger) ProblemOption {
	return func(p *Problem) { p.log = l }
}

// maxSentinelBudget is a generous bound on how many distinct negative
// sentinel values one problem may allocate (optional tasks + unselected
// SelectWorkers candidates). It is not a spec limit, just a safety bound
// for the symbol.Space domain sizing; once it is used up,
// Space.NextSentinel returns an error.
const maxSentinelBudget = 1 << 16

// OpenProblem creates and activates a new Problem. It fails with
// ErrReentrantProblem if one is already active (spec §5: re-entrant problem
// construction is undefined and must be detected, not silently allowed).
func OpenProblem(name string, horizon Horizon, opts ...ProblemOption) (*Problem, error) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return nil, fmt.Errorf("%w: %q is active, cannot open %q", ErrReentrantProblem, active.Name, name)
	}
	p := &Problem{
		Name:    name,
		Horizon: horizon,
		sp:      symbol.NewSpace(maxSentinelBudget),
		log:     zerolog.Nop(),

		tasks:       make(map[string]Task),
		resources:   make(map[string]Resource),
		constraints: make(map[string]Constraint),
		indicators:  make(map[string]*Indicator),
		buffers:     make(map[string]Buffer),
		bufferModels: make(map[string]*BufferModel),
	}
	for _, o := range opts {
		o(p)
	}

	if horizon.fixed {
		if horizon.value < 0 {
			return nil, invalidParam("horizon", "fixed horizon must be >= 0")
		}
		p.horizonSym = p.sp.NewConst("horizon", horizon.value)
	} else {
		sym, err := p.sp.NewInt("horizon", 0, freeHorizonUpperBound)
		if err != nil {
			return nil, err
		}
		p.horizonSym = sym
	}

	active = p
	p.log.Debug().Str("problem", name).Bool("free_horizon", !horizon.fixed).Msg("problem opened")
	return p, nil
}

// freeHorizonUpperBound bounds a free horizon's search domain. Real
// schedules are bounded by the sum of all task durations plus their release
// dates in any sane model; this cap only prevents an unbounded domain when
// the caller supplies no other bound. Callers with larger legitimate
// horizons should use FixedHorizon with an explicit upper bound instead.
const freeHorizonUpperBound = 1 << 20

// activeProblem returns the active problem or ErrNoActiveProblem.
func activeProblem() (*Problem, error) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active == nil {
		return nil, ErrNoActiveProblem
	}
	return active, nil
}

// Close releases p as the active problem. It is the explicit counterpart of
// the teacher's implicit global-context teardown (SPEC_FULL §4,
// context.py's SchedulingContext.clear()).
func (p *Problem) Close() error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != p {
		return ErrNotActiveProblem
	}
	active = nil
	p.closed = true
	p.log.Debug().Str("problem", p.Name).Msg("problem closed")
	return nil
}

// HorizonSym returns the symbol backing the problem's horizon (fixed
// constant or free variable), for use by indicators/constraints that
// reference the horizon (Makespan, Utilization).
func (p *Problem) HorizonSym() symbol.IntSym { return p.horizonSym }

// Space returns the symbol space backing this problem's csp.Model.
func (p *Problem) Space() *symbol.Space { return p.sp }

// Logger returns the problem's structured logger.
func (p *Problem) Logger() zerolog.Logger { return p.log }

// newOptionalRank allocates the next optional-task sentinel rank (1-based, per
// spec §3: "the i-th created optional task to -i").
func (p *Problem) newOptionalRank() int {
	p.optRank++
	return p.optRank
}

// genName produces the teacher-style auto name "<TypeTag>_<8-hex>" for
// entities constructed without an explicit name (spec §4.1), using
// google/uuid in place of the teacher's ad hoc counters.
func genName(typeTag string) string {
	id := uuid.New().String()
	hex := id[:8]
	return fmt.Sprintf("%s_%s", typeTag, hex)
}

// registry generics: each entity kind gets its own typed map plus one
// shared duplicate-name check and insertion-order slice (spec §4.1).

func (p *Problem) registerTask(name string, t Task) error {
	if _, exists := p.tasks[name]; exists {
		return &DuplicateNameError{Kind: "Task", Name: name}
	}
	p.tasks[name] = t
	p.taskOrder = append(p.taskOrder, name)
	return nil
}

func (p *Problem) registerResource(name string, r Resource) error {
	if _, exists := p.resources[name]; exists {
		return &DuplicateNameError{Kind: "Resource", Name: name}
	}
	p.resources[name] = r
	p.resourceOrder = append(p.resourceOrder, name)
	return nil
}

func (p *Problem) registerConstraint(name string, c Constraint) error {
	if _, exists := p.constraints[name]; exists {
		return &DuplicateNameError{Kind: "Constraint", Name: name}
	}
	p.constraints[name] = c
	p.constraintOrder = append(p.constraintOrder, name)
	return nil
}

func (p *Problem) registerIndicator(name string, ind *Indicator) error {
	if _, exists := p.indicators[name]; exists {
		return &DuplicateNameError{Kind: "Indicator", Name: name}
	}
	p.indicators[name] = ind
	p.indicatorOrder = append(p.indicatorOrder, name)
	return nil
}

func (p *Problem) registerBuffer(name string, b Buffer) error {
	if _, exists := p.buffers[name]; exists {
		return &DuplicateNameError{Kind: "Buffer", Name: name}
	}
	p.buffers[name] = b
	p.bufferOrder = append(p.bufferOrder, name)
	return nil
}

// Tasks returns every registered task in insertion order.
func (p *Problem) Tasks() []Task {
	out := make([]Task, len(p.taskOrder))
	for i, n := range p.taskOrder {
		out[i] = p.tasks[n]
	}
	return out
}

// Task looks up a task by name.
func (p *Problem) Task(name string) (Task, bool) {
	t, ok := p.tasks[name]
	return t, ok
}

// Resources returns every registered resource in insertion order.
func (p *Problem) Resources() []Resource {
	out := make([]Resource, len(p.resourceOrder))
	for i, n := range p.resourceOrder {
		out[i] = p.resources[n]
	}
	return out
}

// Resource looks up a resource by name.
func (p *Problem) Resource(name string) (Resource, bool) {
	r, ok := p.resources[name]
	return r, ok
}

// Constraints returns every registered constraint in insertion order.
func (p *Problem) Constraints() []Constraint {
	out := make([]Constraint, len(p.constraintOrder))
	for i, n := range p.constraintOrder {
		out[i] = p.constraints[n]
	}
	return out
}

// Indicators returns every registered indicator in insertion order.
func (p *Problem) Indicators() []*Indicator {
	out := make([]*Indicator, len(p.indicatorOrder))
	for i, n := range p.indicatorOrder {
		out[i] = p.indicators[n]
	}
	return out
}

// Buffers returns every registered buffer in insertion order.
func (p *Problem) Buffers() []Buffer {
	out := make([]Buffer, len(p.bufferOrder))
	for i, n := range p.bufferOrder {
		out[i] = p.buffers[n]
	}
	return out
}

// bufferModel returns b's compiled BufferModel, building and caching it on
// first use (solve assembly calls this for every registered buffer; an
// indicator referencing a buffer before Solve has run triggers the same
// build on demand).
func (p *Problem) bufferModel(b Buffer) (*BufferModel, error) {
	if m, ok := p.bufferModels[b.Name()]; ok {
		return m, nil
	}
	m, err := p.buildBufferModel(b)
	if err != nil {
		return nil, err
	}
	p.bufferModels[b.Name()] = m
	return m, nil
}

// AddObjective registers an objective on the problem (spec §3, §4.7).
func (p *Problem) AddObjective(o *Objective) {
	p.objectives = append(p.objectives, o)
}

// Objectives returns every registered objective in declared order (lex
// policy composition needs this order, spec §4.7).
func (p *Problem) Objectives() []*Objective {
	out := make([]*Objective, len(p.objectives))
	copy(out, p.objectives)
	return out
}
