package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// BufferEvent is one load or unload event registered on a buffer (spec
// §4.4 TaskLoadBuffer/TaskUnloadBuffer, §4.6 step 1): Time is task.End()
// for a load (the quantity appears once the task finishes) or task.Start()
// for an unload (consumed as soon as the task begins), and Delta is signed
// (+quantity for load, -quantity for unload).
type BufferEvent struct {
	Task  Task
	Time  symbol.IntSym
	Delta int
}

// Buffer is implemented by NonConcurrentBuffer and ConcurrentBuffer (spec
// §3).
type Buffer interface {
	Name() string
	InitialLevel() int
	LowerBound() (int, bool)
	UpperBound() (int, bool)
	FinalLevel() (int, bool)
	Events() []BufferEvent
	NonConcurrent() bool

	addEvent(ev BufferEvent)
}

type baseBuffer struct {
	name          string
	initialLevel  int
	lowerBound    int
	lowerSet      bool
	upperBound    int
	upperSet      bool
	finalLevel    int
	finalSet      bool
	nonConcurrent bool
	events        []BufferEvent

	assertions map[string]struct{}
}

// recordAssertion marks key as already asserted on this buffer, failing
// with ErrDuplicateAssertion if the same key was recorded before (spec
// §5/§7).
func (b *baseBuffer) recordAssertion(key string) error {
	if b.assertions == nil {
		b.assertions = make(map[string]struct{})
	}
	if _, seen := b.assertions[key]; seen {
		return &DuplicateAssertionError{Entity: b.name, Key: key}
	}
	b.assertions[key] = struct{}{}
	return nil
}

func (b *baseBuffer) Name() string         { return b.name }
func (b *baseBuffer) InitialLevel() int    { return b.initialLevel }
func (b *baseBuffer) Events() []BufferEvent { return b.events }
func (b *baseBuffer) NonConcurrent() bool  { return b.nonConcurrent }
func (b *baseBuffer) LowerBound() (int, bool) { return b.lowerBound, b.lowerSet }
func (b *baseBuffer) UpperBound() (int, bool) { return b.upperBound, b.upperSet }
func (b *baseBuffer) FinalLevel() (int, bool) { return b.finalLevel, b.finalSet }
func (b *baseBuffer) addEvent(ev BufferEvent) { b.events = append(b.events, ev) }

// BufferOption configures NewNonConcurrentBuffer/NewConcurrentBuffer.
type BufferOption func(*baseBuffer)

// WithLowerBound sets a hard floor on the buffer's level at every
// change point (spec §4.6 step 4).
func WithLowerBound(v int) BufferOption { return func(b *baseBuffer) { b.lowerBound = v; b.lowerSet = true } }

// WithUpperBound sets a hard ceiling on the buffer's level at every
// change point.
func WithUpperBound(v int) BufferOption { return func(b *baseBuffer) { b.upperBound = v; b.upperSet = true } }

// WithFinalLevel requires the buffer's level after its last change to
// equal v.
func WithFinalLevel(v int) BufferOption { return func(b *baseBuffer) { b.finalLevel = v; b.finalSet = true } }

// NewNonConcurrentBuffer registers a buffer that forbids two events at
// exactly the same time (spec §4.6 step 5).
func NewNonConcurrentBuffer(name string, initialLevel int, opts ...BufferOption) (Buffer, error) {
	return newBuffer(name, initialLevel, true, opts)
}

// NewConcurrentBuffer registers a buffer that allows simultaneous events.
func NewConcurrentBuffer(name string, initialLevel int, opts ...BufferOption) (Buffer, error) {
	return newBuffer(name, initialLevel, false, opts)
}

func newBuffer(name string, initialLevel int, nonConcurrent bool, opts []BufferOption) (Buffer, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Buffer")
	}
	b := &baseBuffer{name: name, initialLevel: initialLevel, nonConcurrent: nonConcurrent}
	for _, o := range opts {
		o(b)
	}
	if err := p.registerBuffer(name, b); err != nil {
		return nil, err
	}
	p.log.Debug().Str("buffer", name).Bool("non_concurrent", nonConcurrent).Msg("buffer registered")
	return b, nil
}

// NewTaskLoadBuffer registers task as depositing quantity into buffer once
// it finishes (spec §4.4: "register (task, quantity) into the buffer").
// Its own Body is trivially true: the real assertions are generated once,
// for the whole buffer, at solve-assembly time (buildBufferModel below).
func NewTaskLoadBuffer(name string, task Task, buffer Buffer, quantity int) (Constraint, error) {
	return newBufferEventConstraint(name, "TaskLoadBuffer", task, buffer, quantity)
}

// NewTaskUnloadBuffer registers task as consuming quantity from buffer as
// soon as it starts.
func NewTaskUnloadBuffer(name string, task Task, buffer Buffer, quantity int) (Constraint, error) {
	return newBufferEventConstraint(name, "TaskUnloadBuffer", task, buffer, -quantity)
}

func newBufferEventConstraint(name, typeTag string, task Task, buffer Buffer, signedQuantity int) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if signedQuantity == 0 {
		return nil, invalidParam("quantity", "must be != 0")
	}
	if name == "" {
		name = genName(typeTag)
	}
	if bb, ok := buffer.(interface{ recordAssertion(string) error }); ok {
		if err := bb.recordAssertion(fmt.Sprintf("%s(%s,%d)", typeTag, task.Name(), signedQuantity)); err != nil {
			return nil, err
		}
	}
	t := task.End()
	if signedQuantity < 0 {
		t = task.Start()
	}
	buffer.addEvent(BufferEvent{Task: task, Time: t, Delta: signedQuantity})

	base, err := newConstraintCommon(p, name, false, nil, task)
	if err != nil {
		return nil, err
	}
	return registerAndReturn(p, name, &baseConstraintWrapper{baseConstraint: *base})
}

// baseConstraintWrapper lets helpers that have no extra fields of their own
// (TaskLoadBuffer/TaskUnloadBuffer) satisfy Constraint without a dedicated
// named type.
type baseConstraintWrapper struct{ baseConstraint }

// BufferModel is the compiled state-evolution model for one buffer (spec
// §4.6), built once at solve-assembly time (solver.go) and reused by
// indicator.go (Max/MinBufferLevel) and solution.go (level reconstruction).
// Events are given a total order by pairwise comparison on Time, tied
// broken by declaration index, rather than by physically sorting: the
// backend (package csp) has no permutation/sort primitive, so each event's
// position is instead derived from how many other active events precede it
// (in buildBufferModel, before[j][i] and the task's Scheduled flag decide
// whether event j's delta is folded into event i's level).
type BufferModel struct {
	Buffer  Buffer
	Times   []symbol.IntSym
	Levels  []symbol.IntSym
}

// buildBufferModel compiles b's events into a BufferModel and posts the
// global bound/final-level assertions and (for a NonConcurrentBuffer) the
// pairwise distinct-time assertions (spec §4.6 steps 3-5).
func (p *Problem) buildBufferModel(b Buffer) (*BufferModel, error) {
	sp := p.sp
	events := b.Events()
	n := len(events)
	if n == 0 {
		return &BufferModel{Buffer: b}, nil
	}

	maxAbs := 0
	for _, ev := range events {
		d := ev.Delta
		if d < 0 {
			d = -d
		}
		maxAbs += d
	}
	lo, hi := b.InitialLevel()-maxAbs, b.InitialLevel()+maxAbs

	// before[j][i] (j != i) says event j strictly precedes event i in the
	// tie-broken total order: earlier time, or equal time and earlier
	// declaration index.
	before := make([][]symbol.BoolSym, n)
	for j := range before {
		before[j] = make([]symbol.BoolSym, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			rel, err := sp.ReifyCompare(fmt.Sprintf("%s_before_lt_%d_%d", b.Name(), j, i), events[j].Time, "<", events[i].Time)
			if err != nil {
				return nil, err
			}
			if j < i {
				eq, err := sp.ReifyEqual(fmt.Sprintf("%s_before_eq_%d_%d", b.Name(), j, i), events[j].Time, events[i].Time)
				if err != nil {
					return nil, err
				}
				rel, err = sp.Or(rel, eq)
				if err != nil {
					return nil, err
				}
			}
			before[j][i] = rel
		}
	}

	if b.NonConcurrent() {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				neq, err := sp.ReifyCompare(fmt.Sprintf("%s_distinct_%d_%d", b.Name(), i, j), events[i].Time, "!=", events[j].Time)
				if err != nil {
					return nil, err
				}
				if err := sp.AssertTrue(neq); err != nil {
					return nil, err
				}
			}
		}
	}

	levels := make([]symbol.IntSym, n)
	lowerBound, lowerSet := b.LowerBound()
	upperBound, upperSet := b.UpperBound()

	for i := 0; i < n; i++ {
		coeffs := []int{1}
		terms := []symbol.IntSym{sp.NewConst(fmt.Sprintf("%s_base_%d", b.Name(), i), b.InitialLevel()+events[i].Delta)}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			included, err := sp.And(before[j][i], events[j].Task.Scheduled())
			if err != nil {
				return nil, err
			}
			terms = append(terms, sp.BoolAsInt(included))
			coeffs = append(coeffs, events[j].Delta)
		}
		level, err := sp.WeightedSum(fmt.Sprintf("%s_level_%d", b.Name(), i), lo, hi, coeffs, terms)
		if err != nil {
			return nil, err
		}

		if lowerSet {
			geq, err := sp.ReifyCompare(fmt.Sprintf("%s_level_%d_geq_lower", b.Name(), i), level, ">=", sp.NewConst(fmt.Sprintf("%s_lower_%d", b.Name(), i), lowerBound))
			if err != nil {
				return nil, err
			}
			if err := sp.AssertTrue(geq); err != nil {
				return nil, err
			}
		}
		if upperSet {
			leq, err := sp.ReifyCompare(fmt.Sprintf("%s_level_%d_leq_upper", b.Name(), i), level, "<=", sp.NewConst(fmt.Sprintf("%s_upper_%d", b.Name(), i), upperBound))
			if err != nil {
				return nil, err
			}
			if err := sp.AssertTrue(leq); err != nil {
				return nil, err
			}
		}

		levels[i] = level
	}

	if final, ok := b.FinalLevel(); ok {
		// the final level is whichever event has the maximal rank, i.e. no
		// other active event is strictly after it; assert it for every
		// event, guarded by that event being the last one.
		for i := 0; i < n; i++ {
			isLast := make([]symbol.BoolSym, 0, n-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				notAfter, err := sp.Not(before[i][j])
				if err != nil {
					return nil, err
				}
				isLast = append(isLast, notAfter)
			}
			lastFlag, err := sp.And(isLast...)
			if err != nil {
				return nil, err
			}
			eq, err := sp.ReifyEqual(fmt.Sprintf("%s_final_eq_%d", b.Name(), i), levels[i], sp.NewConst(fmt.Sprintf("%s_final_%d", b.Name(), i), final))
			if err != nil {
				return nil, err
			}
			if err := sp.Guard(lastFlag, eq); err != nil {
				return nil, err
			}
		}
	}

	times := make([]symbol.IntSym, n)
	for i, ev := range events {
		times[i] = ev.Time
	}
	return &BufferModel{Buffer: b, Times: times, Levels: levels}, nil
}
