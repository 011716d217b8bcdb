package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// CardinalityKind selects how a pseudo-Boolean cardinality bound is applied
// (spec §3 SelectWorkers, §4.4 ForceScheduleNOptionalTasks/
// ForceApplyNOptionalConstraints/ScheduleNTasksInTimeIntervals).
type CardinalityKind int

const (
	Exact   CardinalityKind = iota // kind = exact: count == n
	AtLeast                        // kind = min: count >= n
	AtMost                         // kind = max: count <= n
)

// Resource is implemented by Worker, CumulativeWorker, and SelectWorkers
// (spec §3).
type Resource interface {
	Name() string
}

// BusyInterval is the per-(worker,task) pair described in spec §3/Glossary:
// two integer symbols tracked on the worker, plus (for a SelectWorkers
// candidate) the selector boolean that decides whether the interval is
// active or forced to a sentinel.
type BusyInterval struct {
	TaskName string
	Start    symbol.IntSym
	End      symbol.IntSym
	// Selector is valid only for a SelectWorkers candidate interval; an
	// invalid (zero) Selector means the interval always applies (Worker,
	// or a CumulativeWorker's internal atomic worker once its own
	// selection has been resolved by the enclosing SelectWorkers).
	Selector symbol.BoolSym
}

// Worker is an atomic resource with integer productivity and an optional
// cost function (spec §3).
type Worker struct {
	name         string
	productivity int
	cost         CostFunction
	busy         []*BusyInterval
}

// WorkerOption configures NewWorker/NewCumulativeWorker.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	productivity int
	cost         CostFunction
}

// WithProductivity sets a worker's integer productivity (spec §3, used by
// the work-amount contract, §4.7 step 3).
func WithProductivity(p int) WorkerOption {
	return func(c *workerConfig) { c.productivity = p }
}

// WithCost attaches a per-period cost function (spec §3, §4.5 ResourceCost).
func WithCost(cf CostFunction) WorkerOption {
	return func(c *workerConfig) { c.cost = cf }
}

// NewWorker registers a new atomic Worker on the active problem.
func NewWorker(name string, opts ...WorkerOption) (*Worker, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	cfg := &workerConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.productivity < 0 {
		return nil, invalidParam("productivity", "must be >= 0")
	}
	w := &Worker{name: name, productivity: cfg.productivity, cost: cfg.cost}
	if err := p.registerResource(name, w); err != nil {
		return nil, err
	}
	p.log.Debug().Str("resource", name).Str("kind", "Worker").Msg("resource registered")
	return w, nil
}

func (w *Worker) Name() string          { return w.name }
func (w *Worker) Productivity() int     { return w.productivity }
func (w *Worker) Cost() CostFunction    { return w.cost }
func (w *Worker) BusyIntervals() []*BusyInterval { return w.busy }
func (w *Worker) addBusyInterval(bi *BusyInterval) {
	w.busy = append(w.busy, bi)
}

// CumulativeWorker fans out into size internal atomic Workers on
// construction (spec §3). Its productivity and per-period cost are
// distributed over them: integer quotient to every atom, remainder folded
// into the first.
type CumulativeWorker struct {
	name    string
	size    int
	workers []*Worker // internal atomic fan-out, not separately registered
}

// NewCumulativeWorker registers a pooled resource of the given size (must
// be > 1, spec §7 InvalidParameter).
func NewCumulativeWorker(name string, size int, opts ...WorkerOption) (*CumulativeWorker, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if size <= 1 {
		return nil, invalidParam("size", "CumulativeWorker size must be > 1")
	}
	cfg := &workerConfig{}
	for _, o := range opts {
		o(cfg)
	}

	prodQ, prodR := cfg.productivity/size, cfg.productivity%size
	var costQ, costR int
	hasCost := cfg.cost != nil
	if hasCost {
		if v, ok := cfg.cost.constantValue(); ok {
			costQ, costR = v/size, v%size
		}
	}

	cw := &CumulativeWorker{name: name, size: size}
	for i := 0; i < size; i++ {
		prod := prodQ
		if i == 0 {
			prod += prodR
		}
		var atomCost CostFunction
		if hasCost {
			if _, ok := cfg.cost.constantValue(); ok {
				c := costQ
				if i == 0 {
					c += costR
				}
				atomCost = ConstantCost(c)
			} else {
				// Non-constant cost functions are not evenly divisible by
				// period; every atomic worker shares the same function,
				// which is the only faithful distribution available
				// without inventing a per-atom curve the model never
				// specified.
				atomCost = cfg.cost
			}
		}
		cw.workers = append(cw.workers, &Worker{
			name:         fmt.Sprintf("%s_%d", name, i),
			productivity: prod,
			cost:         atomCost,
		})
	}

	if err := p.registerResource(name, cw); err != nil {
		return nil, err
	}
	p.log.Debug().Str("resource", name).Str("kind", "CumulativeWorker").Int("size", size).Msg("resource registered")
	return cw, nil
}

func (c *CumulativeWorker) Name() string      { return c.name }
func (c *CumulativeWorker) Size() int         { return c.size }
func (c *CumulativeWorker) Workers() []*Worker {
	out := make([]*Worker, len(c.workers))
	copy(out, c.workers)
	return out
}

// SelectWorkers models k-of-n alternative-worker selection (spec §3): an
// ordered candidate list, a count to select, and a cardinality kind.
type SelectWorkers struct {
	name        string
	candidates  []*Worker
	nbToSelect  int
	kind        CardinalityKind
	selectors   []symbol.BoolSym
}

// NewSelectWorkers registers a k-of-n alternative-worker selection over
// candidates (length >= 2, spec §3).
func NewSelectWorkers(name string, candidates []*Worker, nbToSelect int, kind CardinalityKind) (*SelectWorkers, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(candidates) < 2 {
		return nil, invalidParam("candidates", "SelectWorkers needs at least 2 candidates")
	}
	if nbToSelect < 1 || nbToSelect > len(candidates) {
		return nil, invalidParam("nb_to_select", "must be between 1 and len(candidates)")
	}
	sw := &SelectWorkers{
		name:       name,
		candidates: append([]*Worker(nil), candidates...),
		nbToSelect: nbToSelect,
		kind:       kind,
	}
	for _, c := range candidates {
		sw.selectors = append(sw.selectors, p.sp.NewBool(name+"_select_"+c.Name()))
	}
	if err := assertCardinality(p.sp, sw.selectors, nbToSelect, kind); err != nil {
		return nil, err
	}
	if err := p.registerResource(name, sw); err != nil {
		return nil, err
	}
	p.log.Debug().Str("resource", name).Str("kind", "SelectWorkers").Int("nb_to_select", nbToSelect).Msg("resource registered")
	return sw, nil
}

func (s *SelectWorkers) Name() string                { return s.name }
func (s *SelectWorkers) Candidates() []*Worker        { return append([]*Worker(nil), s.candidates...) }
func (s *SelectWorkers) Selectors() []symbol.BoolSym  { return append([]symbol.BoolSym(nil), s.selectors...) }
func (s *SelectWorkers) NbToSelect() int              { return s.nbToSelect }
func (s *SelectWorkers) Kind() CardinalityKind        { return s.kind }

// assertCardinality posts the pseudo-Boolean cardinality assertion matching
// kind (spec §8 property 6, shared by SelectWorkers and the force-N
// combinators in constraint.go).
func assertCardinality(sp *symbol.Space, bs []symbol.BoolSym, n int, kind CardinalityKind) error {
	switch kind {
	case Exact:
		return sp.AssertCardinalityExact(bs, n)
	case AtLeast:
		return sp.AssertCardinalityAtLeast(bs, n)
	case AtMost:
		return sp.AssertCardinalityAtMost(bs, n)
	default:
		return fmt.Errorf("scheduler: unknown cardinality kind %d", kind)
	}
}
