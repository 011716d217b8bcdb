package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// Indicator is a typed integer-valued probe over model variables (spec
// §4.5, Glossary): reportable post-solve (solution.go) and optimizable
// pre-solve (objective.go). Every constructor in this file posts
// "indicator_var = expression" eagerly, the same way task.go/resource.go
// post their own definitional facts, since an indicator's value is always
// well-defined regardless of downstream constraint composition.
type Indicator struct {
	name  string
	value symbol.IntSym
}

func (i *Indicator) Name() string          { return i.name }
func (i *Indicator) Value() symbol.IntSym  { return i.value }

func newIndicator(p *Problem, name string, value symbol.IntSym) (*Indicator, error) {
	ind := &Indicator{name: name, value: value}
	if err := p.registerIndicator(name, ind); err != nil {
		return nil, err
	}
	p.log.Debug().Str("indicator", name).Msg("indicator registered")
	return ind, nil
}

// flowtimeTerm returns task.End() for a mandatory task, or a selected 0 for
// an optional one left unscheduled (spec §4.5: "optional unscheduled tasks
// contribute 0").
func flowtimeTerm(sp *symbol.Space, name string, t Task) (symbol.IntSym, error) {
	if !t.Optional() {
		return t.End(), nil
	}
	zero := sp.NewConst(name+"_zero", 0)
	return selectInt(sp, name, t.Scheduled(), t.End(), zero)
}

// NewFlowtime defines Σ end_i over tasks (spec §4.5).
func NewFlowtime(name string, tasks []Task) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Flowtime")
	}
	sp := p.sp
	hi := p.horizonUpperBound()
	terms := make([]symbol.IntSym, len(tasks))
	for i, t := range tasks {
		term, err := flowtimeTerm(sp, fmt.Sprintf("%s_term_%d", name, i), t)
		if err != nil {
			return nil, err
		}
		terms[i] = term
	}
	value, err := sp.Sum(name, 0, hi*len(terms), terms...)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewMakespan exposes the problem's own horizon symbol as an indicator
// (spec §4.5): every task's end <= horizon is already asserted eagerly when
// the task is constructed (task.go), so Makespan needs no new assertion.
func NewMakespan(name string) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Makespan")
	}
	return newIndicator(p, name, p.HorizonSym())
}

// NewUtilization defines round(100 * Σ(be-bs) / horizon) for resource r
// (spec §4.5). Division by the (possibly free) horizon uses floorDivVar's
// element-constraint technique, since horizon may itself be a variable.
func NewUtilization(name string, r Resource) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Utilization")
	}
	sp := p.sp
	hi := p.horizonUpperBound()

	var durations []symbol.IntSym
	for _, w := range resourceWorkers(r) {
		for i, bi := range w.BusyIntervals() {
			d, err := sp.WeightedSum(fmt.Sprintf("%s_dur_%s_%d", name, w.Name(), i), -hi, hi, []int{1, -1}, []symbol.IntSym{bi.End, bi.Start})
			if err != nil {
				return nil, err
			}
			durations = append(durations, d)
		}
	}
	sum, err := sp.Sum(name+"_sum", 0, hi*len(durations), durations...)
	if err != nil {
		return nil, err
	}
	scaled, err := sp.WeightedSum(name+"_scaled", 0, 100*hi*len(durations), []int{100}, []symbol.IntSym{sum})
	if err != nil {
		return nil, err
	}
	value, err := floorDivVar(sp, name, scaled, p.HorizonSym(), 100)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// resourceCostTerm returns (2*cost(bs), 2*cost(be)) folded into one doubled
// trapezoid-area term, so NewResourceCost can sum every busy interval's
// contribution before taking a single floor division by 2 at the end (spec
// §4.5: "take one global /2 at the end"). A constant cost c contributes
// 2c*(be-bs) directly, skipping the trapezoid.
func resourceCostTerm(sp *symbol.Space, name string, cf CostFunction, bs, be symbol.IntSym, hi int) (symbol.IntSym, error) {
	if cf == nil {
		return sp.NewConst(name+"_zero", 0), nil
	}
	if c, ok := cf.constantValue(); ok {
		return sp.WeightedSum(name, -2*c*hi, 2*c*hi, []int{2 * c, -2 * c}, []symbol.IntSym{be, bs})
	}
	costBs, err := cf.eval(sp, name+"_cost_bs", bs)
	if err != nil {
		return symbol.IntSym{}, err
	}
	costBe, err := cf.eval(sp, name+"_cost_be", be)
	if err != nil {
		return symbol.IntSym{}, err
	}
	costSum, err := sp.Sum(name+"_cost_sum", 0, 2*hi, costBs, costBe)
	if err != nil {
		return symbol.IntSym{}, err
	}
	duration, err := sp.WeightedSum(name+"_duration", -hi, hi, []int{1, -1}, []symbol.IntSym{be, bs})
	if err != nil {
		return symbol.IntSym{}, err
	}
	// area = costSum * duration is a product of two variables, which the
	// backend cannot represent directly; duration's domain is the small
	// finite [0,hi] horizon range, so it is resolved the same way
	// PolynomialCost.eval resolves x^2: an element table over duration's
	// candidate values, each guarding a linear costSum*d assertion.
	result, err := sp.NewInt(name+"_area", 0, 2*hi*hi)
	if err != nil {
		return symbol.IntSym{}, err
	}
	for d := 0; d <= hi; d++ {
		eqD, err := sp.ReifyEqual(fmt.Sprintf("%s_eqd_%d", name, d), duration, sp.NewConst(fmt.Sprintf("%s_dv_%d", name, d), d))
		if err != nil {
			return symbol.IntSym{}, err
		}
		scaled, err := sp.WeightedSum(fmt.Sprintf("%s_scaled_%d", name, d), 0, 2*hi*hi, []int{d}, []symbol.IntSym{costSum})
		if err != nil {
			return symbol.IntSym{}, err
		}
		eqR, err := sp.ReifyEqual(fmt.Sprintf("%s_eqr_%d", name, d), result, scaled)
		if err != nil {
			return symbol.IntSym{}, err
		}
		if err := sp.Guard(eqD, eqR); err != nil {
			return symbol.IntSym{}, err
		}
	}
	return result, nil
}

// NewResourceCost defines the total cost of every busy interval across the
// given workers (spec §4.5).
func NewResourceCost(name string, workers []*Worker) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("ResourceCost")
	}
	sp := p.sp
	hi := p.horizonUpperBound()

	var doubled []symbol.IntSym
	for _, w := range workers {
		for i, bi := range w.BusyIntervals() {
			term, err := resourceCostTerm(sp, fmt.Sprintf("%s_%s_%d", name, w.Name(), i), w.Cost(), bi.Start, bi.End, hi)
			if err != nil {
				return nil, err
			}
			doubled = append(doubled, term)
		}
	}
	totalDoubled, err := sp.Sum(name+"_doubled", 0, 2*hi*hi*len(doubled)+1, doubled...)
	if err != nil {
		return nil, err
	}
	two := sp.NewConst(name+"_two", 2)
	value, err := floorDivVar(sp, name, totalDoubled, two, hi*hi*len(doubled)+1)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewNumberTasksAssigned counts busy intervals with bs >= 0 across
// resource's workers (spec §4.5).
func NewNumberTasksAssigned(name string, r Resource) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("NumberTasksAssigned")
	}
	sp := p.sp

	var bools []symbol.BoolSym
	for _, w := range resourceWorkers(r) {
		for i, bi := range w.BusyIntervals() {
			geq0, err := sp.ReifyCompare(fmt.Sprintf("%s_%s_%d_active", name, w.Name(), i), bi.Start, ">=", sp.NewConst(fmt.Sprintf("%s_%s_%d_z", name, w.Name(), i), 0))
			if err != nil {
				return nil, err
			}
			bools = append(bools, geq0)
		}
	}
	value, err := sp.CountTrue(name, bools)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// latenessTerms returns, for each task with a due date set, end_i - due_i
// (spec §4.5 Tardiness/Earliness/NumberOfTardyTasks/MaximumLateness share
// this quantity).
func latenessTerms(sp *symbol.Space, name string, tasks []Task, hi int) ([]Task, []symbol.IntSym, error) {
	var withDue []Task
	var lateness []symbol.IntSym
	for i, t := range tasks {
		due, set, _ := t.DueDate()
		if !set {
			continue
		}
		dueConst := sp.NewConst(fmt.Sprintf("%s_due_%d", name, i), due)
		l, err := sp.WeightedSum(fmt.Sprintf("%s_lateness_%d", name, i), -hi, hi, []int{1, -1}, []symbol.IntSym{t.End(), dueConst})
		if err != nil {
			return nil, nil, err
		}
		withDue = append(withDue, t)
		lateness = append(lateness, l)
	}
	return withDue, lateness, nil
}

// NewTardiness defines Σ max(0, end_i - due_i) * priority_i over tasks with
// a due date (spec §4.5).
func NewTardiness(name string, tasks []Task) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Tardiness")
	}
	sp := p.sp
	hi := p.horizonUpperBound()

	withDue, lateness, err := latenessTerms(sp, name, tasks, hi)
	if err != nil {
		return nil, err
	}
	var terms []symbol.IntSym
	for i, l := range lateness {
		clamped, err := maxWithZero(sp, fmt.Sprintf("%s_clamp_%d", name, i), l)
		if err != nil {
			return nil, err
		}
		weighted, err := sp.WeightedSum(fmt.Sprintf("%s_weighted_%d", name, i), 0, hi*withDue[i].Priority(), []int{withDue[i].Priority()}, []symbol.IntSym{clamped})
		if err != nil {
			return nil, err
		}
		terms = append(terms, weighted)
	}
	value, err := sp.Sum(name, 0, hi*len(terms)*maxPriority(withDue), terms...)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

func maxPriority(tasks []Task) int {
	m := 1
	for _, t := range tasks {
		if t.Priority() > m {
			m = t.Priority()
		}
	}
	return m
}

// NewEarliness defines Σ max(0, due_i - end_i) over tasks with a due date
// (spec §4.5).
func NewEarliness(name string, tasks []Task) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("Earliness")
	}
	sp := p.sp
	hi := p.horizonUpperBound()

	_, lateness, err := latenessTerms(sp, name, tasks, hi)
	if err != nil {
		return nil, err
	}
	var terms []symbol.IntSym
	for i, l := range lateness {
		negated, err := sp.WeightedSum(fmt.Sprintf("%s_neg_%d", name, i), -hi, hi, []int{-1}, []symbol.IntSym{l})
		if err != nil {
			return nil, err
		}
		clamped, err := maxWithZero(sp, fmt.Sprintf("%s_clamp_%d", name, i), negated)
		if err != nil {
			return nil, err
		}
		terms = append(terms, clamped)
	}
	value, err := sp.Sum(name, 0, hi*len(terms), terms...)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewNumberOfTardyTasks counts tasks with end_i > due_i (spec §4.5).
func NewNumberOfTardyTasks(name string, tasks []Task) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("NumberOfTardyTasks")
	}
	sp := p.sp

	var bools []symbol.BoolSym
	for i, t := range tasks {
		due, set, _ := t.DueDate()
		if !set {
			continue
		}
		tardy, err := sp.ReifyCompare(fmt.Sprintf("%s_%d", name, i), t.End(), ">", sp.NewConst(fmt.Sprintf("%s_due_%d", name, i), due))
		if err != nil {
			return nil, err
		}
		bools = append(bools, tardy)
	}
	value, err := sp.CountTrue(name, bools)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewMaximumLateness defines max_i (end_i - due_i) restricted to scheduled
// tasks (spec §4.5 together with the REDESIGN FLAG in §9: the source
// includes unscheduled optional tasks' sentinel ends, which this
// implementation deliberately excludes). An optional task's lateness term
// is replaced by a sentinel far below any feasible lateness when it is left
// unscheduled, so Max never selects it.
func NewMaximumLateness(name string, tasks []Task) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("MaximumLateness")
	}
	sp := p.sp
	hi := p.horizonUpperBound()
	ignore := -(hi + 1)

	withDue, lateness, err := latenessTerms(sp, name, tasks, hi)
	if err != nil {
		return nil, err
	}
	if len(lateness) == 0 {
		return newIndicator(p, name, sp.NewConst(name, 0))
	}
	terms := make([]symbol.IntSym, len(lateness))
	for i, l := range lateness {
		if !withDue[i].Optional() {
			terms[i] = l
			continue
		}
		ignored := sp.NewConst(fmt.Sprintf("%s_ignore_%d", name, i), ignore)
		sel, err := selectInt(sp, fmt.Sprintf("%s_sel_%d", name, i), withDue[i].Scheduled(), l, ignored)
		if err != nil {
			return nil, err
		}
		terms[i] = sel
	}
	value, err := sp.Max(name, terms...)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewResourceIdle sums the gaps between consecutive active busy intervals
// of resource r, counting only gaps whose endpoints are both non-negative
// (spec §4.5).
func NewResourceIdle(name string, r Resource) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName("ResourceIdle")
	}
	sp := p.sp
	hi := p.horizonUpperBound()

	var starts, ends []symbol.IntSym
	for _, w := range resourceWorkers(r) {
		for _, bi := range w.BusyIntervals() {
			starts = append(starts, bi.Start)
			ends = append(ends, bi.End)
		}
	}
	if len(starts) < 2 {
		return newIndicator(p, name, sp.NewConst(name, 0))
	}
	sortedStarts, startRels, err := sortNoDuplicates(sp, name+"_start", starts)
	if err != nil {
		return nil, err
	}
	sortedEnds, endRels, err := sortNoDuplicates(sp, name+"_end", ends)
	if err != nil {
		return nil, err
	}
	for _, rel := range append(startRels, endRels...) {
		if err := sp.AssertTrue(rel); err != nil {
			return nil, err
		}
	}

	var gaps []symbol.IntSym
	for i := 1; i < len(sortedStarts); i++ {
		gap, err := sp.WeightedSum(fmt.Sprintf("%s_gap_%d", name, i), -hi, hi, []int{1, -1}, []symbol.IntSym{sortedStarts[i], sortedEnds[i-1]})
		if err != nil {
			return nil, err
		}
		startNonNeg, err := sp.ReifyCompare(fmt.Sprintf("%s_snn_%d", name, i), sortedStarts[i], ">=", sp.NewConst(fmt.Sprintf("%s_z1_%d", name, i), 0))
		if err != nil {
			return nil, err
		}
		endNonNeg, err := sp.ReifyCompare(fmt.Sprintf("%s_enn_%d", name, i), sortedEnds[i-1], ">=", sp.NewConst(fmt.Sprintf("%s_z2_%d", name, i), 0))
		if err != nil {
			return nil, err
		}
		bothNonNeg, err := sp.And(startNonNeg, endNonNeg)
		if err != nil {
			return nil, err
		}
		zero := sp.NewConst(fmt.Sprintf("%s_z3_%d", name, i), 0)
		counted, err := selectInt(sp, fmt.Sprintf("%s_counted_%d", name, i), bothNonNeg, gap, zero)
		if err != nil {
			return nil, err
		}
		gaps = append(gaps, counted)
	}
	value, err := sp.Sum(name, 0, hi*len(gaps), gaps...)
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}

// NewMaxBufferLevel/NewMinBufferLevel define the maximum/minimum of b's
// compiled level sequence (spec §4.5, §4.6), building b's BufferModel on
// demand if no prior Solve pass has built it yet.
func NewMaxBufferLevel(name string, b Buffer) (*Indicator, error) {
	return newBufferLevelIndicator(name, "MaxBufferLevel", b, true)
}

func NewMinBufferLevel(name string, b Buffer) (*Indicator, error) {
	return newBufferLevelIndicator(name, "MinBufferLevel", b, false)
}

func newBufferLevelIndicator(name, typeTag string, b Buffer, max bool) (*Indicator, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName(typeTag)
	}
	model, err := p.bufferModel(b)
	if err != nil {
		return nil, err
	}
	if len(model.Levels) == 0 {
		return newIndicator(p, name, p.sp.NewConst(name, b.InitialLevel()))
	}
	var value symbol.IntSym
	if max {
		value, err = p.sp.Max(name, model.Levels...)
	} else {
		value, err = p.sp.Min(name, model.Levels...)
	}
	if err != nil {
		return nil, err
	}
	return newIndicator(p, name, value)
}
