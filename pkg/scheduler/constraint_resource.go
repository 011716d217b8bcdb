package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

type resourceUnavailable struct {
	baseConstraint
	resource  Resource
	intervals []TimeInterval
	tasks     []Task
}

// ResourceUnavailable synthesizes one mandatory background task per interval,
// pinned to [Low, High] and requiring resource, so the ordinary busy-interval
// mutual-exclusion machinery (solver.go) excludes every other task from that
// window (spec §4.4, grounded on the original's ResourceUnavailable/
// UnavailabilityTask).
func ResourceUnavailable(name string, resource Resource, intervals []TimeInterval) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, invalidParam("intervals", "must not be empty")
	}
	if name == "" {
		name = genName("ResourceUnavailable")
	}

	tasks := make([]Task, 0, len(intervals))
	for k, iv := range intervals {
		if iv.High < iv.Low {
			return nil, invalidParam("intervals", "High must be >= Low")
		}
		taskName := fmt.Sprintf("%s_unavailable_%d", name, k)
		t, err := NewFixedDurationTask(taskName, iv.High-iv.Low)
		if err != nil {
			return nil, err
		}
		if _, err := NewTaskStartAt(taskName+"_pin_start", t, iv.Low); err != nil {
			return nil, err
		}
		if _, err := AddRequiredResource(t, resource); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	base, err := newConstraintCommon(p, name, false, nil)
	if err != nil {
		return nil, err
	}
	c := &resourceUnavailable{baseConstraint: *base, resource: resource, intervals: intervals, tasks: tasks}
	return registerAndReturn(p, name, c)
}

type resourcePeriodicallyUnavailable struct {
	baseConstraint
	resource Resource
	tasks    []Task
}

// ResourcePeriodicallyUnavailable expands intervals into the finite family
// of windows {(L+k*period+offset, U+k*period+offset)} that intersect
// [start, end], clips each to that range, and delegates to the same
// synthesized-task machinery as ResourceUnavailable (spec §4.4).
func ResourcePeriodicallyUnavailable(name string, resource Resource, intervals []TimeInterval, period, offset, start, end int) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, invalidParam("period", "must be > 0")
	}
	if end < start {
		return nil, invalidParam("end", "must be >= start")
	}
	if name == "" {
		name = genName("ResourcePeriodicallyUnavailable")
	}

	var tasks []Task
	idx := 0
	for _, iv := range intervals {
		width := iv.High - iv.Low
		if width < 0 {
			return nil, invalidParam("intervals", "High must be >= Low")
		}
		if width > period {
			return nil, fmt.Errorf("%w: interval [%d,%d] wider than period %d", ErrIntervalExceedsPeriod, iv.Low, iv.High, period)
		}
		kMin := floorDiv(start-offset-iv.High, period)
		kMax := floorDiv(end-offset-iv.Low, period) + 1
		for k := kMin; k <= kMax; k++ {
			l := iv.Low + k*period + offset
			u := iv.High + k*period + offset
			if l > end || u < start {
				continue
			}
			if l < start {
				l = start
			}
			if u > end {
				u = end
			}
			if u <= l {
				continue
			}
			taskName := fmt.Sprintf("%s_window_%d", name, idx)
			idx++
			t, err := NewFixedDurationTask(taskName, u-l)
			if err != nil {
				return nil, err
			}
			if _, err := NewTaskStartAt(taskName+"_pin_start", t, l); err != nil {
				return nil, err
			}
			if _, err := AddRequiredResource(t, resource); err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}

	base, err := newConstraintCommon(p, name, false, nil)
	if err != nil {
		return nil, err
	}
	c := &resourcePeriodicallyUnavailable{baseConstraint: *base, resource: resource, tasks: tasks}
	return registerAndReturn(p, name, c)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

type resourceInterrupted struct {
	baseConstraint
	resource  Resource
	intervals []TimeInterval
}

// ResourceInterrupted asserts that every task using resource does not
// straddle any listed interval: its [start,end] either ends at or before L
// or begins at or after U (spec §4.4).
func ResourceInterrupted(name string, resource Resource, intervals []TimeInterval) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, invalidParam("intervals", "must not be empty")
	}
	if name == "" {
		name = genName("ResourceInterrupted")
	}
	sp := p.sp

	tasks := tasksUsingResource(p, resource)
	var terms []symbol.BoolSym
	for _, t := range tasks {
		for k, iv := range intervals {
			lo := sp.NewConst(fmt.Sprintf("%s_%s_l_%d", name, t.Name(), k), iv.Low)
			hi := sp.NewConst(fmt.Sprintf("%s_%s_u_%d", name, t.Name(), k), iv.High)
			endBefore, err := sp.ReifyCompare(fmt.Sprintf("%s_%s_endbefore_%d", name, t.Name(), k), t.End(), "<=", lo)
			if err != nil {
				return nil, err
			}
			startAfter, err := sp.ReifyCompare(fmt.Sprintf("%s_%s_startafter_%d", name, t.Name(), k), t.Start(), ">=", hi)
			if err != nil {
				return nil, err
			}
			notStraddle, err := sp.Or(endBefore, startAfter)
			if err != nil {
				return nil, err
			}
			guarded, err := sp.Implies(t.Scheduled(), notStraddle)
			if err != nil {
				return nil, err
			}
			terms = append(terms, guarded)
		}
	}

	base, err := newConstraintCommon(p, name, false, terms)
	if err != nil {
		return nil, err
	}
	c := &resourceInterrupted{baseConstraint: *base, resource: resource, intervals: intervals}
	return registerAndReturn(p, name, c)
}

// tasksUsingResource returns the distinct tasks with a requirement on
// resource, in Problem task order.
func tasksUsingResource(p *Problem, resource Resource) []Task {
	var out []Task
	for _, t := range p.Tasks() {
		for _, req := range t.Requirements() {
			if req.Resource == resource {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// DistanceMode selects the comparison ResourceTasksDistance applies between
// consecutive busy-interval gaps.
type DistanceMode int

const (
	DistanceExact DistanceMode = iota
	DistanceMax
	DistanceMin
)

func distanceOp(m DistanceMode) string {
	switch m {
	case DistanceMax:
		return "<="
	case DistanceMin:
		return ">="
	default:
		return "=="
	}
}

type resourceTasksDistance struct {
	baseConstraint
	resource Resource
	distance int
	mode     DistanceMode
}

// ResourceTasksDistance sorts resource's active busy-interval starts/ends
// (bs >= 0 filters out sentinel/unselected intervals) and requires the gap
// between consecutive tasks to equal/be at most/at least distance, optionally
// only when both endpoints lie in one of intervals (spec §4.4).
func ResourceTasksDistance(name string, resource Resource, distance int, mode DistanceMode, intervals ...TimeInterval) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	sp := p.sp

	var starts, ends []symbol.IntSym
	for _, w := range resourceWorkers(resource) {
		for _, bi := range w.BusyIntervals() {
			starts = append(starts, bi.Start)
			ends = append(ends, bi.End)
		}
	}
	if len(starts) < 2 {
		return nil, invalidParam("resource", "ResourceTasksDistance needs at least two tasks bound to the resource")
	}
	if name == "" {
		name = genName("ResourceTasksDistance")
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

	op := distanceOp(mode)
	for i := 1; i < len(sortedStarts); i++ {
		gap, err := sp.WeightedSum(fmt.Sprintf("%s_gap_%d", name, i), -p.horizonUpperBound(), p.horizonUpperBound(), []int{1, -1}, []symbol.IntSym{sortedStarts[i], sortedEnds[i-1]})
		if err != nil {
			return nil, err
		}
		var rel symbol.BoolSym
		if op == "==" {
			rel, err = sp.ReifyEqual(fmt.Sprintf("%s_eq_%d", name, i), gap, sp.NewConst(fmt.Sprintf("%s_d_%d", name, i), distance))
		} else {
			rel, err = sp.ReifyCompare(fmt.Sprintf("%s_cmp_%d", name, i), gap, op, sp.NewConst(fmt.Sprintf("%s_d_%d", name, i), distance))
		}
		if err != nil {
			return nil, err
		}

		startNonNeg, err := sp.ReifyCompare(fmt.Sprintf("%s_s_nonneg_%d", name, i), sortedStarts[i], ">=", sp.NewConst(fmt.Sprintf("%s_zero_%d", name, i), 0))
		if err != nil {
			return nil, err
		}
		guard := startNonNeg
		if len(intervals) > 0 {
			var inAny []symbol.BoolSym
			for k, iv := range intervals {
				lo := sp.NewConst(fmt.Sprintf("%s_l_%d_%d", name, i, k), iv.Low)
				hi := sp.NewConst(fmt.Sprintf("%s_u_%d_%d", name, i, k), iv.High)
				geLo, err := sp.ReifyCompare(fmt.Sprintf("%s_gelo_%d_%d", name, i, k), sortedStarts[i], ">=", lo)
				if err != nil {
					return nil, err
				}
				leHi, err := sp.ReifyCompare(fmt.Sprintf("%s_lehi_%d_%d", name, i, k), sortedEnds[i-1], "<=", hi)
				if err != nil {
					return nil, err
				}
				within, err := sp.And(geLo, leHi)
				if err != nil {
					return nil, err
				}
				inAny = append(inAny, within)
			}
			anyIv, err := sp.Or(inAny...)
			if err != nil {
				return nil, err
			}
			guard, err = sp.And(guard, anyIv)
			if err != nil {
				return nil, err
			}
		}

		guarded, err := sp.Implies(guard, rel)
		if err != nil {
			return nil, err
		}
		terms = append(terms, guarded)
	}

	base, err := newConstraintCommon(p, name, false, terms)
	if err != nil {
		return nil, err
	}
	c := &resourceTasksDistance{baseConstraint: *base, resource: resource, distance: distance, mode: mode}
	return registerAndReturn(p, name, c)
}

// WorkLoadBound pairs one [Low,High] window with the pseudo-Boolean bound
// WorkLoad enforces on the resource's total overlap duration inside it.
type WorkLoadBound struct {
	Interval TimeInterval
	Bound    int
}

type workLoad struct {
	baseConstraint
	resource Resource
	bounds   []WorkLoadBound
	kind     CardinalityKind
}

// WorkLoad bounds, for each (interval, bound) pair, the sum of overlap
// durations between resource's busy intervals and interval, per kind
// (spec §4.4/§4.5: overlap(bs,be,[L,U]) = max(0, min(be,U) - max(bs,L))).
func WorkLoad(name string, resource Resource, bounds []WorkLoadBound, kind CardinalityKind) (Constraint, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	if len(bounds) == 0 {
		return nil, invalidParam("bounds", "must not be empty")
	}
	if name == "" {
		name = genName("WorkLoad")
	}
	sp := p.sp

	var biList []*BusyInterval
	for _, w := range resourceWorkers(resource) {
		biList = append(biList, w.BusyIntervals()...)
	}

	var terms []symbol.BoolSym
	for bi, wb := range bounds {
		var overlaps []symbol.IntSym
		for ti, interval := range biList {
			ov, err := overlapDuration(sp, fmt.Sprintf("%s_%d_%d", name, bi, ti), interval.Start, interval.End, wb.Interval.Low, wb.Interval.High)
			if err != nil {
				return nil, err
			}
			overlaps = append(overlaps, ov)
		}
		span := wb.Interval.High - wb.Interval.Low
		total, err := sp.Sum(fmt.Sprintf("%s_total_%d", name, bi), 0, span*len(overlaps), overlaps...)
		if err != nil {
			return nil, err
		}
		bound := sp.NewConst(fmt.Sprintf("%s_bound_%d", name, bi), wb.Bound)
		var rel symbol.BoolSym
		switch kind {
		case AtLeast:
			rel, err = sp.ReifyCompare(fmt.Sprintf("%s_rel_%d", name, bi), total, ">=", bound)
		case AtMost:
			rel, err = sp.ReifyCompare(fmt.Sprintf("%s_rel_%d", name, bi), total, "<=", bound)
		default:
			rel, err = sp.ReifyEqual(fmt.Sprintf("%s_rel_%d", name, bi), total, bound)
		}
		if err != nil {
			return nil, err
		}
		terms = append(terms, rel)
	}

	base, err := newConstraintCommon(p, name, false, terms)
	if err != nil {
		return nil, err
	}
	c := &workLoad{baseConstraint: *base, resource: resource, bounds: bounds, kind: kind}
	return registerAndReturn(p, name, c)
}
