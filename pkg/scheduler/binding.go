package scheduler

import (
	"fmt"

	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// ResourceRequirement records one task's binding to one resource (spec
// §4.3). Intervals holds the busy-interval terms this requirement
// contributes to the task's work-amount contract (solver.go, spec §4.7
// step 3): one entry for a Worker, one per candidate for SelectWorkers and
// the SelectWorkers synthesized for a CumulativeWorker. An inactive
// candidate's interval already has zero width (its bs/be are forced equal
// to the same sentinel), so work-amount summation never needs to gate by
// the selector explicitly.
type ResourceRequirement struct {
	Resource Resource
	Dynamic  bool
	DelayIn  int
	EarlyOut int

	Intervals []RequirementInterval

	// synthesized is set when Resource is a CumulativeWorker and Intervals
	// actually came from an internally-created SelectWorkers; exposed so
	// solution.go can still report occupancy against the atomic workers.
	synthesized *SelectWorkers
}

// RequirementInterval pairs a busy interval with the per-period
// productivity that applies to it.
type RequirementInterval struct {
	Productivity int
	Worker       *Worker
	Start        symbol.IntSym
	End          symbol.IntSym
}

// RequirementOption configures AddRequiredResource.
type RequirementOption func(*requirementConfig)

type requirementConfig struct {
	dynamic  bool
	delayIn  int
	earlyOut int
}

// Dynamic marks the binding as dynamic: busy_start >= task.start and
// busy_end <= task.end, instead of pinned equality (spec §4.3).
func Dynamic() RequirementOption { return func(c *requirementConfig) { c.dynamic = true } }

// DelayIn shifts a static requirement's busy_start later than task.start
// (spec §4.3). Ignored when Dynamic is set.
func DelayIn(d int) RequirementOption { return func(c *requirementConfig) { c.delayIn = d } }

// EarlyOut shifts a static requirement's busy_end earlier than task.end
// (spec §4.3). Ignored when Dynamic is set.
func EarlyOut(d int) RequirementOption { return func(c *requirementConfig) { c.earlyOut = d } }

func applyRequirementOptions(opts []RequirementOption) *requirementConfig {
	c := &requirementConfig{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AddRequiredResource binds resource to task (spec §4.3). The same resource
// may not be bound twice to one task.
func AddRequiredResource(t Task, resource Resource, opts ...RequirementOption) (*ResourceRequirement, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	for _, existing := range t.Requirements() {
		if existing.Resource == resource {
			return nil, &DuplicateRequirementError{Task: t.Name(), Resource: resource.Name()}
		}
	}
	cfg := applyRequirementOptions(opts)

	req := &ResourceRequirement{Resource: resource, Dynamic: cfg.dynamic, DelayIn: cfg.delayIn, EarlyOut: cfg.earlyOut}

	switch res := resource.(type) {
	case *Worker:
		interval, err := p.bindWorker(t, res, cfg)
		if err != nil {
			return nil, err
		}
		req.Intervals = []RequirementInterval{interval}

	case *SelectWorkers:
		intervals, err := p.bindSelectWorkers(t, res, cfg)
		if err != nil {
			return nil, err
		}
		req.Intervals = intervals

	case *CumulativeWorker:
		sw, err := NewSelectWorkers(genName("SelectWorkers")+"_"+res.Name(), res.Workers(), 1, AtLeast)
		if err != nil {
			return nil, err
		}
		intervals, err := p.bindSelectWorkers(t, sw, cfg)
		if err != nil {
			return nil, err
		}
		req.Intervals = intervals
		req.synthesized = sw

	default:
		return nil, fmt.Errorf("scheduler: unsupported resource type %T", resource)
	}

	t.addRequirement(req)
	p.log.Debug().Str("task", t.Name()).Str("resource", resource.Name()).Bool("dynamic", cfg.dynamic).Msg("resource requirement added")
	return req, nil
}

// bindWorker creates the single (bs, be) pair for a static or dynamic
// Worker requirement and registers it on the worker (spec §4.3, Glossary
// "Busy interval").
func (p *Problem) bindWorker(t Task, w *Worker, cfg *requirementConfig) (RequirementInterval, error) {
	sp := p.sp
	hi := p.horizonUpperBound()
	bs, err := sp.NewInt(t.Name()+"_"+w.Name()+"_bs", 0, hi)
	if err != nil {
		return RequirementInterval{}, err
	}
	be, err := sp.NewInt(t.Name()+"_"+w.Name()+"_be", 0, hi)
	if err != nil {
		return RequirementInterval{}, err
	}

	if cfg.dynamic {
		if err := sp.AssertCompare(bs, ">=", t.Start()); err != nil {
			return RequirementInterval{}, err
		}
		if err := sp.AssertCompare(be, "<=", t.End()); err != nil {
			return RequirementInterval{}, err
		}
	} else {
		if err := sp.AssertEqualOffset(t.Start(), cfg.delayIn, bs); err != nil {
			return RequirementInterval{}, err
		}
		if err := sp.AssertEqualOffset(t.End(), -cfg.earlyOut, be); err != nil {
			return RequirementInterval{}, err
		}
	}

	w.addBusyInterval(&BusyInterval{TaskName: t.Name(), Start: bs, End: be})
	return RequirementInterval{Productivity: w.Productivity(), Worker: w, Start: bs, End: be}, nil
}

// bindSelectWorkers creates one (bs_w, be_w) pair per candidate, guarded by
// that candidate's selector (spec §4.3): selected candidates take on the
// task's own start/end (through a static or dynamic Worker-style binding),
// unselected candidates are pinned to one distinct negative sentinel,
// shared by both of that candidate's interval endpoints so its width is
// exactly zero.
func (p *Problem) bindSelectWorkers(t Task, sw *SelectWorkers, cfg *requirementConfig) ([]RequirementInterval, error) {
	sp := p.sp
	hi := p.horizonUpperBound()
	intervals := make([]RequirementInterval, 0, len(sw.candidates))

	for i, w := range sw.candidates {
		selector := sw.selectors[i]
		sentinel, err := sp.NextSentinel()
		if err != nil {
			return nil, err
		}
		bs, err := sp.NewIntWithSentinels(t.Name()+"_"+sw.Name()+"_"+w.Name()+"_bs", 0, hi, []int{sentinel})
		if err != nil {
			return nil, err
		}
		be, err := sp.NewIntWithSentinels(t.Name()+"_"+sw.Name()+"_"+w.Name()+"_be", 0, hi, []int{sentinel})
		if err != nil {
			return nil, err
		}

		notSelected, err := sp.Not(selector)
		if err != nil {
			return nil, err
		}
		sentinelConst := sp.NewConst(fmt.Sprintf("%s_%s_%s_sentinel", t.Name(), sw.Name(), w.Name()), sentinel)
		bsIsSentinel, err := sp.ReifyEqual(bs.Var().Name()+"_is_sentinel", bs, sentinelConst)
		if err != nil {
			return nil, err
		}
		beIsSentinel, err := sp.ReifyEqual(be.Var().Name()+"_is_sentinel", be, sentinelConst)
		if err != nil {
			return nil, err
		}
		if err := sp.Guard(notSelected, bsIsSentinel, beIsSentinel); err != nil {
			return nil, err
		}

		var bsEqStart, beEqEnd symbol.BoolSym
		if cfg.dynamic {
			bsEqStart, err = sp.ReifyCompare(bs.Var().Name()+"_ge_start", bs, ">=", t.Start())
			if err != nil {
				return nil, err
			}
			beEqEnd, err = sp.ReifyCompare(be.Var().Name()+"_le_end", be, "<=", t.End())
			if err != nil {
				return nil, err
			}
		} else {
			bsEqStart, err = reifyEqualOffset(sp, t.Start(), cfg.delayIn, bs)
			if err != nil {
				return nil, err
			}
			beEqEnd, err = reifyEqualOffset(sp, t.End(), -cfg.earlyOut, be)
			if err != nil {
				return nil, err
			}
		}
		if err := sp.Guard(selector, bsEqStart, beEqEnd); err != nil {
			return nil, err
		}

		w.addBusyInterval(&BusyInterval{TaskName: t.Name(), Start: bs, End: be, Selector: selector})
		intervals = append(intervals, RequirementInterval{Productivity: w.Productivity(), Worker: w, Start: bs, End: be})
	}

	return intervals, nil
}

// reifyEqualOffset builds a boolean symbol for "x + delta == y" as the
// conjunction of the reified "x + delta >= y" and "x + delta <= y" from
// ReifyOffsetCompare.
func reifyEqualOffset(sp *symbol.Space, x symbol.IntSym, delta int, y symbol.IntSym) (symbol.BoolSym, error) {
	geq, err := sp.ReifyOffsetCompare("_oeq_geq", x, delta, ">=", y)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	leq, err := sp.ReifyOffsetCompare("_oeq_leq", x, delta, "<=", y)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	return sp.And(geq, leq)
}
