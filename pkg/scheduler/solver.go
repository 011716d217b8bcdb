package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/procscheduler/goscheduler/internal/workpool"
	"github.com/procscheduler/goscheduler/pkg/csp"
	"github.com/procscheduler/goscheduler/pkg/solverconfig"
	"github.com/procscheduler/goscheduler/pkg/symbol"
)

// allWorkers returns every atomic *Worker reachable from p's registered
// resources, pointer-deduplicated. A Worker is reachable directly, or via a
// SelectWorkers/CumulativeWorker's candidate/aggregate list; binding.go's
// AddRequiredResource synthesizes a fresh SelectWorkers per CumulativeWorker
// requirement, so the same *Worker can be reachable through more than one
// resource-registry entry (spec §4.3) and must be counted once.
func allWorkers(p *Problem) []*Worker {
	seen := make(map[*Worker]bool)
	var out []*Worker
	for _, r := range p.Resources() {
		for _, w := range resourceWorkers(r) {
			if seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// assertMutualExclusion asserts that no two of w's busy intervals overlap
// (spec §4.7 assembly step: a worker can do one thing at a time). Each pair
// is forced to one of the two non-overlapping orderings via Xor, matching
// the original's "cumulative == 1" disjunctive scheduling encoding.
func assertMutualExclusion(sp *symbol.Space, w *Worker) error {
	busy := w.BusyIntervals()
	for i := 0; i < len(busy); i++ {
		for j := i + 1; j < len(busy); j++ {
			a, b := busy[i], busy[j]
			name := fmt.Sprintf("mutex_%s_%s_%s", w.Name(), a.TaskName, b.TaskName)
			aFirst, err := sp.ReifyCompare(name+"_aFirst", a.End, "<=", b.Start)
			if err != nil {
				return err
			}
			bFirst, err := sp.ReifyCompare(name+"_bFirst", b.End, "<=", a.Start)
			if err != nil {
				return err
			}
			order, err := sp.Xor(aFirst, bFirst)
			if err != nil {
				return err
			}
			guard, err := exclusionGuard(sp, name, a, b)
			if err != nil {
				return err
			}
			if guard.Valid() {
				if err := sp.Guard(guard, order); err != nil {
					return err
				}
				continue
			}
			if err := sp.AssertTrue(order); err != nil {
				return err
			}
		}
	}
	return nil
}

// exclusionGuard returns the condition under which a and b's exclusion must
// actually hold: both selectors true when either interval belongs to a
// SelectWorkers candidate, or an invalid (always-true) BoolSym when neither
// does. An unselected candidate's interval is already pinned to a sentinel
// by binding.go, so guarding here only avoids asserting a vacuous ordering
// fact between two sentinel-pinned endpoints.
func exclusionGuard(sp *symbol.Space, name string, a, b *BusyInterval) (symbol.BoolSym, error) {
	switch {
	case a.Selector.Valid() && b.Selector.Valid():
		return sp.And(a.Selector, b.Selector)
	case a.Selector.Valid():
		return a.Selector, nil
	case b.Selector.Valid():
		return b.Selector, nil
	default:
		return symbol.BoolSym{}, nil
	}
}

// assertWorkAmount asserts the work-amount contract (spec §4.7 assembly
// step 3): a scheduled task with a positive WorkAmount must receive at least
// that much work from its resource requirements, each requirement
// contributing productivity * duration summed over every RequirementInterval
// it was bound to.
func assertWorkAmount(sp *symbol.Space, t Task) error {
	amount := t.WorkAmount()
	if amount <= 0 {
		return nil
	}
	var coeffs []int
	var terms []symbol.IntSym
	lo, hi := 0, 0
	for _, req := range t.Requirements() {
		for _, iv := range req.Intervals {
			diff, err := sp.WeightedSum(
				fmt.Sprintf("workreq_%s_%s_diff", t.Name(), iv.Worker.Name()),
				-freeHorizonUpperBound, freeHorizonUpperBound,
				[]int{1, -1}, []symbol.IntSym{iv.End, iv.Start},
			)
			if err != nil {
				return err
			}
			terms = append(terms, diff)
			coeffs = append(coeffs, iv.Productivity)
			hi += iv.Productivity * freeHorizonUpperBound
		}
	}
	if len(terms) == 0 {
		return nil
	}
	total, err := sp.WeightedSum(fmt.Sprintf("workamount_%s", t.Name()), lo, hi, coeffs, terms)
	if err != nil {
		return err
	}
	satisfied, err := sp.ReifyCompare(fmt.Sprintf("workamount_%s_ok", t.Name()), total, ">=", sp.NewConst(fmt.Sprintf("workamount_%s_target", t.Name()), amount))
	if err != nil {
		return err
	}
	return sp.Guard(t.Scheduled(), satisfied)
}

// assemble performs the one-time compile step deferred by the Constraint
// library (spec §5): it asserts every worker's mutual exclusion, every
// task's work-amount contract, every registered constraint's
// "Applied ⇒ Body" fact, and builds every registered buffer's model. It is
// idempotent so repeated Solve/FindAnotherSolution calls on the same problem
// do not double-assert.
func (p *Problem) assemble() error {
	if p.assembled {
		return nil
	}
	sp := p.sp

	for _, w := range allWorkers(p) {
		if err := assertMutualExclusion(sp, w); err != nil {
			return err
		}
	}

	for _, t := range p.Tasks() {
		if err := assertWorkAmount(sp, t); err != nil {
			return err
		}
	}

	for _, c := range p.Constraints() {
		if c.consumed() {
			// folded into an enclosing combinator's Body; never a
			// top-level fact on its own (spec §5).
			continue
		}
		fact, err := sp.Implies(c.Applied(), c.Body())
		if err != nil {
			return err
		}
		if err := sp.AssertTrue(fact); err != nil {
			return err
		}
	}

	for _, b := range p.Buffers() {
		if _, err := p.bufferModel(b); err != nil {
			return err
		}
	}

	p.assembled = true
	p.log.Debug().Str("problem", p.Name).Msg("problem assembled")
	return nil
}

// solveConfig holds Solve's tunable search parameters (spec §5 solver
// config: max_time, parallel, random_seed, and a debug export toggle).
type solveConfig struct {
	maxTime      time.Duration
	parallel     int
	randomSeed   int64
	haveSeed     bool
	debug        bool
	workStealing bool
}

// SolveOption configures a Solve call.
type SolveOption func(*solveConfig)

// WithMaxTime bounds total solve wall-clock time.
func WithMaxTime(d time.Duration) SolveOption { return func(c *solveConfig) { c.maxTime = d } }

// WithParallel sets the number of parallel search workers (<=1 sequential).
func WithParallel(workers int) SolveOption { return func(c *solveConfig) { c.parallel = workers } }

// WithRandomSeed overrides the search's value/variable ordering tie-break seed.
func WithRandomSeed(seed int64) SolveOption {
	return func(c *solveConfig) { c.randomSeed = seed; c.haveSeed = true }
}

// WithDebug enables verbose debug logging of the assembled model during solve.
func WithDebug(on bool) SolveOption { return func(c *solveConfig) { c.debug = on } }

// WithWorkStealingPortfolio switches the portfolio search (WithParallel>1)
// from the fixed-size restart pool to a work-stealing one. Only the
// single-objective portfolio uses a pool. Its differently-seeded restarts
// can finish at uneven times, so idle workers can pick up a slower worker's
// remaining seeds instead of sitting blocked on a full WaitGroup.
func WithWorkStealingPortfolio(on bool) SolveOption {
	return func(c *solveConfig) { c.workStealing = on }
}

// FromConfig translates a loaded solverconfig.Config (SPEC_FULL §5) into
// the equivalent Solve options, so a TOML file can drive Solve without the
// caller hand-assembling WithMaxTime/WithParallel/etc. itself.
func FromConfig(cfg *solverconfig.Config) []SolveOption {
	return []SolveOption{
		WithMaxTime(cfg.MaxTime()),
		WithParallel(cfg.Parallel),
		WithRandomSeed(cfg.RandomSeed),
		WithDebug(cfg.Debug),
		WithWorkStealingPortfolio(cfg.WorkStealing),
	}
}

func optimizeOpts(cfg *solveConfig) []csp.OptimizeOption {
	var opts []csp.OptimizeOption
	if cfg.maxTime > 0 {
		opts = append(opts, csp.WithTimeLimit(cfg.maxTime))
	}
	if cfg.parallel > 1 {
		opts = append(opts, csp.WithParallelWorkers(cfg.parallel))
	}
	if cfg.haveSeed {
		opts = append(opts, csp.WithHeuristics(csp.HeuristicDomDeg, csp.ValueOrderAsc, cfg.randomSeed))
	}
	return opts
}

// Solve assembles the model, drives the backend search, and lifts the
// result back into a typed Solution (spec §4.7/§4.8). With no objectives it
// returns the first feasible assignment; with objectives it dispatches on
// the declared policy (spec §4.7: single, lex, weighted_sum, pareto).
func (p *Problem) Solve(ctx context.Context, opts ...SolveOption) (*Solution, error) {
	if err := p.assemble(); err != nil {
		return nil, err
	}
	cfg := &solveConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.debug {
		p.logModel()
	}

	objectives := p.Objectives()
	if len(objectives) == 0 {
		solver := csp.NewSolver(p.sp.Model)
		solutions, err := solver.Solve(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(solutions) == 0 {
			if ctx.Err() != nil {
				return nil, ErrUnknown
			}
			return nil, ErrUnsat
		}
		return p.reconstruct(solutions[0])
	}
	return p.solveObjectives(ctx, objectives, cfg)
}

func (p *Problem) solveObjectives(ctx context.Context, objectives []*Objective, cfg *solveConfig) (*Solution, error) {
	policy := objectives[0].Policy()
	switch policy {
	case Single:
		return p.solveSingle(ctx, objectives[0], cfg)
	case Lex:
		return p.solveLex(ctx, objectives, cfg)
	case WeightedSum:
		return p.solveWeightedSum(ctx, objectives, cfg)
	case Pareto:
		front, err := p.ParetoFront(ctx, objectives, cfg)
		if err != nil {
			return nil, err
		}
		if len(front) == 0 {
			return nil, ErrUnsat
		}
		return front[0], nil
	default:
		return nil, invalidParam("policy", "unknown objective composition policy")
	}
}

func (p *Problem) solveSingle(ctx context.Context, o *Objective, cfg *solveConfig) (*Solution, error) {
	if cfg.parallel > 1 {
		return p.solveSinglePortfolio(ctx, o, cfg)
	}
	solver := csp.NewSolver(p.sp.Model)
	sol, _, err := solver.SolveOptimalWithOptions(ctx, o.Expr().Var(), o.Direction() == Minimize, optimizeOpts(cfg)...)
	if err != nil && err != csp.ErrSearchLimitReached {
		if ctx.Err() != nil {
			return nil, ErrUnknown
		}
		return nil, err
	}
	if sol == nil {
		return nil, ErrUnsat
	}
	return p.reconstruct(sol)
}

// solveSinglePortfolio runs cfg.parallel independently-seeded searches
// concurrently over internal/workpool and keeps the best incumbent (spec
// §4.7's "parallel hint": each pkg/csp.Solver/SolverState chain is
// lock-free per the teacher's design, so sharing the one immutable
// p.sp.Model across workers needs no coordination beyond the final
// best-of comparison). This is distinct from csp's own internal
// WithParallelWorkers branch-and-bound parallelism, which splits a single
// search tree rather than diversifying restarts.
func (p *Problem) solveSinglePortfolio(ctx context.Context, o *Objective, cfg *solveConfig) (*Solution, error) {
	var pool workpool.WorkerPoolInterface
	if cfg.workStealing {
		pool = workpool.NewWorkStealingWorkerPool(cfg.parallel, cfg.parallel)
	} else {
		pool = workpool.NewWorkerPool(cfg.parallel)
	}
	defer pool.Shutdown()
	detector := pool.GetDeadlockDetector()

	type attempt struct {
		sol []int
		val int
		ok  bool
	}
	results := make([]attempt, cfg.parallel)
	var wg sync.WaitGroup
	minimize := o.Direction() == Minimize

	for i := 0; i < cfg.parallel; i++ {
		i := i
		wg.Add(1)
		seed := cfg.randomSeed + int64(i)
		taskID := fmt.Sprintf("%s-restart-%d", o.Name(), i)
		task := func() {
			defer wg.Done()
			if detector != nil {
				detector.RegisterTask(taskID, fmt.Sprintf("portfolio restart %d of %q", i, o.Name()))
				defer detector.UnregisterTask(taskID)
			}
			opts := append(optimizeOpts(cfg), csp.WithHeuristics(csp.HeuristicDomDeg, csp.ValueOrderAsc, seed))
			solver := csp.NewSolver(p.sp.Model)
			sol, val, err := solver.SolveOptimalWithOptions(ctx, o.Expr().Var(), minimize, opts...)
			if detector != nil {
				detector.UpdateTask(taskID)
			}
			if err != nil && err != csp.ErrSearchLimitReached {
				return
			}
			if sol != nil {
				results[i] = attempt{sol: sol, val: val, ok: true}
			}
		}
		if err := pool.Submit(ctx, task); err != nil {
			wg.Done()
		}
	}
	wg.Wait()

	if stats := pool.GetStats(); stats != nil {
		p.log.Debug().Str("objective", o.Name()).Str("stats", stats.String()).Msg("portfolio search finished")
	}

	var best *attempt
	for i := range results {
		r := results[i]
		if !r.ok {
			continue
		}
		if best == nil || (minimize && r.val < best.val) || (!minimize && r.val > best.val) {
			best = &results[i]
		}
	}
	if best == nil {
		if ctx.Err() != nil {
			return nil, ErrUnknown
		}
		return nil, ErrUnsat
	}
	return p.reconstruct(best.sol)
}

// solveLex solves objectives in declared order, hard-bounding each
// previously optimized objective at its found optimum (via a fresh equality
// assertion) before the next objective is optimized, matching the original
// lexicographic multi-objective search (spec §4.7).
func (p *Problem) solveLex(ctx context.Context, objectives []*Objective, cfg *solveConfig) (*Solution, error) {
	var sol []int
	for _, o := range objectives {
		solver := csp.NewSolver(p.sp.Model)
		found, val, err := solver.SolveOptimalWithOptions(ctx, o.Expr().Var(), o.Direction() == Minimize, optimizeOpts(cfg)...)
		if err != nil && err != csp.ErrSearchLimitReached {
			if ctx.Err() != nil {
				return nil, ErrUnknown
			}
			return nil, err
		}
		if found == nil {
			return nil, ErrUnsat
		}
		sol = found
		pin := p.sp.NewConst(fmt.Sprintf("lex_pin_%s", o.Name()), val+o.Expr().Offset())
		eq, err := p.sp.ReifyEqual(fmt.Sprintf("lex_eq_%s", o.Name()), o.Expr(), pin)
		if err != nil {
			return nil, err
		}
		if err := p.sp.AssertTrue(eq); err != nil {
			return nil, err
		}
	}
	return p.reconstruct(sol)
}

// solveWeightedSum combines every objective into one linear expression,
// negating a Maximize objective's coefficient so the combination is always
// minimized (spec §4.7 weighted_sum policy).
func (p *Problem) solveWeightedSum(ctx context.Context, objectives []*Objective, cfg *solveConfig) (*Solution, error) {
	coeffs := make([]int, len(objectives))
	terms := make([]symbol.IntSym, len(objectives))
	lo, hi := 0, 0
	for i, o := range objectives {
		w := o.Weight()
		if o.Direction() == Maximize {
			w = -w
		}
		coeffs[i] = w
		terms[i] = o.Expr()
		l, h := periodBounds([]symbol.IntSym{o.Expr()})
		if w >= 0 {
			lo += w * l
			hi += w * h
		} else {
			lo += w * h
			hi += w * l
		}
	}
	combo, err := p.sp.WeightedSum("weighted_sum_objective", lo, hi, coeffs, terms)
	if err != nil {
		return nil, err
	}
	solver := csp.NewSolver(p.sp.Model)
	sol, _, err := solver.SolveOptimalWithOptions(ctx, combo.Var(), true, optimizeOpts(cfg)...)
	if err != nil && err != csp.ErrSearchLimitReached {
		if ctx.Err() != nil {
			return nil, ErrUnknown
		}
		return nil, err
	}
	if sol == nil {
		return nil, ErrUnsat
	}
	return p.reconstruct(sol)
}

// ParetoFront enumerates the Pareto-optimal front (spec §4.7 pareto
// policy): repeatedly find a solution strictly dominating the last found
// point in at least one objective (without being worse in any other), until
// the next search proves unsat. Each point is returned as a reconstructed
// Solution in discovery order.
func (p *Problem) ParetoFront(ctx context.Context, objectives []*Objective, cfg *solveConfig) ([]*Solution, error) {
	var front []*Solution
	var lastRaw []int
	for {
		solver := csp.NewSolver(p.sp.Model)
		var raw []int
		if lastRaw == nil {
			solutions, err := solver.Solve(ctx, 1)
			if err != nil {
				return nil, err
			}
			if len(solutions) == 0 {
				break
			}
			raw = solutions[0]
		} else {
			dom, err := dominationConstraint(p.sp, objectives, lastRaw)
			if err != nil {
				return nil, err
			}
			if err := p.sp.AssertTrue(dom); err != nil {
				return nil, err
			}
			solutions, err := solver.Solve(ctx, 1)
			if err != nil {
				return nil, err
			}
			if len(solutions) == 0 {
				break
			}
			raw = solutions[0]
		}
		lastRaw = raw
		sol, err := p.reconstruct(raw)
		if err != nil {
			return nil, err
		}
		front = append(front, sol)
	}
	return front, nil
}

// dominationConstraint builds "at least one objective strictly improves on
// last's value, none regresses" relative to the last found point.
func dominationConstraint(sp *symbol.Space, objectives []*Objective, last []int) (symbol.BoolSym, error) {
	var improves []symbol.BoolSym
	var noRegress []symbol.BoolSym
	for i, o := range objectives {
		val := o.Expr().ValueIn(last)
		target := sp.NewConst(fmt.Sprintf("pareto_target_%s_%d", o.Name(), i), val)
		betterOp, worseOp := "<", ">"
		if o.Direction() == Maximize {
			betterOp, worseOp = ">", "<"
		}
		better, err := sp.ReifyCompare(fmt.Sprintf("pareto_better_%s", o.Name()), o.Expr(), betterOp, target)
		if err != nil {
			return symbol.BoolSym{}, err
		}
		worse, err := sp.ReifyCompare(fmt.Sprintf("pareto_worse_%s", o.Name()), o.Expr(), worseOp, target)
		if err != nil {
			return symbol.BoolSym{}, err
		}
		notWorse, err := sp.Not(worse)
		if err != nil {
			return symbol.BoolSym{}, err
		}
		improves = append(improves, better)
		noRegress = append(noRegress, notWorse)
	}
	anyImproves, err := sp.Or(improves...)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	allNoRegress, err := sp.And(noRegress...)
	if err != nil {
		return symbol.BoolSym{}, err
	}
	return sp.And(anyImproves, allNoRegress)
}

// FindAnotherSolution re-solves with v pinned away from lastValue (spec
// §4.7 incrementality: find_another_solution), returning a fresh feasible
// Solution or ErrUnsat if none remains.
func (p *Problem) FindAnotherSolution(ctx context.Context, v symbol.IntSym, lastValue int, opts ...SolveOption) (*Solution, error) {
	if err := p.assemble(); err != nil {
		return nil, err
	}
	cfg := &solveConfig{}
	for _, o := range opts {
		o(cfg)
	}
	pin := p.sp.NewConst(fmt.Sprintf("find_another_%d", lastValue), lastValue)
	ne, err := p.sp.ReifyCompare(fmt.Sprintf("find_another_ne_%d", lastValue), v, "!=", pin)
	if err != nil {
		return nil, err
	}
	if err := p.sp.AssertTrue(ne); err != nil {
		return nil, err
	}
	solver := csp.NewSolver(p.sp.Model)
	solutions, err := solver.Solve(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(solutions) == 0 {
		if ctx.Err() != nil {
			return nil, ErrUnknown
		}
		return nil, ErrUnsat
	}
	return p.reconstruct(solutions[0])
}

// EnumerateSolutions repeatedly pins v away from the value extract reads
// off the previous solution, pacing successive re-solves to at most
// maxPerSecond per second, until limit distinct solutions have been
// collected or the search is exhausted. A caller enumerating every schedule
// of a loosely-constrained problem (spec §4.7's incrementality contract
// applied in a loop) can otherwise starve the machine re-solving a growing
// model far faster than it can consume results; the rate limiter caps how
// fast that loop is allowed to spin.
func (p *Problem) EnumerateSolutions(ctx context.Context, v symbol.IntSym, extract func(*Solution) int, limit int, maxPerSecond int) ([]*Solution, error) {
	first, err := p.Solve(ctx)
	if err != nil {
		return nil, err
	}
	out := []*Solution{first}
	if limit <= 1 {
		return out, nil
	}

	limiter := workpool.NewRateLimiter(maxPerSecond)
	defer limiter.Close()

	last := extract(first)
	for len(out) < limit {
		if err := limiter.Wait(ctx); err != nil {
			return out, nil
		}
		next, err := p.FindAnotherSolution(ctx, v, last)
		if err == ErrUnsat {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, next)
		last = extract(next)
	}
	return out, nil
}

// ExportDebug writes a plain textual dump of the assembled model's
// variables and constraints to path. This is NOT SMT-LIB2 syntax: the
// backend (pkg/csp) is a finite-domain CSP solver, not an SMT solver, so
// genuine SMT-LIB2 output would misrepresent the theory actually solved
// (see DESIGN.md). It exists for the same debugging purpose the original's
// export_to_smt2 served, rendered honestly for this backend.
func (p *Problem) ExportDebug(path string) error {
	if err := p.assemble(); err != nil {
		return err
	}
	return writeDebugDump(path, p.Name, p.sp.Model)
}
