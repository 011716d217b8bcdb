package scheduler

import "github.com/procscheduler/goscheduler/pkg/symbol"

// Direction is the sense in which an Objective's expression is optimized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Policy is the multi-objective composition strategy applied across every
// objective registered on a problem (spec §4.7). A single problem carries
// one policy, read off its first-registered objective by solver.go; mixing
// policies across objectives on the same problem is a modeling error the
// caller is responsible for avoiding, same as the original.
type Policy int

const (
	// Single is the default: exactly one objective, optimized directly.
	Single Policy = iota
	// Lex pushes objectives in declared order, hard-bounding each by its
	// previously found optimum before the next runs.
	Lex
	// WeightedSum combines every objective into one linear expression
	// using each Objective's Weight.
	WeightedSum
	// Pareto enumerates the Pareto-optimal front via repeated
	// domination-blocking assertions.
	Pareto
)

// Objective is a reference to an indicator or a raw expression with a
// direction and an (implicit, problem-wide) composition policy (spec §3,
// §4.7). A target may be an already-declared *Indicator or a raw
// symbol.IntSym expression (SPEC_FULL's ObjectiveExpr supplement, matching
// the original's "objective over arbitrary expression" capability that the
// distilled spec's indicator-only phrasing dropped).
type Objective struct {
	name      string
	expr      symbol.IntSym
	direction Direction
	policy    Policy
	weight    int
}

func (o *Objective) Name() string         { return o.name }
func (o *Objective) Expr() symbol.IntSym  { return o.expr }
func (o *Objective) Direction() Direction { return o.direction }
func (o *Objective) Policy() Policy       { return o.policy }
func (o *Objective) Weight() int          { return o.weight }

// ObjectiveOption configures an optional attribute of an Objective.
type ObjectiveOption func(*Objective)

// WithPolicy overrides the default Single composition policy.
func WithPolicy(p Policy) ObjectiveOption { return func(o *Objective) { o.policy = p } }

// WithWeight sets the coefficient used when Policy is WeightedSum (default 1).
func WithWeight(w int) ObjectiveOption { return func(o *Objective) { o.weight = w } }

// objectiveExpr resolves an Objective target, accepting either a declared
// *Indicator or a raw symbol.IntSym expression.
func objectiveExpr(target interface{}) (symbol.IntSym, error) {
	switch x := target.(type) {
	case *Indicator:
		return x.Value(), nil
	case symbol.IntSym:
		return x, nil
	default:
		return symbol.IntSym{}, invalidParam("target", "must be *Indicator or symbol.IntSym")
	}
}

func newObjective(name string, target interface{}, dir Direction, opts ...ObjectiveOption) (*Objective, error) {
	p, err := activeProblem()
	if err != nil {
		return nil, err
	}
	expr, err := objectiveExpr(target)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = genName(dir.String())
	}
	o := &Objective{name: name, expr: expr, direction: dir, policy: Single, weight: 1}
	for _, opt := range opts {
		opt(o)
	}
	p.AddObjective(o)
	p.log.Debug().Str("objective", name).Str("direction", dir.String()).Msg("objective registered")
	return o, nil
}

// NewMinimize registers an objective minimizing target (an *Indicator or a
// raw symbol.IntSym expression).
func NewMinimize(name string, target interface{}, opts ...ObjectiveOption) (*Objective, error) {
	return newObjective(name, target, Minimize, opts...)
}

// NewMaximize registers an objective maximizing target.
func NewMaximize(name string, target interface{}, opts ...ObjectiveOption) (*Objective, error) {
	return newObjective(name, target, Maximize, opts...)
}
