// This file implements the base propagators pkg/symbol's precedence,
// synchronization, and offset constraints compile down to: Arithmetic backs
// a task's end = start + duration link and every `before.end + offset <=
// after.start` precedence assertion (pkg/symbol/symbol.go's Add/Sub/offset
// helpers); Inequality backs bare period comparisons
// (pkg/symbol/reify.go's ReifyCompare). AllDifferent is kept for
// reification.go's negation support but has no direct caller in
// pkg/scheduler today — resource selection uses Count-based cardinality
// instead (see count.go). Constraints perform domain pruning by removing
// values that cannot participate in any solution, providing stronger
// filtering than simple backtracking search alone.
//
// The propagation system follows these principles:
//   - Constraints implement the ModelConstraint interface
//   - Propagation is triggered after domain changes during search
//   - The Solver runs constraints to a fixed-point (no more changes)
//   - All operations maintain copy-on-write semantics for lock-free parallel search
//
// Constraint algorithms:
//   - AllDifferent: Regin's AC algorithm using maximum bipartite matching
//   - Arithmetic: Bidirectional arc-consistency for X + c = Y
//   - Inequality: Bounds propagation for <, ≤, >, ≥, ≠
package csp

import (
	"fmt"
	"sort"
)

// PropagationConstraint extends ModelConstraint with active domain pruning.
// This interface bridges the declarative ModelConstraint with the propagation engine.
//
// Propagation maintains copy-on-write semantics: constraints never modify state
// in-place but return a new state with pruned domains. This preserves the
// lock-free property critical for parallel search.
type PropagationConstraint interface {
	ModelConstraint

	// Propagate applies the constraint's filtering algorithm.
	// Takes current solver and state, returns new state with pruned domains.
	// Returns error if inconsistency detected (empty domain).
	//
	// Must be pure: same input produces same output, no side effects.
	Propagate(solver *Solver, state *SolverState) (*SolverState, error)
}

// AllDifferent ensures all variables take distinct values.
//
// Implementation uses Regin's arc-consistency algorithm based on maximum
// bipartite matching. This achieves stronger pruning than pairwise inequality:
//
// Example: X,Y,Z ∈ {1,2} with AllDifferent(X,Y,Z)
//   - Matching algorithm detects impossibility (3 variables, 2 values)
//   - Fails immediately without search
//   - Pairwise X≠Y, Y≠Z, X≠Z would only fail after trying assignments
//
// Algorithm complexity: O(n²·d) where n = |variables|, d = max domain size
// Much more efficient than the exponential search that would be required otherwise.
type AllDifferent struct {
	variables []*FDVariable
}

// NewAllDifferent creates an AllDifferent constraint over the given variables.
// Returns error if variables is nil or empty.
func NewAllDifferent(variables []*FDVariable) (*AllDifferent, error) {
	if len(variables) == 0 {
		return nil, fmt.Errorf("AllDifferent requires at least one variable")
	}
	// Defensive copy to prevent external modification
	varsCopy := make([]*FDVariable, len(variables))
	copy(varsCopy, variables)
	return &AllDifferent{
		variables: varsCopy,
	}, nil
}

// Variables returns the variables involved in this constraint.
// Implements ModelConstraint.
func (c *AllDifferent) Variables() []*FDVariable {
	return c.variables
}

// Type returns the constraint type identifier.
// Implements ModelConstraint.
func (c *AllDifferent) Type() string {
	return "AllDifferent"
}

// String returns a human-readable representation.
// Implements ModelConstraint.
func (c *AllDifferent) String() string {
	ids := make([]int, len(c.variables))
	for i, v := range c.variables {
		ids[i] = v.ID()
	}
	return fmt.Sprintf("AllDifferent(%v)", ids)
}

// Propagate applies Regin's AllDifferent filtering algorithm.
// Implements PropagationConstraint.
func (c *AllDifferent) Propagate(solver *Solver, state *SolverState) (*SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("AllDifferent.Propagate: nil solver")
	}

	n := len(c.variables)
	if n == 0 {
		return state, nil
	}

	// Collect current domains
	domains := make([]Domain, n)
	maxVal := 0
	for i, v := range c.variables {
		domain := solver.GetDomain(state, v.ID())
		if domain == nil {
			return nil, fmt.Errorf("AllDifferent: variable %d has nil domain", v.ID())
		}
		domains[i] = domain
		if domain.MaxValue() > maxVal {
			maxVal = domain.MaxValue()
		}
	}

	// Quick failure check: enough values available?
	valueSet := make(map[int]bool)
	for _, dom := range domains {
		dom.IterateValues(func(val int) {
			valueSet[val] = true
		})
	}
	if len(valueSet) < n {
		return nil, fmt.Errorf("AllDifferent: only %d distinct values for %d variables", len(valueSet), n)
	}

	// Compute maximum matching
	matching, matchSize := c.maxMatching(domains, maxVal)
	if matchSize < n {
		return nil, fmt.Errorf("AllDifferent: no complete matching (size=%d, need=%d)", matchSize, n)
	}

	// Apply Régin's arc-consistency algorithm using value graph and SCC decomposition
	// This efficiently identifies all edges (variable, value) that cannot be in any
	// complete matching, removing them in O(n*d + e) time instead of O(n*d*e) naive approach.

	// Build value graph from matching
	valueGraph := c.buildValueGraph(domains, matching, n, maxVal)

	// Compute SCCs using Tarjan's algorithm
	sccs := c.computeSCCs(valueGraph, n, maxVal)

	// Build reverse matching: variable -> its matched value (or -1)
	varToVal := make([]int, n)
	for i := range varToVal {
		varToVal[i] = -1
	}
	for val, vi := range matching {
		if vi >= 0 && vi < n {
			varToVal[vi] = val
		}
	}

	// Determine free values that actually appear in some domain
	present := make([]bool, maxVal+1)
	for i := 0; i < n; i++ {
		domains[i].IterateValues(func(val int) {
			if val >= 1 && val <= maxVal {
				present[val] = true
			}
		})
	}
	freeValueNodes := []int{}
	for val := 1; val <= maxVal; val++ {
		if present[val] && matching[val] == -1 {
			freeValueNodes = append(freeValueNodes, n+val-1)
		}
	}

	// If there are free values in the value graph, compute reachability Z from them
	reachable := make([]bool, valueGraph.size)
	if len(freeValueNodes) > 0 {
		stack := make([]int, 0, len(freeValueNodes))
		for _, node := range freeValueNodes {
			reachable[node] = true
			stack = append(stack, node)
		}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, w := range valueGraph.adj[v] {
				if !reachable[w] {
					reachable[w] = true
					stack = append(stack, w)
				}
			}
		}
	}

	// Prune values based on SCC or Z-reachability (Régin):
	// Always keep the matched value. Otherwise:
	//  - If there are free values: keep if NOT (var ∈ Z and val ∉ Z)
	//  - If no free values: keep only if var and val are in the same SCC (part of a cycle)
	newState := state
	for i, v := range c.variables {
		originalDomain := domains[i]
		varNode := i
		varSCC := sccs[varNode]

		// We build a new domain containing only the supported values.
		supportedValues := []int{}
		originalDomain.IterateValues(func(val int) {
			valNode := n + val - 1
			// Always keep the matched value for this variable
			if varToVal[i] == val {
				supportedValues = append(supportedValues, val)
				return
			}
			if valNode < 0 || valNode >= len(sccs) {
				// Conservatively keep if node out of range
				supportedValues = append(supportedValues, val)
				return
			}

			if len(freeValueNodes) > 0 {
				// Z-based pruning: remove edges crossing from Z to outside-Z
				if !(reachable[varNode] && !reachable[valNode]) {
					supportedValues = append(supportedValues, val)
				}
			} else {
				// Cycle-based pruning: keep only edges within the same SCC
				if varSCC == sccs[valNode] {
					supportedValues = append(supportedValues, val)
				}
			}
		})

		if len(supportedValues) < originalDomain.Count() {
			if len(supportedValues) == 0 {
				return nil, fmt.Errorf("AllDifferent: variable %d domain empty after pruning", v.ID())
			}

			newDomain := NewBitSetDomainFromValues(originalDomain.MaxValue(), supportedValues)
			newState, _ = solver.SetDomain(newState, v.ID(), newDomain)
			domains[i] = newDomain // Update local copy for subsequent constraints
		}
	}

	return newState, nil
}

// maxMatching computes maximum bipartite matching: variables ← values.
// Returns mapping from value to variable index, and matching size.
func (c *AllDifferent) maxMatching(domains []Domain, maxVal int) (map[int]int, int) {
	n := len(domains)

	// matchVal[v] = variable index that value v is matched to (-1 if free)
	matchVal := make([]int, maxVal+1)
	for i := range matchVal {
		matchVal[i] = -1
	}

	// matchVar[i] = value that variable i is matched to (-1 if free)
	matchVar := make([]int, n)
	for i := range matchVar {
		matchVar[i] = -1
	}

	// Order: singletons first (deterministic), then by domain size
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		di := domains[order[i]].Count()
		dj := domains[order[j]].Count()
		if di == 1 && dj != 1 {
			return true
		}
		if dj == 1 && di != 1 {
			return false
		}
		return di < dj
	})

	// Phase 1: Match singletons
	matched := 0
	for _, vi := range order {
		if domains[vi].Count() == 1 {
			val := 0
			domains[vi].IterateValues(func(v int) { val = v })
			if val >= 1 && val <= maxVal && matchVal[val] == -1 {
				matchVal[val] = vi
				matchVar[vi] = val
				matched++
			}
		}
	}

	// Phase 2: Augment for non-singletons
	visited := make([]bool, maxVal+1)
	for _, vi := range order {
		if matchVar[vi] != -1 {
			continue
		}

		// Clear visited
		for i := range visited {
			visited[i] = false
		}

		if c.augment(vi, domains, matchVal, matchVar, visited, maxVal) {
			matched++
		}
	}

	// Build result map
	result := make(map[int]int)
	for val := 1; val <= maxVal; val++ {
		result[val] = matchVal[val]
	}

	return result, matched
}

// augment finds augmenting path for variable vi using DFS.
func (c *AllDifferent) augment(vi int, domains []Domain, matchVal, matchVar []int, visited []bool, maxVal int) bool {
	found := false

	domains[vi].IterateValues(func(val int) {
		if found || val < 1 || val > maxVal || visited[val] {
			return
		}
		visited[val] = true

		if matchVal[val] == -1 {
			// Free value - augment successful
			matchVal[val] = vi
			matchVar[vi] = val
			found = true
			return
		}

		// Try to reassign current holder
		if c.augment(matchVal[val], domains, matchVal, matchVar, visited, maxVal) {
			matchVal[val] = vi
			matchVar[vi] = val
			found = true
		}
	})

	return found
}

// buildValueGraph constructs the directed value graph for Régin's algorithm.
// Graph structure (alternating path graph):
//   - Nodes: variables (0..n-1) and values (n..n+maxVal-1)
//   - Matched edges: variable -> matched_value (forward in matching)
//   - Free edges: value -> variable (reverse, for values in domain but not matched)
//
// An edge (variable, value) is supported iff it lies on an alternating cycle,
// which occurs iff variable and value are in the same SCC.
type valueGraph struct {
	adj  [][]int // adjacency list: adj[node] = list of successors
	size int     // total number of nodes
}

func (c *AllDifferent) buildValueGraph(domains []Domain, matching map[int]int, n, maxVal int) *valueGraph {
	totalNodes := n + maxVal
	g := &valueGraph{
		adj:  make([][]int, totalNodes),
		size: totalNodes,
	}

	// Build reverse matching: variable -> value
	varToVal := make([]int, n)
	for i := range varToVal {
		varToVal[i] = -1
	}
	for val, vi := range matching {
		if vi >= 0 && vi < n {
			varToVal[vi] = val
		}
	}

	// Add edges to form an alternating path graph.
	// IMPORTANT: Orientation follows Régin's algorithm:
	// - Matched edges:   variable -> value
	// - Unmatched edges: value -> variable
	for vi := 0; vi < n; vi++ {
		matchedVal := varToVal[vi]
		varNode := vi

		domains[vi].IterateValues(func(val int) {
			if val < 1 || val > maxVal {
				return
			}
			valNode := n + val - 1

			if val == matchedVal {
				// Matched edge oriented from variable to value
				g.adj[varNode] = append(g.adj[varNode], valNode)
			} else {
				// Unmatched edge oriented from value to variable
				g.adj[valNode] = append(g.adj[valNode], varNode)
			}
		})
	}

	return g
}

// computeSCCs computes strongly connected components using Tarjan's algorithm.
// Returns scc[node] = component ID for each node.
func (c *AllDifferent) computeSCCs(g *valueGraph, n, maxVal int) []int {
	scc := make([]int, g.size)
	for i := range scc {
		scc[i] = -1
	}

	index := 0
	stack := []int{}
	onStack := make([]bool, g.size)
	indices := make([]int, g.size)
	lowlink := make([]int, g.size)
	for i := range indices {
		indices[i] = -1
	}

	sccCount := 0

	var strongconnect func(int)
	strongconnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors
		for _, w := range g.adj[v] {
			if indices[w] == -1 {
				// Successor not yet visited; recurse
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				// Successor is on stack, hence in current SCC
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		// If v is a root node, pop the stack to form SCC
		if lowlink[v] == indices[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc[w] = sccCount
				if w == v {
					break
				}
			}
			sccCount++
		}
	}

	// Find SCCs for all nodes
	for v := 0; v < g.size; v++ {
		if indices[v] == -1 {
			strongconnect(v)
		}
	}

	return scc
}

// Arithmetic enforces dst = src + offset.
//
// Provides bidirectional arc-consistency:
//   - Forward: dst ∈ {src + offset | src ∈ Domain(src)}
//   - Backward: src ∈ {dst - offset | dst ∈ Domain(dst)}
//
// Example: X + 3 = Y with X ∈ {1,2,5}, Y ∈ {1,2,3,4,5,6,7,8}
//   - Forward prunes: Y restricted to {4,5,8}
//   - Backward prunes: X restricted to {1,2,5} (no change, already consistent)
//
// Useful for modeling derived variables in problems like N-Queens
// where diagonal constraints are column ± row offset.
type Arithmetic struct {
	src    *FDVariable
	dst    *FDVariable
	offset int
}

// NewArithmetic creates dst = src + offset constraint.
// Returns error if src or dst is nil.
func NewArithmetic(src, dst *FDVariable, offset int) (*Arithmetic, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("Arithmetic constraint requires non-nil src and dst")
	}
	return &Arithmetic{
		src:    src,
		dst:    dst,
		offset: offset,
	}, nil
}

// Variables returns [src, dst].
// Implements ModelConstraint.
func (c *Arithmetic) Variables() []*FDVariable {
	return []*FDVariable{c.src, c.dst}
}

// Type returns "Arithmetic".
// Implements ModelConstraint.
func (c *Arithmetic) Type() string {
	return "Arithmetic"
}

// String returns human-readable representation.
// Implements ModelConstraint.
func (c *Arithmetic) String() string {
	if c.offset >= 0 {
		return fmt.Sprintf("v%d = v%d + %d", c.dst.ID(), c.src.ID(), c.offset)
	}
	return fmt.Sprintf("v%d = v%d - %d", c.dst.ID(), c.src.ID(), -c.offset)
}

// Propagate applies bidirectional arc-consistency.
// Implements PropagationConstraint.
func (c *Arithmetic) Propagate(solver *Solver, state *SolverState) (*SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("Arithmetic.Propagate: nil solver")
	}

	// Handle self-reference: X + offset = X
	if c.src.ID() == c.dst.ID() {
		if c.offset == 0 {
			// X + 0 = X is always true, no pruning needed
			return state, nil
		}
		// X + offset = X where offset != 0 is always false
		return nil, fmt.Errorf("Arithmetic: X + %d = X is impossible", c.offset)
	}

	srcDom := solver.GetDomain(state, c.src.ID())
	dstDom := solver.GetDomain(state, c.dst.ID())

	if srcDom == nil || dstDom == nil {
		return nil, fmt.Errorf("Arithmetic: nil domain for src or dst")
	}

	// Forward: dst ⊆ image(src, +offset)
	// imgDst must have same maxValue as dst for Intersect to work
	imgDst := c.imageForTarget(srcDom, c.offset, dstDom.MaxValue())
	newDstDom := dstDom.Intersect(imgDst)

	// Backward: src ⊆ image(dst, -offset)
	// IMPORTANT: Use newDstDom (the pruned destination), not the original dstDom!
	// imgSrc must have same maxValue as src for Intersect to work
	imgSrc := c.imageForTarget(newDstDom, -c.offset, srcDom.MaxValue())
	newSrcDom := srcDom.Intersect(imgSrc)

	// Check emptiness
	if newSrcDom.Count() == 0 {
		return nil, fmt.Errorf("Arithmetic: src domain empty (v%d + %d = v%d)",
			c.src.ID(), c.offset, c.dst.ID())
	}
	if newDstDom.Count() == 0 {
		return nil, fmt.Errorf("Arithmetic: dst domain empty (v%d + %d = v%d)",
			c.src.ID(), c.offset, c.dst.ID())
	}

	// Update state
	newState := state
	if !c.eq(newSrcDom, srcDom) {
		newState, _ = solver.SetDomain(newState, c.src.ID(), newSrcDom)
	}
	if !c.eq(newDstDom, dstDom) {
		newState, _ = solver.SetDomain(newState, c.dst.ID(), newDstDom)
	}

	return newState, nil
}

// imageForTarget computes {v + offset | v ∈ dom} with the result having targetMaxValue.
// This ensures the result can be intersected with the target domain.
func (c *Arithmetic) imageForTarget(dom Domain, offset, targetMaxValue int) Domain {
	values := []int{}
	dom.IterateValues(func(val int) {
		newVal := val + offset
		if newVal >= 1 && newVal <= targetMaxValue {
			values = append(values, newVal)
		}
	})
	return NewBitSetDomainFromValues(targetMaxValue, values)
}

// eq checks domain equality by comparing values.
func (c *Arithmetic) eq(d1, d2 Domain) bool {
	if d1.Count() != d2.Count() {
		return false
	}
	equal := true
	d1.IterateValues(func(val int) {
		if !d2.Has(val) {
			equal = false
		}
	})
	return equal
}

// Inequality enforces X op Y where op ∈ {<, ≤, >, ≥, ≠}.
//
// Uses bounds propagation for ordering constraints (O(1) time complexity):
//   - X < Y: Remove from X values ≥ max(Y); remove from Y values ≤ min(X)
//   - X ≤ Y: Remove from X values > max(Y); remove from Y values < min(X)
//   - Symmetric for > and ≥
//
// For X ≠ Y: singleton propagation
//   - If X bound to v, remove v from Domain(Y)
//   - If Y bound to v, remove v from Domain(X)
//
// Design rationale: Bounds propagation vs Arc-Consistency
//
// Bounds propagation is INTENTIONALLY incomplete (not arc-consistent) for efficiency:
//   - Time: O(1) per constraint - just checks min/max bounds
//   - Arc-consistency would be O(d) where d = domain size
//   - For inequality networks, bounds propagation provides 95%+ of the pruning
//     at <5% of the cost
//
// Example showing incompleteness:
//
//	X ∈ {1,2,6,7,8,9,10}, Y ∈ {5,6,7}, X < Y
//	Bounds: max(Y)=7, so remove X≥7 → X ∈ {1,2,6}
//	Arc-consistent would prune to X ∈ {1,2} (since X must be < some Y value)
//	But checking every X value against Y requires O(|X| × |Y|) operations
//
// When to use:
//   - Ordering constraints in scheduling, resource allocation
//   - Combined with search (which provides the final consistency check)
//   - When domain sizes are large and efficiency matters
//
// When NOT to use:
//   - When you need guaranteed arc-consistency (use AllDifferent or custom constraints)
//   - When domains are tiny (arc-consistency overhead is negligible)
type Inequality struct {
	x    *FDVariable
	y    *FDVariable
	kind InequalityKind
}

// InequalityKind specifies the type of inequality.
type InequalityKind int

const (
	LessThan     InequalityKind = iota // X < Y
	LessEqual                          // X ≤ Y
	GreaterThan                        // X > Y
	GreaterEqual                       // X ≥ Y
	NotEqual                           // X ≠ Y
)

// String returns operator symbol.
func (ik InequalityKind) String() string {
	switch ik {
	case LessThan:
		return "<"
	case LessEqual:
		return "≤"
	case GreaterThan:
		return ">"
	case GreaterEqual:
		return "≥"
	case NotEqual:
		return "≠"
	default:
		return "?"
	}
}

// NewInequality creates X op Y constraint.
// Returns error if x or y is nil.
func NewInequality(x, y *FDVariable, kind InequalityKind) (*Inequality, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("Inequality constraint requires non-nil x and y")
	}
	return &Inequality{
		x:    x,
		y:    y,
		kind: kind,
	}, nil
}

// Variables returns [x, y].
// Implements ModelConstraint.
func (c *Inequality) Variables() []*FDVariable {
	return []*FDVariable{c.x, c.y}
}

// Type returns "Inequality".
// Implements ModelConstraint.
func (c *Inequality) Type() string {
	return "Inequality"
}

// String returns human-readable representation.
// Implements ModelConstraint.
func (c *Inequality) String() string {
	return fmt.Sprintf("v%d %s v%d", c.x.ID(), c.kind.String(), c.y.ID())
}

// Propagate applies bounds propagation.
// Implements PropagationConstraint.
func (c *Inequality) Propagate(solver *Solver, state *SolverState) (*SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("Inequality.Propagate: nil solver")
	}

	// Handle self-reference: X op X
	if c.x.ID() == c.y.ID() {
		switch c.kind {
		case LessThan:
			return nil, fmt.Errorf("Inequality: X < X is always false")
		case GreaterThan:
			return nil, fmt.Errorf("Inequality: X > X is always false")
		case NotEqual:
			return nil, fmt.Errorf("Inequality: X ≠ X is always false")
		case LessEqual, GreaterEqual:
			// X <= X and X >= X are always true, no pruning needed
			return state, nil
		}
	}

	xDom := solver.GetDomain(state, c.x.ID())
	yDom := solver.GetDomain(state, c.y.ID())

	if xDom == nil || yDom == nil {
		return nil, fmt.Errorf("Inequality: nil domain")
	}

	switch c.kind {
	case LessThan:
		return c.propLT(solver, state, xDom, yDom)
	case LessEqual:
		return c.propLE(solver, state, xDom, yDom)
	case GreaterThan:
		return c.propGT(solver, state, xDom, yDom)
	case GreaterEqual:
		return c.propGE(solver, state, xDom, yDom)
	case NotEqual:
		return c.propNE(solver, state, xDom, yDom)
	default:
		return nil, fmt.Errorf("Inequality: unknown kind")
	}
}

// propLT propagates X < Y.
// Bounds propagation: X must be < some Y value, Y must be > some X value
// - Remove from X: all values >= max(Y)
// - Remove from Y: all values <= min(X)
func (c *Inequality) propLT(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minX := xDom.Min()
	maxY := yDom.Max()

	newState := state

	// Prune X: remove values >= maxY (X must be < at least one Y, so X < maxY)
	newXDom := xDom.RemoveAtOrAbove(maxY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality <: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values <= minX (Y must be > at least one X, so Y > minX)
	newYDom := yDom.RemoveAtOrBelow(minX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality <: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propLE propagates X ≤ Y.
// Bounds propagation: X must be ≤ some Y value, Y must be ≥ some X value
// - Remove from X: all values > max(Y)
// - Remove from Y: all values < min(X)
func (c *Inequality) propLE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minX := xDom.Min()
	maxY := yDom.Max()

	newState := state

	// Prune X: remove values > maxY (X must be ≤ at least one Y, so X ≤ maxY)
	newXDom := xDom.RemoveAbove(maxY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≤: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values < minX (Y must be ≥ at least one X, so Y ≥ minX)
	newYDom := yDom.RemoveBelow(minX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≤: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propGT propagates X > Y.
// Bounds propagation: X must be > some Y value, Y must be < some X value
// - Remove from X: all values <= min(Y)
// - Remove from Y: all values >= max(X)
func (c *Inequality) propGT(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minY := yDom.Min()
	maxX := xDom.Max()

	newState := state

	// Prune X: remove values <= minY (X must be > at least one Y, so X > minY)
	newXDom := xDom.RemoveAtOrBelow(minY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality >: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values >= maxX (Y must be < at least one X, so Y < maxX)
	newYDom := yDom.RemoveAtOrAbove(maxX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality >: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propGE propagates X ≥ Y.
// Bounds propagation: X must be ≥ some Y value, Y must be ≤ some X value
// - Remove from X: all values < min(Y)
// - Remove from Y: all values > max(X)
func (c *Inequality) propGE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minY := yDom.Min()
	maxX := xDom.Max()

	newState := state

	// Prune X: remove values < minY (X must be ≥ at least one Y, so X ≥ minY)
	newXDom := xDom.RemoveBelow(minY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≥: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values > maxX (Y must be ≤ at least one X, so Y ≤ maxX)
	newYDom := yDom.RemoveAbove(maxX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≥: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propNE propagates X ≠ Y.
func (c *Inequality) propNE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	// Both singletons with same value → inconsistent
	if xDom.IsSingleton() && yDom.IsSingleton() {
		xVal := 0
		yVal := 0
		xDom.IterateValues(func(v int) { xVal = v })
		yDom.IterateValues(func(v int) { yVal = v })
		if xVal == yVal {
			return nil, fmt.Errorf("Inequality ≠: both bound to %d", xVal)
		}
		return state, nil
	}

	newState := state

	// X singleton → remove from Y
	if xDom.IsSingleton() {
		xVal := 0
		xDom.IterateValues(func(v int) { xVal = v })
		if yDom.Has(xVal) {
			newYDom := yDom.Remove(xVal)
			if newYDom.Count() == 0 {
				return nil, fmt.Errorf("Inequality ≠: Y empty")
			}
			newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
		}
	}

	// Y singleton → remove from X
	if yDom.IsSingleton() {
		yVal := 0
		yDom.IterateValues(func(v int) { yVal = v })
		if xDom.Has(yVal) {
			newXDom := xDom.Remove(yVal)
			if newXDom.Count() == 0 {
				return nil, fmt.Errorf("Inequality ≠: X empty")
			}
			newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
		}
	}

	return newState, nil
}

// eqDom checks domain equality.
func (c *Inequality) eqDom(d1, d2 Domain) bool {
	if d1.Count() != d2.Count() {
		return false
	}
	equal := true
	d1.IterateValues(func(v int) {
		if !d2.Has(v) {
			equal = false
		}
	})
	return equal
}
