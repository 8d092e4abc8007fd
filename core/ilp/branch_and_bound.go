package ilp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// DefaultMaxNodes bounds the search when no limit is configured.
	DefaultMaxNodes = 200000
	feasTol         = 1e-6
	intTol          = 1e-6
)

// solveRelaxation solves min cᵀx s.t. Ax = b, x >= 0. Tests override it to
// simulate numerical failures.
var solveRelaxation = func(c []float64, A mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, A, b, tol, nil)
}

// BranchAndBound is a depth-first branch-and-bound solver. Each node's bounds
// are first tightened by constraint propagation. The node is then bounded by
// the problem's BoundFunc when one is set, or else by its LP relaxation solved
// with the simplex method.
type BranchAndBound struct {
	// MaxNodes caps the number of explored nodes. Zero means DefaultMaxNodes.
	MaxNodes int
	// Tolerance is passed to the simplex solver.
	Tolerance float64
}

// NewBranchAndBound returns a solver exploring at most maxNodes nodes.
func NewBranchAndBound(maxNodes int) *BranchAndBound {
	return &BranchAndBound{MaxNodes: maxNodes}
}

type leRow struct {
	vars []int
	coef []float64
	rhs  float64
}

type node struct {
	lo, hi []int8
}

type search struct {
	p       *Problem
	sign    float64
	c       []float64 // minimisation costs
	rows    []leRow
	tol     float64
	best    []float64
	bestVal float64
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s := &search{p: p, sign: 1, rows: lessEqRows(p), tol: b.Tolerance}
	if s.tol <= 0 {
		s.tol = 1e-9
	}
	if p.dir == Maximize {
		s.sign = -1
	}
	s.c = make([]float64, len(p.obj))
	for j, v := range p.obj {
		s.c[j] = s.sign * v
	}
	root := node{lo: append([]int8(nil), p.lo...), hi: append([]int8(nil), p.hi...)}
	for j := range root.lo {
		if root.lo[j] > root.hi[j] {
			return nil, ErrInfeasible
		}
	}

	limit := b.MaxNodes
	if limit <= 0 {
		limit = DefaultMaxNodes
	}
	stack := []node{root}
	nodes := 0
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &SearchError{Err: err, Nodes: nodes}
		}
		if nodes >= limit {
			return nil, &SearchError{Err: ErrNodeLimit, Nodes: nodes}
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++
		stack = append(stack, s.expand(nd)...)
	}
	if s.best == nil {
		return nil, &SearchError{Err: ErrInfeasible, Nodes: nodes}
	}
	return &Solution{Objective: p.Objective(s.best), Values: s.best, Nodes: nodes}, nil
}

// lessEqRows rewrites every constraint as one or two rows of the form
// Σ a·x <= rhs with duplicate variables merged.
func lessEqRows(p *Problem) []leRow {
	var rows []leRow
	for _, c := range p.cons {
		merged := make(map[int]float64, len(c.Terms))
		var order []int
		for _, t := range c.Terms {
			if _, ok := merged[int(t.Var)]; !ok {
				order = append(order, int(t.Var))
			}
			merged[int(t.Var)] += t.Coef
		}
		r := leRow{rhs: c.RHS}
		for _, j := range order {
			if merged[j] == 0 {
				continue
			}
			r.vars = append(r.vars, j)
			r.coef = append(r.coef, merged[j])
		}
		if c.Sense == LessEq || c.Sense == Equal {
			rows = append(rows, r)
		}
		if c.Sense == GreaterEq || c.Sense == Equal {
			neg := leRow{vars: r.vars, coef: make([]float64, len(r.coef)), rhs: -r.rhs}
			for k, a := range r.coef {
				neg.coef[k] = -a
			}
			rows = append(rows, neg)
		}
	}
	return rows
}

// expand processes one node and returns its children, preferred child last.
func (s *search) expand(nd node) []node {
	lo, hi := nd.lo, nd.hi
	if !s.propagate(lo, hi) {
		return nil
	}
	var free []int
	var fixedObj float64
	for j := range lo {
		if lo[j] != hi[j] {
			free = append(free, j)
			continue
		}
		fixedObj += s.c[j] * float64(lo[j])
	}
	if len(free) == 0 {
		x := make([]float64, len(lo))
		for j := range lo {
			x[j] = float64(lo[j])
		}
		s.offer(x)
		return nil
	}

	var bound float64
	var y []float64
	if s.p.bound != nil {
		bound = s.sign * s.p.bound(Domain{lo: lo, hi: hi})
		if math.IsNaN(bound) {
			bound = math.Inf(-1)
		}
		if math.IsInf(bound, 1) {
			return nil
		}
	} else {
		var err error
		bound, y, err = s.relax(lo, hi, free, fixedObj)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return nil
		case err != nil:
			// Fall back to the trivial bound and branch without LP guidance.
			bound = fixedObj
			for _, j := range free {
				bound += math.Min(0, s.c[j])
			}
			y = nil
		}
	}
	if s.best != nil && bound >= s.bestVal-s.eps() {
		return nil
	}

	branch, prefer := -1, int8(0)
	if y != nil {
		worst := intTol
		for k, j := range free {
			if d := math.Min(y[k], 1-y[k]); d > worst {
				worst, branch = d, j
				if y[k] >= 0.5 {
					prefer = 1
				} else {
					prefer = 0
				}
			}
		}
		if branch < 0 {
			x := make([]float64, len(lo))
			for j := range lo {
				x[j] = float64(lo[j])
			}
			for k, j := range free {
				x[j] = math.Round(y[k])
			}
			if s.offer(x) {
				return nil
			}
		}
	}
	if branch < 0 {
		// Dive on the most attractive free variable.
		branch = free[0]
		for _, j := range free[1:] {
			if s.c[j] < s.c[branch] {
				branch = j
			}
		}
		prefer = 0
		if s.c[branch] < 0 {
			prefer = 1
		}
	}
	return []node{child(nd, branch, 1-prefer), child(nd, branch, prefer)}
}

func child(nd node, j int, val int8) node {
	c := node{lo: append([]int8(nil), nd.lo...), hi: append([]int8(nil), nd.hi...)}
	c.lo[j], c.hi[j] = val, val
	return c
}

// propagate tightens bounds from row activities until nothing changes. It
// returns false when some row can no longer be satisfied.
func (s *search) propagate(lo, hi []int8) bool {
	for changed := true; changed; {
		changed = false
		for _, r := range s.rows {
			var minAct float64
			for k, j := range r.vars {
				if a := r.coef[k]; a > 0 {
					minAct += a * float64(lo[j])
				} else {
					minAct += a * float64(hi[j])
				}
			}
			if minAct > r.rhs+feasTol {
				return false
			}
			for k, j := range r.vars {
				if lo[j] == hi[j] {
					continue
				}
				a := r.coef[k]
				if a > 0 && minAct+a > r.rhs+feasTol {
					hi[j] = 0
					changed = true
				} else if a < 0 && minAct-a > r.rhs+feasTol {
					lo[j] = 1
					changed = true
				}
			}
		}
	}
	return true
}

// relax builds the node's LP in standard form over the free variables y:
//
//	y_k + t_k = 1                     for every free variable
//	Σ a·y + s_i = rhs_i - fixed_i     for every row still binding
//
// and returns its optimum shifted by the contribution of fixed variables.
func (s *search) relax(lo, hi []int8, free []int, fixedObj float64) (float64, []float64, error) {
	pos := make(map[int]int, len(free))
	for k, j := range free {
		pos[j] = k
	}
	type kept struct {
		row leRow
		rhs float64
	}
	var rows []kept
	for _, r := range s.rows {
		var fixed, maxAct float64
		hasFree := false
		for k, j := range r.vars {
			a := r.coef[k]
			if lo[j] == hi[j] {
				fixed += a * float64(lo[j])
				continue
			}
			hasFree = true
			if a > 0 {
				maxAct += a
			}
		}
		if !hasFree || fixed+maxAct <= r.rhs+feasTol {
			continue
		}
		rows = append(rows, kept{row: r, rhs: r.rhs - fixed})
	}

	nf, nr := len(free), len(rows)
	A := mat.NewDense(nf+nr, 2*nf+nr, nil)
	b := make([]float64, nf+nr)
	c := make([]float64, 2*nf+nr)
	for k, j := range free {
		A.Set(k, k, 1)
		A.Set(k, nf+k, 1)
		b[k] = 1
		c[k] = s.c[j]
	}
	for i, kr := range rows {
		row := nf + i
		for k, j := range kr.row.vars {
			if col, ok := pos[j]; ok {
				A.Set(row, col, kr.row.coef[k])
			}
		}
		A.Set(row, 2*nf+i, 1)
		b[row] = kr.rhs
	}
	opt, x, err := solveRelaxation(c, A, b, s.tol)
	if err != nil {
		return 0, nil, err
	}
	return fixedObj + opt, x[:nf], nil
}

// offer records x as the incumbent if it is feasible and improves on it.
func (s *search) offer(x []float64) bool {
	if !s.p.Feasible(x, feasTol) {
		return false
	}
	var val float64
	for j, v := range x {
		val += s.c[j] * v
	}
	if s.best == nil || val < s.bestVal-s.eps() {
		s.best, s.bestVal = x, val
	}
	return true
}

func (s *search) eps() float64 {
	return 1e-9 * (1 + math.Abs(s.bestVal))
}
