// Package ilp models small binary integer programs and solves them.
//
// A Problem holds binary variables, a linear objective and linear
// constraints. Solvers return either a proven optimum or an error; they never
// return a partial assignment.
package ilp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// SearchError reports a search that ended without an optimal assignment.
// Nodes is the number of nodes explored before it stopped.
type SearchError struct {
	Err   error
	Nodes int
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%v after %d nodes", e.Err, e.Nodes)
}

func (e *SearchError) Unwrap() error { return e.Err }

var (
	// ErrInfeasible is returned when no assignment satisfies the constraints.
	ErrInfeasible = errors.New("ilp: problem is infeasible")
	// ErrNodeLimit is returned when the search gave up before proving optimality.
	ErrNodeLimit = errors.New("ilp: node limit reached")
)

// Solver finds an optimal assignment of a Problem.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// Direction selects whether the objective is maximised or minimised.
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

// Sense is the relation of a constraint's left-hand side to its right-hand side.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "="
	case GreaterEq:
		return ">="
	default:
		return "?"
	}
}

// Var indexes a binary variable of a Problem.
type Var int

// Term is one coefficient of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is Σ Terms Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a binary integer program. The zero value is not usable; create
// problems with NewProblem.
type Problem struct {
	dir    Direction
	names  []string
	obj    []float64
	lo, hi []int8
	cons   []Constraint
	bound  BoundFunc
}

// NewProblem returns an empty problem optimised in the given direction.
func NewProblem(dir Direction) *Problem {
	return &Problem{dir: dir}
}

// AddBinary adds a 0/1 variable with the given objective coefficient.
func (p *Problem) AddBinary(name string, obj float64) Var {
	p.names = append(p.names, name)
	p.obj = append(p.obj, obj)
	p.lo = append(p.lo, 0)
	p.hi = append(p.hi, 1)
	return Var(len(p.obj) - 1)
}

// Fix restricts v to val (0 or 1). Fixing a variable to both values makes the
// problem infeasible.
func (p *Problem) Fix(v Var, val int) {
	if val != 0 {
		p.lo[v] = 1
		return
	}
	p.hi[v] = 0
}

// AddConstraint appends a linear constraint.
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	p.cons = append(p.cons, Constraint{Name: name, Terms: append([]Term(nil), terms...), Sense: sense, RHS: rhs})
}

// Domain holds the values every variable may still take at one search node.
type Domain struct {
	lo, hi []int8
}

// Lower returns the smallest value v may take.
func (d Domain) Lower(v Var) int { return int(d.lo[v]) }

// Upper returns the largest value v may take.
func (d Domain) Upper(v Var) int { return int(d.hi[v]) }

// BoundFunc returns an optimistic objective for d: no assignment inside d that
// satisfies the constraints does better. It returns math.Inf(-1) when
// maximising, or math.Inf(1) when minimising, if d holds no such assignment.
type BoundFunc func(d Domain) float64

// SetBound installs a problem-specific bound. BranchAndBound uses it at every
// node instead of solving the LP relaxation.
func (p *Problem) SetBound(f BoundFunc) { p.bound = f }

// Direction returns the optimisation direction.
func (p *Problem) Direction() Direction { return p.dir }

// NumVars returns the number of variables.
func (p *Problem) NumVars() int { return len(p.obj) }

// NumConstraints returns the number of constraints.
func (p *Problem) NumConstraints() int { return len(p.cons) }

// Name returns the name given to v.
func (p *Problem) Name(v Var) string { return p.names[v] }

// Constraints returns the constraints in insertion order.
func (p *Problem) Constraints() []Constraint { return p.cons }

// Objective evaluates the objective at x.
func (p *Problem) Objective(x []float64) float64 {
	var sum float64
	for j, c := range p.obj {
		sum += c * x[j]
	}
	return sum
}

// Feasible reports whether x satisfies every bound and constraint within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	for j := range p.obj {
		if x[j] < float64(p.lo[j])-tol || x[j] > float64(p.hi[j])+tol {
			return false
		}
	}
	for _, c := range p.cons {
		var act float64
		for _, t := range c.Terms {
			act += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			if act > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if act < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(act-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}

func (p *Problem) validate() error {
	for _, c := range p.cons {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("ilp: constraint %s has non-finite rhs", c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || int(t.Var) >= len(p.obj) {
				return fmt.Errorf("ilp: constraint %s references unknown variable %d", c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("ilp: constraint %s has non-finite coefficient", c.Name)
			}
		}
	}
	for j, c := range p.obj {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("ilp: variable %s has non-finite objective", p.names[j])
		}
	}
	return nil
}

// Solution is an optimal assignment.
type Solution struct {
	Objective float64
	Values    []float64
	// Nodes is the number of search nodes explored.
	Nodes int
}

// IsSet reports whether v takes the value 1.
func (s *Solution) IsSet(v Var) bool { return s.Values[v] > 0.5 }
