package optimizer

import (
	"fmt"

	"github.com/kilianp07/lineup/core/ilp"
	"github.com/kilianp07/lineup/core/model"
)

// lineupModel is the integer program for one solve together with the mapping
// from players to its variables.
type lineupModel struct {
	prob   *ilp.Problem
	pool   *model.Pool
	sel    map[model.PlayerID]ilp.Var
	turbo  map[model.PlayerID]ilp.Var
	budget float64
}

// formulate builds the model. Every player gets a selection variable and every
// driver a turbo variable; the objective counts a driver's score once when
// selected and once more when it is also the turbo pick.
func formulate(pool *model.Pool, cons model.Constraints, pairings []model.Pairing, threshold float64, exclusions []model.Selection) (*lineupModel, error) {
	m := &lineupModel{
		prob:   ilp.NewProblem(ilp.Maximize),
		pool:   pool,
		sel:    make(map[model.PlayerID]ilp.Var, pool.Len()),
		turbo:  make(map[model.PlayerID]ilp.Var),
		budget: cons.Budget,
	}
	var drivers, constructors, budget, turbos []ilp.Term
	for _, pl := range pool.Players() {
		v := m.prob.AddBinary("select:"+pl.ID.Name, pl.Score)
		m.sel[pl.ID] = v
		budget = append(budget, ilp.Term{Var: v, Coef: pl.Cost})
		switch pl.ID.Kind {
		case model.KindIndividual:
			drivers = append(drivers, ilp.Term{Var: v, Coef: 1})
			t := m.prob.AddBinary("turbo:"+pl.ID.Name, pl.Score)
			m.turbo[pl.ID] = t
			turbos = append(turbos, ilp.Term{Var: t, Coef: 1})
		case model.KindComposite:
			constructors = append(constructors, ilp.Term{Var: v, Coef: 1})
		}
	}
	m.prob.AddConstraint("drivers", drivers, ilp.Equal, model.LineupIndividuals)
	m.prob.AddConstraint("constructors", constructors, ilp.Equal, model.LineupComposites)
	m.prob.AddConstraint("budget", budget, ilp.LessEq, cons.Budget)
	m.prob.AddConstraint("turbo", turbos, ilp.Equal, 1)

	if !cons.AllowTeammates {
		for _, p := range pairings {
			a, okA := m.sel[p.First]
			b, okB := m.sel[p.Second]
			if !okA || !okB {
				continue
			}
			m.prob.AddConstraint("teammates:"+p.Composite.Name, []ilp.Term{{Var: a, Coef: 1}, {Var: b, Coef: 1}}, ilp.LessEq, 1)
		}
	}
	for _, id := range cons.Include {
		v, err := m.selVar(id)
		if err != nil {
			return nil, err
		}
		m.prob.Fix(v, 1)
	}
	for _, id := range cons.Exclude {
		v, err := m.selVar(id)
		if err != nil {
			return nil, err
		}
		m.prob.Fix(v, 0)
	}

	if cons.Turbo != nil {
		t, ok := m.turbo[*cons.Turbo]
		if !ok {
			return nil, &model.UnknownPlayerError{Name: cons.Turbo.Name, Reason: "turbo pick is not a driver in the pool"}
		}
		m.prob.Fix(t, 1)
		m.prob.Fix(m.sel[*cons.Turbo], 1)
	} else {
		noTurbo := make(map[model.PlayerID]bool, len(cons.NoTurbo))
		for _, id := range cons.NoTurbo {
			noTurbo[id] = true
		}
		for _, pl := range pool.Individuals() {
			t := m.turbo[pl.ID]
			if pl.Cost < threshold && !noTurbo[pl.ID] {
				m.prob.AddConstraint("turbo_requires_select:"+pl.ID.Name,
					[]ilp.Term{{Var: t, Coef: 1}, {Var: m.sel[pl.ID], Coef: -1}}, ilp.LessEq, 0)
				continue
			}
			m.prob.Fix(t, 0)
		}
	}

	for i, s := range exclusions {
		terms := make([]ilp.Term, 0, len(s))
		for _, id := range s {
			v, err := m.selVar(id)
			if err != nil {
				return nil, err
			}
			terms = append(terms, ilp.Term{Var: v, Coef: 1})
		}
		m.prob.AddConstraint(fmt.Sprintf("exclude_solution:%d", i), terms, ilp.LessEq, float64(len(s)-1))
	}
	m.prob.SetBound(newLineupBound(m).bound)
	return m, nil
}

func (m *lineupModel) selVar(id model.PlayerID) (ilp.Var, error) {
	v, ok := m.sel[id]
	if !ok {
		return 0, &model.UnknownPlayerError{Name: id.Name, Reason: "not in player pool"}
	}
	return v, nil
}

// extract reads the lineup off an optimal assignment. Totals are plain sums of
// the six selected players; the turbo bonus is only part of Objective.
func (m *lineupModel) extract(sol *ilp.Solution) (model.Lineup, error) {
	var l model.Lineup
	var composites, turbos int
	for _, pl := range m.pool.Players() {
		if !sol.IsSet(m.sel[pl.ID]) {
			continue
		}
		l.TotalCost += pl.Cost
		l.TotalScore += pl.Score
		if pl.ID.IsComposite() {
			l.Composite = pl.ID
			composites++
			continue
		}
		l.Individuals = append(l.Individuals, pl.ID)
	}
	for _, id := range l.Individuals {
		if sol.IsSet(m.turbo[id]) {
			l.Turbo = id
			turbos++
		}
	}
	for id, t := range m.turbo {
		if sol.IsSet(t) && !sol.IsSet(m.sel[id]) {
			return model.Lineup{}, fmt.Errorf("%w: turbo %s is not selected", ErrSolverFault, id)
		}
	}
	if len(l.Individuals) != model.LineupIndividuals || composites != model.LineupComposites || turbos != 1 {
		return model.Lineup{}, fmt.Errorf("%w: %d drivers, %d constructors, %d turbo picks",
			ErrSolverFault, len(l.Individuals), composites, turbos)
	}
	if l.TotalCost > m.budget+1e-6 {
		return model.Lineup{}, fmt.Errorf("%w: cost %g exceeds budget %g", ErrSolverFault, l.TotalCost, m.budget)
	}
	l.Objective = sol.Objective
	return l, nil
}
