package optimizer

import (
	"cmp"
	"math"
	"slices"

	"github.com/kilianp07/lineup/core/ilp"
	"github.com/kilianp07/lineup/core/model"
)

const boundTol = 1e-6

type boundItem struct {
	v           ilp.Var
	cost, score float64
}

type priced struct {
	val, cost float64
}

// lineupBound bounds the best lineup reachable from a search node. It keeps
// the roster sizes and the budget, moving the budget into the objective with
// a multiplier, and adds the largest turbo bonus still on offer. Teammate and
// exclusion rows are left out, so the result is never below the true optimum.
type lineupBound struct {
	individuals []boundItem
	composites  []boundItem
	turbos      []boundItem
	budget      float64

	freeInd, freeComp []boundItem
	scratch           []priced
}

func newLineupBound(m *lineupModel) *lineupBound {
	b := &lineupBound{budget: m.budget}
	for _, pl := range m.pool.Players() {
		it := boundItem{v: m.sel[pl.ID], cost: pl.Cost, score: pl.Score}
		if pl.ID.IsComposite() {
			b.composites = append(b.composites, it)
			continue
		}
		b.individuals = append(b.individuals, it)
		b.turbos = append(b.turbos, boundItem{v: m.turbo[pl.ID], score: pl.Score})
	}
	return b
}

// bound implements ilp.BoundFunc for a maximisation problem.
func (b *lineupBound) bound(d ilp.Domain) float64 {
	infeasible := math.Inf(-1)
	bonus, ok := b.turboBonus(d)
	if !ok {
		return infeasible
	}

	var fixedScore, fixedCost float64
	needInd, needComp := model.LineupIndividuals, model.LineupComposites
	b.freeInd, needInd, fixedScore, fixedCost = split(d, b.individuals, b.freeInd[:0], needInd, fixedScore, fixedCost)
	b.freeComp, needComp, fixedScore, fixedCost = split(d, b.composites, b.freeComp[:0], needComp, fixedScore, fixedCost)
	if needInd < 0 || needComp < 0 || needInd > len(b.freeInd) || needComp > len(b.freeComp) {
		return infeasible
	}
	rem := b.budget - fixedCost
	if cheapest(b.freeInd, needInd)+cheapest(b.freeComp, needComp) > rem+boundTol {
		return infeasible
	}

	// Every multiplier gives a valid bound; bisect towards the one where the
	// chosen completion just fits the remaining budget.
	lagrangian := func(lambda float64) (float64, float64) {
		vi, ci := b.top(b.freeInd, needInd, lambda)
		vc, cc := b.top(b.freeComp, needComp, lambda)
		return lambda*rem + vi + vc, ci + cc
	}
	best, cost := lagrangian(0)
	if cost > rem+boundTol {
		lo, hi := 0.0, 1.0
		for i := 0; i < 64; i++ {
			v, c := lagrangian(hi)
			best = math.Min(best, v)
			if c <= rem+boundTol {
				break
			}
			lo, hi = hi, 2*hi
		}
		for i := 0; i < 40 && hi-lo > 1e-9*(1+hi); i++ {
			mid := (lo + hi) / 2
			v, c := lagrangian(mid)
			best = math.Min(best, v)
			if c > rem+boundTol {
				lo = mid
			} else {
				hi = mid
			}
		}
	}
	return fixedScore + best + bonus
}

// split sorts items into fixed-in and free, counting the fixed ones against
// need.
func split(d ilp.Domain, items, free []boundItem, need int, score, cost float64) ([]boundItem, int, float64, float64) {
	for _, it := range items {
		switch {
		case d.Lower(it.v) == 1:
			need--
			score += it.score
			cost += it.cost
		case d.Upper(it.v) == 1:
			free = append(free, it)
		}
	}
	return free, need, score, cost
}

// turboBonus is the largest turbo score still allowed, or the score of the
// turbo pick already fixed.
func (b *lineupBound) turboBonus(d ilp.Domain) (float64, bool) {
	bonus, ok := math.Inf(-1), false
	for _, t := range b.turbos {
		if d.Lower(t.v) == 1 {
			return t.score, true
		}
		if d.Upper(t.v) == 1 && t.score > bonus {
			bonus, ok = t.score, true
		}
	}
	return bonus, ok
}

func cheapest(items []boundItem, k int) float64 {
	if k == 0 {
		return 0
	}
	costs := make([]float64, len(items))
	for i, it := range items {
		costs[i] = it.cost
	}
	slices.Sort(costs)
	var sum float64
	for _, c := range costs[:k] {
		sum += c
	}
	return sum
}

// top picks the k items with the best score less lambda times cost and
// returns that reduced value and their cost.
func (b *lineupBound) top(items []boundItem, k int, lambda float64) (float64, float64) {
	if k == 0 {
		return 0, 0
	}
	b.scratch = b.scratch[:0]
	for _, it := range items {
		b.scratch = append(b.scratch, priced{val: it.score - lambda*it.cost, cost: it.cost})
	}
	slices.SortFunc(b.scratch, func(x, y priced) int {
		if c := cmp.Compare(y.val, x.val); c != 0 {
			return c
		}
		return cmp.Compare(x.cost, y.cost)
	})
	var val, cost float64
	for _, p := range b.scratch[:k] {
		val += p.val
		cost += p.cost
	}
	return val, cost
}
