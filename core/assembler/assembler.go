// Package assembler turns a raw lineup request into a player pool and a
// validated set of constraints.
package assembler

import (
	"math"

	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/model"
)

// Assemble resolves the request against cat. It fails before any solving is
// attempted when the request names unknown players, omits a score needed by a
// constructor, or carries overrides that contradict each other.
func Assemble(cat *catalog.Catalog, req model.Request) (*model.Pool, model.Constraints, error) {
	if !(req.Budget > 0) || math.IsInf(req.Budget, 0) {
		return nil, model.Constraints{}, &model.InvalidRequestError{Field: "budget", Reason: "must be a positive number"}
	}
	scores, err := resolveScores(cat, req.DriverScores)
	if err != nil {
		return nil, model.Constraints{}, err
	}

	players := make([]model.Player, 0, len(scores)+len(cat.Composites()))
	for _, id := range cat.Individuals() {
		score, ok := scores[id]
		if !ok {
			continue
		}
		cost, _ := cat.Cost(id)
		players = append(players, model.Player{ID: id, Score: score, Cost: cost})
	}
	for _, p := range cat.Pairings() {
		var sum float64
		for _, m := range p.Members() {
			s, ok := scores[m]
			if !ok {
				return nil, model.Constraints{}, &model.IncompleteRosterError{Composite: p.Composite, Missing: m}
			}
			sum += s
		}
		cost, _ := cat.Cost(p.Composite)
		players = append(players, model.Player{ID: p.Composite, Score: sum, Cost: cost})
	}
	pool, err := model.NewPool(players)
	if err != nil {
		return nil, model.Constraints{}, err
	}

	cons, err := partitionOverrides(cat, pool, req.Overrides)
	if err != nil {
		return nil, model.Constraints{}, err
	}
	cons.Budget = req.Budget
	cons.AllowTeammates = req.TeammatesAllowed()
	if err := cons.Validate(pool); err != nil {
		return nil, model.Constraints{}, err
	}
	return pool, cons, nil
}

func resolveScores(cat *catalog.Catalog, in []model.DriverScore) (map[model.PlayerID]float64, error) {
	scores := make(map[model.PlayerID]float64, len(in))
	for _, ds := range in {
		id, ok := cat.Resolve(ds.ID)
		if !ok {
			return nil, &model.UnknownPlayerError{Name: ds.ID, Reason: "not in catalog"}
		}
		if !id.IsIndividual() {
			return nil, &model.UnknownPlayerError{Name: ds.ID, Reason: "scores are supplied for drivers only"}
		}
		if math.IsNaN(ds.Score) || math.IsInf(ds.Score, 0) {
			return nil, &model.InvalidRequestError{Field: "driver_scores", Reason: "score of " + ds.ID + " is not finite"}
		}
		if _, dup := scores[id]; dup {
			return nil, &model.DuplicatePlayerError{ID: id}
		}
		scores[id] = ds.Score
	}
	return scores, nil
}

// partitionOverrides groups overrides by kind. Kinds without any override stay
// nil so that no vacuous constraint is generated for them.
func partitionOverrides(cat *catalog.Catalog, pool *model.Pool, in []model.PlayerOverride) (model.Constraints, error) {
	var cons model.Constraints
	seen := make(map[model.OverrideKind]map[model.PlayerID]bool)
	for _, o := range in {
		id, ok := cat.Resolve(o.ID)
		if !ok {
			return cons, &model.UnknownPlayerError{Name: o.ID, Reason: "not in catalog"}
		}
		if !pool.Has(id) {
			return cons, &model.UnknownPlayerError{Name: o.ID, Reason: "no score supplied"}
		}
		if seen[o.Override] == nil {
			seen[o.Override] = make(map[model.PlayerID]bool)
		}
		if seen[o.Override][id] {
			continue
		}
		seen[o.Override][id] = true

		switch o.Override {
		case model.OverrideInclude:
			cons.Include = append(cons.Include, id)
		case model.OverrideExclude:
			cons.Exclude = append(cons.Exclude, id)
		case model.OverrideNoTurbo:
			cons.NoTurbo = append(cons.NoTurbo, id)
		case model.OverrideTurbo:
			if cons.Turbo != nil {
				return cons, &model.ConflictingOverrideError{
					IDs:    []model.PlayerID{*cons.Turbo, id},
					Reason: "at most one turbo override is allowed",
				}
			}
			t := id
			cons.Turbo = &t
		default:
			return cons, &model.InvalidRequestError{Field: "overrides", Reason: "unknown override kind for " + o.ID}
		}
	}
	return cons, nil
}
