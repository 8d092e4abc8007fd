package optimizer

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineup/core/assembler"
	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/model"
)

type driver struct {
	name        string
	cost, score float64
}

// sixDrivers is the A..F fixture with a single constructor made of A and B.
var sixDrivers = []driver{
	{"A", 10, 20}, {"B", 12, 18}, {"C", 8, 15},
	{"D", 9, 14}, {"E", 7, 10}, {"F", 11, 12},
}

var eightDrivers = append(append([]driver(nil), sixDrivers...), driver{"G", 22, 25}, driver{"H", 5, 4})

func buildCatalog(t *testing.T, threshold float64, drivers []driver, constructors ...catalog.ConstructorDef) *catalog.Catalog {
	t.Helper()
	def := catalog.Definition{TurboThreshold: threshold, Constructors: constructors}
	for _, d := range drivers {
		def.Drivers = append(def.Drivers, catalog.DriverDef{Name: d.name, Cost: d.cost})
	}
	c, err := catalog.New(def)
	require.NoError(t, err)
	return c
}

func sixDriverCatalog(t *testing.T, threshold float64) *catalog.Catalog {
	return buildCatalog(t, threshold, sixDrivers, catalog.ConstructorDef{Name: "AB", Cost: 20, Drivers: []string{"A", "B"}})
}

func eightDriverCatalog(t *testing.T) *catalog.Catalog {
	return buildCatalog(t, 20, eightDrivers,
		catalog.ConstructorDef{Name: "AB", Cost: 20, Drivers: []string{"A", "B"}},
		catalog.ConstructorDef{Name: "CD", Cost: 15, Drivers: []string{"C", "D"}},
		catalog.ConstructorDef{Name: "GH", Cost: 18, Drivers: []string{"G", "H"}},
	)
}

func scores(drivers []driver) []model.DriverScore {
	out := make([]model.DriverScore, len(drivers))
	for i, d := range drivers {
		out[i] = model.DriverScore{ID: d.name, Score: d.score}
	}
	return out
}

func assemble(t *testing.T, cat *catalog.Catalog, req model.Request) (*model.Pool, model.Constraints) {
	t.Helper()
	pool, cons, err := assembler.Assemble(cat, req)
	require.NoError(t, err)
	return pool, cons
}

func boolPtr(b bool) *bool { return &b }

type candidate struct {
	key       string
	objective float64
}

// enumerate lists every feasible selection with the objective of its best
// turbo pick, best first.
func enumerate(cat *catalog.Catalog, pool *model.Pool, cons model.Constraints) []candidate {
	inds := pool.Individuals()
	in := func(set []model.PlayerID, id model.PlayerID) bool {
		for _, x := range set {
			if x == id {
				return true
			}
		}
		return false
	}
	var out []candidate
	n := len(inds)
	for mask := 0; mask < 1<<n; mask++ {
		var chosen []model.Player
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				chosen = append(chosen, inds[i])
			}
		}
		if len(chosen) != model.LineupIndividuals {
			continue
		}
		for _, comp := range pool.Composites() {
			players := append(append([]model.Player(nil), chosen...), comp)
			sel := make(model.Selection, len(players))
			var cost, score float64
			for i, p := range players {
				sel[i] = p.ID
				cost += p.Cost
				score += p.Score
			}
			if cost > cons.Budget+1e-9 {
				continue
			}
			ok := true
			for _, id := range cons.Include {
				ok = ok && in(sel, id)
			}
			for _, id := range cons.Exclude {
				ok = ok && !in(sel, id)
			}
			if !cons.AllowTeammates {
				for _, p := range cat.Pairings() {
					ok = ok && !(in(sel, p.First) && in(sel, p.Second))
				}
			}
			if !ok {
				continue
			}
			bonus, eligible := 0.0, false
			for _, d := range chosen {
				switch {
				case cons.Turbo != nil:
					if d.ID == *cons.Turbo {
						bonus, eligible = d.Score, true
					}
				case d.Cost < cat.TurboThreshold() && !in(cons.NoTurbo, d.ID):
					if !eligible || d.Score > bonus {
						bonus, eligible = d.Score, true
					}
				}
			}
			if !eligible {
				continue
			}
			out = append(out, candidate{key: sel.Key(), objective: score + bonus})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].objective > out[j].objective })
	return out
}
