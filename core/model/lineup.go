package model

import (
	"encoding/json"
	"sort"
	"strings"
)

const (
	// LineupIndividuals is the number of drivers in every lineup.
	LineupIndividuals = 5
	// LineupComposites is the number of constructors in every lineup.
	LineupComposites = 1
)

// Lineup is one solved roster. TotalScore is the plain sum of the six base
// scores; the turbo bonus only shows up in Objective.
type Lineup struct {
	Individuals []PlayerID `json:"drivers"`
	Composite   PlayerID   `json:"constructor"`
	Turbo       PlayerID   `json:"turbo"`
	TotalCost   float64    `json:"cost"`
	TotalScore  float64    `json:"score"`
	Objective   float64    `json:"objective"`
}

// UnmarshalJSON restores the variant tags from the position of each name.
func (l *Lineup) UnmarshalJSON(b []byte) error {
	var w struct {
		Drivers     []string `json:"drivers"`
		Constructor string   `json:"constructor"`
		Turbo       string   `json:"turbo"`
		Cost        float64  `json:"cost"`
		Score       float64  `json:"score"`
		Objective   float64  `json:"objective"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*l = Lineup{
		Individuals: make([]PlayerID, len(w.Drivers)),
		Composite:   Composite(w.Constructor),
		Turbo:       Individual(w.Turbo),
		TotalCost:   w.Cost,
		TotalScore:  w.Score,
		Objective:   w.Objective,
	}
	for i, name := range w.Drivers {
		l.Individuals[i] = Individual(name)
	}
	return nil
}

// Selection returns the six selected entities of the lineup.
func (l Lineup) Selection() Selection {
	s := make(Selection, 0, len(l.Individuals)+1)
	s = append(s, l.Individuals...)
	return append(s, l.Composite)
}

// Contains reports whether id is among the selected entities.
func (l Lineup) Contains(id PlayerID) bool {
	if l.Composite == id {
		return true
	}
	for _, ind := range l.Individuals {
		if ind == id {
			return true
		}
	}
	return false
}

// Selection is the set of entities chosen by one lineup. It is the unit
// recorded in a solution exclusion set.
type Selection []PlayerID

// Key returns an order-independent identifier of the set.
func (s Selection) Key() string {
	names := make([]string, len(s))
	for i, id := range s {
		names[i] = id.Kind.String() + ":" + id.Name
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
