package model

import (
	"fmt"
	"strings"
)

// Constraints restricts the lineups a solve may return. Nil slices and a nil
// Turbo mean the override is unset and adds no constraint.
type Constraints struct {
	Budget         float64
	AllowTeammates bool
	Include        []PlayerID
	Exclude        []PlayerID
	NoTurbo        []PlayerID
	Turbo          *PlayerID
}

// Validate checks that every referenced player exists in pool and that the
// override sets are mutually consistent.
func (c Constraints) Validate(pool *Pool) error {
	for _, set := range [][]PlayerID{c.Include, c.Exclude, c.NoTurbo} {
		for _, id := range set {
			if !pool.Has(id) {
				return &UnknownPlayerError{Name: id.Name, Reason: "not in player pool"}
			}
		}
	}
	for _, id := range c.NoTurbo {
		if !id.IsIndividual() {
			return &ConflictingOverrideError{IDs: []PlayerID{id}, Reason: "no-turbo applies to drivers only"}
		}
	}
	excluded := make(map[PlayerID]struct{}, len(c.Exclude))
	for _, id := range c.Exclude {
		excluded[id] = struct{}{}
	}
	for _, id := range c.Include {
		if _, ok := excluded[id]; ok {
			return &ConflictingOverrideError{IDs: []PlayerID{id}, Reason: "both included and excluded"}
		}
	}
	if c.Turbo == nil {
		return nil
	}
	t := *c.Turbo
	if !pool.Has(t) {
		return &UnknownPlayerError{Name: t.Name, Reason: "not in player pool"}
	}
	if !t.IsIndividual() {
		return &ConflictingOverrideError{IDs: []PlayerID{t}, Reason: "turbo applies to drivers only"}
	}
	if _, ok := excluded[t]; ok {
		return &ConflictingOverrideError{IDs: []PlayerID{t}, Reason: "turbo driver is excluded"}
	}
	for _, id := range c.NoTurbo {
		if id == t {
			return &ConflictingOverrideError{IDs: []PlayerID{t}, Reason: "turbo driver is marked no-turbo"}
		}
	}
	return nil
}

// String renders the constraints for logs and error messages.
func (c Constraints) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "budget=%g teammates=%t", c.Budget, c.AllowTeammates)
	writeSet := func(name string, ids []PlayerID) {
		if ids == nil {
			return
		}
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = id.Name
		}
		fmt.Fprintf(&b, " %s=[%s]", name, strings.Join(names, ","))
	}
	writeSet("include", c.Include)
	writeSet("exclude", c.Exclude)
	writeSet("no_turbo", c.NoTurbo)
	if c.Turbo != nil {
		fmt.Fprintf(&b, " turbo=%s", c.Turbo.Name)
	}
	return b.String()
}
