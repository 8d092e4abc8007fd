package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *Pool {
	t.Helper()
	p, err := NewPool([]Player{
		{ID: Composite("Alpha"), Score: 38, Cost: 20},
		{ID: Individual("A"), Score: 20, Cost: 10},
		{ID: Individual("B"), Score: 18, Cost: 12},
		{ID: Individual("C"), Score: 15, Cost: 8},
	})
	require.NoError(t, err)
	return p
}

func TestNewPool_OrdersIndividualsFirst(t *testing.T) {
	p := testPool(t)
	assert.Equal(t, []PlayerID{Individual("A"), Individual("B"), Individual("C"), Composite("Alpha")}, p.IDs())
	assert.Len(t, p.Individuals(), 3)
	assert.Len(t, p.Composites(), 1)
	pl, ok := p.Get(Composite("Alpha"))
	require.True(t, ok)
	assert.Equal(t, 38.0, pl.Score)
	assert.False(t, p.Has(Composite("A")), "kind is part of identity")
}

func TestNewPool_Duplicate(t *testing.T) {
	_, err := NewPool([]Player{{ID: Individual("A")}, {ID: Individual("A")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicatePlayer))
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestConstraintsValidate(t *testing.T) {
	p := testPool(t)
	turboA := Individual("A")
	alpha := Composite("Alpha")
	cases := []struct {
		name string
		c    Constraints
		want error
	}{
		{"empty", Constraints{Budget: 50}, nil},
		{"unknown include", Constraints{Include: []PlayerID{Individual("Z")}}, ErrUnknownPlayer},
		{"include and exclude", Constraints{Include: []PlayerID{turboA}, Exclude: []PlayerID{turboA}}, ErrConflictingOverride},
		{"turbo excluded", Constraints{Exclude: []PlayerID{turboA}, Turbo: &turboA}, ErrConflictingOverride},
		{"turbo no-turbo", Constraints{NoTurbo: []PlayerID{turboA}, Turbo: &turboA}, ErrConflictingOverride},
		{"turbo composite", Constraints{Turbo: &alpha}, ErrConflictingOverride},
		{"no-turbo composite", Constraints{NoTurbo: []PlayerID{alpha}}, ErrConflictingOverride},
		{"turbo included", Constraints{Include: []PlayerID{turboA}, Turbo: &turboA}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate(p)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "unknown_player", ErrorKind(&UnknownPlayerError{Name: "x"}))
	assert.Equal(t, "incomplete_roster", ErrorKind(&IncompleteRosterError{}))
	assert.Equal(t, "conflicting_override", ErrorKind(&ConflictingOverrideError{Reason: "r"}))
	assert.Equal(t, "invalid_request", ErrorKind(&InvalidRequestError{Field: "budget"}))
	inf := &InfeasibleError{Iteration: 3, Found: 2}
	assert.Equal(t, "infeasible", ErrorKind(inf))
	assert.False(t, errors.Is(inf, ErrInvalidRequest))
	assert.Equal(t, "", ErrorKind(errors.New("boom")))
}

func TestSelectionKeyIgnoresOrder(t *testing.T) {
	a := Selection{Individual("A"), Individual("B"), Composite("Alpha")}
	b := Selection{Composite("Alpha"), Individual("B"), Individual("A")}
	assert.Equal(t, a.Key(), b.Key())
	c := Selection{Individual("A"), Individual("B"), Individual("Alpha")}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestLineupJSON(t *testing.T) {
	l := Lineup{
		Individuals: []PlayerID{Individual("A"), Individual("C")},
		Composite:   Composite("Alpha"),
		Turbo:       Individual("C"),
		TotalCost:   38,
		TotalScore:  73,
		Objective:   88,
	}
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"drivers":["A","C"],"constructor":"Alpha","turbo":"C","cost":38,"score":73,"objective":88}`, string(b))
	var back Lineup
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, l, back)
	assert.True(t, l.Contains(Composite("Alpha")))
	assert.False(t, l.Contains(Individual("B")))
}

func TestRequestDecode(t *testing.T) {
	var r Request
	err := json.Unmarshal([]byte(`{"driver_scores":[{"id":"A","score":1.5}],"budget":100,
		"overrides":[{"id":"A","override":"TURBO"},{"id":"B","override":"no_turbo"}]}`), &r)
	require.NoError(t, err)
	assert.True(t, r.TeammatesAllowed())
	assert.Equal(t, OverrideTurbo, r.Overrides[0].Override)
	assert.Equal(t, OverrideNoTurbo, r.Overrides[1].Override)

	err = json.Unmarshal([]byte(`{"overrides":[{"id":"A","override":"MAYBE"}]}`), &r)
	assert.Error(t, err)
}
