package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kilianp07/lineup/core/model"
)

type recordSink struct {
	solves, requests int
	err              error
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.solves++
	return r.err
}

func (r *recordSink) RecordRequest(RequestEvent) error {
	r.requests++
	return nil
}

type solveOnly struct{ n int }

func (s *solveOnly) RecordSolve(SolveEvent) error { s.n++; return nil }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{err: errors.New("down")}
	s3 := &solveOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordSolve(SolveEvent{}); err == nil {
		t.Fatal("expected error from failing sink")
	}
	if err := m.RecordRequest(RequestEvent{}); err != nil {
		t.Fatalf("record request: %v", err)
	}
	if s1.solves != 1 || s2.solves != 1 || s3.n != 1 {
		t.Fatalf("solve not forwarded to every sink")
	}
	if s1.requests != 1 || s2.requests != 1 {
		t.Fatalf("request not forwarded")
	}
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOptimal},
		{fmt.Errorf("solve: %w", context.DeadlineExceeded), OutcomeTimeout},
		{context.Canceled, OutcomeCanceled},
		{&model.InfeasibleError{}, "infeasible"},
		{&model.UnknownPlayerError{Name: "x"}, "unknown_player"},
		{errors.New("boom"), OutcomeError},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Errorf("Outcome(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
