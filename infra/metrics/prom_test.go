package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/lineup/core/metrics"
)

func TestPromSink_RecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	for _, outcome := range []string{"optimal", "optimal", "infeasible"} {
		if err := sink.RecordSolve(coremetrics.SolveEvent{
			Backend:  "branch_and_bound",
			Outcome:  outcome,
			Nodes:    12,
			Duration: 3 * time.Millisecond,
		}); err != nil {
			t.Fatalf("record error: %v", err)
		}
	}

	expected := `
# HELP lineup_solves_total Single-lineup solves by backend and outcome
# TYPE lineup_solves_total counter
lineup_solves_total{backend="branch_and_bound",outcome="infeasible"} 1
lineup_solves_total{backend="branch_and_bound",outcome="optimal"} 2
`
	if err := testutil.CollectAndCompare(sink.solves, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.solveDuration); c != 1 {
		t.Errorf("expected one duration series, got %d", c)
	}
	if c := testutil.CollectAndCount(sink.solveNodes); c != 1 {
		t.Errorf("expected one node series, got %d", c)
	}
}

func TestPromSink_RecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordRequest(coremetrics.RequestEvent{Source: "http", Outcome: "optimal", Returned: 3, Duration: time.Second})
	_ = sink.RecordRequest(coremetrics.RequestEvent{Source: "mqtt", Outcome: "timeout", Duration: time.Second})

	if v := testutil.ToFloat64(sink.requests.WithLabelValues("http", "optimal")); v != 1 {
		t.Errorf("http optimal = %v", v)
	}
	if v := testutil.ToFloat64(sink.requests.WithLabelValues("mqtt", "timeout")); v != 1 {
		t.Errorf("mqtt timeout = %v", v)
	}
	if c := testutil.CollectAndCount(sink.lineups); c != 1 {
		t.Errorf("lineup histogram should only observe successful requests, got %d series", c)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = first.RecordSolve(coremetrics.SolveEvent{Backend: "b", Outcome: "optimal"})
	_ = second.RecordSolve(coremetrics.SolveEvent{Backend: "b", Outcome: "optimal"})
	if v := testutil.ToFloat64(first.solves.WithLabelValues("b", "optimal")); v != 2 {
		t.Fatalf("expected shared counter at 2, got %v", v)
	}
}
