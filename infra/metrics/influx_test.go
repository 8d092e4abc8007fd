package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/lineup/core/metrics"
)

// lineServer captures the line protocol bodies written to it.
type lineServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(b)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *lineServer) Bodies() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func TestInfluxSink_RecordSolve(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.SolveEvent{
		RequestID: "r1",
		Iteration: 2,
		Backend:   "branch_and_bound",
		Outcome:   "optimal",
		Nodes:     17,
		Objective: 129.00049,
		Duration:  1500 * time.Microsecond,
		Time:      now,
	}
	if err := sink.RecordSolve(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("lineup_solve").
		AddTag("backend", "branch_and_bound").
		AddTag("outcome", "optimal").
		AddTag("request_id", "r1").
		AddField("iteration", 2).
		AddField("nodes", 17).
		AddField("objective", 129.0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if bodies := srv.Bodies(); len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordRequest(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.RequestEvent{
		RequestID: "r2",
		Source:    "http",
		Outcome:   "infeasible",
		Requested: 5,
		Returned:  0,
		Duration:  2 * time.Second,
		Time:      now,
	}
	if err := sink.RecordRequest(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("lineup_request").
		AddTag("source", "http").
		AddTag("outcome", "infeasible").
		AddTag("request_id", "r2").
		AddField("requested", 5).
		AddField("returned", 0).
		AddField("best_score", 0.0).
		AddField("duration_ms", 2000.0).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if bodies := srv.Bodies(); len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestNewInfluxSinkWithFallback_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "tok", Org: "org", Bucket: "bucket"})
	is, ok := sink.(*InfluxSink)
	if !ok {
		t.Fatalf("expected InfluxSink, got %T", sink)
	}
	is.Close()
}
