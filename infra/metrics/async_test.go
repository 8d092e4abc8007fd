package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/lineup/core/metrics"
)

type recordingSink struct {
	mu       sync.Mutex
	solves   []coremetrics.SolveEvent
	requests []coremetrics.RequestEvent
	block    chan struct{}
	err      error
}

func (r *recordingSink) RecordSolve(ev coremetrics.SolveEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solves = append(r.solves, ev)
	return r.err
}

func (r *recordingSink) RecordRequest(ev coremetrics.RequestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, ev)
	return r.err
}

func TestAsyncSinkForwards(t *testing.T) {
	rec := &recordingSink{}
	sink := NewAsyncSink(context.Background(), rec, 16)
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Iteration: 1}))
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Iteration: 2}))
	require.NoError(t, sink.RecordRequest(coremetrics.RequestEvent{RequestID: "r"}))
	sink.Close()

	require.Len(t, rec.solves, 2)
	assert.Equal(t, 1, rec.solves[0].Iteration)
	assert.Equal(t, 2, rec.solves[1].Iteration)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "r", rec.requests[0].RequestID)
	assert.Zero(t, sink.Dropped())
}

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	rec := &recordingSink{block: make(chan struct{})}
	sink := NewAsyncSink(context.Background(), rec, 1)
	for i := 0; i < 10; i++ {
		_ = sink.RecordSolve(coremetrics.SolveEvent{Iteration: i})
	}
	assert.Positive(t, sink.Dropped())
	close(rec.block)
	sink.Close()
	assert.Less(t, len(rec.solves), 10)
}

func TestAsyncSinkSkipsRequestsForSolveOnlySinks(t *testing.T) {
	var calls int
	sink := NewAsyncSink(context.Background(), solveOnly(func() { calls++ }), 4)
	_ = sink.RecordRequest(coremetrics.RequestEvent{})
	_ = sink.RecordSolve(coremetrics.SolveEvent{})
	sink.Close()
	assert.Equal(t, 1, calls)
}

type solveOnly func()

func (f solveOnly) RecordSolve(coremetrics.SolveEvent) error { f(); return nil }

func TestEventCollectorStopsOnCancel(t *testing.T) {
	rec := &recordingSink{err: errors.New("sink down")}
	ctx, cancel := context.WithCancel(context.Background())
	sink := NewAsyncSink(ctx, rec, 4)
	_ = sink.RecordSolve(coremetrics.SolveEvent{})
	cancel()
	select {
	case <-sink.done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	sink.Close()
}
