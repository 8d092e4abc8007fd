package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/lineup/core/metrics"
	"github.com/kilianp07/lineup/infra/logger"
	"github.com/kilianp07/lineup/internal/eventbus"
)

// AsyncSink queues events on a bus so that slow sinks never delay a solve.
// Events are dropped when the queue is full.
type AsyncSink struct {
	bus  *eventbus.Bus[any]
	done <-chan struct{}
}

// NewAsyncSink starts a collector forwarding queued events to sink. The
// collector stops when ctx is canceled or Close is called.
func NewAsyncSink(ctx context.Context, sink coremetrics.MetricsSink, buffer int) *AsyncSink {
	bus := eventbus.NewWithBuffer[any](buffer)
	return &AsyncSink{bus: bus, done: StartEventCollector(ctx, bus, sink)}
}

// RecordSolve queues the event.
func (a *AsyncSink) RecordSolve(ev coremetrics.SolveEvent) error {
	a.bus.Publish(ev)
	return nil
}

// RecordRequest queues the event.
func (a *AsyncSink) RecordRequest(ev coremetrics.RequestEvent) error {
	a.bus.Publish(ev)
	return nil
}

// Dropped reports how many events were discarded because the queue was full.
func (a *AsyncSink) Dropped() uint64 { return a.bus.Dropped() }

// Close stops accepting events and waits for queued ones to be recorded.
func (a *AsyncSink) Close() {
	a.bus.Close()
	<-a.done
}

// StartEventCollector subscribes to the bus and records every event on sink.
// The returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[any], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	log := logger.New("metrics_collector")
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev any) error {
	switch e := ev.(type) {
	case coremetrics.SolveEvent:
		return sink.RecordSolve(e)
	case coremetrics.RequestEvent:
		if rec, ok := sink.(coremetrics.RequestRecorder); ok {
			return rec.RecordRequest(e)
		}
	}
	return nil
}
