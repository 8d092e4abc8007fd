package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/lineup/core/metrics"
)

// PromSink records solver and request activity in Prometheus metrics.
type PromSink struct {
	solves          *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveNodes      *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	lineups         *prometheus.HistogramVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_solves_total",
		Help: "Single-lineup solves by backend and outcome",
	}, []string{"backend", "outcome"})); err != nil {
		return nil, err
	}
	if s.solveDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_solve_duration_seconds",
		Help:    "Wall time of one single-lineup solve",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"backend"})); err != nil {
		return nil, err
	}
	if s.solveNodes, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_solve_nodes",
		Help:    "Branch-and-bound nodes explored per solve",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"backend"})); err != nil {
		return nil, err
	}
	if s.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_requests_total",
		Help: "Optimisation requests by source and outcome",
	}, []string{"source", "outcome"})); err != nil {
		return nil, err
	}
	if s.requestDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_request_duration_seconds",
		Help:    "Wall time of one optimisation request",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if s.lineups, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_lineups_returned",
		Help:    "Lineups returned per successful request",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	}, []string{"source"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the solve and observes its duration and node count.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Backend, ev.Outcome).Inc()
	s.solveDuration.WithLabelValues(ev.Backend).Observe(ev.Duration.Seconds())
	if ev.Nodes > 0 {
		s.solveNodes.WithLabelValues(ev.Backend).Observe(float64(ev.Nodes))
	}
	return nil
}

// RecordRequest counts the request and observes its duration.
func (s *PromSink) RecordRequest(ev coremetrics.RequestEvent) error {
	s.requests.WithLabelValues(ev.Source, ev.Outcome).Inc()
	s.requestDuration.WithLabelValues(ev.Source).Observe(ev.Duration.Seconds())
	if ev.Outcome == coremetrics.OutcomeOptimal {
		s.lineups.WithLabelValues(ev.Source).Observe(float64(ev.Returned))
	}
	return nil
}
