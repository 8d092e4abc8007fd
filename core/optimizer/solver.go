package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/ilp"
	"github.com/kilianp07/lineup/core/logger"
	"github.com/kilianp07/lineup/core/metrics"
	"github.com/kilianp07/lineup/core/model"
)

// ErrSolverFault reports an assignment that does not describe a valid lineup.
// It indicates a bug in a solver backend rather than a bad request.
var ErrSolverFault = errors.New("optimizer: solver returned an invalid lineup")

// Solver solves lineup models against one catalog. It holds no per-request
// state and is safe for concurrent use.
type Solver struct {
	threshold   float64
	pairings    []model.Pairing
	backend     ilp.Solver
	backendName string
	sink        metrics.MetricsSink
	log         logger.Logger
}

// Option customises a Solver.
type Option func(*Solver)

// WithBackend replaces the default branch-and-bound backend.
func WithBackend(name string, b ilp.Solver) Option {
	return func(s *Solver) {
		s.backend = b
		s.backendName = name
	}
}

// WithMetrics records every solve to sink.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(s *Solver) { s.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Solver) { s.log = l }
}

// NewSolver returns a Solver using the pairings and turbo threshold of cat.
func NewSolver(cat *catalog.Catalog, opts ...Option) *Solver {
	s := &Solver{
		threshold:   cat.TurboThreshold(),
		pairings:    cat.Pairings(),
		backend:     ilp.NewBranchAndBound(0),
		backendName: ilp.BackendBranchAndBound,
		sink:        metrics.NopSink{},
		log:         logger.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Solve returns the best lineup for pool under cons whose selection is not one
// of exclusions. It returns *model.InfeasibleError when no such lineup exists.
func (s *Solver) Solve(ctx context.Context, pool *model.Pool, cons model.Constraints, exclusions []model.Selection) (model.Lineup, error) {
	iteration := len(exclusions) + 1
	m, err := formulate(pool, cons, s.pairings, s.threshold, exclusions)
	if err != nil {
		return model.Lineup{}, err
	}

	start := time.Now()
	sol, err := s.backend.Solve(ctx, m.prob)
	ev := metrics.SolveEvent{
		Iteration: iteration,
		Backend:   s.backendName,
		Duration:  time.Since(start),
		Time:      start,
	}
	if info, ok := RequestInfoFrom(ctx); ok {
		ev.RequestID = info.ID
	}
	var serr *ilp.SearchError
	switch {
	case sol != nil:
		ev.Nodes = sol.Nodes
		ev.Objective = sol.Objective
	case errors.As(err, &serr):
		ev.Nodes = serr.Nodes
	}

	var lineup model.Lineup
	switch {
	case errors.Is(err, ilp.ErrInfeasible):
		err = &model.InfeasibleError{Constraints: cons, Iteration: iteration, Found: len(exclusions)}
	case err != nil:
		err = fmt.Errorf("solve lineup %d: %w", iteration, err)
	default:
		lineup, err = m.extract(sol)
	}
	ev.Outcome = metrics.Outcome(err)
	if rerr := s.sink.RecordSolve(ev); rerr != nil {
		s.log.Warnf("record solve metrics: %v", rerr)
	}
	s.log.Debugw("lineup solve", map[string]any{
		"request_id": ev.RequestID,
		"iteration":  iteration,
		"outcome":    ev.Outcome,
		"nodes":      ev.Nodes,
		"objective":  ev.Objective,
		"duration":   ev.Duration.String(),
	})
	if err != nil {
		return model.Lineup{}, err
	}
	return lineup, nil
}

// SolveTop returns the n best lineups with pairwise distinct selections, in
// non-increasing objective order. If fewer than n exist the whole call fails
// with *model.InfeasibleError; lineups found before that are discarded.
func (s *Solver) SolveTop(ctx context.Context, n int, pool *model.Pool, cons model.Constraints) ([]model.Lineup, error) {
	if n < 1 {
		return nil, &model.InvalidRequestError{Field: "count", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
	}
	lineups := make([]model.Lineup, 0, n)
	exclusions := make([]model.Selection, 0, n)
	for len(lineups) < n {
		l, err := s.Solve(ctx, pool, cons, exclusions)
		if err != nil {
			return nil, err
		}
		lineups = append(lineups, l)
		exclusions = append(exclusions, l.Selection())
	}
	return lineups, nil
}
