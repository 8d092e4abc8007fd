package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/lineup/core/assembler"
	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/factory"
	"github.com/kilianp07/lineup/core/ilp"
	"github.com/kilianp07/lineup/core/logger"
	"github.com/kilianp07/lineup/core/metrics"
	"github.com/kilianp07/lineup/core/model"
	"github.com/kilianp07/lineup/core/monitoring"
	"github.com/kilianp07/lineup/core/requestlog"
)

// Config controls request-level solving.
type Config struct {
	// Backend selects the ilp backend by name, branch_and_bound by default.
	Backend factory.ModuleConfig `json:"backend" yaml:"backend"`
	// Lineups is the number of lineups returned when a request does not say.
	Lineups int `json:"lineups" yaml:"lineups"`
	// MaxLineups caps the count a request may ask for.
	MaxLineups int `json:"max_lineups" yaml:"max_lineups"`
	// Timeout bounds one request including all of its solves.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = ilp.BackendBranchAndBound
	}
	if c.Lineups == 0 {
		c.Lineups = 5
	}
	if c.MaxLineups == 0 {
		c.MaxLineups = 50
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Lineups < 1 {
		return fmt.Errorf("solver.lineups must be at least 1")
	}
	if c.MaxLineups < c.Lineups {
		return fmt.Errorf("solver.max_lineups (%d) is below solver.lineups (%d)", c.MaxLineups, c.Lineups)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("solver.timeout must not be negative")
	}
	return nil
}

// Engine answers raw lineup requests against one catalog.
type Engine struct {
	cat    *catalog.Catalog
	solver *Solver
	cfg    Config
	sink   metrics.MetricsSink
	log    logger.Logger
	reqlog requestlog.Store
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithRequestLog records every request and its outcome in store.
func WithRequestLog(store requestlog.Store) EngineOption {
	return func(e *Engine) { e.reqlog = store }
}

// NewEngine creates the backend named in cfg and wires it into a Solver.
func NewEngine(cat *catalog.Catalog, cfg Config, sink metrics.MetricsSink, log logger.Logger, opts ...EngineOption) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := ilp.Backends.Create(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("solver backend: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	e := &Engine{
		cat:    cat,
		solver: NewSolver(cat, WithBackend(cfg.Backend.Type, backend), WithMetrics(sink), WithLogger(log)),
		cfg:    cfg,
		sink:   sink,
		log:    log,
		reqlog: requestlog.NopStore{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the catalog the engine solves against.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// RequestLog returns the store requests are recorded in.
func (e *Engine) RequestLog() requestlog.Store { return e.reqlog }

// Optimize assembles req and returns its top lineups. The request id and
// source are taken from ctx when present; a new id is generated otherwise.
func (e *Engine) Optimize(ctx context.Context, req model.Request) ([]model.Lineup, error) {
	info, ok := RequestInfoFrom(ctx)
	if !ok || info.ID == "" {
		info.ID = uuid.NewString()
		ctx = WithRequestInfo(ctx, info)
	}
	start := time.Now()
	lineups, err := e.optimize(ctx, req)

	ev := metrics.RequestEvent{
		RequestID: info.ID,
		Source:    info.Source,
		Outcome:   metrics.Outcome(err),
		Requested: e.count(req),
		Returned:  len(lineups),
		Duration:  time.Since(start),
		Time:      start,
	}
	if len(lineups) > 0 {
		ev.BestScore = lineups[0].Objective
	}
	if rec, ok := e.sink.(metrics.RequestRecorder); ok {
		if rerr := rec.RecordRequest(ev); rerr != nil {
			e.log.Warnf("record request metrics: %v", rerr)
		}
	}
	fields := map[string]any{
		"request_id": info.ID,
		"source":     info.Source,
		"outcome":    ev.Outcome,
		"lineups":    ev.Returned,
		"duration":   ev.Duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		if unexpected(err) {
			e.log.Errorf("optimize %s: %v", info.ID, err)
			monitoring.CaptureException(err, map[string]string{"request_id": info.ID, "source": info.Source})
		}
	}
	e.log.Infow("optimize", fields)
	e.record(ctx, req, ev, err)
	return lineups, err
}

func (e *Engine) record(ctx context.Context, req model.Request, ev metrics.RequestEvent, err error) {
	rec := requestlog.Record{
		Timestamp:     ev.Time,
		RequestID:     ev.RequestID,
		Source:        ev.Source,
		Request:       req,
		Outcome:       ev.Outcome,
		Requested:     ev.Requested,
		Returned:      ev.Returned,
		BestObjective: ev.BestScore,
		DurationMS:    float64(ev.Duration.Microseconds()) / 1000,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if lerr := e.reqlog.Append(lctx, rec); lerr != nil {
		e.log.Warnf("record request %s: %v", ev.RequestID, lerr)
	}
}

func (e *Engine) optimize(ctx context.Context, req model.Request) ([]model.Lineup, error) {
	n := e.count(req)
	if n < 1 || n > e.cfg.MaxLineups {
		return nil, &model.InvalidRequestError{Field: "count", Reason: fmt.Sprintf("must be between 1 and %d, got %d", e.cfg.MaxLineups, n)}
	}
	pool, cons, err := assembler.Assemble(e.cat, req)
	if err != nil {
		return nil, err
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	return e.solver.SolveTop(ctx, n, pool, cons)
}

func (e *Engine) count(req model.Request) int {
	if req.Count == 0 {
		return e.cfg.Lineups
	}
	return req.Count
}

// unexpected reports errors that are neither the caller's fault nor a proven
// absence of lineups.
func unexpected(err error) bool {
	return !errors.Is(err, model.ErrInvalidRequest) &&
		!errors.Is(err, model.ErrInfeasible) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
