package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/lineup/core/model"
)

// Outcome labels.
const (
	OutcomeOptimal  = "optimal"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Outcome classifies the result of a solve or request for labelling.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOptimal
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	}
	if kind := model.ErrorKind(err); kind != "" {
		return kind
	}
	return OutcomeError
}

// SolveEvent describes one single-lineup solve inside a top-N run.
type SolveEvent struct {
	RequestID string
	Iteration int
	Backend   string
	Outcome   string
	Nodes     int
	Objective float64
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records solver activity for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// RequestEvent summarises one optimisation request.
type RequestEvent struct {
	RequestID string
	Source    string
	Outcome   string
	Requested int
	Returned  int
	BestScore float64
	Duration  time.Duration
	Time      time.Time
}

// RequestRecorder is implemented by sinks that record whole requests.
type RequestRecorder interface {
	RecordRequest(ev RequestEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error     { return nil }
func (NopSink) RecordRequest(RequestEvent) error { return nil }
