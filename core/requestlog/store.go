// Package requestlog keeps an audit trail of optimisation requests: what was
// asked, by whom, and how it ended. Lineups themselves are not stored.
package requestlog

import (
	"context"
	"time"

	"github.com/kilianp07/lineup/core/model"
)

// Record captures one request and its outcome.
type Record struct {
	Timestamp     time.Time     `json:"timestamp"`
	RequestID     string        `json:"request_id"`
	Source        string        `json:"source"`
	Request       model.Request `json:"request"`
	Outcome       string        `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	Requested     int           `json:"requested"`
	Returned      int           `json:"returned"`
	BestObjective float64       `json:"best_objective,omitempty"`
	DurationMS    float64       `json:"duration_ms"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start     time.Time
	End       time.Time
	Source    string
	Outcome   string
	RequestID string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Matches reports whether r passes every filter of q except Limit.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.RequestID != "" && r.RequestID != q.RequestID {
		return false
	}
	return true
}

func (q Query) limit(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists Records and supports querying. Records are returned oldest first.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
