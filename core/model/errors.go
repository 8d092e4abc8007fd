package model

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures unwrap to ErrInvalidRequest as well as their own
// sentinel. ErrInfeasible is reserved for well-formed requests without a
// solution.
var (
	ErrInvalidRequest      = errors.New("invalid lineup request")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrIncompleteRoster    = errors.New("incomplete roster")
	ErrConflictingOverride = errors.New("conflicting override")
	ErrDuplicatePlayer     = errors.New("duplicate player")
	ErrInfeasible          = errors.New("no feasible lineup")
)

// UnknownPlayerError reports a name that is not in the catalog or has the
// wrong kind for where it was used.
type UnknownPlayerError struct {
	Name   string
	Reason string
}

func (e *UnknownPlayerError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unknown player %q", e.Name)
	}
	return fmt.Sprintf("unknown player %q: %s", e.Name, e.Reason)
}

func (e *UnknownPlayerError) Unwrap() []error { return []error{ErrUnknownPlayer, ErrInvalidRequest} }

// IncompleteRosterError reports a Composite whose constituent has no score.
type IncompleteRosterError struct {
	Composite PlayerID
	Missing   PlayerID
}

func (e *IncompleteRosterError) Error() string {
	return fmt.Sprintf("constructor %s needs a score for driver %s", e.Composite, e.Missing)
}

func (e *IncompleteRosterError) Unwrap() []error {
	return []error{ErrIncompleteRoster, ErrInvalidRequest}
}

// ConflictingOverrideError reports override sets that cannot hold together.
type ConflictingOverrideError struct {
	IDs    []PlayerID
	Reason string
}

func (e *ConflictingOverrideError) Error() string {
	names := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		names[i] = id.Name
	}
	if len(names) == 0 {
		return "conflicting override: " + e.Reason
	}
	return fmt.Sprintf("conflicting override (%s): %s", strings.Join(names, ", "), e.Reason)
}

func (e *ConflictingOverrideError) Unwrap() []error {
	return []error{ErrConflictingOverride, ErrInvalidRequest}
}

// DuplicatePlayerError reports the same player supplied twice.
type DuplicatePlayerError struct {
	ID PlayerID
}

func (e *DuplicatePlayerError) Error() string {
	return fmt.Sprintf("player %s supplied more than once", e.ID)
}

func (e *DuplicatePlayerError) Unwrap() []error { return []error{ErrDuplicatePlayer, ErrInvalidRequest} }

// InvalidRequestError reports a malformed scalar field.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// InfeasibleError is returned when no lineup satisfies the constraints.
// Iteration is the 1-based solve that failed and Found the number of lineups
// produced before it.
type InfeasibleError struct {
	Constraints Constraints
	Iteration   int
	Found       int
	Cause       error
}

func (e *InfeasibleError) Error() string {
	msg := fmt.Sprintf("no feasible lineup at iteration %d (%d found, %s)",
		e.Iteration, e.Found, e.Constraints.String())
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InfeasibleError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInfeasible}
	}
	return []error{ErrInfeasible, e.Cause}
}

// ErrorKind maps an error to the stable identifier exposed to clients. It
// returns an empty string for errors that are not part of the lineup domain.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrIncompleteRoster):
		return "incomplete_roster"
	case errors.Is(err, ErrConflictingOverride):
		return "conflicting_override"
	case errors.Is(err, ErrDuplicatePlayer):
		return "duplicate_player"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInfeasible):
		return "infeasible"
	default:
		return ""
	}
}
