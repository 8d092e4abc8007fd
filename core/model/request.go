package model

import (
	"fmt"
	"strings"
)

// OverrideKind names a user restriction on one player.
type OverrideKind int

const (
	OverrideInclude OverrideKind = iota + 1
	OverrideExclude
	OverrideTurbo
	OverrideNoTurbo
)

func (k OverrideKind) String() string {
	switch k {
	case OverrideInclude:
		return "INCLUDE"
	case OverrideExclude:
		return "EXCLUDE"
	case OverrideTurbo:
		return "TURBO"
	case OverrideNoTurbo:
		return "NO_TURBO"
	default:
		return "unknown"
	}
}

// ParseOverrideKind parses the wire form of an override kind.
func ParseOverrideKind(s string) (OverrideKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INCLUDE":
		return OverrideInclude, nil
	case "EXCLUDE":
		return OverrideExclude, nil
	case "TURBO":
		return OverrideTurbo, nil
	case "NO_TURBO":
		return OverrideNoTurbo, nil
	default:
		return 0, &InvalidRequestError{Field: "override", Reason: fmt.Sprintf("unknown kind %q", s)}
	}
}

func (k OverrideKind) MarshalText() ([]byte, error) {
	if k < OverrideInclude || k > OverrideNoTurbo {
		return nil, fmt.Errorf("unknown override kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *OverrideKind) UnmarshalText(b []byte) error {
	v, err := ParseOverrideKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DriverScore is a projected score for one driver, referenced by name.
type DriverScore struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// PlayerOverride applies an override to a driver or constructor by name.
type PlayerOverride struct {
	ID       string       `json:"id" yaml:"id"`
	Override OverrideKind `json:"override" yaml:"override"`
}

// Request is the raw lineup request received from clients. AllowTeammates
// defaults to true when omitted; Count defaults to the configured number of
// lineups when zero.
type Request struct {
	DriverScores   []DriverScore    `json:"driver_scores" yaml:"driver_scores"`
	Budget         float64          `json:"budget" yaml:"budget"`
	AllowTeammates *bool            `json:"allow_teammates,omitempty" yaml:"allow_teammates,omitempty"`
	Overrides      []PlayerOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Count          int              `json:"count,omitempty" yaml:"count,omitempty"`
}

// TeammatesAllowed resolves the AllowTeammates default.
func (r Request) TeammatesAllowed() bool {
	return r.AllowTeammates == nil || *r.AllowTeammates
}
