package model

import "fmt"

// PlayerKind distinguishes the two variants of a PlayerID.
type PlayerKind uint8

const (
	// KindIndividual is a single competitor (driver).
	KindIndividual PlayerKind = iota + 1
	// KindComposite is a team entity made of exactly two Individuals (constructor).
	KindComposite
)

// String returns a human-readable representation of the kind.
func (k PlayerKind) String() string {
	switch k {
	case KindIndividual:
		return "individual"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// PlayerID identifies a selectable entity. Kind is the variant tag; Name is
// unique across the whole catalog.
type PlayerID struct {
	Kind PlayerKind
	Name string
}

// Individual returns the PlayerID of a driver.
func Individual(name string) PlayerID { return PlayerID{Kind: KindIndividual, Name: name} }

// Composite returns the PlayerID of a constructor.
func Composite(name string) PlayerID { return PlayerID{Kind: KindComposite, Name: name} }

// IsIndividual reports whether id names a driver.
func (id PlayerID) IsIndividual() bool { return id.Kind == KindIndividual }

// IsComposite reports whether id names a constructor.
func (id PlayerID) IsComposite() bool { return id.Kind == KindComposite }

func (id PlayerID) String() string { return id.Name }

// GoString includes the variant tag, which String omits.
func (id PlayerID) GoString() string { return fmt.Sprintf("%s(%s)", id.Kind, id.Name) }

// MarshalText encodes the id as its bare name.
func (id PlayerID) MarshalText() ([]byte, error) {
	if id.Name == "" {
		return nil, fmt.Errorf("empty player id")
	}
	return []byte(id.Name), nil
}

// Player carries the score and cost of one selectable entity.
type Player struct {
	ID    PlayerID `json:"id"`
	Score float64  `json:"score"`
	Cost  float64  `json:"cost"`
}

// Pairing binds a Composite to its two constituent Individuals.
type Pairing struct {
	Composite PlayerID
	First     PlayerID
	Second    PlayerID
}

// Members returns both constituents.
func (p Pairing) Members() [2]PlayerID { return [2]PlayerID{p.First, p.Second} }
