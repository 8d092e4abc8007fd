package model

import "fmt"

// Pool is the immutable set of selectable players for one request. Iteration
// order is deterministic: Individuals first, then Composites, each in the order
// they were supplied.
type Pool struct {
	players map[PlayerID]Player
	order   []PlayerID
	nInd    int
}

// NewPool builds a Pool from the given players. Individuals and Composites may
// be interleaved in the input; duplicates and unknown kinds are rejected.
func NewPool(players []Player) (*Pool, error) {
	p := &Pool{players: make(map[PlayerID]Player, len(players))}
	var composites []PlayerID
	for _, pl := range players {
		if _, dup := p.players[pl.ID]; dup {
			return nil, &DuplicatePlayerError{ID: pl.ID}
		}
		switch pl.ID.Kind {
		case KindIndividual:
			p.order = append(p.order, pl.ID)
			p.nInd++
		case KindComposite:
			composites = append(composites, pl.ID)
		default:
			return nil, fmt.Errorf("player %q has no kind", pl.ID.Name)
		}
		p.players[pl.ID] = pl
	}
	p.order = append(p.order, composites...)
	return p, nil
}

// Get returns the player registered under id.
func (p *Pool) Get(id PlayerID) (Player, bool) {
	pl, ok := p.players[id]
	return pl, ok
}

// Has reports whether id is part of the pool.
func (p *Pool) Has(id PlayerID) bool {
	_, ok := p.players[id]
	return ok
}

// Len returns the number of players.
func (p *Pool) Len() int { return len(p.order) }

// IDs returns all ids in pool order.
func (p *Pool) IDs() []PlayerID {
	out := make([]PlayerID, len(p.order))
	copy(out, p.order)
	return out
}

// Players returns a copy of all players in pool order.
func (p *Pool) Players() []Player {
	out := make([]Player, len(p.order))
	for i, id := range p.order {
		out[i] = p.players[id]
	}
	return out
}

// Individuals returns the drivers in pool order.
func (p *Pool) Individuals() []Player {
	out := make([]Player, 0, p.nInd)
	for _, id := range p.order[:p.nInd] {
		out = append(out, p.players[id])
	}
	return out
}

// Composites returns the constructors in pool order.
func (p *Pool) Composites() []Player {
	out := make([]Player, 0, len(p.order)-p.nInd)
	for _, id := range p.order[p.nInd:] {
		out = append(out, p.players[id])
	}
	return out
}
