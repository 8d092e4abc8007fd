// Package catalog holds the static reference data of the game: driver and
// constructor costs, which drivers make up each constructor, and the cost
// threshold above which a driver cannot be picked as turbo automatically.
//
// A Catalog is built once at startup and never mutated afterwards, so it can
// be shared across concurrent requests.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/lineup/core/model"
)

// DriverDef describes one driver.
type DriverDef struct {
	Name string  `json:"name" yaml:"name"`
	Cost float64 `json:"cost" yaml:"cost"`
}

// ConstructorDef describes one constructor and its two drivers.
type ConstructorDef struct {
	Name    string   `json:"name" yaml:"name"`
	Cost    float64  `json:"cost" yaml:"cost"`
	Drivers []string `json:"drivers" yaml:"drivers"`
}

// Definition is the serialisable form of a Catalog.
type Definition struct {
	Season         string           `json:"season" yaml:"season"`
	TurboThreshold float64          `json:"turbo_threshold" yaml:"turbo_threshold"`
	Drivers        []DriverDef      `json:"drivers" yaml:"drivers"`
	Constructors   []ConstructorDef `json:"constructors" yaml:"constructors"`
}

// Catalog is the validated, read-only reference table.
type Catalog struct {
	def         Definition
	individuals []model.PlayerID
	composites  []model.PlayerID
	byName      map[string]model.PlayerID
	costs       map[model.PlayerID]float64
	pairings    map[model.PlayerID]model.Pairing
}

// New validates def and builds a Catalog from it. Names must be unique across
// drivers and constructors, costs and the threshold positive, and every
// constructor must reference two distinct known drivers.
func New(def Definition) (*Catalog, error) {
	if !positive(def.TurboThreshold) {
		return nil, fmt.Errorf("turbo threshold must be positive, got %v", def.TurboThreshold)
	}
	if len(def.Drivers) == 0 || len(def.Constructors) == 0 {
		return nil, fmt.Errorf("catalog needs at least one driver and one constructor")
	}
	c := &Catalog{
		byName:   make(map[string]model.PlayerID, len(def.Drivers)+len(def.Constructors)),
		costs:    make(map[model.PlayerID]float64, len(def.Drivers)+len(def.Constructors)),
		pairings: make(map[model.PlayerID]model.Pairing, len(def.Constructors)),
	}
	for _, d := range def.Drivers {
		id := model.Individual(strings.TrimSpace(d.Name))
		if err := c.add(id, d.Cost); err != nil {
			return nil, err
		}
		c.individuals = append(c.individuals, id)
	}
	for _, k := range def.Constructors {
		id := model.Composite(strings.TrimSpace(k.Name))
		if err := c.add(id, k.Cost); err != nil {
			return nil, err
		}
		if len(k.Drivers) != 2 {
			return nil, fmt.Errorf("constructor %s must have exactly 2 drivers, got %d", id, len(k.Drivers))
		}
		first, ok1 := c.byName[strings.TrimSpace(k.Drivers[0])]
		second, ok2 := c.byName[strings.TrimSpace(k.Drivers[1])]
		if !ok1 || !ok2 || !first.IsIndividual() || !second.IsIndividual() {
			return nil, fmt.Errorf("constructor %s references unknown drivers %v", id, k.Drivers)
		}
		if first == second {
			return nil, fmt.Errorf("constructor %s lists driver %s twice", id, first)
		}
		c.pairings[id] = model.Pairing{Composite: id, First: first, Second: second}
		c.composites = append(c.composites, id)
	}
	c.def = cloneDefinition(def)
	return c, nil
}

// MustNew is New for package-level catalogs known to be valid.
func MustNew(def Definition) *Catalog {
	c, err := New(def)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) add(id model.PlayerID, cost float64) error {
	if id.Name == "" {
		return fmt.Errorf("%s with empty name", id.Kind)
	}
	if _, dup := c.byName[id.Name]; dup {
		return fmt.Errorf("duplicate catalog name %q", id.Name)
	}
	if !positive(cost) {
		return fmt.Errorf("%s %s: cost must be positive, got %v", id.Kind, id.Name, cost)
	}
	c.byName[id.Name] = id
	c.costs[id] = cost
	return nil
}

// Resolve maps a name to its PlayerID.
func (c *Catalog) Resolve(name string) (model.PlayerID, bool) {
	id, ok := c.byName[strings.TrimSpace(name)]
	return id, ok
}

// Cost returns the cost of id.
func (c *Catalog) Cost(id model.PlayerID) (float64, bool) {
	v, ok := c.costs[id]
	return v, ok
}

// Pairing returns the drivers of a constructor.
func (c *Catalog) Pairing(composite model.PlayerID) (model.Pairing, bool) {
	p, ok := c.pairings[composite]
	return p, ok
}

// Pairings returns every pairing in catalog order.
func (c *Catalog) Pairings() []model.Pairing {
	out := make([]model.Pairing, len(c.composites))
	for i, id := range c.composites {
		out[i] = c.pairings[id]
	}
	return out
}

// Individuals returns all drivers in catalog order.
func (c *Catalog) Individuals() []model.PlayerID { return append([]model.PlayerID(nil), c.individuals...) }

// Composites returns all constructors in catalog order.
func (c *Catalog) Composites() []model.PlayerID { return append([]model.PlayerID(nil), c.composites...) }

// TurboThreshold is the exclusive cost ceiling for automatic turbo picks.
func (c *Catalog) TurboThreshold() float64 { return c.def.TurboThreshold }

// Season returns the label of the catalog, if any.
func (c *Catalog) Season() string { return c.def.Season }

// Definition returns a copy of the data the catalog was built from.
func (c *Catalog) Definition() Definition { return cloneDefinition(c.def) }

func cloneDefinition(d Definition) Definition {
	out := Definition{Season: d.Season, TurboThreshold: d.TurboThreshold}
	out.Drivers = append([]DriverDef(nil), d.Drivers...)
	out.Constructors = make([]ConstructorDef, len(d.Constructors))
	for i, k := range d.Constructors {
		k.Drivers = append([]string(nil), k.Drivers...)
		out.Constructors[i] = k
	}
	return out
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }
