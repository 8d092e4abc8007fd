// Package scenarios replays YAML-described lineup requests against a full
// optimizer engine and checks the returned lineups.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/model"
)

// LineupDef is the expected content of one lineup. Drivers are compared as a
// set; empty fields are not checked.
type LineupDef struct {
	Drivers     []string `yaml:"drivers,omitempty"`
	Constructor string   `yaml:"constructor,omitempty"`
	Turbo       string   `yaml:"turbo,omitempty"`
	Cost        float64  `yaml:"cost,omitempty"`
	Objective   float64  `yaml:"objective,omitempty"`
}

type Expected struct {
	// Error is the error kind, empty when the request should succeed.
	Error   string      `yaml:"error,omitempty"`
	Lineups int         `yaml:"lineups"`
	Ranked  []LineupDef `yaml:"ranked,omitempty"`
}

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Catalog is a catalog file relative to the scenario; the built-in season
	// is used when empty.
	Catalog  string        `yaml:"catalog,omitempty"`
	Request  model.Request `yaml:"request"`
	Expected Expected      `yaml:"expected"`

	dir string
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	sc.dir = filepath.Dir(path)
	return &sc, nil
}

// LoadCatalog resolves the scenario catalog.
func (sc *Scenario) LoadCatalog() (*catalog.Catalog, error) {
	if sc.Catalog == "" {
		return catalog.Default(), nil
	}
	path := sc.Catalog
	if !filepath.IsAbs(path) {
		path = filepath.Join(sc.dir, path)
	}
	return catalog.LoadFile(path)
}
