package ilp

import "github.com/kilianp07/lineup/core/factory"

// BackendBranchAndBound is the registry name of BranchAndBound.
const BackendBranchAndBound = "branch_and_bound"

// Backends holds the solver implementations selectable from configuration.
var Backends = factory.NewRegistry[Solver]()

type branchAndBoundConf struct {
	MaxNodes  int     `json:"max_nodes"`
	Tolerance float64 `json:"tolerance"`
}

func init() {
	Backends.MustRegister(BackendBranchAndBound, func(conf map[string]any) (Solver, error) {
		var c branchAndBoundConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return &BranchAndBound{MaxNodes: c.MaxNodes, Tolerance: c.Tolerance}, nil
	})
}
