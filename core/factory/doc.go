// Package factory provides a small generic registry used to pick pluggable
// modules (solver backends, metrics sinks) by name from configuration. A
// module is described by a type string and a map of raw settings; factories
// decode the settings into typed structs and return the implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[ilp.Solver]()
//	reg.MustRegister("branch_and_bound", func(conf map[string]any) (ilp.Solver, error) {
//	    var c struct{ MaxNodes int `json:"max_nodes"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return ilp.NewBranchAndBound(c.MaxNodes), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "branch_and_bound"})
package factory
