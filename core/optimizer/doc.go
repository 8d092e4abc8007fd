// Package optimizer builds the lineup integer program and extracts the best
// lineups from it.
//
// Solver.Solve returns the single best lineup that is not in a given
// exclusion set. Solver.SolveTop repeats that N times, adding each answer to
// the exclusion set so that every returned lineup has a distinct selection.
// Engine.Optimize is the request-level entry point: it assembles the player
// pool from a raw request, applies the configured deadline and records
// metrics.
package optimizer
