// Package meshtest provides a scripted engine for tests and demos.
//
// Engine implements mesh.Context driven entirely by a scenario: the plan
// contents, the batch plan, the exact arrival order of batch completions
// and any injected failures all come from the scenario file. It stands in
// for a real transformation engine wherever deterministic event streams
// are needed.
package meshtest
