// Package bridge adapts engine event streams to the orchestration side.
//
// The EventHandler folds a stream of console events into materialization
// results released strictly in topological order, using the completion
// tracker. The Resource composes a controller instance with an
// EventHandler to serve one orchestrated run end to end: option lifting,
// output selection, plan-and-run, result emission.
package bridge
