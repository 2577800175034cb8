// Package scenario defines scripted engine runs.
//
// A scenario YAML file declares a model graph and the exact event
// sequence a scripted engine emits while "executing" it: the plan
// contents, the batch plan, the arrival order of batch completions, and
// any injected failures. Files are validated against an embedded CUE
// schema before decoding, then checked for referential consistency.
package scenario
