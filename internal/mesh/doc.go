// Package mesh defines the vocabulary shared with the SQL transformation
// engine: models, snapshots, plans, execution options, and the dependency
// graph over model names.
//
// The engine itself sits behind the Context interface. Everything else in
// this package is plain data, so the controller, the event protocol, and
// the completion tracker can describe engine state without depending on an
// engine implementation.
package mesh
