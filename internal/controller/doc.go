// Package controller manages the engine attachment lifecycle and exposes
// plan, run, and plan-and-run as event streams.
//
// A Controller is cheap and holds no connection; it owns the event console
// and the project configuration. Engine work happens through an Instance,
// opened per environment. Only one instance may be open at a time because
// the engine context underneath is not safe for concurrent use.
//
// Every operation streams the engine's console events through a relay: the
// engine call runs on a worker goroutine, the caller consumes a
// relay.Stream, and worker failures arrive in-band after all earlier
// events.
package controller
