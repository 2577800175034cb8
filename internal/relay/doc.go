// Package relay carries console events from the engine's worker goroutine
// to the consuming goroutine.
//
// Each engine invocation gets one Relay: the producer side is a console
// handler feeding an unbounded FIFO queue, the consumer side is a Stream
// iterated like database/sql rows. Delivery order is emission order, end
// to end.
//
// Failure travels in-band: the worker publishes a terminal Failure event
// instead of returning an error across goroutines, so every event emitted
// before the failure is delivered first. A Stream never reports end of
// input until the worker goroutine has been joined.
package relay
