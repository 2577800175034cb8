// Package trace records engine event streams for diagnostics.
//
// A Recorder is registered as a console handler and writes every event it
// sees to a SQLite log, stamped with a strictly increasing seq from a
// monotonic clock. Payloads are canonical JSON (sorted keys by UTF-16
// code units, NFC-normalized strings, no floats) so recorded runs are
// byte-stable and can be compared against golden files.
//
// The trace is diagnostics, not state: recording failures are logged and
// dropped, and nothing in the bridge reads the trace back at runtime.
package trace
