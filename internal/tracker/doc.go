// Package tracker reconciles out-of-order batch completions with the
// in-order notifications the orchestration side requires.
//
// The engine completes snapshots in its scheduler's order and omits
// snapshots it decided not to evaluate. Downstream consumers want exactly
// one completion notification per snapshot, emitted in topological order.
// The Tracker sits between the two: batch completions feed it in any
// order, and a cursor walks the fixed topological order, releasing a
// notification only once the snapshot at the cursor has resolved.
//
// A snapshot resolves one of two ways: every planned batch completed
// (updated), or the plan excluded it (present but unchanged). Snapshots
// the plan excludes are resolved at plan time, so a run that touches
// nothing still notifies every snapshot exactly once.
package tracker
