// Package console implements the event protocol between the engine and the
// bridge.
//
// The engine reports progress by calling the Console interface. An
// EventConsole turns those calls into immutable Event values and fans them
// out to registered handlers on the calling goroutine. The variant set is
// closed; consumers type-switch and must carry a default case so new
// variants never break them.
//
// Events describe engine facts only. Interpretation (ordering, asset
// mapping, failure policy) belongs to the consumers.
package console
