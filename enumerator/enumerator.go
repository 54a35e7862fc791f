// Package enumerator implements the stack of lazy iterator adapters that
// sits between a reader.Reader and a subscription: per-day source
// rollover, multi-source aggregation, fill-forward synthesis, and a final
// subscription-level filter — each one an Enumerator wrapping another,
// exactly the "explicit next()/drop()" shape called for in place of a
// LINQ-style generator pipeline.
package enumerator

import "github.com/marketfeed/ingest/model"

// Enumerator is the common interface every pipeline stage implements.
// MoveNext advances to the next point and reports whether one exists;
// Current is only valid after MoveNext returns true.
type Enumerator interface {
	MoveNext() bool
	Current() model.BaseData
	Err() error
	// Stop releases any resources held by this stage and the stages it
	// wraps (readers, open transports). Safe to call multiple times.
	Stop()
}

// Slice drains every remaining point from e into a slice, primarily for
// tests.
func Slice(e Enumerator) ([]model.BaseData, error) {
	var out []model.BaseData
	for e.MoveNext() {
		out = append(out, e.Current())
	}
	return out, e.Err()
}
