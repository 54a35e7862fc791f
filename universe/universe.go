// Package universe reconciles a universe selection function's output
// against the currently subscribed symbols, producing the
// additions/removals the engine must act on. The reconciliation itself
// follows the teacher's samber/lo-based filtering idiom (tools/scheduler.go
// Update), here applied to symbol sets instead of order conditions.
//
// Selector.Apply is driven in-loop from package merge's Synchronizer, not
// from a wall-clock poll: a universe selection is just another
// subscription whose packets, instead of reaching the algorithm, are
// handed to Apply as the data-plane bundle the spec's universe.select(T,
// bundle) operates on.
package universe

import (
	"time"

	"github.com/samber/lo"

	"github.com/marketfeed/ingest/model"
)

// SelectionFunc is supplied by the algorithm: given the current time and
// the universe-selection data bundle the synchronizer just accumulated for
// this universe's driving subscription (eg. a coarse fundamentals
// snapshot), it returns the full desired membership of the universe.
// Returning the same members every call is valid and simply produces
// no-op reconciliations.
type SelectionFunc func(now time.Time, bundle []model.BaseData) []model.Symbol

// Selector holds one universe's selection function and last-known
// membership, and produces a model.SecurityChanges diff each time Apply
// runs against a fresh bundle.
type Selector struct {
	Name       string
	Resolution model.Resolution
	selection  SelectionFunc
	current    []model.Symbol
}

func NewSelector(name string, resolution model.Resolution, fn SelectionFunc) *Selector {
	return &Selector{Name: name, Resolution: resolution, selection: fn}
}

// Apply runs the selection function against bundle and diffs its result
// against the previously selected membership, returning the changes
// (possibly empty) and updating internal state to the new membership.
func (s *Selector) Apply(now time.Time, bundle []model.BaseData) model.SecurityChanges {
	desired := s.selection(now, bundle)

	additions := lo.Filter(desired, func(sym model.Symbol, _ int) bool {
		return !lo.Contains(s.current, sym)
	})
	removals := lo.Filter(s.current, func(sym model.Symbol, _ int) bool {
		return !lo.Contains(desired, sym)
	})

	s.current = desired

	return model.SecurityChanges{
		Time:      now,
		Universe:  s.Name,
		Additions: additions,
		Removals:  removals,
	}
}

// Members returns the selector's currently known membership, in the order
// last returned by the selection function.
func (s *Selector) Members() []model.Symbol {
	out := make([]model.Symbol, len(s.current))
	copy(out, s.current)
	return out
}

// CurrencyFeedSymbols derives the internal currency-conversion feeds a
// universe member needs when its quote currency differs from the
// algorithm's account currency — injected as IsInternal subscriptions so
// they never reach the algorithm callback directly, per the spec's design
// note on internal feeds.
func CurrencyFeedSymbols(members []model.Symbol, accountCurrency string) []model.Symbol {
	var out []model.Symbol
	seen := make(map[model.Symbol]bool)
	for _, sym := range members {
		if sym.Type != model.SecurityTypeForex && sym.Type != model.SecurityTypeCrypto {
			continue
		}
		feed := model.NewSymbol(string(sym.Market)+"/"+accountCurrency, sym.Type, sym.Market)
		if seen[feed] || feed == sym {
			continue
		}
		seen[feed] = true
		out = append(out, feed)
	}
	return out
}
