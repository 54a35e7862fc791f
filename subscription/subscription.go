// Package subscription tracks the set of live subscriptions and exposes
// them in registry (insertion) order — the ordering the synchronizer's
// merge step uses to break same-timestamp ties, grounded on the teacher's
// DataFeedSubscription (exchange/exchange.go), which likewise keeps an
// ordered set of feed keys alongside the per-key state.
package subscription

import (
	"time"

	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/universe"
)

// Subscription is one live config and the enumerator chain feeding it. The
// enumerator chain itself (the "producer") is owned by package runner's
// Job, not duplicated here — Subscription is the data-availability handle
// the synchronizer and registry both need, not the pipeline itself.
type Subscription struct {
	Config model.SubscriptionDataConfig
	Buffer *enumerator.EnqueueableBuffer

	// OffsetProvider maps this subscription's raw timestamps to UTC for the
	// synchronizer's frontier comparisons, derived from Config.DataTimeZone
	// (the zone the source's own wall-clock fields are expressed in, which
	// can differ from Config.ExchangeTimeZone) at construction time.
	OffsetProvider model.OffsetProvider

	// UTCStart and UTCEnd bound the subscription's requested window; the
	// zero value on either means unbounded (the common case for a live or
	// full-history run).
	UTCStart, UTCEnd time.Time

	// universe is non-nil when this subscription is a universe-selection
	// feed: its packets are never delivered to the algorithm, they drive
	// universe's Apply instead. See package merge.
	universe *universe.Selector

	// endOfStream is set by MarkFinished: the engine's runner job calls it
	// once the producer has exhausted every source (points may still be
	// buffered at that moment), and package merge calls it once the buffer
	// has drained. AllFinished on the owning Collection reads it.
	endOfStream bool
}

func New(config model.SubscriptionDataConfig, buffer *enumerator.EnqueueableBuffer) *Subscription {
	return &Subscription{
		Config:         config,
		Buffer:         buffer,
		OffsetProvider: model.OffsetProvider{Location: config.DataTimeZone},
	}
}

func (s *Subscription) MarkFinished() { s.endOfStream = true }
func (s *Subscription) Finished() bool { return s.endOfStream }

func (s *Subscription) Key() model.ConfigKey { return s.Config.Key() }

// SetWindow records the UTC start/end this subscription was requested over.
func (s *Subscription) SetWindow(start, end time.Time) {
	s.UTCStart, s.UTCEnd = start, end
}

// BindUniverse marks this subscription as a universe-selection feed bound
// to sel.
func (s *Subscription) BindUniverse(sel *universe.Selector) { s.universe = sel }

// IsUniverseSelection reports whether this subscription drives a universe
// selector rather than delivering data to the algorithm directly.
func (s *Subscription) IsUniverseSelection() bool { return s.universe != nil }

// Selector returns the universe selector this subscription drives, or nil.
func (s *Subscription) Selector() *universe.Selector { return s.universe }
