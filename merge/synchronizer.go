// Package merge implements the subscription synchronizer: the single
// consumer that drains every active subscription's buffer and emits
// strictly time-ordered TimeSlice values, tracking the "early bird" — the
// earliest not-yet-emitted timestamp across all subscriptions — so that no
// subscription can race ahead of another and produce an out-of-order
// slice.
package merge

import (
	"time"

	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/subscription"
)

// peekState holds one subscription's buffered-but-not-yet-emitted point.
type peekState struct {
	sub    *subscription.Subscription
	data   model.BaseData
	peeked bool
}

// Synchronizer merges every live subscription's buffered stream into a
// single ordered sequence of TimeSlice values. It is not safe for
// concurrent use by more than one goroutine — the spec's concurrency model
// calls for exactly one synchronizer consumer.
type Synchronizer struct {
	registry *subscription.Collection
	states   map[model.ConfigKey]*peekState
	// sentinelEmitted guards against emitting the terminal slice twice.
	sentinelEmitted bool
}

func New(registry *subscription.Collection) *Synchronizer {
	return &Synchronizer{registry: registry, states: make(map[model.ConfigKey]*peekState)}
}

// syncStates reconciles the synchronizer's tracked peek state with the
// registry's current membership: subscriptions added since the last call
// get a fresh peekState; subscriptions removed get dropped (their buffer is
// assumed already stopped by the caller that removed them).
func (s *Synchronizer) syncStates() []*peekState {
	live := s.registry.Snapshot()
	ordered := make([]*peekState, 0, len(live))
	seen := make(map[model.ConfigKey]bool, len(live))

	for _, sub := range live {
		key := sub.Key()
		seen[key] = true
		st, ok := s.states[key]
		if !ok {
			st = &peekState{sub: sub}
			s.states[key] = st
		}
		ordered = append(ordered, st)
	}
	for key := range s.states {
		if !seen[key] {
			delete(s.states, key)
		}
	}
	return ordered
}

// prime ensures st has a peeked point if its subscription's buffer has one
// left. A subscription whose producer has already finished can still hold
// buffered points, so the buffer is read even when Finished is true.
func (s *Synchronizer) prime(st *peekState) {
	if st.peeked {
		return
	}
	if !st.sub.Buffer.MoveNext() {
		st.sub.MarkFinished()
		return
	}
	st.data = st.sub.Buffer.Current()
	st.peeked = true
}

// endTimeUTC is the instant the synchronizer compares across subscriptions:
// the peeked point's end time (falling back to its start time for
// zero-period data), mapped through the subscription's offset_provider so
// a DST transition never reorders points.
func endTimeUTC(st *peekState) time.Time {
	end := st.data.EndTime
	if end.IsZero() {
		end = st.data.Time
	}
	return st.sub.OffsetProvider.ToUTC(end)
}

// Next produces the next TimeSlice. Every live subscription is walked in
// registry order; each one drains every point it has ready at or before
// the computed frontier T_now into a single packet — the spec's inner
// "while s.current.end_time_local... <= T_now" loop — rather than peeling
// off one point per call, so a fast subscription sharing a frontier with a
// slower one (eg. a tick feed and a minute feed both ready at the same
// instant) lands in one packet instead of being split across slices. Each
// point is rounded down via enumerator.ExchangeRoundDown before being
// appended, per the spec's exchange_round_down requirement.
//
// A universe-selection subscription's packet is never delivered to the
// algorithm: it is instead handed to its bound universe.Selector.Apply,
// and any resulting SecurityChanges rides along on the slice for the
// engine to act on (subscription additions/removals happen outside the
// synchronizer, which doesn't own the registry mutation path). Packets of
// other internal subscriptions (Config.IsInternal, eg. currency-conversion
// feeds) are left out of the delivered slice as well.
//
// Next returns ok=false once every subscription has finished and the
// sentinel slice (model.MaxTime) has already been delivered.
func (s *Synchronizer) Next() (model.TimeSlice, bool) {
	states := s.syncStates()

	for _, st := range states {
		s.prime(st)
	}

	var tNow time.Time
	have := false
	for _, st := range states {
		if !st.peeked {
			continue
		}
		end := endTimeUTC(st)
		if !have || end.Before(tNow) {
			tNow = end
			have = true
		}
	}

	if !have {
		if s.sentinelEmitted {
			return model.TimeSlice{}, false
		}
		s.sentinelEmitted = true
		return model.TimeSlice{Time: model.MaxTime}, true
	}

	slice := model.TimeSlice{Time: tNow}
	var changes []model.SecurityChanges

	for _, st := range states {
		if !st.peeked {
			continue
		}

		var packet []model.BaseData
		increment := st.sub.Config.Resolution.Increment()
		for st.peeked && !endTimeUTC(st).After(tNow) {
			clone := st.data.Clone()
			clone.Time = enumerator.ExchangeRoundDown(clone.Time, increment)
			packet = append(packet, clone)

			if !st.sub.Buffer.MoveNext() {
				st.sub.MarkFinished()
				st.peeked = false
				break
			}
			st.data = st.sub.Buffer.Current()
		}

		if len(packet) == 0 {
			continue
		}

		if st.sub.IsUniverseSelection() {
			if sel := st.sub.Selector(); sel != nil {
				change := sel.Apply(tNow, packet)
				if !change.IsEmpty() {
					changes = append(changes, change)
				}
			}
			continue
		}
		if st.sub.Config.IsInternal {
			continue
		}

		slice.Packets = append(slice.Packets, model.Packet{Config: st.sub.Config, Data: packet})
	}

	if len(changes) > 0 {
		slice.SecurityChanges = changes
	}
	return slice, true
}
