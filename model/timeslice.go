package model

import "time"

// Packet groups every point emitted for one SubscriptionDataConfig at a
// TimeSlice's Time. Packets are keyed by config rather than by symbol so a
// symbol subscribed under two configs at once — trade and quote, or two
// resolutions — keeps each config's points in its own list instead of
// being merged into one ambiguous per-symbol bucket.
type Packet struct {
	Config SubscriptionDataConfig
	Data   []BaseData
}

// TimeSlice is the unit of output the synchronizer hands to the algorithm
// callback: every packet ready across every active subscription at Time,
// after fill-forward synthesis and exchange rounding.
type TimeSlice struct {
	Time    time.Time
	Packets []Packet
	// SecurityChanges carries every universe reconciliation that fired
	// while producing this slice. Usually empty; more than one entry only
	// when two universes both produced a bundle at the same frontier.
	SecurityChanges []SecurityChanges
}

// IsSentinel reports whether this is the synthetic terminal slice emitted
// once all subscriptions have finished (Time == MaxTime).
func (t TimeSlice) IsSentinel() bool {
	return t.Time.Equal(MaxTime)
}

// MaxTime is the sentinel timestamp used to signal "no more data anywhere".
var MaxTime = time.Unix(1<<62, 0).UTC()

// Get returns every data point for symbol across all of this slice's
// packets, or nil if symbol produced nothing at this Time.
func (t TimeSlice) Get(symbol Symbol) []BaseData {
	var out []BaseData
	for _, p := range t.Packets {
		if p.Config.Symbol != symbol {
			continue
		}
		out = append(out, p.Data...)
	}
	return out
}

// Packet returns the packet for the given config key, or ok=false if that
// config produced nothing at this Time.
func (t TimeSlice) Packet(key ConfigKey) (Packet, bool) {
	for _, p := range t.Packets {
		if p.Config.Key() == key {
			return p, true
		}
	}
	return Packet{}, false
}
