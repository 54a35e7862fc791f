package model

import "time"

// OffsetProvider maps a subscription's raw-source wall-clock fields to UTC,
// so the merge-time frontier comparisons in package merge only ever compare
// absolute instants. It is grounded in Go's own time.Location DST handling
// rather than a hand-rolled offset table: ToUTC takes the year/month/day/
// time-of-day a reader parsed off the wire and re-homes those same fields
// into Location, which resolves the correct UTC offset — including across a
// DST boundary — without any bespoke arithmetic.
type OffsetProvider struct {
	Location *time.Location
}

// ToUTC treats t's wall-clock fields (year, month, day, time of day) as the
// local time the provider's Location observed, and returns the equivalent
// UTC instant. Any Location t itself already carries is discarded — readers
// hand ToUTC the bare fields parsed from a source that carries no offset of
// its own, tagging them with a placeholder Location (commonly UTC) until
// ToUTC resolves the real one. A zero-value OffsetProvider (no Location)
// just normalizes t to UTC, which is correct when the source's timestamps
// already carry their own explicit offset.
func (o OffsetProvider) ToUTC(t time.Time) time.Time {
	if o.Location == nil {
		return t.UTC()
	}
	y, month, d := t.Date()
	h, min, s := t.Clock()
	return time.Date(y, month, d, h, min, s, t.Nanosecond(), o.Location).UTC()
}

// ToLocal converts a UTC instant to the provider's exchange-local wall
// clock.
func (o OffsetProvider) ToLocal(t time.Time) time.Time {
	if o.Location == nil {
		return t
	}
	return t.In(o.Location)
}
