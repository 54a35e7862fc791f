package model

import "time"

// Universe is a named, ordered set of symbols selected by a universe
// selection function. Members carry no state beyond their Symbol; the
// selection function is re-run on a schedule and the result diffed against
// the previous snapshot by package universe.
type Universe struct {
	Name       string
	Resolution Resolution
	Members    []Symbol
}

// SecurityChanges records one reconciliation's additions and removals,
// attached to the TimeSlice it took effect on and persisted by package
// auditlog for later inspection.
type SecurityChanges struct {
	Time      time.Time
	Universe  string
	Additions []Symbol
	Removals  []Symbol
}

func (c SecurityChanges) IsEmpty() bool {
	return len(c.Additions) == 0 && len(c.Removals) == 0
}
