package enumerator

import "github.com/marketfeed/ingest/model"

// SubscriptionFilter is the final pipeline stage before a point reaches the
// EnqueueableBuffer: it drops points outside extended-hours when a config
// doesn't request them, and points that fail a caller-supplied predicate
// (e.g. sanity bounds on price). It never synthesizes data, only removes
// it, so it must run after FillForward.
type SubscriptionFilter struct {
	source  Enumerator
	keep    func(model.BaseData) bool
	current model.BaseData
}

func NewSubscriptionFilter(source Enumerator, keep func(model.BaseData) bool) *SubscriptionFilter {
	return &SubscriptionFilter{source: source, keep: keep}
}

func (s *SubscriptionFilter) MoveNext() bool {
	for s.source.MoveNext() {
		data := s.source.Current()
		if s.keep == nil || s.keep(data) {
			s.current = data
			return true
		}
	}
	return false
}

func (s *SubscriptionFilter) Current() model.BaseData { return s.current }
func (s *SubscriptionFilter) Err() error               { return s.source.Err() }
func (s *SubscriptionFilter) Stop()                    { s.source.Stop() }
