package enumerator

import (
	"time"

	"github.com/marketfeed/ingest/model"
)

// ResolutionTracker gives FillForward the current min(...) fill-forward
// resolution across every live subscription through a getter; the engine
// passes subscription.Collection.FillForwardResolution, which recomputes
// the value from the registry on every call, so additions and removals
// take effect mid-run. FillForward never mutates it, only reads the latest
// value on each step.
type ResolutionTracker struct {
	get func() time.Duration
}

func NewResolutionTracker(get func() time.Duration) *ResolutionTracker {
	return &ResolutionTracker{get: get}
}

func (r *ResolutionTracker) Increment() time.Duration {
	if r == nil || r.get == nil {
		return 0
	}
	return r.get()
}

// FillForward synthesizes a point at every resolution increment where the
// wrapped source emitted nothing, repeating the last real observation and
// marking it IsFillForward. It passes real points through untouched. Per
// §8, it must never synthesize a point that falls inside a closed exchange
// interval (nights, weekends, holidays): isOpen reports whether the
// exchange is trading at a given instant, and any gap slot it rejects is
// silently skipped rather than emitted — the cursor still advances through
// it, it just produces nothing for that slot. A nil isOpen treats every
// instant as open, matching the teacher's always-on fill-forward.
type FillForward struct {
	source   Enumerator
	tracker  *ResolutionTracker
	enabled  bool
	isOpen   func(time.Time) bool
	last     model.BaseData
	haveLast bool
	pending  *model.BaseData
	current  model.BaseData
}

func NewFillForward(source Enumerator, tracker *ResolutionTracker, enabled bool, isOpen func(time.Time) bool) *FillForward {
	return &FillForward{source: source, tracker: tracker, enabled: enabled, isOpen: isOpen}
}

func (f *FillForward) isOpenAt(t time.Time) bool {
	if f.isOpen == nil {
		return true
	}
	return f.isOpen(t)
}

func (f *FillForward) MoveNext() bool {
	for {
		// A gap may span more than one increment; keep stepping through
		// the pending real value's slot until we've caught up to it,
		// skipping any candidate slot the exchange calendar says is closed.
		if f.pending != nil {
			increment := f.tracker.Increment()
			gapStart := f.last.Time.Add(increment)
			if increment > 0 && gapStart.Before(f.pending.Time) {
				f.last.Time = gapStart
				if !f.isOpenAt(gapStart) {
					continue
				}
				synthetic := f.last
				synthetic.EndTime = gapStart.Add(increment)
				synthetic.IsFillForward = true
				f.current = synthetic
				f.last = synthetic
				return true
			}
			f.current = *f.pending
			f.last = *f.pending
			f.pending = nil
			return true
		}

		if !f.source.MoveNext() {
			return false
		}
		next := f.source.Current()

		if !f.enabled || !f.haveLast {
			f.current = next
			f.last = next
			f.haveLast = true
			return true
		}

		increment := f.tracker.Increment()
		if increment <= 0 {
			f.current = next
			f.last = next
			return true
		}

		gapStart := f.last.Time.Add(increment)
		if !gapStart.Before(next.Time) {
			f.current = next
			f.last = next
			return true
		}

		pendingCopy := next
		f.pending = &pendingCopy
	}
}

func (f *FillForward) Current() model.BaseData { return f.current }
func (f *FillForward) Err() error               { return f.source.Err() }
func (f *FillForward) Stop()                    { f.source.Stop() }
