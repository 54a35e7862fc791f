// Package admission implements the subscription limiter: a soft,
// per-resolution cap on how many subscriptions may be active at once, plus
// a rough per-subscription memory estimate used to reject additions that
// would push the engine over its resource budget. Grounded on the
// teacher's Settings-driven limits and the thread-safe bookkeeping style of
// model/priorityqueue.go.
package admission

import (
	"fmt"
	"sync"

	"github.com/marketfeed/ingest/model"
)

const megabyte = 1 << 20

// bytesPerResolution is the spec's §4.8 memory-estimate weight per
// subscription: E = 34·|tick| + 10·|second| + 2·|minute| megabytes. Hour
// and Daily aren't part of that formula — they're unbounded by count
// already and contribute nothing to the estimate (the zero value of a
// missing map key), so piling on Hour/Daily subscriptions can never push
// Tick/Second/Minute admissions over budget.
var bytesPerResolution = map[model.Resolution]int64{
	model.ResolutionTick:   34 * megabyte,
	model.ResolutionSecond: 10 * megabyte,
	model.ResolutionMinute: 2 * megabyte,
}

// Limiter enforces a soft cap per resolution, mirroring the spec's
// TickLimit/SecondLimit/MinuteLimit configuration knobs, plus the
// conjunctive memory-estimate cap from §4.8's can_add formula: an addition
// is admitted only when it both stays under its resolution's count limit
// and keeps the recomputed memory estimate at or under maxEstimate, the
// budget implied by running every resolution at its configured limit.
// Resolutions with no explicit cap (Hour, Daily) are unbounded on count,
// and contribute nothing to the memory estimate.
type Limiter struct {
	mu          sync.Mutex
	limits      map[model.Resolution]int
	active      map[model.Resolution]int
	maxEstimate int64
	rejected    int
}

func New(settings model.Settings) *Limiter {
	maxEstimate := EstimatedBytes(model.ResolutionTick, settings.TickLimit) +
		EstimatedBytes(model.ResolutionSecond, settings.SecondLimit) +
		EstimatedBytes(model.ResolutionMinute, settings.MinuteLimit)

	return &Limiter{
		limits: map[model.Resolution]int{
			model.ResolutionTick:   settings.TickLimit,
			model.ResolutionSecond: settings.SecondLimit,
			model.ResolutionMinute: settings.MinuteLimit,
		},
		active:      make(map[model.Resolution]int),
		maxEstimate: maxEstimate,
	}
}

// Admit reports whether a new subscription at resolution may be added:
// the conjunction (current_count < resolution_limit, so a limit of N admits
// N subscriptions and a limit of 0 leaves the count uncapped) AND
// (recomputed_estimate <= max_estimate). On rejection it returns a
// human-readable reason, per the spec's error design.
func (l *Limiter) Admit(resolution model.Resolution) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, capped := l.limits[resolution]
	if capped && limit > 0 && l.active[resolution] >= limit {
		l.rejected++
		return false, fmt.Sprintf("resolution %s at its subscription limit (%d)", resolution, limit)
	}

	if l.maxEstimate > 0 {
		projected := l.active[resolution] + 1
		estimate := EstimatedBytes(resolution, projected)
		for res, count := range l.active {
			if res == resolution {
				continue
			}
			estimate += EstimatedBytes(res, count)
		}
		if estimate > l.maxEstimate {
			l.rejected++
			return false, fmt.Sprintf("admitting would push estimated memory to %d bytes, over budget %d", estimate, l.maxEstimate)
		}
	}

	l.active[resolution]++
	return true, ""
}

// Release frees one slot at resolution, called when a subscription is
// removed by universe reconciliation.
func (l *Limiter) Release(resolution model.Resolution) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[resolution] > 0 {
		l.active[resolution]--
	}
}

// EstimatedBytes returns the rough memory cost of count subscriptions at
// resolution.
func EstimatedBytes(resolution model.Resolution, count int) int64 {
	return bytesPerResolution[resolution] * int64(count)
}

// Stats reports the limiter's current per-resolution occupancy, used by
// package report to populate the run summary table.
type Stats struct {
	Resolution model.Resolution
	Active     int
	Limit      int
}

func (l *Limiter) Stats() []Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Stats, 0, len(l.active))
	for res, active := range l.active {
		out = append(out, Stats{Resolution: res, Active: active, Limit: l.limits[res]})
	}
	return out
}

func (l *Limiter) Rejected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rejected
}
