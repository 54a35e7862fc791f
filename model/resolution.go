package model

import (
	"fmt"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// Resolution is the sampling granularity of a data feed. Tick has no fixed
// increment; every other resolution advances the frontier by a fixed
// duration each bar.
type Resolution int

const (
	ResolutionTick Resolution = iota
	ResolutionSecond
	ResolutionMinute
	ResolutionHour
	ResolutionDaily
)

func (r Resolution) String() string {
	switch r {
	case ResolutionTick:
		return "tick"
	case ResolutionSecond:
		return "second"
	case ResolutionMinute:
		return "minute"
	case ResolutionHour:
		return "hour"
	case ResolutionDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Increment returns the fixed bar period for the resolution. Tick data has
// no fixed period and Increment returns 0; callers must treat that as "no
// fill-forward synthesis, no round-down".
func (r Resolution) Increment() time.Duration {
	switch r {
	case ResolutionTick:
		return 0
	case ResolutionSecond:
		return time.Second
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParseResolution accepts the same duration-string shorthand the teacher
// used for candle timeframes ("1m", "1h", "1d", ...) and maps it onto the
// fixed Resolution enum, rejecting anything that doesn't land exactly on
// one of the five buckets.
func ParseResolution(s string) (Resolution, error) {
	if s == "tick" {
		return ResolutionTick, nil
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid resolution %q: %w", s, err)
	}
	switch d {
	case time.Second:
		return ResolutionSecond, nil
	case time.Minute:
		return ResolutionMinute, nil
	case time.Hour:
		return ResolutionHour, nil
	case 24 * time.Hour:
		return ResolutionDaily, nil
	default:
		return 0, fmt.Errorf("unsupported resolution %q: must be 1s, 1m, 1h or 1d", s)
	}
}

// Finer reports whether r is a strictly higher-frequency resolution than
// other (tick is finer than everything, daily is finer than nothing).
func (r Resolution) Finer(other Resolution) bool {
	rank := func(res Resolution) int {
		switch res {
		case ResolutionTick:
			return 0
		case ResolutionSecond:
			return 1
		case ResolutionMinute:
			return 2
		case ResolutionHour:
			return 3
		default:
			return 4
		}
	}
	return rank(r) < rank(other)
}
