package enumerator

import (
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/reader"
)

// SourceFactory produces the SubscriptionDataSource(s) covering one
// calendar day for a SubscriptionDataConfig, and an OpenFunc opens a
// reader.Reader for a given source, threading onReaderError down so a
// per-record parse failure surfaces as a reader_error event rather than
// aborting the read. PerDayUnion calls back into these rather than owning
// transport/reader construction itself, so it stays agnostic to which
// transport kind backs a config.
type SourceFactory func(config model.SubscriptionDataConfig, day int) ([]model.SubscriptionDataSource, bool)
type OpenFunc func(source model.SubscriptionDataSource, onReaderError func(error)) (reader.Reader, error)

// readerAdapter lifts a reader.Reader (Close) to the Enumerator interface
// (Stop) so PerDayUnion can merge a day's several sources through Aggregate
// instead of silently reading only the first one.
type readerAdapter struct{ r reader.Reader }

func (a readerAdapter) MoveNext() bool          { return a.r.MoveNext() }
func (a readerAdapter) Current() model.BaseData { return a.r.Current() }
func (a readerAdapter) Err() error              { return a.r.Err() }
func (a readerAdapter) Stop()                   { a.r.Close() }

// PerDayUnion is the lowest stage of the pipeline: it rolls from one day's
// SubscriptionDataSource(s) to the next as the current reader is exhausted,
// presenting the whole multi-day run as a single Enumerator. A day with
// more than one source (eg. options chains split across files) merges them
// through Aggregate so every source is read, not just the first. Grounded
// on the teacher's CandlesSubscription, which likewise treats "read until
// exhausted, then move on" as a single logical stream.
//
// Per §7, a source that can't be opened is an invalid_source fault: it
// ends this subscription's stream gracefully (MoveNext returns false, Err
// stays nil) rather than terminating the whole run.
type PerDayUnion struct {
	config          model.SubscriptionDataConfig
	factory         SourceFactory
	open            OpenFunc
	onInvalidSource func(model.SubscriptionDataSource, error)
	onReaderError   func(error)

	day     int
	current Enumerator
	err     error
	data    model.BaseData
	ended   bool
}

func NewPerDayUnion(
	config model.SubscriptionDataConfig,
	factory SourceFactory,
	open OpenFunc,
	onInvalidSource func(model.SubscriptionDataSource, error),
	onReaderError func(error),
) *PerDayUnion {
	return &PerDayUnion{
		config:          config,
		factory:         factory,
		open:            open,
		onInvalidSource: onInvalidSource,
		onReaderError:   onReaderError,
	}
}

func (p *PerDayUnion) MoveNext() bool {
	if p.ended {
		return false
	}
	for {
		if p.current != nil {
			if p.current.MoveNext() {
				p.data = p.current.Current()
				return true
			}
			if err := p.current.Err(); err != nil {
				p.err = err
				p.ended = true
				return false
			}
			p.current.Stop()
			p.current = nil
			p.day++
		}

		sources, ok := p.factory(p.config, p.day)
		if !ok {
			p.ended = true
			return false
		}
		if len(sources) == 0 {
			p.day++
			continue
		}

		children := make([]Enumerator, 0, len(sources))
		for _, src := range sources {
			r, err := p.open(src, p.onReaderError)
			if err != nil {
				for _, child := range children {
					child.Stop()
				}
				if p.onInvalidSource != nil {
					p.onInvalidSource(src, err)
				}
				p.ended = true
				return false
			}
			children = append(children, readerAdapter{r: r})
		}

		if len(children) == 1 {
			p.current = children[0]
		} else {
			p.current = NewAggregate(children...)
		}
	}
}

func (p *PerDayUnion) Current() model.BaseData { return p.data }
func (p *PerDayUnion) Err() error               { return p.err }
func (p *PerDayUnion) Stop() {
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}
