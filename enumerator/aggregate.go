package enumerator

import "github.com/marketfeed/ingest/model"

// Aggregate merges several child Enumerators producing points for the same
// subscription (e.g. a trade-bar source and a corporate-action source) into
// one time-ordered stream, released in strict non-decreasing Time order. On
// ties, children are drained in the order they were given, matching the
// registry insertion-order tie-break rule used throughout the pipeline.
type Aggregate struct {
	children []Enumerator
	primed   []bool
	err      error
	current  model.BaseData
}

func NewAggregate(children ...Enumerator) *Aggregate {
	return &Aggregate{children: children, primed: make([]bool, len(children))}
}

func (a *Aggregate) MoveNext() bool {
	best := -1
	for i, child := range a.children {
		if child == nil {
			continue
		}
		if !a.primed[i] {
			if !child.MoveNext() {
				if err := child.Err(); err != nil {
					a.err = err
					return false
				}
				child.Stop()
				a.children[i] = nil
				continue
			}
			a.primed[i] = true
		}
		if best == -1 || child.Current().Time.Before(a.children[best].Current().Time) {
			best = i
		}
	}
	if best == -1 {
		return false
	}
	a.current = a.children[best].Current()
	a.primed[best] = false
	return true
}

func (a *Aggregate) Current() model.BaseData { return a.current }
func (a *Aggregate) Err() error               { return a.err }
func (a *Aggregate) Stop() {
	for _, child := range a.children {
		if child != nil {
			child.Stop()
		}
	}
}
