package subscription

import (
	"fmt"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"golang.org/x/exp/slices"

	"github.com/marketfeed/ingest/model"
)

// Collection is the registry of live subscriptions. It keeps insertion
// order via set.LinkedHashSetString (the same ordered-set type the teacher
// uses for its feed registry) so that Snapshot() — and therefore the
// synchronizer's tie-break rule — always walks subscriptions in the order
// they were added, never map iteration order.
type Collection struct {
	mu      sync.RWMutex
	order   *set.LinkedHashSetString
	byKey   map[string]*Subscription
}

func NewCollection() *Collection {
	return &Collection{
		order: set.NewLinkedHashSetString(),
		byKey: make(map[string]*Subscription),
	}
}

func keyString(key model.ConfigKey) string {
	return fmt.Sprintf("%s|%d|%d|%d", key.Symbol, key.Resolution, key.Kind, key.TickType)
}

// Add registers sub, or is a no-op if its key is already present.
func (c *Collection) Add(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := keyString(sub.Key())
	if _, exists := c.byKey[k]; exists {
		return
	}
	c.order.Add(k)
	c.byKey[k] = sub
}

// Remove drops the subscription identified by key, returning it if it was
// present so the caller (engine.RemoveSubscription) can stop its buffer.
func (c *Collection) Remove(key model.ConfigKey) (*Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := keyString(key)
	sub, ok := c.byKey[k]
	if !ok {
		return nil, false
	}
	delete(c.byKey, k)
	c.order.Remove(k)
	return sub, true
}

// Snapshot returns every live subscription in registry insertion order. The
// returned slice is a copy; the caller can range over it while another
// goroutine mutates the Collection concurrently.
func (c *Collection) Snapshot() []*Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Subscription, 0, len(c.byKey))
	for k := range c.order.Iter() {
		if sub, ok := c.byKey[k]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// Len reports how many subscriptions are currently registered.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

// FillForwardResolution returns min(Resolution.Increment()) across every
// active, non-internal, non-tick subscription, satisfying the spec's
// min({r : r=config.resolution, r!=tick, !config.is_internal_feed}): the
// shared synthesis cadence tracks the finest active *real* subscription
// regardless of whether that particular subscription itself requested
// fill-forward. It backs the ResolutionTracker handed to every
// enumerator.FillForward stage.
func (c *Collection) FillForwardResolution() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var increments []time.Duration
	for _, sub := range c.byKey {
		if sub.Config.IsInternal {
			continue
		}
		if inc := sub.Config.Resolution.Increment(); inc > 0 {
			increments = append(increments, inc)
		}
	}
	if len(increments) == 0 {
		return 0
	}
	slices.Sort(increments)
	return increments[0]
}

// AllFinished reports whether every registered subscription has been
// marked finished; an empty registry counts as finished.
func (c *Collection) AllFinished() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.byKey) == 0 {
		return true
	}
	for _, sub := range c.byKey {
		if !sub.Finished() {
			return false
		}
	}
	return true
}
