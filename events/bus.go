// Package events implements the engine's error and callback taxonomy as an
// in-process publish-subscribe bus: one channel per topic, fanned out to
// every subscriber by a dedicated goroutine. It replaces exceptions-as-flow
// control with typed, inspectable values a caller can choose to act on,
// log, or ignore.
package events

import "sync"

// Topic names one category of event flowing through the bus.
type Topic string

const (
	// TopicInvalidSource fires when a SubscriptionDataSource can't be
	// opened at all (bad locator, unreachable host, malformed archive).
	TopicInvalidSource Topic = "invalid_source"
	// TopicReaderError fires when a source opened fine but a record
	// inside it failed to parse.
	TopicReaderError Topic = "reader_error"
	// TopicSubscriptionFault fires when a subscription's enumerator chain
	// errors out mid-stream and the subscription is torn down.
	TopicSubscriptionFault Topic = "subscription_fault"
	// TopicAdmissionRejected fires when SubscriptionLimiter refuses a new
	// subscription.
	TopicAdmissionRejected Topic = "admission_rejected"
	// TopicFatal fires for errors that stop the engine's run loop.
	TopicFatal Topic = "fatal"

	// TopicTimeSlice, TopicSecurityChanges and TopicEndOfAlgorithm carry
	// the algorithm callback surface (spec §6) over the same bus, so a
	// consumer can subscribe to both error and data events uniformly.
	TopicTimeSlice       Topic = "on_time_slice"
	TopicSecurityChanges Topic = "on_security_changes"
	TopicEndOfAlgorithm  Topic = "on_end_of_algorithm"
)

// Event is one published value: Topic says what kind, Payload carries the
// topic-specific data (a model.TimeSlice, a model.SecurityChanges, an
// error, or a Fault).
type Event struct {
	Topic   Topic
	Payload any
}

// Fault is the Payload shape for the five error topics.
type Fault struct {
	Symbol string
	Reason string
	Err    error
}

// Consumer receives every Event published on a topic it subscribed to.
type Consumer func(Event)

// Bus is a channel-per-topic fan-out publisher. The zero value is not
// usable; construct with New.
type Bus struct {
	mu          sync.RWMutex
	channels    map[Topic]chan Event
	subscribers map[Topic][]Consumer
	started     map[Topic]bool
}

func New() *Bus {
	return &Bus{
		channels:    make(map[Topic]chan Event),
		subscribers: make(map[Topic][]Consumer),
		started:     make(map[Topic]bool),
	}
}

// Subscribe registers consumer for topic. Safe to call at any time: the
// first subscription to a topic starts its fan-out goroutine, and a
// consumer added later still receives every event published from that
// point on.
func (b *Bus) Subscribe(topic Topic, consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.channels[topic]; !ok {
		b.channels[topic] = make(chan Event, 64)
	}
	b.subscribers[topic] = append(b.subscribers[topic], consumer)
	if !b.started[topic] {
		b.started[topic] = true
		go b.fanOut(topic, b.channels[topic])
	}
}

func (b *Bus) fanOut(topic Topic, ch chan Event) {
	for ev := range ch {
		b.mu.RLock()
		subs := b.subscribers[topic]
		b.mu.RUnlock()
		for _, consumer := range subs {
			consumer(ev)
		}
	}
}

// Publish delivers ev to every subscriber of ev.Topic. Publishing to a
// topic nobody has subscribed to is a silent no-op.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	ch, ok := b.channels[ev.Topic]
	b.mu.RUnlock()
	if !ok {
		return
	}
	ch <- ev
}

// PublishFault is a convenience wrapper for the five error topics.
func (b *Bus) PublishFault(topic Topic, symbol, reason string, err error) {
	b.Publish(Event{Topic: topic, Payload: Fault{Symbol: symbol, Reason: reason, Err: err}})
}

// Close stops accepting new events. It does not drain in-flight events;
// callers should stop publishing before calling Close.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.channels {
		close(ch)
	}
}
