// Package engine wires the transport/reader/enumerator/subscription/
// runner/merge/universe/admission stack into a single runnable pipeline,
// configured through functional options the way the teacher's NewBot/Option
// pair configures NinjaBot.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/marketfeed/ingest/admission"
	"github.com/marketfeed/ingest/auditlog"
	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/events"
	"github.com/marketfeed/ingest/merge"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/report"
	"github.com/marketfeed/ingest/runner"
	"github.com/marketfeed/ingest/service"
	"github.com/marketfeed/ingest/subscription"
	"github.com/marketfeed/ingest/tools/log"
	"github.com/marketfeed/ingest/universe"
)

// selectorFeed remembers the prototype config an AddUniverse-added symbol
// subscribes with, so additions/removals driven by a security-changes
// diff can be turned back into concrete SubscriptionDataConfig values.
type selectorFeed struct {
	selector *universe.Selector
	config   model.SubscriptionDataConfig
}

// Engine is the top-level orchestrator: it owns the subscription registry,
// the worker pool draining each subscription's enumerator chain, the
// synchronizer merging them into TimeSlice values, and the universe
// selectors that add or remove subscriptions as the run progresses.
type Engine struct {
	settings model.Settings

	resolveSource enumerator.SourceFactory
	openReader    enumerator.OpenFunc

	bus       *events.Bus
	registry  *subscription.Collection
	sync      *merge.Synchronizer
	limiter   *admission.Limiter
	pool      *runner.Pool
	feeds     []selectorFeed
	audit     *auditlog.Store
	notifier  service.Notifier
	callbacks service.AlgorithmCallbacks

	bufferSize int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithAlgorithmCallbacks registers the callback surface the engine drives
// once per TimeSlice and once per security-changes event.
func WithAlgorithmCallbacks(callbacks service.AlgorithmCallbacks) Option {
	return func(e *Engine) { e.callbacks = callbacks }
}

// WithNotifier registers a service.Notifier that receives every fault
// published on the event bus's error topics, alongside whatever the
// notifier's own Notify calls surface.
func WithNotifier(notifier service.Notifier) Option {
	return func(e *Engine) {
		e.notifier = notifier
		e.bus.Subscribe(events.TopicSubscriptionFault, func(ev events.Event) { notifyFault(notifier, ev) })
		e.bus.Subscribe(events.TopicInvalidSource, func(ev events.Event) { notifyFault(notifier, ev) })
		e.bus.Subscribe(events.TopicReaderError, func(ev events.Event) { notifyFault(notifier, ev) })
		e.bus.Subscribe(events.TopicAdmissionRejected, func(ev events.Event) { notifyFault(notifier, ev) })
		e.bus.Subscribe(events.TopicFatal, func(ev events.Event) { notifyFault(notifier, ev) })
	}
}

func notifyFault(notifier service.Notifier, ev events.Event) {
	if fault, ok := ev.Payload.(events.Fault); ok {
		notifier.OnFault(fault)
	}
}

// WithAuditLog records every universe addition/removal to store.
func WithAuditLog(store *auditlog.Store) Option {
	return func(e *Engine) { e.audit = store }
}

// WithBufferSize overrides the soft capacity of each subscription's
// EnqueueableBuffer. Defaults to 1024.
func WithBufferSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.bufferSize = size
		}
	}
}

// WithWorkerPool supplies a pre-built runner.Pool instead of the engine's
// default, settings-driven one.
func WithWorkerPool(pool *runner.Pool) Option {
	return func(e *Engine) { e.pool = pool }
}

// New builds an Engine. resolveSource and openReader together describe how
// a SubscriptionDataConfig's per-day sources are located and decoded; the
// engine itself stays agnostic to transport and file format, the same
// separation of concerns package enumerator's PerDayUnion assumes.
func New(settings model.Settings, resolveSource enumerator.SourceFactory, openReader enumerator.OpenFunc, options ...Option) (*Engine, error) {
	if resolveSource == nil || openReader == nil {
		return nil, fmt.Errorf("engine: resolveSource and openReader are required")
	}

	registry := subscription.NewCollection()
	e := &Engine{
		settings:      settings,
		resolveSource: resolveSource,
		openReader:    openReader,
		bus:           events.New(),
		registry:      registry,
		sync:          merge.New(registry),
		limiter:       admission.New(settings),
		bufferSize:    1024,
	}

	for _, option := range options {
		option(e)
	}

	if e.pool == nil {
		e.pool = runner.New(settings.ThreadCountOverride, e.bus)
	}

	return e, nil
}

// Bus exposes the engine's event bus so a host can subscribe to additional
// topics beyond what WithNotifier wires automatically.
func (e *Engine) Bus() *events.Bus { return e.bus }

// buildChain assembles one subscription's enumerator pipeline per §4.3: a
// per-day source union, fill-forward gated on the shared resolution tracker
// and a trading-hours calendar, and a final subscription filter dropping
// points the calendar says fall outside the session. invalid_source and
// reader_error faults are published from inside the chain, at the point
// they actually occur, rather than collapsed into one generic error once
// the chain unwinds.
func (e *Engine) buildChain(config model.SubscriptionDataConfig) enumerator.Enumerator {
	symbol := config.Symbol.String()
	onInvalidSource := func(src model.SubscriptionDataSource, err error) {
		e.bus.PublishFault(events.TopicInvalidSource, symbol, fmt.Sprintf("source %q: %v", src.Locator, err), err)
	}
	onReaderError := func(err error) {
		e.bus.PublishFault(events.TopicReaderError, symbol, err.Error(), err)
	}

	var chain enumerator.Enumerator = enumerator.NewPerDayUnion(config, e.resolveSource, e.openReader, onInvalidSource, onReaderError)

	tracker := enumerator.NewResolutionTracker(e.registry.FillForwardResolution)
	fillForwardEnabled := config.FillForward && config.Resolution != model.ResolutionTick
	chain = enumerator.NewFillForward(chain, tracker, fillForwardEnabled, config.IsOpenAt)

	chain = enumerator.NewSubscriptionFilter(chain, func(d model.BaseData) bool {
		end := d.EndTime
		if end.IsZero() {
			end = d.Time
		}
		return config.IsOpenAt(end)
	})

	return chain
}

// AddSubscription admits, builds, and starts draining a new subscription.
// It is safe to call concurrently with Run.
func (e *Engine) AddSubscription(ctx context.Context, config model.SubscriptionDataConfig) error {
	ok, reason := e.limiter.Admit(config.Resolution)
	if !ok {
		e.bus.PublishFault(events.TopicAdmissionRejected, config.Symbol.String(), reason, nil)
		return fmt.Errorf("engine: subscription rejected: %s", reason)
	}

	buffer := enumerator.NewEnqueueableBuffer(e.bufferSize)
	sub := subscription.New(config, buffer)
	e.registry.Add(sub)

	job := runner.Job{
		Name:   config.Symbol.String(),
		Source: e.buildChain(config),
		Buffer: buffer,
		OnFinish: func(err error) {
			sub.MarkFinished()
		},
	}

	if !e.pool.Submit(ctx, job) {
		e.registry.Remove(config.Key())
		e.limiter.Release(config.Resolution)
		return ctx.Err()
	}
	return nil
}

// AddUniverse subscribes to feedConfig as this universe's driving feed: its
// Kind is forced to DataKindUniverseSelection and it's marked internal (it
// never reaches the algorithm callback directly), and its Subscription is
// bound to selector so package merge's Synchronizer routes its packets into
// selector.Apply instead of the delivered TimeSlice, per §4.6/§4.7.
func (e *Engine) AddUniverse(ctx context.Context, selector *universe.Selector, feedConfig model.SubscriptionDataConfig) error {
	feedConfig.Kind = model.DataKindUniverseSelection
	feedConfig.IsInternal = true
	feedConfig.Resolution = selector.Resolution

	ok, reason := e.limiter.Admit(feedConfig.Resolution)
	if !ok {
		e.bus.PublishFault(events.TopicAdmissionRejected, feedConfig.Symbol.String(), reason, nil)
		return fmt.Errorf("engine: universe feed rejected: %s", reason)
	}

	buffer := enumerator.NewEnqueueableBuffer(e.bufferSize)
	sub := subscription.New(feedConfig, buffer)
	sub.BindUniverse(selector)
	e.registry.Add(sub)
	e.feeds = append(e.feeds, selectorFeed{selector: selector, config: feedConfig})

	job := runner.Job{
		Name:     selector.Name,
		Source:   e.buildChain(feedConfig),
		Buffer:   buffer,
		OnFinish: func(err error) { sub.MarkFinished() },
	}

	if !e.pool.Submit(ctx, job) {
		e.registry.Remove(feedConfig.Key())
		e.limiter.Release(feedConfig.Resolution)
		return ctx.Err()
	}
	return nil
}

// RemoveSubscription stops and unregisters the subscription identified by
// config's key, releasing its admission slot. A no-op if it isn't live.
func (e *Engine) RemoveSubscription(config model.SubscriptionDataConfig) {
	sub, ok := e.registry.Remove(config.Key())
	if !ok {
		return
	}
	sub.Buffer.Stop()
	e.limiter.Release(config.Resolution)
}

// applyUniverseChanges acts on the SecurityChanges a TimeSlice carried back
// from the synchronizer (produced in-loop by universe.Selector.Apply):
// currency feeds are injected for any addition whose quote currency differs
// from the account currency, new members are subscribed, removed members
// are unsubscribed, and the change is audited and handed to the algorithm
// callback. This replaces the old wall-clock reconcile ticker — changes
// only ever originate from the data plane now.
func (e *Engine) applyUniverseChanges(ctx context.Context, changes model.SecurityChanges) {
	var feed selectorFeed
	for _, f := range e.feeds {
		if f.selector.Name == changes.Universe {
			feed = f
			break
		}
	}
	if feed.selector == nil {
		return
	}

	internal := make(map[model.Symbol]bool)
	for _, sym := range universe.CurrencyFeedSymbols(changes.Additions, e.settings.AccountCurrency) {
		internal[sym] = true
		changes.Additions = append(changes.Additions, sym)
	}

	for _, sym := range changes.Additions {
		config := feed.config
		config.Symbol = sym
		config.Kind = model.DataKindTradeBar
		config.TickType = model.TickTypeTrade
		config.IsInternal = internal[sym]
		config.FillForward = true
		if err := e.AddSubscription(ctx, config); err != nil {
			log.Warnf("engine: universe %s failed to subscribe %s: %v", changes.Universe, sym, err)
		}
	}
	for _, sym := range changes.Removals {
		e.RemoveSubscription(model.SubscriptionDataConfig{
			Symbol:     sym,
			Resolution: feed.selector.Resolution,
			Kind:       model.DataKindTradeBar,
			TickType:   model.TickTypeTrade,
		})
	}

	if e.audit != nil {
		if err := e.audit.Append(changes); err != nil {
			log.Warnf("engine: failed to persist universe change: %v", err)
		}
	}
	e.bus.Publish(events.Event{Topic: events.TopicSecurityChanges, Payload: changes})
	if e.callbacks != nil {
		e.callbacks.OnSecuritiesChanged(changes)
	}
}

// Run drives the synchronizer's merge loop until every subscription has
// finished, then prints a run summary. Universe-selection additions and
// removals are no longer polled off a wall-clock ticker: each TimeSlice's
// SecurityChanges (produced in-loop, per §4.6/§4.7, whenever a
// universe-selection subscription's packet reaches its frontier) is acted
// on as it arrives. Run blocks until the sentinel TimeSlice is reached or
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer e.bus.Close()

	summary := report.Summary{Started: time.Now()}

	for {
		if ctx.Err() != nil {
			break
		}
		stepStart := time.Now()
		slice, ok := e.sync.Next()
		if !ok {
			break
		}
		summary.SliceLatency = append(summary.SliceLatency, time.Since(stepStart).Seconds())

		if slice.IsSentinel() {
			e.bus.Publish(events.Event{Topic: events.TopicEndOfAlgorithm})
			if e.callbacks != nil {
				e.callbacks.OnEndOfAlgorithm()
			}
			break
		}

		for _, changes := range slice.SecurityChanges {
			e.applyUniverseChanges(ctx, changes)
		}

		if len(slice.Packets) == 0 {
			continue
		}

		summary.SlicesEmitted++
		e.bus.Publish(events.Event{Topic: events.TopicTimeSlice, Payload: slice})
		if e.callbacks != nil {
			e.callbacks.OnData(slice)
		}
	}

	summary.Finished = time.Now()
	for _, stat := range e.limiter.Stats() {
		summary.Resolutions = append(summary.Resolutions, report.ResolutionStat{
			Resolution:     stat.Resolution.String(),
			Active:         stat.Active,
			Rejected:       e.limiter.Rejected(),
			EstimatedBytes: admission.EstimatedBytes(stat.Resolution, stat.Active),
		})
	}

	e.pool.Shutdown()
	summary.Print()
	return ctx.Err()
}
