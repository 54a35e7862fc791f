// Package service defines the interfaces the engine expects its host
// application to implement: how a live subscription gets its bytes, how
// synchronized slices and security changes reach the algorithm, and how
// operational events get surfaced.
package service

import (
	"context"

	"github.com/marketfeed/ingest/events"
	"github.com/marketfeed/ingest/model"
)

// DataQueueHandler resolves where a subscription's bytes live and is
// the live counterpart to historical transport.Transport lookups: a
// backtest reads files off disk or a remote cache, a live run instead
// asks a streaming handler to start pushing ticks. Implementations
// that only support backtesting may return an unimplemented error.
type DataQueueHandler interface {
	// Subscribe starts delivery for config and returns a channel of
	// decoded data, closed when Unsubscribe is called or ctx is done.
	Subscribe(ctx context.Context, config model.SubscriptionDataConfig) (<-chan model.BaseData, error)
	Unsubscribe(config model.SubscriptionDataConfig) error
}

// AlgorithmCallbacks is the surface the engine drives once per
// synchronized time slice.
type AlgorithmCallbacks interface {
	// OnData is called once per non-empty, non-sentinel TimeSlice.
	OnData(slice model.TimeSlice)
	// OnSecuritiesChanged is called whenever universe reconciliation
	// adds or removes symbols.
	OnSecuritiesChanged(changes model.SecurityChanges)
	// OnEndOfAlgorithm is called once after the synchronizer's
	// sentinel slice, before the engine shuts down.
	OnEndOfAlgorithm()
}

// Notifier surfaces operational events to whatever the host wants — a
// log line, a Slack post, a dashboard.
type Notifier interface {
	Notify(message string)
	OnFault(fault events.Fault)
}
