// Package transport opens the raw byte stream named by a
// model.SubscriptionDataSource. It knows nothing about BaseData parsing —
// that's package reader's job — only how to get bytes for a locator: off
// local disk, over HTTP with a content-addressed cache, by polling a REST
// endpoint, or out of a zip archive entry.
package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/marketfeed/ingest/model"
)

// Transport opens the stream named by source. Callers must Close the
// returned ReadCloser.
type Transport interface {
	Open(ctx context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error)
}

// Registry resolves a model.TransportKind to the Transport that serves it,
// mirroring the way the teacher's exchange package picks a feed
// implementation per data source rather than hardcoding one.
type Registry struct {
	transports map[model.TransportKind]Transport
}

func NewRegistry() *Registry {
	return &Registry{transports: make(map[model.TransportKind]Transport)}
}

func (r *Registry) Register(kind model.TransportKind, t Transport) {
	r.transports[kind] = t
}

func (r *Registry) Open(ctx context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error) {
	t, ok := r.transports[source.Transport]
	if !ok {
		return nil, fmt.Errorf("no transport registered for kind %s", source.Transport)
	}
	return t.Open(ctx, source)
}
