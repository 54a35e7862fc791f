package transport

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/tools/log"
)

// REST fetches an endpoint for live-mode sources: each Open returns the
// body of one successful GET. Open calls are paced by a rate limiter set in
// requests per second, not by the subscription's resolution, and a failed
// GET is retried with backoff the same way the teacher's
// CandlesSubscription reconnect loop does (start 1s, double, cap 60s).
type REST struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewREST builds a polling transport rate-limited to ratePerSecond
// requests/second (burst of 1).
func NewREST(client *resty.Client, ratePerSecond float64) *REST {
	if client == nil {
		client = resty.New()
	}
	return &REST{client: client, limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1)}
}

func (r *REST) Open(ctx context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	b := &backoff.Backoff{Min: time.Second, Max: 60 * time.Second, Factor: 2, Jitter: true}
	for {
		resp, err := r.client.R().SetContext(ctx).Get(source.Locator)
		if err == nil && resp.IsSuccess() {
			return io.NopCloser(bytes.NewReader(resp.Body())), nil
		}
		if err != nil {
			log.Warnf("rest: poll of %s failed: %v", source.Locator, err)
		} else {
			log.Warnf("rest: poll of %s returned %d", source.Locator, resp.StatusCode())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		backoffSleep(ctx, b.Duration())
	}
}
