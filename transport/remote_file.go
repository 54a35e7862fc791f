package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jpillora/backoff"

	"github.com/marketfeed/ingest/cache"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/tools/log"
)

// RemoteFile fetches sources whose Locator is a URL, consulting a
// content-addressed cache.Store first and deduping concurrent fetches of
// the same URL behind a per-key lock, per the spec's "single in-flight
// entry per URL" requirement.
type RemoteFile struct {
	client *resty.Client
	cache  *cache.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRemoteFile(client *resty.Client, store *cache.Store) *RemoteFile {
	if client == nil {
		client = resty.New()
	}
	return &RemoteFile{client: client, cache: store, locks: make(map[string]*sync.Mutex)}
}

func (r *RemoteFile) keyLock(url string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[url]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[url] = l
	return l
}

func (r *RemoteFile) Open(ctx context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error) {
	url := source.Locator
	lock := r.keyLock(url)
	lock.Lock()
	defer lock.Unlock()

	if entry, found, err := r.cache.Get(url); err == nil && found {
		log.Debugf("remote_file: cache hit for %s", url)
		return io.NopCloser(bytes.NewReader(entry.Body)), nil
	}

	b := &backoff.Backoff{Min: time.Second, Max: 60 * time.Second, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		resp, err := r.client.R().SetContext(ctx).Get(url)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode() >= 500 {
			lastErr = fmt.Errorf("remote_file: %s returned %d", url, resp.StatusCode())
		} else if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("remote_file: %s returned %d", url, resp.StatusCode())
		} else {
			if err := r.cache.Put(cache.Entry{URL: url, ETag: resp.Header().Get("ETag"), Body: resp.Body()}); err != nil {
				log.Warnf("remote_file: failed to cache %s: %v", url, err)
			}
			return io.NopCloser(bytes.NewReader(resp.Body())), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		log.Warnf("remote_file: retrying %s after error: %v", url, lastErr)
		backoffSleep(ctx, b.Duration())
	}
	return nil, fmt.Errorf("remote_file: exhausted retries for %s: %w", url, lastErr)
}
