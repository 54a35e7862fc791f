// Package runner implements the parallel worker pool that drains each
// subscription's enumerator chain into its EnqueueableBuffer, generalizing
// the teacher's goroutine-per-feed pattern (exchange/exchange.go Start) into
// a bounded pool so the number of concurrently active readers doesn't scale
// unbounded with subscription count.
package runner

import (
	"context"
	"runtime"
	"sync"

	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/events"
	"github.com/marketfeed/ingest/tools/log"
)

// Job is one subscription's enumerator chain plus the buffer it feeds.
type Job struct {
	Name      string
	Source    enumerator.Enumerator
	Buffer    *enumerator.EnqueueableBuffer
	OnFinish  func(err error)
}

// Pool drains Jobs concurrently, bounded to a fixed worker count. Workers
// pull from a shared channel so a fast-draining subscription's worker
// immediately picks up the next queued job instead of sitting idle.
type Pool struct {
	workers int
	bus     *events.Bus
	jobs    chan Job
	wg      sync.WaitGroup
}

// New builds a Pool sized workers (at least 1). If workers <= 0, it
// defaults to max(1, min(4, NumCPU-3)), the same conservative headroom the
// spec's concurrency model calls for so the pool never starves the host of
// CPU for everything else running alongside the engine.
func New(workers int, bus *events.Bus) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU() - 3
		if workers > 4 {
			workers = 4
		}
		if workers < 1 {
			workers = 1
		}
	}
	p := &Pool{workers: workers, bus: bus, jobs: make(chan Job)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.drain(job)
	}
}

func (p *Pool) drain(job Job) {
	for job.Source.MoveNext() {
		job.Buffer.Enqueue(job.Source.Current())
	}
	err := job.Source.Err()
	if err != nil {
		log.Errorf("runner: subscription %s faulted: %v", job.Name, err)
		if p.bus != nil {
			p.bus.PublishFault(events.TopicSubscriptionFault, job.Name, "enumerator chain error", err)
		}
	}
	job.Buffer.Done(err)
	if job.OnFinish != nil {
		job.OnFinish(err)
	}
}

// Submit enqueues job for the next free worker. Blocks if every worker is
// currently busy, which is the pool's own backpressure: a stuck reader
// slows admission of new jobs rather than spawning unbounded goroutines.
func (p *Pool) Submit(ctx context.Context, job Job) bool {
	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Shutdown closes the job channel and waits for in-flight jobs to drain.
// Callers must stop Submitting before calling Shutdown.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}
