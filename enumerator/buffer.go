package enumerator

import (
	"sync"

	"github.com/marketfeed/ingest/model"
)

// EnqueueableBuffer is the bounded, single-producer/single-consumer handoff
// between a runner worker (producer, draining a subscription's enumerator
// chain) and the synchronizer (consumer, draining one buffer per active
// subscription each merge step). It is itself an Enumerator so the
// synchronizer can treat "live buffered subscription" and "in-process
// enumerator chain" uniformly.
//
// Capacity bounds memory: once softLimit items are queued, Enqueue blocks
// the producer until the consumer catches up or the buffer is stopped, the
// same backpressure the teacher's goroutine-per-feed channels give for free
// by being unbuffered.
type EnqueueableBuffer struct {
	mu        sync.Mutex
	notEmpty  *sync.Cond
	notFull   *sync.Cond
	items     []model.BaseData
	softLimit int
	done      bool
	err       error

	current model.BaseData
}

func NewEnqueueableBuffer(softLimit int) *EnqueueableBuffer {
	b := &EnqueueableBuffer{softLimit: softLimit}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b
}

// Enqueue appends data, blocking while the buffer is at softLimit. Safe to
// call from exactly one producer goroutine.
func (b *EnqueueableBuffer) Enqueue(data model.BaseData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.items) >= b.softLimit && !b.done {
		b.notFull.Wait()
	}
	if b.done {
		return
	}
	b.items = append(b.items, data)
	b.notEmpty.Signal()
}

// Done marks the buffer as finished: no more Enqueue calls will follow.
// Existing queued items still drain normally.
func (b *EnqueueableBuffer) Done(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = true
	b.err = err
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
}

// Len reports the number of items currently queued.
func (b *EnqueueableBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *EnqueueableBuffer) MoveNext() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.items) == 0 && !b.done {
		b.notEmpty.Wait()
	}
	if len(b.items) == 0 {
		return false
	}
	b.current = b.items[0]
	b.items = b.items[1:]
	b.notFull.Signal()
	return true
}

func (b *EnqueueableBuffer) Current() model.BaseData { return b.current }

func (b *EnqueueableBuffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *EnqueueableBuffer) Stop() {
	b.Done(nil)
}
