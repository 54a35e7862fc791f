package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/model"
)

type fixedEnumerator struct {
	data []model.BaseData
	pos  int
}

func (f *fixedEnumerator) MoveNext() bool {
	f.pos++
	return f.pos <= len(f.data)
}
func (f *fixedEnumerator) Current() model.BaseData { return f.data[f.pos-1] }
func (f *fixedEnumerator) Err() error               { return nil }
func (f *fixedEnumerator) Stop()                    {}

func TestPoolDrainsJobIntoBuffer(t *testing.T) {
	pool := New(2, nil)
	defer pool.Shutdown()

	buf := enumerator.NewEnqueueableBuffer(10)
	source := &fixedEnumerator{data: []model.BaseData{{}, {}, {}}}

	done := make(chan error, 1)
	ok := pool.Submit(context.Background(), Job{
		Name:     "AAPL",
		Source:   source,
		Buffer:   buf,
		OnFinish: func(err error) { done <- err },
	})
	require.True(t, ok)

	var count int
	for buf.MoveNext() {
		count++
	}
	assert.Equal(t, 3, count)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("job never finished")
	}
}
