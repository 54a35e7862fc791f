package enumerator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/reader"
)

type fakeReader struct {
	data   []model.BaseData
	pos    int
	closed bool
}

func newFakeReader(data ...model.BaseData) *fakeReader { return &fakeReader{data: data, pos: -1} }

func (f *fakeReader) MoveNext() bool {
	f.pos++
	return f.pos < len(f.data)
}
func (f *fakeReader) Current() model.BaseData { return f.data[f.pos] }
func (f *fakeReader) Err() error              { return nil }
func (f *fakeReader) Close() error            { f.closed = true; return nil }

func cfg() model.SubscriptionDataConfig {
	return model.SubscriptionDataConfig{Symbol: model.NewSymbol("AAPL", model.SecurityTypeEquity, "nasdaq")}
}

// TestPerDayUnionMergesMultipleSourcesPerDay covers the data-loss bug a
// sources[0]-only implementation would have: a day with two sources must
// have both read, merged in time order.
func TestPerDayUnionMergesMultipleSourcesPerDay(t *testing.T) {
	trades := newFakeReader(model.BaseData{Time: at(1)}, model.BaseData{Time: at(3)})
	corpActions := newFakeReader(model.BaseData{Time: at(2), Kind: model.DataKindAuxiliary})

	factory := func(c model.SubscriptionDataConfig, day int) ([]model.SubscriptionDataSource, bool) {
		if day > 0 {
			return nil, false
		}
		return []model.SubscriptionDataSource{{Locator: "trades"}, {Locator: "corp"}}, true
	}
	open := func(src model.SubscriptionDataSource, onReaderError func(error)) (reader.Reader, error) {
		if src.Locator == "trades" {
			return trades, nil
		}
		return corpActions, nil
	}

	p := NewPerDayUnion(cfg(), factory, open, nil, nil)
	out, err := Slice(p)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, at(1), out[0].Time)
	assert.Equal(t, at(2), out[1].Time)
	assert.Equal(t, at(3), out[2].Time)
	assert.True(t, trades.closed)
	assert.True(t, corpActions.closed)
}

func TestPerDayUnionRollsOverAcrossDays(t *testing.T) {
	day0 := newFakeReader(model.BaseData{Time: at(1)})
	day1 := newFakeReader(model.BaseData{Time: at(2)})

	factory := func(c model.SubscriptionDataConfig, day int) ([]model.SubscriptionDataSource, bool) {
		switch day {
		case 0:
			return []model.SubscriptionDataSource{{Locator: "d0"}}, true
		case 1:
			return []model.SubscriptionDataSource{{Locator: "d1"}}, true
		default:
			return nil, false
		}
	}
	open := func(src model.SubscriptionDataSource, onReaderError func(error)) (reader.Reader, error) {
		if src.Locator == "d0" {
			return day0, nil
		}
		return day1, nil
	}

	p := NewPerDayUnion(cfg(), factory, open, nil, nil)
	out, err := Slice(p)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, at(1), out[0].Time)
	assert.Equal(t, at(2), out[1].Time)
}

// TestPerDayUnionInvalidSourceEndsStreamGracefully covers §7: a source that
// can't be opened reports invalid_source and ends this subscription's
// stream gracefully, with no error and no further points, rather than
// aborting the whole run.
func TestPerDayUnionInvalidSourceEndsStreamGracefully(t *testing.T) {
	var reported model.SubscriptionDataSource
	var reportedErr error
	openErr := errors.New("file not found")

	factory := func(c model.SubscriptionDataConfig, day int) ([]model.SubscriptionDataSource, bool) {
		return []model.SubscriptionDataSource{{Locator: "missing"}}, true
	}
	open := func(src model.SubscriptionDataSource, onReaderError func(error)) (reader.Reader, error) {
		return nil, openErr
	}
	onInvalidSource := func(src model.SubscriptionDataSource, err error) {
		reported = src
		reportedErr = err
	}

	p := NewPerDayUnion(cfg(), factory, open, onInvalidSource, nil)
	assert.False(t, p.MoveNext())
	assert.NoError(t, p.Err())
	assert.Equal(t, "missing", reported.Locator)
	assert.Equal(t, openErr, reportedErr)

	// Idempotent: further calls keep returning false without re-invoking the factory.
	assert.False(t, p.MoveNext())
}
