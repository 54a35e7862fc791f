package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketfeed/ingest/enumerator"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/subscription"
	"github.com/marketfeed/ingest/universe"
)

// configFor uses ResolutionTick (Increment()==0) so ExchangeRoundDown is a
// no-op and tests can assert on exact timestamps.
func configFor(ticker string) model.SubscriptionDataConfig {
	return model.SubscriptionDataConfig{
		Symbol:     model.NewSymbol(ticker, model.SecurityTypeEquity, "nasdaq"),
		Resolution: model.ResolutionTick,
		Kind:       model.DataKindTradeBar,
	}
}

func feedBuffer(t *testing.T, buf *enumerator.EnqueueableBuffer, points ...model.BaseData) {
	t.Helper()
	go func() {
		for _, p := range points {
			buf.Enqueue(p)
		}
		buf.Done(nil)
	}()
}

func packetFor(t *testing.T, slice model.TimeSlice, key model.ConfigKey) model.Packet {
	t.Helper()
	p, ok := slice.Packet(key)
	require.True(t, ok, "expected a packet for %v", key)
	return p
}

func TestSynchronizerEmitsInTimeOrderAcrossSymbols(t *testing.T) {
	registry := subscription.NewCollection()

	aaplBuf := enumerator.NewEnqueueableBuffer(10)
	msftBuf := enumerator.NewEnqueueableBuffer(10)

	aapl := configFor("AAPL")
	msft := configFor("MSFT")
	registry.Add(subscription.New(aapl, aaplBuf))
	registry.Add(subscription.New(msft, msftBuf))

	feedBuffer(t, aaplBuf,
		model.BaseData{Symbol: aapl.Symbol, Time: time.Unix(1, 0).UTC()},
		model.BaseData{Symbol: aapl.Symbol, Time: time.Unix(3, 0).UTC()},
	)
	feedBuffer(t, msftBuf,
		model.BaseData{Symbol: msft.Symbol, Time: time.Unix(1, 0).UTC()},
		model.BaseData{Symbol: msft.Symbol, Time: time.Unix(2, 0).UTC()},
	)

	sync := New(registry)

	slice, ok := sync.Next()
	require.True(t, ok)
	assert.Equal(t, time.Unix(1, 0).UTC(), slice.Time)
	assert.Len(t, slice.Packets, 2)

	slice, ok = sync.Next()
	require.True(t, ok)
	assert.Equal(t, time.Unix(2, 0).UTC(), slice.Time)
	require.Len(t, slice.Packets, 1)
	assert.Equal(t, msft.Symbol, slice.Packets[0].Config.Symbol)

	slice, ok = sync.Next()
	require.True(t, ok)
	assert.Equal(t, time.Unix(3, 0).UTC(), slice.Time)

	slice, ok = sync.Next()
	require.True(t, ok)
	assert.True(t, slice.IsSentinel())

	_, ok = sync.Next()
	assert.False(t, ok, "sentinel must only be emitted once")
}

func TestSynchronizerEmptyRegistryYieldsImmediateSentinel(t *testing.T) {
	sync := New(subscription.NewCollection())
	slice, ok := sync.Next()
	require.True(t, ok)
	assert.True(t, slice.IsSentinel())
}

// TestSynchronizerAccumulatesAllReadyPointsIntoOnePacket covers the fast/slow
// feed pairing the spec's inner while-loop exists for: a tick subscription
// with several points at or under the frontier must land in one packet
// alongside the slower subscription, not be split across several slices.
func TestSynchronizerAccumulatesAllReadyPointsIntoOnePacket(t *testing.T) {
	registry := subscription.NewCollection()

	tickBuf := enumerator.NewEnqueueableBuffer(10)
	minuteBuf := enumerator.NewEnqueueableBuffer(10)

	tick := configFor("AAPL")
	minuteCfg := model.SubscriptionDataConfig{
		Symbol:     tick.Symbol,
		Resolution: model.ResolutionMinute,
		Kind:       model.DataKindQuoteBar,
	}
	registry.Add(subscription.New(tick, tickBuf))
	registry.Add(subscription.New(minuteCfg, minuteBuf))

	feedBuffer(t, tickBuf,
		model.BaseData{Symbol: tick.Symbol, Time: time.Unix(1, 0).UTC(), EndTime: time.Unix(1, 0).UTC()},
		model.BaseData{Symbol: tick.Symbol, Time: time.Unix(2, 0).UTC(), EndTime: time.Unix(2, 0).UTC()},
		model.BaseData{Symbol: tick.Symbol, Time: time.Unix(3, 0).UTC(), EndTime: time.Unix(3, 0).UTC()},
	)
	feedBuffer(t, minuteBuf,
		model.BaseData{Symbol: minuteCfg.Symbol, Time: time.Unix(3, 0).UTC(), EndTime: time.Unix(3, 0).UTC()},
	)

	sync := New(registry)

	slice, ok := sync.Next()
	require.True(t, ok)
	assert.Equal(t, time.Unix(3, 0).UTC(), slice.Time)

	tickPacket := packetFor(t, slice, tick.Key())
	assert.Len(t, tickPacket.Data, 3, "all three ready tick points must land in one packet")

	minutePacket := packetFor(t, slice, minuteCfg.Key())
	assert.Len(t, minutePacket.Data, 1)
}

// TestSynchronizerSeparatesPacketsByConfigNotSymbol covers the same symbol
// subscribed under two configs (eg. trade and quote): each config must keep
// its own packet rather than being merged into one per-symbol bucket.
func TestSynchronizerSeparatesPacketsByConfigNotSymbol(t *testing.T) {
	registry := subscription.NewCollection()

	tradeBuf := enumerator.NewEnqueueableBuffer(10)
	quoteBuf := enumerator.NewEnqueueableBuffer(10)

	trade := configFor("AAPL")
	quote := model.SubscriptionDataConfig{
		Symbol:     trade.Symbol,
		Resolution: model.ResolutionTick,
		Kind:       model.DataKindQuoteBar,
	}
	registry.Add(subscription.New(trade, tradeBuf))
	registry.Add(subscription.New(quote, quoteBuf))

	feedBuffer(t, tradeBuf, model.BaseData{Symbol: trade.Symbol, Time: time.Unix(1, 0).UTC()})
	feedBuffer(t, quoteBuf, model.BaseData{Symbol: quote.Symbol, Time: time.Unix(1, 0).UTC()})

	sync := New(registry)
	slice, ok := sync.Next()
	require.True(t, ok)
	require.Len(t, slice.Packets, 2)
	assert.ElementsMatch(t, []model.Symbol{trade.Symbol, quote.Symbol}, []model.Symbol{slice.Packets[0].Config.Symbol, slice.Packets[1].Config.Symbol})
	assert.NotEqual(t, slice.Packets[0].Config.Kind, slice.Packets[1].Config.Kind)
}

// TestSynchronizerAppliesUniverseSelectionInLoop covers the §4.6/§4.7 data
// plane: a subscription bound to a universe.Selector contributes its packet
// to the selector's Apply instead of to the delivered slice, and the
// resulting SecurityChanges rides along on the slice.
func TestSynchronizerAppliesUniverseSelectionInLoop(t *testing.T) {
	registry := subscription.NewCollection()

	universeBuf := enumerator.NewEnqueueableBuffer(10)
	universeConfig := model.SubscriptionDataConfig{
		Symbol:     model.NewSymbol("UNIVERSE", model.SecurityTypeEquity, "nasdaq"),
		Resolution: model.ResolutionTick,
		Kind:       model.DataKindUniverseSelection,
		IsInternal: true,
	}

	sel := universe.NewSelector("top1", model.ResolutionTick, func(now time.Time, bundle []model.BaseData) []model.Symbol {
		var out []model.Symbol
		for _, d := range bundle {
			out = append(out, d.Symbol)
		}
		return out
	})

	sub := subscription.New(universeConfig, universeBuf)
	sub.BindUniverse(sel)
	registry.Add(sub)

	feedBuffer(t, universeBuf, model.BaseData{Symbol: model.NewSymbol("NEWCO", model.SecurityTypeEquity, "nasdaq"), Time: time.Unix(1, 0).UTC()})

	sync := New(registry)
	slice, ok := sync.Next()
	require.True(t, ok)
	assert.Empty(t, slice.Packets, "universe-selection packets must never reach the algorithm")
	require.Len(t, slice.SecurityChanges, 1)
	assert.Equal(t, "top1", slice.SecurityChanges[0].Universe)
	assert.ElementsMatch(t, []model.Symbol{model.NewSymbol("NEWCO", model.SecurityTypeEquity, "nasdaq")}, slice.SecurityChanges[0].Additions)
}
