package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionDataConfigRoundTrip(t *testing.T) {
	original := SubscriptionDataConfig{
		Symbol:      NewSymbol("AAPL", SecurityTypeEquity, "nasdaq"),
		Resolution:  ResolutionMinute,
		Kind:        DataKindTradeBar,
		TickType:    TickTypeTrade,
		FillForward: true,
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded SubscriptionDataConfig
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original, decoded)
	assert.Equal(t, original.Key(), decoded.Key())
}

func TestSubscriptionDataConfigRoundTripWithTimeZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	original := SubscriptionDataConfig{
		Symbol:           NewSymbol("AAPL", SecurityTypeEquity, "nasdaq"),
		Resolution:       ResolutionMinute,
		Kind:             DataKindTradeBar,
		ExchangeTimeZone: ny,
		DataTimeZone:     ny,
		MarketOpen:       9*time.Hour + 30*time.Minute,
		MarketClose:      16 * time.Hour,
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded SubscriptionDataConfig
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original, decoded)
}

func TestIsOpenAtRespectsMarketHoursAndWeekends(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	config := SubscriptionDataConfig{
		ExchangeTimeZone: ny,
		MarketOpen:       9*time.Hour + 30*time.Minute,
		MarketClose:      16 * time.Hour,
	}

	// Tuesday 10:00 ET: inside the session.
	open := time.Date(2026, 3, 3, 10, 0, 0, 0, ny)
	assert.True(t, config.IsOpenAt(open))

	// Tuesday 20:00 ET: after close.
	closed := time.Date(2026, 3, 3, 20, 0, 0, 0, ny)
	assert.False(t, config.IsOpenAt(closed))

	// Saturday 10:00 ET: weekend.
	weekend := time.Date(2026, 3, 7, 10, 0, 0, 0, ny)
	assert.False(t, config.IsOpenAt(weekend))
}

func TestIsOpenAtDefaultsToAlwaysOpenWithoutMarketHours(t *testing.T) {
	var config SubscriptionDataConfig
	assert.True(t, config.IsOpenAt(time.Now()))
}

func TestConfigKeyDistinguishesTickType(t *testing.T) {
	base := SubscriptionDataConfig{
		Symbol:     NewSymbol("EURUSD", SecurityTypeForex, "oanda"),
		Resolution: ResolutionSecond,
		Kind:       DataKindQuoteBar,
	}
	trade := base
	trade.TickType = TickTypeTrade
	quote := base
	quote.TickType = TickTypeQuote

	assert.NotEqual(t, trade.Key(), quote.Key())
}

func TestParseResolution(t *testing.T) {
	cases := []struct {
		in   string
		want Resolution
	}{
		{"tick", ResolutionTick},
		{"1s", ResolutionSecond},
		{"1m", ResolutionMinute},
		{"1h", ResolutionHour},
		{"24h", ResolutionDaily},
	}
	for _, c := range cases {
		got, err := ParseResolution(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := ParseResolution("7m")
	assert.Error(t, err)
}

func TestResolutionFiner(t *testing.T) {
	assert.True(t, ResolutionTick.Finer(ResolutionSecond))
	assert.True(t, ResolutionMinute.Finer(ResolutionHour))
	assert.False(t, ResolutionDaily.Finer(ResolutionHour))
}
