package universe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketfeed/ingest/model"
)

func sym(ticker string) model.Symbol {
	return model.NewSymbol(ticker, model.SecurityTypeEquity, "nasdaq")
}

func TestSelectorApplyReportsAdditionsAndRemovals(t *testing.T) {
	calls := 0
	sel := NewSelector("top3", model.ResolutionDaily, func(now time.Time, bundle []model.BaseData) []model.Symbol {
		calls++
		if calls == 1 {
			return []model.Symbol{sym("AAPL"), sym("MSFT")}
		}
		return []model.Symbol{sym("MSFT"), sym("GOOG")}
	})

	first := sel.Apply(time.Unix(0, 0), nil)
	assert.ElementsMatch(t, []model.Symbol{sym("AAPL"), sym("MSFT")}, first.Additions)
	assert.Empty(t, first.Removals)

	second := sel.Apply(time.Unix(1, 0), nil)
	assert.ElementsMatch(t, []model.Symbol{sym("GOOG")}, second.Additions)
	assert.ElementsMatch(t, []model.Symbol{sym("AAPL")}, second.Removals)
}

func TestSelectorApplyNoChangeIsEmpty(t *testing.T) {
	sel := NewSelector("static", model.ResolutionDaily, func(now time.Time, bundle []model.BaseData) []model.Symbol {
		return []model.Symbol{sym("AAPL")}
	})
	sel.Apply(time.Unix(0, 0), nil)
	changes := sel.Apply(time.Unix(1, 0), nil)
	assert.True(t, changes.IsEmpty())
}

func TestSelectorApplyReceivesBundle(t *testing.T) {
	var seen []model.BaseData
	sel := NewSelector("bundle-driven", model.ResolutionDaily, func(now time.Time, bundle []model.BaseData) []model.Symbol {
		seen = bundle
		return nil
	})
	bundle := []model.BaseData{{Symbol: sym("AAPL")}}
	sel.Apply(time.Unix(0, 0), bundle)
	assert.Equal(t, bundle, seen)
}

func TestCurrencyFeedSymbolsSkipsEquities(t *testing.T) {
	members := []model.Symbol{sym("AAPL"), model.NewSymbol("EURUSD", model.SecurityTypeForex, "oanda")}
	feeds := CurrencyFeedSymbols(members, "USD")
	assert.Len(t, feeds, 1)
	assert.Equal(t, model.SecurityTypeForex, feeds[0].Type)
}
