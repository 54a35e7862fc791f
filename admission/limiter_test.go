package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketfeed/ingest/model"
)

func TestLimiterRejectsOverCap(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TickLimit = 1
	l := New(settings)

	ok, reason := l.Admit(model.ResolutionTick)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = l.Admit(model.ResolutionTick)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
	assert.Equal(t, 1, l.Rejected())
}

func TestLimiterReleaseFreesSlot(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TickLimit = 1
	l := New(settings)

	ok, _ := l.Admit(model.ResolutionTick)
	assert.True(t, ok)
	l.Release(model.ResolutionTick)

	ok, _ = l.Admit(model.ResolutionTick)
	assert.True(t, ok)
}

func TestUncappedResolutionAlwaysAdmits(t *testing.T) {
	l := New(model.Settings{})
	for i := 0; i < 100; i++ {
		ok, _ := l.Admit(model.ResolutionDaily)
		assert.True(t, ok)
	}
}

func TestEstimatedBytesWeighsTickAboveDaily(t *testing.T) {
	assert.Greater(t, EstimatedBytes(model.ResolutionTick, 10), EstimatedBytes(model.ResolutionDaily, 10))
}

// TestLimiterRejectsOnMemoryEstimateEvenWhenUncappedByCount exercises the
// other half of §4.8's can_add conjunction: SecondLimit=0 leaves the
// resolution uncapped on count, but the recomputed memory estimate still
// must stay within the budget implied by the configured limits triple.
func TestLimiterRejectsOnMemoryEstimateEvenWhenUncappedByCount(t *testing.T) {
	settings := model.Settings{TickLimit: 5, SecondLimit: 0, MinuteLimit: 0}
	l := New(settings)

	admitted := 0
	var reason string
	var ok bool
	for i := 0; i < 100; i++ {
		ok, reason = l.Admit(model.ResolutionSecond)
		if !ok {
			break
		}
		admitted++
	}

	assert.False(t, ok, "memory estimate must eventually reject an uncapped-by-count resolution")
	assert.NotEmpty(t, reason)
	assert.Greater(t, admitted, 0, "some admissions must succeed before the budget is exhausted")
	assert.Equal(t, 1, l.Rejected())
}
