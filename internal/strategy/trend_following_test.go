package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// TestTrendFollowing_ConfirmedUptrend tests a buy when all three direction
// votes align on a strong trend.
func TestTrendFollowing_ConfirmedUptrend(t *testing.T) {
	s := NewTrendFollowingStrategy()

	market := types.MarketData{types.KeyPrice: 119}
	indicators := types.Indicators{
		types.KeyRSI:           65,
		types.KeyMACDHistogram: 0.6,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}

	sig := s.Analyze(market, indicators, nil)

	assert.Equal(t, ActionBuy, sig.Action)
	// strength (0.8+0.6+0.8)/3, direction bonus 20, alignment 3*5, buy bonus 10
	assert.InDelta(t, 89.0, sig.Confidence, 0.01)
	assert.InDelta(t, 1.2333, sig.PositionSizeMultiplier, 0.001)
	assert.Contains(t, sig.Reasoning, "Uptrend confirmed")
}

// TestTrendFollowing_OverboughtVeto tests that an uptrend is not bought when
// RSI is past the overbought bar.
func TestTrendFollowing_OverboughtVeto(t *testing.T) {
	s := NewTrendFollowingStrategy()

	market := types.MarketData{types.KeyPrice: 119}
	indicators := types.Indicators{
		types.KeyRSI:           75,
		types.KeyMACDHistogram: 0.6,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}

	sig := s.Analyze(market, indicators, nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Contains(t, sig.Reasoning, "overbought")
	assert.Equal(t, 1.0, sig.PositionSizeMultiplier)
}

// TestTrendFollowing_ConfirmedDowntrend tests the symmetric sell path.
func TestTrendFollowing_ConfirmedDowntrend(t *testing.T) {
	s := NewTrendFollowingStrategy()

	market := types.MarketData{types.KeyPrice: 101}
	indicators := types.Indicators{
		types.KeyRSI:           35,
		types.KeyMACDHistogram: -0.6,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}

	sig := s.Analyze(market, indicators, nil)

	assert.Equal(t, ActionSell, sig.Action)
	assert.Contains(t, sig.Reasoning, "Downtrend confirmed")
}

// TestTrendFollowing_OversoldVeto tests that a downtrend is not sold when RSI
// is past the oversold bar.
func TestTrendFollowing_OversoldVeto(t *testing.T) {
	s := NewTrendFollowingStrategy()

	market := types.MarketData{types.KeyPrice: 101}
	indicators := types.Indicators{
		types.KeyRSI:           25,
		types.KeyMACDHistogram: -0.6,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}

	sig := s.Analyze(market, indicators, nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Contains(t, sig.Reasoning, "oversold")
}

// TestTrendFollowing_NoClearTrend tests the neutral hold path.
func TestTrendFollowing_NoClearTrend(t *testing.T) {
	s := NewTrendFollowingStrategy()

	market := types.MarketData{types.KeyPrice: 110}
	indicators := types.Indicators{
		types.KeyRSI:           50,
		types.KeyMACDHistogram: 0.0,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}

	sig := s.Analyze(market, indicators, nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Contains(t, sig.Reasoning, "No clear trend")
	assert.GreaterOrEqual(t, sig.Confidence, 20.0)
}

// TestTrendFollowing_DefensiveContract tests the invalid-input degradations.
func TestTrendFollowing_DefensiveContract(t *testing.T) {
	s := NewTrendFollowingStrategy()

	sig := s.Analyze(types.MarketData{types.KeyPrice: 100}, nil, nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 50.0, sig.Confidence)
	assert.Equal(t, "Invalid technical indicators format", sig.Reasoning)

	sig = s.Analyze(types.MarketData{types.KeyPrice: 100}, types.Indicators{
		types.KeyRSI:           nan(),
		types.KeyMACDHistogram: 0.1,
		types.KeyBBUpper:       120,
		types.KeyBBMiddle:      110,
		types.KeyBBLower:       100,
	}, nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "Analysis error")
}
