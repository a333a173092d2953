package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLLMStrategy_ValidDecision tests the happy path with no sentiment
// provider.
func TestLLMStrategy_ValidDecision(t *testing.T) {
	s := NewLLMStrategy(stubAnalyzer{decision: &LLMDecision{
		Decision:   "BUY",
		Confidence: 72,
		Reasoning:  "funding reset after flush",
	}}, nil, "BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, 72.0, sig.Confidence)
	assert.Equal(t, "funding reset after flush", sig.Reasoning)
	assert.Equal(t, NameLLM, sig.SourceStrategy)
}

// TestLLMStrategy_NoAnalyzer tests degradation when no analyzer is wired.
func TestLLMStrategy_NoAnalyzer(t *testing.T) {
	s := NewLLMStrategy(nil, nil, "BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 30.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "LLM analysis error")
}

// TestLLMStrategy_AnalyzerError tests degradation on analyzer failure.
func TestLLMStrategy_AnalyzerError(t *testing.T) {
	s := NewLLMStrategy(stubAnalyzer{err: errors.New("rate limited")}, nil, "BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 30.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "rate limited")
}

// TestLLMStrategy_NilDecision tests that an analyzer returning neither a
// decision nor an error degrades to HOLD instead of panicking.
func TestLLMStrategy_NilDecision(t *testing.T) {
	s := NewLLMStrategy(stubAnalyzer{}, nil, "BTC")

	var sig Signal
	assert.NotPanics(t, func() {
		sig = s.Analyze(healthyMarket(), healthyIndicators(), nil)
	})

	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 30.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "LLM analysis error")
}

// TestLLMStrategy_InvalidDecisionCoerced tests that an unknown action string
// is coerced to a low-confidence HOLD rather than propagated.
func TestLLMStrategy_InvalidDecisionCoerced(t *testing.T) {
	s := NewLLMStrategy(stubAnalyzer{decision: &LLMDecision{
		Decision:   "MAYBE",
		Confidence: 99,
	}}, nil, "BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 30.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "MAYBE")
}

// TestLLMStrategy_ConfidenceClamped tests out-of-range analyzer confidence.
func TestLLMStrategy_ConfidenceClamped(t *testing.T) {
	s := NewLLMStrategy(stubAnalyzer{decision: &LLMDecision{
		Decision:   "SELL",
		Confidence: 240,
	}}, nil, "BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionSell, sig.Action)
	assert.Equal(t, 100.0, sig.Confidence)
}

// TestLLMStrategy_SentimentAdjustments tests the aligned/opposed/hold
// sentiment nudges.
func TestLLMStrategy_SentimentAdjustments(t *testing.T) {
	analyzer := stubAnalyzer{decision: &LLMDecision{Decision: "BUY", Confidence: 60}}

	tests := []struct {
		name      string
		sentiment SentimentProvider
		expected  float64
	}{
		{
			"aligned sentiment boosts",
			stubSentiment{result: &SentimentResult{OverallSentiment: 0.5, Confidence: 1.0}},
			65, // 60 + 0.5*10*1.0
		},
		{
			"opposed sentiment penalizes",
			stubSentiment{result: &SentimentResult{OverallSentiment: -0.5, Confidence: 1.0}},
			57.5, // 60 - 0.5*5*1.0
		},
		{
			"weak sentiment is ignored",
			stubSentiment{result: &SentimentResult{OverallSentiment: 0.1, Confidence: 1.0}},
			60,
		},
		{
			"sentiment failure is skipped",
			stubSentiment{err: errors.New("feed down")},
			60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLLMStrategy(analyzer, tt.sentiment, "BTC")
			sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)
			assert.Equal(t, ActionBuy, sig.Action)
			assert.InDelta(t, tt.expected, sig.Confidence, 0.001)
		})
	}
}

// TestLLMStrategy_HoldSentimentBoost tests the small hold-side bump from any
// strong sentiment.
func TestLLMStrategy_HoldSentimentBoost(t *testing.T) {
	s := NewLLMStrategy(
		stubAnalyzer{decision: &LLMDecision{Decision: "HOLD", Confidence: 50}},
		stubSentiment{result: &SentimentResult{OverallSentiment: -0.8, Confidence: 1.0}},
		"BTC")

	sig := s.Analyze(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.InDelta(t, 51.6, sig.Confidence, 0.001) // 50 + 0.8*2*1.0
}
