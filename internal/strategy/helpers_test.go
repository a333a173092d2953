package strategy

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

func nan() float64 { return math.NaN() }

// healthyMarket is a benign snapshot no strategy should reject.
func healthyMarket() types.MarketData {
	return types.MarketData{
		types.KeyPrice:         100,
		types.KeyVolume:        1000,
		types.KeyAvgVolume:     1000,
		types.KeyPriceChange1h: 0.2,
		types.KeyPriceChange4h: 0.5,
		types.KeyPriceChange24: 1.0,
		types.KeyPriceChange5d: 2.0,
		types.KeyPriceChange7d: 3.0,
	}
}

func healthyIndicators() types.Indicators {
	return types.Indicators{
		types.KeyRSI:           55,
		types.KeyMACD:          0.5,
		types.KeyMACDSignal:    0.4,
		types.KeyMACDHistogram: 0.1,
		types.KeyBBUpper:       105,
		types.KeyBBMiddle:      100,
		types.KeyBBLower:       95,
		types.KeySMA20:         100,
	}
}

// panicStrategy always panics; used to exercise failure isolation.
type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic_strategy" }
func (panicStrategy) Analyze(types.MarketData, types.Indicators, *types.Portfolio) Signal {
	panic("synthetic failure")
}
func (panicStrategy) RegimeSuitability(regime.Regime) float64 { return 0.5 }

// stubAnalyzer returns a fixed decision or error.
type stubAnalyzer struct {
	decision *LLMDecision
	err      error
}

func (a stubAnalyzer) AnalyzeMarket(types.MarketData, types.Indicators) (*LLMDecision, error) {
	return a.decision, a.err
}

// stubSentiment returns a fixed sentiment result or error.
type stubSentiment struct {
	result *SentimentResult
	err    error
}

func (s stubSentiment) GetSentiment(string) (*SentimentResult, error) {
	return s.result, s.err
}

// recordingTracker captures the last recorded decision.
type recordingTracker struct {
	calls   int
	product string
	final   Signal
	err     error
}

func (t *recordingTracker) RecordDecision(productID string, signals map[string]Signal, final Signal, price float64) error {
	t.calls++
	t.product = productID
	t.final = final
	return t.err
}

// panicTracker panics on every record.
type panicTracker struct{}

func (panicTracker) RecordDecision(string, map[string]Signal, Signal, float64) error {
	panic("tracker exploded")
}

// countingStrategy counts Analyze invocations and returns a fixed signal.
type countingStrategy struct {
	name  string
	calls int
	sig   Signal
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Analyze(types.MarketData, types.Indicators, *types.Portfolio) Signal {
	s.calls++
	return s.sig
}

func (s *countingStrategy) RegimeSuitability(regime.Regime) float64 { return 0.5 }

// stubVolatility returns a fixed result or error.
type stubVolatility struct {
	result *VolatilityResult
	err    error
}

func (v stubVolatility) Analyze(string, []float64) (*VolatilityResult, error) {
	if v.err != nil {
		return nil, fmt.Errorf("volatility: %w", v.err)
	}
	return v.result, nil
}
