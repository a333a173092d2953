package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestManager_InvalidInputs tests that empty inputs degrade to a
// zero-confidence HOLD before any strategy runs.
func TestManager_InvalidInputs(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	sig := m.GetCombinedSignal(nil, healthyIndicators(), nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, "Invalid market data: expected a populated mapping", sig.Reasoning)

	sig = m.GetCombinedSignal(healthyMarket(), nil, nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, "Invalid technical indicators: expected a populated mapping", sig.Reasoning)
}

// TestManager_PanicIsolation tests that a panicking strategy is converted to
// a diagnostic HOLD instead of crashing the decision path.
func TestManager_PanicIsolation(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	sig := m.safeAnalyze(panicStrategy{}, healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Contains(t, sig.Reasoning, "Strategy error")
	assert.Contains(t, sig.Reasoning, "synthetic failure")
}

// TestManager_CombinedSignalWellFormed tests the output contract on benign
// inputs: bounded confidence and multiplier, combined source tag.
func TestManager_CombinedSignalWellFormed(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	sig := m.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)

	assert.GreaterOrEqual(t, sig.Confidence, 0.0)
	assert.LessOrEqual(t, sig.Confidence, 100.0)
	assert.GreaterOrEqual(t, sig.PositionSizeMultiplier, 0.5)
	assert.LessOrEqual(t, sig.PositionSizeMultiplier, 2.0)
	assert.Equal(t, "combined", sig.SourceStrategy)
	assert.NotEmpty(t, sig.Reasoning)
}

// TestManager_Deterministic tests that two fresh managers produce identical
// decisions for identical inputs.
func TestManager_Deterministic(t *testing.T) {
	a := NewManager("BTC-USDT", nil, nil, nil)
	b := NewManager("BTC-USDT", nil, nil, nil)

	sigA := a.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)
	sigB := b.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, sigA, sigB)
}

// TestManager_UpdateStrategyWeights tests replacing the persistent weight
// table.
func TestManager_UpdateStrategyWeights(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	err := m.UpdateStrategyWeights(map[string]float64{
		NameTrendFollowing: 0.5,
		NameMeanReversion:  0.25,
		NameMomentum:       0.25,
	})
	assert.NoError(t, err)

	weights := m.GetStrategyWeights()
	assert.InDelta(t, 0.5, weights[NameTrendFollowing], 1e-9)
	assert.InDelta(t, 0.25, weights[NameMeanReversion], 1e-9)
	assert.InDelta(t, 0.25, weights[NameMomentum], 1e-9)
}

// TestManager_UpdateStrategyWeightsRenormalizes tests that weights not
// summing to 1.0 are rescaled while preserving their ratios.
func TestManager_UpdateStrategyWeightsRenormalizes(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	err := m.UpdateStrategyWeights(map[string]float64{
		NameTrendFollowing: 1,
		NameMeanReversion:  1,
		NameMomentum:       2,
	})
	assert.NoError(t, err)

	weights := m.GetStrategyWeights()
	assert.InDelta(t, 0.25, weights[NameTrendFollowing], 1e-9)
	assert.InDelta(t, 0.25, weights[NameMeanReversion], 1e-9)
	assert.InDelta(t, 0.50, weights[NameMomentum], 1e-9)
}

// TestManager_UpdateStrategyWeightsRejectsBadInput tests the validation
// failures.
func TestManager_UpdateStrategyWeightsRejectsBadInput(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	tests := []struct {
		name    string
		weights map[string]float64
	}{
		{"empty table", map[string]float64{}},
		{"unknown strategy", map[string]float64{"grid_strategy": 1.0}},
		{"negative weight", map[string]float64{NameTrendFollowing: -0.5, NameMomentum: 1.5}},
		{"non-finite weight", map[string]float64{NameTrendFollowing: nan()}},
		{"zero sum", map[string]float64{NameTrendFollowing: 0, NameMomentum: 0}},
	}

	before := m.GetStrategyWeights()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, m.UpdateStrategyWeights(tt.weights))
			assert.Equal(t, before, m.GetStrategyWeights())
		})
	}
}

// TestManager_GetStrategyWeightsReturnsCopy tests that callers cannot mutate
// the manager's internal table through the returned map.
func TestManager_GetStrategyWeightsReturnsCopy(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	weights := m.GetStrategyWeights()
	weights[NameTrendFollowing] = 99

	assert.InDelta(t, 0.40, m.GetStrategyWeights()[NameTrendFollowing], 1e-9)
}

// TestManager_BaseWeightsDependOnLLM tests the two base weight tables.
func TestManager_BaseWeightsDependOnLLM(t *testing.T) {
	withoutLLM := NewManager("BTC-USDT", nil, nil, nil)
	weights := withoutLLM.GetStrategyWeights()
	assert.Len(t, weights, 3)
	assert.InDelta(t, 0.40, weights[NameTrendFollowing], 1e-9)

	withLLM := NewManager("BTC-USDT", NewLLMStrategy(stubAnalyzer{}, nil, "BTC"), nil, nil)
	weights = withLLM.GetStrategyWeights()
	assert.Len(t, weights, 4)
	assert.InDelta(t, 0.30, weights[NameLLM], 1e-9)
	assert.InDelta(t, 0.25, weights[NameTrendFollowing], 1e-9)
}

// TestManager_CombineWeightedStrongConsensus tests a unanimous BUY vote.
func TestManager_CombineWeightedStrongConsensus(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	third := 1.0 / 3.0
	signals := map[string]Signal{
		NameTrendFollowing: {Action: ActionBuy, Confidence: 80, PositionSizeMultiplier: 1.0},
		NameMeanReversion:  {Action: ActionBuy, Confidence: 80, PositionSizeMultiplier: 1.0},
		NameMomentum:       {Action: ActionBuy, Confidence: 80, PositionSizeMultiplier: 1.0},
	}
	weights := map[string]float64{
		NameTrendFollowing: third,
		NameMeanReversion:  third,
		NameMomentum:       third,
	}

	sig := m.combineWeighted(signals, weights)

	assert.Equal(t, ActionBuy, sig.Action)
	// Score 0.8 exceeds the strong threshold, so confidence is boosted.
	assert.InDelta(t, 88.0, sig.Confidence, 0.001)
	assert.Contains(t, sig.Reasoning, "strong consensus")
	assert.Equal(t, "combined", sig.SourceStrategy)
	assert.InDelta(t, 0.8, sig.Metadata["weighted_score"], 0.001)
	assert.InDelta(t, 1.0, sig.Metadata["vote_share"], 0.001)
}

// TestManager_CombineWeightedNoConsensus tests a three-way split vote.
func TestManager_CombineWeightedNoConsensus(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)

	third := 1.0 / 3.0
	signals := map[string]Signal{
		NameTrendFollowing: {Action: ActionBuy, Confidence: 80, PositionSizeMultiplier: 1.0},
		NameMeanReversion:  {Action: ActionSell, Confidence: 80, PositionSizeMultiplier: 1.0},
		NameMomentum:       {Action: ActionHold, Confidence: 80, PositionSizeMultiplier: 1.0},
	}
	weights := map[string]float64{
		NameTrendFollowing: third,
		NameMeanReversion:  third,
		NameMomentum:       third,
	}

	sig := m.combineWeighted(signals, weights)

	assert.Equal(t, ActionHold, sig.Action)
	// Weak-score penalty then no-consensus penalty: 80 * 0.8 * 0.7.
	assert.InDelta(t, 44.8, sig.Confidence, 0.001)
	assert.Contains(t, sig.Reasoning, "No consensus")
}

// TestManager_TrackerRecordsDecision tests that the tracker sees exactly one
// record per combined decision.
func TestManager_TrackerRecordsDecision(t *testing.T) {
	tracker := &recordingTracker{}
	m := NewManager("BTC-USDT", nil, tracker, nil)

	sig := m.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, 1, tracker.calls)
	assert.Equal(t, "BTC-USDT", tracker.product)
	assert.Equal(t, sig, tracker.final)
}

// TestManager_TrackerFailuresSwallowed tests that a failing or panicking
// tracker never alters the decision.
func TestManager_TrackerFailuresSwallowed(t *testing.T) {
	failing := NewManager("BTC-USDT", nil, &recordingTracker{err: errors.New("disk full")}, nil)
	clean := NewManager("BTC-USDT", nil, nil, nil)

	got := failing.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)
	want := clean.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)
	assert.Equal(t, want, got)

	panicking := NewManager("BTC-USDT", nil, panicTracker{}, nil)
	assert.NotPanics(t, func() {
		got = panicking.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)
	})
	assert.Equal(t, want, got)
}

// TestManager_AdjustedWeightsNormalized tests that the per-call blend,
// including volatility deltas, always sums to 1.0.
func TestManager_AdjustedWeightsNormalized(t *testing.T) {
	vol := stubVolatility{result: &VolatilityResult{
		Category: "high",
		StrategyAdjustments: map[string]float64{
			NameMeanReversion:  0.05,
			NameTrendFollowing: -0.05,
		},
	}}
	m := NewManager("BTC-USDT", nil, nil, vol)
	m.SetPriceHistory([]float64{100, 101, 102, 103})

	signals := m.AnalyzeAllStrategies(healthyMarket(), healthyIndicators(), nil)
	weights := m.adjustedWeights(signals)

	var sum float64
	for _, w := range weights {
		assert.Greater(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

// TestManager_RepeatedCallsStable tests that a manager with a volatility
// analyzer gives the same answer for the same inputs no matter how many
// evaluations preceded them. The manager must not accumulate prices on its
// own between calls.
func TestManager_RepeatedCallsStable(t *testing.T) {
	vol := stubVolatility{result: &VolatilityResult{
		Category: "extreme",
		StrategyAdjustments: map[string]float64{
			NameMeanReversion:  0.05,
			NameTrendFollowing: -0.05,
			NameMomentum:       -0.05,
		},
	}}
	m := NewManager("BTC-USDT", nil, nil, vol)
	m.SetPriceHistory([]float64{100, 101, 102, 103})

	first := m.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.GetCombinedSignal(healthyMarket(), healthyIndicators(), nil))
	}
}

// TestManager_VolatilityNeedsPriceHistory tests that the volatility
// adjustment only applies once the caller has supplied a price window.
func TestManager_VolatilityNeedsPriceHistory(t *testing.T) {
	vol := stubVolatility{result: &VolatilityResult{
		Category:            "high",
		StrategyAdjustments: map[string]float64{NameMeanReversion: 0.2},
	}}
	m := NewManager("BTC-USDT", nil, nil, vol)
	signals := m.AnalyzeAllStrategies(healthyMarket(), healthyIndicators(), nil)

	before := m.adjustedWeights(signals)
	m.SetPriceHistory([]float64{100, 101, 102, 103})
	after := m.adjustedWeights(signals)

	assert.Greater(t, after[NameMeanReversion], before[NameMeanReversion])
}

// TestManager_EvaluateAllRunsStrategiesOnce tests that the per-strategy map
// and the combined decision come from a single strategy pass.
func TestManager_EvaluateAllRunsStrategiesOnce(t *testing.T) {
	m := NewManager("BTC-USDT", nil, nil, nil)
	counter := &countingStrategy{name: NameTrendFollowing, sig: Signal{
		Action:                 ActionHold,
		Confidence:             40,
		PositionSizeMultiplier: 1.0,
		SourceStrategy:         NameTrendFollowing,
	}}
	m.strategies[NameTrendFollowing] = counter

	signals, final := m.EvaluateAll(healthyMarket(), healthyIndicators(), nil)

	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, counter.sig, signals[NameTrendFollowing])
	assert.Equal(t, "combined", final.SourceStrategy)
}
