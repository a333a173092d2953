// Package strategy implements the rule-based and LLM-backed trading
// strategies and the managers that combine their signals into a single
// BUY/SELL/HOLD decision per evaluation tick.
package strategy

import (
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Canonical strategy names used in weight tables, priority lists and
// recorded decisions.
const (
	NameTrendFollowing = "trend_following"
	NameMeanReversion  = "mean_reversion"
	NameMomentum       = "momentum"
	NameLLM            = "llm_strategy"
)

// Strategy analyzes one market snapshot and produces a trading signal.
// Implementations are stateless: Analyze is a pure function of its inputs and
// must never panic or return an error - every failure degrades to a HOLD
// signal with diagnostic reasoning.
type Strategy interface {
	Name() string
	Analyze(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal
	// RegimeSuitability scores how well the strategy fits a regime, in [0, 1].
	RegimeSuitability(r regime.Regime) float64
}

// LLMDecision is the validated output of the external LLM analyzer.
type LLMDecision struct {
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// LLMAnalyzer is the external LLM collaborator. It may block or retry
// internally; callers wanting timeouts wrap it externally.
type LLMAnalyzer interface {
	AnalyzeMarket(market types.MarketData, indicators types.Indicators) (*LLMDecision, error)
}

// SentimentResult is the output of the news sentiment collaborator.
type SentimentResult struct {
	OverallSentiment  float64 `json:"overall_sentiment"` // [-1, 1]
	SentimentCategory string  `json:"sentiment_category"`
	Confidence        float64 `json:"confidence"` // [0, 1]
	ArticleCount      int     `json:"article_count"`
}

// SentimentProvider is the external news sentiment collaborator.
type SentimentProvider interface {
	GetSentiment(asset string) (*SentimentResult, error)
}

// VolatilityResult carries additive strategy weight deltas from the external
// volatility analyzer.
type VolatilityResult struct {
	StrategyAdjustments map[string]float64 `json:"strategy_adjustments"`
	Category            string             `json:"category"`
	Score               float64            `json:"score"`
}

// VolatilityAnalyzer is the external volatility collaborator.
type VolatilityAnalyzer interface {
	Analyze(productID string, prices []float64) (*VolatilityResult, error)
}

// DecisionTracker records every combined decision for later analysis.
// Tracker failures must never fail the decision path; managers log and
// swallow any error it returns.
type DecisionTracker interface {
	RecordDecision(productID string, signals map[string]Signal, final Signal, currentPrice float64) error
}

// validateIndicators applies the shared defensive contract: a nil or empty
// indicator map yields the fixed invalid-format HOLD signal.
func validateIndicators(source string, indicators types.Indicators) (Signal, bool) {
	if len(indicators) == 0 {
		return holdSignal(source, 50, "Invalid technical indicators format"), false
	}
	return Signal{}, true
}

// requireFinite fetches required indicator keys, reporting the first missing
// or non-finite one.
func requireFinite(m map[string]float64, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			return k, false
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return k, false
		}
	}
	return "", true
}
