package strategy

import (
	"fmt"
	"log"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// LLMStrategy delegates the base decision to an external LLM analyzer and
// post-adjusts its confidence with news sentiment. The analyzer is a black
// box; its output is validated and coerced before use so malformed responses
// can never leak past this strategy.
type LLMStrategy struct {
	analyzer  LLMAnalyzer
	sentiment SentimentProvider // optional
	asset     string

	// Hand-tuned sentiment adjustment coefficients.
	alignedBoost    float64 // per unit sentiment, aligned action
	holdBoost       float64 // per unit sentiment, HOLD action
	misalignPenalty float64 // per unit sentiment, opposing action
	sentimentBar    float64 // |sentiment| needed before it counts as directional
}

// NewLLMStrategy creates an LLM strategy. sentiment may be nil, in which case
// no sentiment adjustment is applied.
func NewLLMStrategy(analyzer LLMAnalyzer, sentiment SentimentProvider, asset string) *LLMStrategy {
	return &LLMStrategy{
		analyzer:        analyzer,
		sentiment:       sentiment,
		asset:           asset,
		alignedBoost:    10,
		holdBoost:       2,
		misalignPenalty: 5,
		sentimentBar:    0.2,
	}
}

func (s *LLMStrategy) Name() string { return NameLLM }

func (s *LLMStrategy) RegimeSuitability(r regime.Regime) float64 {
	// The LLM sees context the rule-based strategies cannot; it is most
	// valuable when the rules disagree with each other.
	switch r {
	case regime.Volatile:
		return 0.8
	case regime.BearRanging:
		return 0.7
	default:
		return 0.6
	}
}

func (s *LLMStrategy) Analyze(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	if sig, ok := validateIndicators(NameLLM, indicators); !ok {
		return sig
	}
	if s.analyzer == nil {
		return holdSignal(NameLLM, 30, "LLM analysis error: no analyzer configured")
	}

	decision, err := s.analyzer.AnalyzeMarket(market, indicators)
	if err != nil {
		return holdSignal(NameLLM, 30, fmt.Sprintf("LLM analysis error: %v", err))
	}
	if decision == nil {
		return holdSignal(NameLLM, 30, "LLM analysis error: analyzer returned no decision")
	}

	action, valid := ParseAction(decision.Decision)
	confidence := clampConfidence(decision.Confidence)
	reasoning := decision.Reasoning
	if !valid {
		action = ActionHold
		confidence = 30
		reasoning = fmt.Sprintf("Invalid LLM decision %q coerced to HOLD", decision.Decision)
	}

	confidence = s.applySentiment(action, confidence)

	return Signal{
		Action:                 action,
		Confidence:             clampConfidence(confidence),
		Reasoning:              reasoning,
		PositionSizeMultiplier: 1.0,
		SourceStrategy:         NameLLM,
	}
}

// applySentiment nudges confidence up when news sentiment agrees with the
// action and down when it opposes it. Sentiment failures are logged and
// skipped; they never degrade the base decision.
func (s *LLMStrategy) applySentiment(action Action, confidence float64) float64 {
	if s.sentiment == nil {
		return confidence
	}

	res, err := s.sentiment.GetSentiment(s.asset)
	if err != nil {
		log.Printf("llm_strategy: sentiment lookup failed for %s: %v", s.asset, err)
		return confidence
	}

	score := clamp(res.OverallSentiment, -1, 1)
	conf := clamp(res.Confidence, 0, 1)

	switch {
	case action == ActionBuy && score > s.sentimentBar:
		confidence += score * s.alignedBoost * conf
	case action == ActionSell && score < -s.sentimentBar:
		confidence += math.Abs(score) * s.alignedBoost * conf
	case action == ActionHold:
		confidence += math.Abs(score) * s.holdBoost * conf
	case action == ActionBuy && score < -s.sentimentBar,
		action == ActionSell && score > s.sentimentBar:
		confidence -= math.Abs(score) * s.misalignPenalty * conf
	}

	return clampConfidence(confidence)
}
