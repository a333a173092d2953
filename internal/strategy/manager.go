package strategy

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Combination constants for the weighted combiner. Hand-tuned values carried
// over from live operation; exposed so tests and reports can reference them.
const (
	BuyScoreThreshold  = 0.3 // weighted score above this is a preliminary BUY
	SellScoreThreshold = -0.3
	StrongScoreBoost   = 1.1 // confidence boost when |weighted score| > 0.6
	WeakScorePenalty   = 0.8 // confidence penalty when |weighted score| < 0.1
	StrongConsensus    = 0.6 // vote share for a confident decision
	WeakConsensus      = 0.5 // vote share to proceed with caution
	NoConsensusPenalty = 0.7 // confidence penalty when forced to HOLD

	minStrategyWeight = 0.05
	priceHistoryCap   = 100
)

// Manager orchestrates all registered strategies, classifies the market
// regime, blends strategy weights and combines the individual signals into a
// single decision by weighted voting with a consensus override.
//
// A Manager instance is intended for a single caller; concurrent use of one
// instance is undefined. Strategies are stateless, so concurrent callers
// should construct one Manager each.
type Manager struct {
	productID  string
	strategies map[string]Strategy
	order      []string // stable iteration order

	baseWeights map[string]float64
	weights     map[string]float64

	currentRegime regime.Regime

	tracker    DecisionTracker
	volatility VolatilityAnalyzer
	prices     []float64 // caller-supplied window fed to the volatility analyzer
}

// NewManager creates a strategy manager with the three rule-based strategies
// and, when llm is non-nil, the LLM strategy. Base weights depend on whether
// the LLM strategy participates. tracker and volatility may be nil.
func NewManager(productID string, llm *LLMStrategy, tracker DecisionTracker, volatility VolatilityAnalyzer) *Manager {
	m := &Manager{
		productID:  productID,
		strategies: make(map[string]Strategy),
		tracker:    tracker,
		volatility: volatility,

		currentRegime: regime.Sideways,
	}

	m.register(NewTrendFollowingStrategy())
	m.register(NewMeanReversionStrategy())
	m.register(NewMomentumStrategy())

	if llm != nil {
		m.register(llm)
		m.baseWeights = map[string]float64{
			NameTrendFollowing: 0.25,
			NameMeanReversion:  0.25,
			NameMomentum:       0.20,
			NameLLM:            0.30,
		}
	} else {
		m.baseWeights = map[string]float64{
			NameTrendFollowing: 0.40,
			NameMeanReversion:  0.35,
			NameMomentum:       0.25,
		}
	}

	m.weights = make(map[string]float64, len(m.baseWeights))
	for name, w := range m.baseWeights {
		m.weights[name] = w
	}
	return m
}

func (m *Manager) register(s Strategy) {
	m.strategies[s.Name()] = s
	m.order = append(m.order, s.Name())
}

// GetCombinedSignal is the single public decision entry point. It never
// returns an error and never panics: every failure mode degrades to a
// well-formed HOLD signal.
func (m *Manager) GetCombinedSignal(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	_, final := m.EvaluateAll(market, indicators, portfolio)
	return final
}

// EvaluateAll runs every strategy exactly once and combines that same signal
// set into the final decision. Callers that need both the per-strategy
// signals and the combined result use this instead of calling
// AnalyzeAllStrategies and GetCombinedSignal separately, which would run the
// strategies twice.
func (m *Manager) EvaluateAll(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) (map[string]Signal, Signal) {
	if len(market) == 0 {
		return nil, holdSignal("manager", 0, "Invalid market data: expected a populated mapping")
	}
	if len(indicators) == 0 {
		return nil, holdSignal("manager", 0, "Invalid technical indicators: expected a populated mapping")
	}

	signals := m.AnalyzeAllStrategies(market, indicators, portfolio)
	m.currentRegime = regime.Classify(market, indicators)

	weights := m.adjustedWeights(signals)
	final := m.combineWeighted(signals, weights)

	m.recordDecision(signals, final, market[types.KeyPrice])
	return signals, final
}

// SetPriceHistory replaces the price window fed to the volatility analyzer.
// The manager never accumulates prices on its own; callers supply the window
// alongside each evaluation so replaying a window produces the same decision
// it produced live. Without a window the volatility adjustment is skipped.
func (m *Manager) SetPriceHistory(prices []float64) {
	if len(prices) > priceHistoryCap {
		prices = prices[len(prices)-priceHistoryCap:]
	}
	m.prices = append(m.prices[:0], prices...)
}

// AnalyzeAllStrategies runs every registered strategy, isolating failures so
// one broken strategy never poisons the rest.
func (m *Manager) AnalyzeAllStrategies(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) map[string]Signal {
	signals := make(map[string]Signal, len(m.strategies))
	for _, name := range m.order {
		signals[name] = m.safeAnalyze(m.strategies[name], market, indicators, portfolio)
	}
	return signals
}

func (m *Manager) safeAnalyze(s Strategy, market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) (sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("strategy %s panicked: %v", s.Name(), r)
			sig = holdSignal(s.Name(), 0, fmt.Sprintf("Strategy error: %v", r))
		}
	}()
	return s.Analyze(market, indicators, portfolio)
}

// adjustedWeights blends the externally-set weight table with the regime
// suitability of each strategy, a regime-specific static adjustment, the
// LLM/rule-based confidence divergence, and the volatility analyzer's
// additive deltas. The result is renormalized to sum 1.0 and is computed
// fresh on every call - the persistent table only changes through
// UpdateStrategyWeights.
func (m *Manager) adjustedWeights(signals map[string]Signal) map[string]float64 {
	adjusted := make(map[string]float64, len(m.weights))
	for name, w := range m.weights {
		s := m.strategies[name]
		adjusted[name] = w + 0.1*(s.RegimeSuitability(m.currentRegime)-0.5) + regimeWeightAdjustments[m.currentRegime][name]
	}

	if llmSig, ok := signals[NameLLM]; ok {
		var ruleSum float64
		var ruleCount int
		for name, sig := range signals {
			if name == NameLLM {
				continue
			}
			ruleSum += sig.Confidence
			ruleCount++
		}
		if ruleCount > 0 {
			divergence := (llmSig.Confidence - ruleSum/float64(ruleCount)) / 100
			adjusted[NameLLM] += 0.1 * divergence
		}
	}

	if m.volatility != nil && len(m.prices) > 1 {
		res, err := m.volatility.Analyze(m.productID, m.prices)
		if err != nil {
			log.Printf("volatility analyzer failed for %s: %v", m.productID, err)
		} else if res != nil {
			for name, delta := range res.StrategyAdjustments {
				if _, ok := adjusted[name]; ok {
					adjusted[name] += delta
				}
			}
		}
	}

	for name, w := range adjusted {
		adjusted[name] = math.Max(minStrategyWeight, w)
	}
	normalizeWeights(adjusted)
	return adjusted
}

// regimeWeightAdjustments is the static per-regime weight delta table used by
// the base manager.
var regimeWeightAdjustments = map[regime.Regime]map[string]float64{
	regime.Bull: {
		NameTrendFollowing: 0.10,
		NameMomentum:       0.05,
		NameMeanReversion:  -0.10,
		NameLLM:            -0.05,
	},
	regime.Bear: {
		NameMeanReversion:  0.05,
		NameLLM:            0.05,
		NameTrendFollowing: -0.05,
		NameMomentum:       -0.05,
	},
	regime.Sideways: {
		NameMeanReversion:  0.10,
		NameLLM:            0.05,
		NameTrendFollowing: -0.10,
		NameMomentum:       -0.05,
	},
}

func actionScore(a Action) float64 {
	switch a {
	case ActionBuy:
		return 1
	case ActionSell:
		return -1
	default:
		return 0
	}
}

// combineWeighted runs the weighted vote and applies the consensus override:
// a preliminary BUY/SELL that fails to gather at least the weak consensus
// share of the vote is downgraded to HOLD.
func (m *Manager) combineWeighted(signals map[string]Signal, weights map[string]float64) Signal {
	var totalWeight, weightedScore, weightedConfidence, weightedMultiplier float64
	for name, sig := range signals {
		w := weights[name]
		totalWeight += w
		weightedScore += actionScore(sig.Action) * clampConfidence(sig.Confidence) / 100 * w
		weightedConfidence += clampConfidence(sig.Confidence) * w
		weightedMultiplier += sig.PositionSizeMultiplier * w
	}
	if totalWeight <= 0 {
		return holdSignal("manager", 0, "No strategy weights configured")
	}

	weightedScore /= totalWeight
	confidence := weightedConfidence / totalWeight
	multiplier := clamp(weightedMultiplier/totalWeight, 0.5, 2.0)

	var action Action
	switch {
	case weightedScore > BuyScoreThreshold:
		action = ActionBuy
	case weightedScore < SellScoreThreshold:
		action = ActionSell
	default:
		action = ActionHold
	}

	switch {
	case math.Abs(weightedScore) > 0.6:
		confidence *= StrongScoreBoost
	case math.Abs(weightedScore) < 0.1:
		confidence *= WeakScorePenalty
	}

	// Consensus check on the raw actions, weighted by strategy weight.
	var agreeing float64
	for name, sig := range signals {
		if sig.Action == action {
			agreeing += weights[name]
		}
	}
	share := agreeing / totalWeight

	var reasoning string
	switch {
	case share >= StrongConsensus:
		reasoning = fmt.Sprintf("%s: strong consensus (%.0f%% vote share, score %.2f, regime %s)",
			action, share*100, weightedScore, m.currentRegime)
	case share >= WeakConsensus:
		reasoning = fmt.Sprintf("%s: weak consensus (%.0f%% vote share, score %.2f, regime %s), proceeding with caution",
			action, share*100, weightedScore, m.currentRegime)
	default:
		action = ActionHold
		confidence *= NoConsensusPenalty
		reasoning = fmt.Sprintf("No consensus among strategies (best vote share %.0f%%), holding", share*100)
	}

	return Signal{
		Action:                 action,
		Confidence:             clampConfidence(confidence),
		Reasoning:              reasoning,
		PositionSizeMultiplier: multiplier,
		SourceStrategy:         "combined",
		Metadata: map[string]float64{
			"weighted_score": weightedScore,
			"vote_share":     share,
		},
	}
}

// recordDecision forwards the decision to the tracker. Tracker failures are
// logged and swallowed; they never alter the returned signal.
func (m *Manager) recordDecision(signals map[string]Signal, final Signal, price float64) {
	if m.tracker == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("decision tracker panicked: %v", r)
		}
	}()
	if err := m.tracker.RecordDecision(m.productID, signals, final, price); err != nil {
		log.Printf("decision tracker failed: %v", err)
	}
}

// UpdateStrategyWeights replaces the persistent weight table. Weights that do
// not sum to 1.0 are renormalized, preserving their ratios, with a warning.
// Unknown strategy names are rejected.
func (m *Manager) UpdateStrategyWeights(newWeights map[string]float64) error {
	if len(newWeights) == 0 {
		return fmt.Errorf("no weights provided")
	}

	var sum float64
	for name, w := range newWeights {
		if _, ok := m.strategies[name]; !ok {
			return fmt.Errorf("unknown strategy %q", name)
		}
		if w < 0 || !isFinite(w) {
			return fmt.Errorf("invalid weight %v for strategy %q", w, name)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("weights sum to zero")
	}

	if math.Abs(sum-1.0) > 1e-6 {
		log.Printf("strategy weights sum to %.4f, renormalizing to 1.0", sum)
	}

	updated := make(map[string]float64, len(m.weights))
	for name, w := range m.weights {
		updated[name] = w
	}
	for name, w := range newWeights {
		updated[name] = w / sum
	}
	normalizeWeights(updated)
	m.weights = updated
	return nil
}

// GetCurrentMarketRegime returns the regime computed on the last call to
// GetCombinedSignal. No history is retained.
func (m *Manager) GetCurrentMarketRegime() regime.Regime {
	return m.currentRegime
}

// GetStrategyWeights returns a copy of the persistent weight table.
func (m *Manager) GetStrategyWeights() map[string]float64 {
	out := make(map[string]float64, len(m.weights))
	for name, w := range m.weights {
		out[name] = w
	}
	return out
}

// GetStrategyPerformance reports the manager's externally visible state for
// dashboards.
func (m *Manager) GetStrategyPerformance() map[string]interface{} {
	names := make([]string, len(m.order))
	copy(names, m.order)
	sort.Strings(names)

	return map[string]interface{}{
		"product_id":       m.productID,
		"market_regime":    string(m.currentRegime),
		"strategies":       names,
		"strategy_weights": m.GetStrategyWeights(),
		"base_weights":     m.baseWeights,
	}
}

// normalizeWeights rescales weights in place so they sum to exactly 1.0.
func normalizeWeights(weights map[string]float64) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return
	}
	for name, w := range weights {
		weights[name] = w / sum
	}
}
