package strategy

import (
	"fmt"
	"log"
	"sort"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Confirmation/veto point values for the hierarchical combiner. Hand-tuned;
// exposed as constants rather than buried literals.
const (
	ConfirmationBonus = 5.0  // added per agreeing secondary strategy
	VetoPenalty       = 10.0 // subtracted per confident opposing secondary strategy
	VetoConfidenceBar = 60.0 // opposing strategy must exceed this to veto
	confirmWindow     = 2    // number of lower-priority strategies consulted
	maxFinalConf      = 95.0
)

// ActionThresholds holds the minimum confidence a strategy's BUY or SELL
// signal needs before the hierarchical combiner will act on it.
type ActionThresholds struct {
	Buy  float64
	Sell float64
}

// DefaultThresholds is the fallback when a (regime, strategy) pair is absent
// from the adaptive threshold table.
var DefaultThresholds = ActionThresholds{Buy: 30, Sell: 30}

// regimeStrategyPriority fixes, per regime, the order in which strategies are
// consulted. The first strategy whose signal passes its threshold (after
// confirmation/veto adjustment) wins; order changes outcomes even at equal
// confidence.
var regimeStrategyPriority = map[regime.Regime][]string{
	regime.Trending:    {NameTrendFollowing, NameMomentum, NameLLM, NameMeanReversion},
	regime.Ranging:     {NameMeanReversion, NameLLM, NameTrendFollowing, NameMomentum},
	regime.Volatile:    {NameLLM, NameMeanReversion, NameMomentum, NameTrendFollowing},
	regime.BearRanging: {NameMeanReversion, NameLLM, NameMomentum, NameTrendFollowing},
}

// adaptiveThresholds maps regime -> strategy -> per-action confidence
// thresholds. Strategies favored by a regime get lower bars; disfavored ones
// must be much more confident to act. Missing entries fall back to
// DefaultThresholds.
var adaptiveThresholds = map[regime.Regime]map[string]ActionThresholds{
	regime.Trending: {
		NameTrendFollowing: {Buy: 30, Sell: 35},
		NameMomentum:       {Buy: 35, Sell: 40},
		NameLLM:            {Buy: 40, Sell: 40},
		NameMeanReversion:  {Buy: 55, Sell: 55},
	},
	regime.Ranging: {
		NameMeanReversion:  {Buy: 30, Sell: 30},
		NameLLM:            {Buy: 40, Sell: 40},
		NameTrendFollowing: {Buy: 50, Sell: 50},
		NameMomentum:       {Buy: 45, Sell: 45},
	},
	regime.Volatile: {
		NameLLM:            {Buy: 45, Sell: 45},
		NameMeanReversion:  {Buy: 40, Sell: 40},
		NameMomentum:       {Buy: 50, Sell: 50},
		NameTrendFollowing: {Buy: 55, Sell: 55},
	},
	regime.BearRanging: {
		NameMeanReversion:  {Buy: 35, Sell: 30},
		NameLLM:            {Buy: 40, Sell: 35},
		NameMomentum:       {Buy: 50, Sell: 45},
		NameTrendFollowing: {Buy: 55, Sell: 50},
	},
}

// AdaptiveManager combines strategy signals by strict regime-dependent
// priority order instead of weighted voting: the highest-priority strategy
// whose confidence clears its regime-specific threshold decides, after
// confirmation/veto adjustment from the next two strategies in line.
//
// Like Manager, an AdaptiveManager instance is for a single caller.
type AdaptiveManager struct {
	productID  string
	strategies map[string]Strategy
	order      []string

	currentRegime regime.Regime
	tracker       DecisionTracker
}

// NewAdaptiveManager creates an adaptive strategy manager. llm and tracker
// may be nil.
func NewAdaptiveManager(productID string, llm *LLMStrategy, tracker DecisionTracker) *AdaptiveManager {
	m := &AdaptiveManager{
		productID:     productID,
		strategies:    make(map[string]Strategy),
		currentRegime: regime.Ranging,
		tracker:       tracker,
	}
	m.register(NewTrendFollowingStrategy())
	m.register(NewMeanReversionStrategy())
	m.register(NewMomentumStrategy())
	if llm != nil {
		m.register(llm)
	}
	return m
}

func (m *AdaptiveManager) register(s Strategy) {
	m.strategies[s.Name()] = s
	m.order = append(m.order, s.Name())
}

// GetCombinedSignal runs all strategies, detects the enhanced regime and
// resolves a single decision hierarchically. It never returns an error and
// never panics.
func (m *AdaptiveManager) GetCombinedSignal(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	_, final := m.EvaluateAll(market, indicators, portfolio)
	return final
}

// EvaluateAll runs every strategy exactly once and resolves the decision
// hierarchically from that same signal set. Callers that need both the
// per-strategy signals and the combined result use this instead of calling
// AnalyzeAllStrategies and GetCombinedSignal separately, which would run the
// strategies twice.
func (m *AdaptiveManager) EvaluateAll(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) (map[string]Signal, Signal) {
	if len(market) == 0 {
		return nil, holdSignal("adaptive_manager", 0, "Invalid market data: expected a populated mapping")
	}
	if len(indicators) == 0 {
		return nil, holdSignal("adaptive_manager", 0, "Invalid technical indicators: expected a populated mapping")
	}

	signals := m.AnalyzeAllStrategies(market, indicators, portfolio)
	m.currentRegime = regime.DetectEnhanced(market, indicators)

	final := m.combineHierarchical(signals, m.currentRegime)

	m.recordDecision(signals, final, market[types.KeyPrice])
	return signals, final
}

// AnalyzeAllStrategies runs every registered strategy with per-strategy
// failure isolation.
func (m *AdaptiveManager) AnalyzeAllStrategies(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) map[string]Signal {
	signals := make(map[string]Signal, len(m.strategies))
	for _, name := range m.order {
		signals[name] = m.safeAnalyze(m.strategies[name], market, indicators, portfolio)
	}
	return signals
}

func (m *AdaptiveManager) safeAnalyze(s Strategy, market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) (sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("strategy %s panicked: %v", s.Name(), r)
			sig = holdSignal(s.Name(), 0, fmt.Sprintf("Strategy error: %v", r))
		}
	}()
	return s.Analyze(market, indicators, portfolio)
}

// ThresholdFor resolves the confidence threshold for a strategy's action in a
// regime, falling back to DefaultThresholds when the pair is absent. The
// two-level lookup is explicit so the fallback path stays visible and
// testable.
func ThresholdFor(r regime.Regime, strategyName string, action Action) float64 {
	th := DefaultThresholds
	if byStrategy, ok := adaptiveThresholds[r]; ok {
		if t, ok := byStrategy[strategyName]; ok {
			th = t
		}
	}
	if action == ActionSell {
		return th.Sell
	}
	return th.Buy
}

// combineHierarchical walks the regime's priority list; the first BUY/SELL
// signal that clears its threshold, after confirmation bonuses and veto
// penalties from the next two strategies in priority order, decides. If no
// strategy passes, HOLD with the unweighted average confidence.
//
// Only the next two strategies are consulted for confirmation/veto. That
// window is deliberate and preserved as-is: widening it changes live
// behavior.
func (m *AdaptiveManager) combineHierarchical(signals map[string]Signal, r regime.Regime) Signal {
	priority, ok := regimeStrategyPriority[r]
	if !ok {
		priority = regimeStrategyPriority[regime.Ranging]
	}

	for i, name := range priority {
		sig, present := signals[name]
		if !present || sig.Action == ActionHold {
			continue
		}

		threshold := ThresholdFor(r, name, sig.Action)
		if sig.Confidence < threshold {
			continue
		}

		var bonus, penalty float64
		var confirmed, vetoed int
		for j := i + 1; j < len(priority) && j <= i+confirmWindow; j++ {
			secondary, ok := signals[priority[j]]
			if !ok {
				continue
			}
			switch {
			case secondary.Action == sig.Action:
				bonus += ConfirmationBonus
				confirmed++
			case opposing(secondary.Action, sig.Action) && secondary.Confidence > VetoConfidenceBar:
				penalty += VetoPenalty
				vetoed++
			}
		}

		finalConfidence := clamp(sig.Confidence+bonus-penalty, 0, maxFinalConf)
		if finalConfidence < threshold {
			continue
		}

		reasoning := fmt.Sprintf("%s via %s in %s regime (%.0f >= %.0f)",
			sig.Action, name, r, finalConfidence, threshold)
		if confirmed > 0 {
			reasoning += fmt.Sprintf(". Confirmed by secondary strategies (+%.0f)", bonus)
		}
		if vetoed > 0 {
			reasoning += fmt.Sprintf(". Opposed by %d secondary strategies (-%.0f)", vetoed, penalty)
		}

		return Signal{
			Action:                 sig.Action,
			Confidence:             finalConfidence,
			Reasoning:              reasoning,
			PositionSizeMultiplier: clamp(sig.PositionSizeMultiplier, 0.5, 2.0),
			SourceStrategy:         name,
			Metadata: map[string]float64{
				"confirmation_bonus": bonus,
				"veto_penalty":       penalty,
				"threshold":          threshold,
			},
		}
	}

	var sum float64
	for _, sig := range signals {
		sum += clampConfidence(sig.Confidence)
	}
	avg := 0.0
	if len(signals) > 0 {
		avg = sum / float64(len(signals))
	}
	return Signal{
		Action:                 ActionHold,
		Confidence:             clampConfidence(avg),
		Reasoning:              fmt.Sprintf("No strategy met its confidence threshold in %s regime", r),
		PositionSizeMultiplier: 1.0,
		SourceStrategy:         "adaptive_combined",
	}
}

func opposing(a, b Action) bool {
	return (a == ActionBuy && b == ActionSell) || (a == ActionSell && b == ActionBuy)
}

func (m *AdaptiveManager) recordDecision(signals map[string]Signal, final Signal, price float64) {
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

// GetCurrentMarketRegime returns the regime computed on the last call to
// GetCombinedSignal.
func (m *AdaptiveManager) GetCurrentMarketRegime() regime.Regime {
	return m.currentRegime
}

// GetStrategyPerformance reports externally visible state for dashboards.
func (m *AdaptiveManager) GetStrategyPerformance() map[string]interface{} {
	names := make([]string, len(m.order))
	copy(names, m.order)
	sort.Strings(names)

	return map[string]interface{}{
		"product_id":    m.productID,
		"market_regime": string(m.currentRegime),
		"strategies":    names,
		"priority":      regimeStrategyPriority[m.currentRegime],
	}
}
