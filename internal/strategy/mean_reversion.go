package strategy

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Discrete sub-signal labels used by the mean reversion ladder.
type reversionSignal string

const (
	sigStrongBuy  reversionSignal = "strong_buy"
	sigBuy        reversionSignal = "buy"
	sigNeutral    reversionSignal = "neutral"
	sigSell       reversionSignal = "sell"
	sigStrongSell reversionSignal = "strong_sell"
)

func (r reversionSignal) value() float64 {
	switch r {
	case sigStrongBuy:
		return 2
	case sigBuy:
		return 1
	case sigSell:
		return -1
	case sigStrongSell:
		return -2
	default:
		return 0
	}
}

func (r reversionSignal) strong() bool {
	return r == sigStrongBuy || r == sigStrongSell
}

// MeanReversionStrategy fades RSI and Bollinger extremes: deeply oversold
// conditions are buys, deeply overbought conditions are sells. RSI carries
// 60% of the vote, Bollinger positioning 40%.
type MeanReversionStrategy struct {
	rsiStrongOversold   float64
	rsiOversold         float64
	rsiOverbought       float64
	rsiStrongOverbought float64
	bandBreakoutRatio   float64 // deviation beyond the band, as fraction of band width
	rsiWeight           float64
	bollingerWeight     float64
}

// NewMeanReversionStrategy creates a mean reversion strategy with default
// thresholds.
func NewMeanReversionStrategy() *MeanReversionStrategy {
	return &MeanReversionStrategy{
		rsiStrongOversold:   20,
		rsiOversold:         30,
		rsiOverbought:       70,
		rsiStrongOverbought: 80,
		bandBreakoutRatio:   0.10,
		rsiWeight:           0.6,
		bollingerWeight:     0.4,
	}
}

func (s *MeanReversionStrategy) Name() string { return NameMeanReversion }

func (s *MeanReversionStrategy) RegimeSuitability(r regime.Regime) float64 {
	switch r {
	case regime.Bull:
		return 0.4
	case regime.Bear:
		return 0.5
	case regime.Sideways:
		return 0.9
	case regime.Trending:
		return 0.3
	case regime.Ranging:
		return 0.9
	case regime.Volatile:
		return 0.6
	case regime.BearRanging:
		return 0.8
	default:
		return 0.5
	}
}

func (s *MeanReversionStrategy) Analyze(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	if sig, ok := validateIndicators(NameMeanReversion, indicators); !ok {
		return sig
	}

	if key, ok := requireFinite(indicators, types.KeyRSI,
		types.KeyBBUpper, types.KeyBBMiddle, types.KeyBBLower); !ok {
		return holdSignal(NameMeanReversion, 0, fmt.Sprintf("Analysis error: invalid indicator %q", key))
	}

	price := market[types.KeyPrice]
	rsi := indicators[types.KeyRSI]
	upper := indicators[types.KeyBBUpper]
	middle := indicators[types.KeyBBMiddle]
	lower := indicators[types.KeyBBLower]

	if !isFinite(price) || price <= 0 || upper <= lower {
		return holdSignal(NameMeanReversion, 0, "Analysis error: degenerate price or Bollinger band values")
	}

	rsiSig, rsiStr := s.rsiSignal(rsi)
	bbSig, bbStr := s.bollingerSignal(price, upper, middle, lower)

	weightedValue := s.rsiWeight*rsiSig.value() + s.bollingerWeight*bbSig.value()
	weightedStrength := s.rsiWeight*rsiStr + s.bollingerWeight*bbStr

	combined := bucketReversion(weightedValue)

	var action Action
	var confidence float64
	switch combined {
	case sigStrongBuy, sigBuy:
		action = ActionBuy
	case sigStrongSell, sigSell:
		action = ActionSell
	default:
		action = ActionHold
	}

	if combined == sigNeutral {
		confidence = math.Max(20, weightedStrength*80)
	} else {
		confidence = weightedStrength*80 + 15
		if combined.strong() {
			confidence += 10
		}
		confidence = math.Min(95, confidence)
	}

	var multiplier float64
	switch {
	case combined.strong():
		multiplier = math.Min(1.5, 0.8+0.7*weightedStrength)
	case combined != sigNeutral:
		multiplier = math.Min(1.2, 0.6+0.6*weightedStrength)
	default:
		multiplier = 0.5
	}

	return Signal{
		Action:                 action,
		Confidence:             clampConfidence(confidence),
		Reasoning:              fmt.Sprintf("Mean reversion %s (RSI %.1f -> %s, Bollinger -> %s)", combined, rsi, rsiSig, bbSig),
		PositionSizeMultiplier: multiplier,
		SourceStrategy:         NameMeanReversion,
	}
}

// rsiSignal is a five-tier ladder over the RSI value.
func (s *MeanReversionStrategy) rsiSignal(rsi float64) (reversionSignal, float64) {
	switch {
	case rsi <= s.rsiStrongOversold:
		return sigStrongBuy, 0.9
	case rsi <= s.rsiOversold:
		return sigBuy, 0.7
	case rsi >= s.rsiStrongOverbought:
		return sigStrongSell, 0.9
	case rsi >= s.rsiOverbought:
		return sigSell, 0.7
	default:
		return sigNeutral, 0.2
	}
}

// bollingerSignal grades price position relative to the bands. A close beyond
// a band by more than bandBreakoutRatio of the band width is a strong signal
// whose strength grows with the deviation, capped at 0.9.
func (s *MeanReversionStrategy) bollingerSignal(price, upper, middle, lower float64) (reversionSignal, float64) {
	width := upper - lower

	switch {
	case price < lower:
		deviation := (lower - price) / width
		if deviation > s.bandBreakoutRatio {
			return sigStrongBuy, math.Min(0.9, 0.6+deviation)
		}
		return sigBuy, 0.6
	case price > upper:
		deviation := (price - upper) / width
		if deviation > s.bandBreakoutRatio {
			return sigStrongSell, math.Min(0.9, 0.6+deviation)
		}
		return sigSell, 0.6
	default:
		// Inside the bands: strength decays with distance from the middle.
		dist := math.Abs(price-middle) / width
		return sigNeutral, math.Max(0.1, 0.5-dist)
	}
}

func bucketReversion(weighted float64) reversionSignal {
	switch {
	case weighted >= 1.5:
		return sigStrongBuy
	case weighted >= 0.5:
		return sigBuy
	case weighted <= -1.5:
		return sigStrongSell
	case weighted <= -0.5:
		return sigSell
	default:
		return sigNeutral
	}
}
