package strategy

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// TrendFollowingStrategy scores trend strength and direction from MACD, RSI
// and Bollinger positioning, buying confirmed up-trends and selling confirmed
// down-trends unless RSI is at an exhaustion extreme.
type TrendFollowingStrategy struct {
	rsiOverbought float64
	rsiOversold   float64
	minStrength   float64
	directionBar  float64 // averaged vote magnitude needed for a clear direction
}

// NewTrendFollowingStrategy creates a trend following strategy with default
// thresholds.
func NewTrendFollowingStrategy() *TrendFollowingStrategy {
	return &TrendFollowingStrategy{
		rsiOverbought: 70,
		rsiOversold:   30,
		minStrength:   0.6,
		directionBar:  0.3,
	}
}

func (s *TrendFollowingStrategy) Name() string { return NameTrendFollowing }

func (s *TrendFollowingStrategy) RegimeSuitability(r regime.Regime) float64 {
	switch r {
	case regime.Bull:
		return 0.9
	case regime.Bear:
		return 0.7
	case regime.Sideways:
		return 0.3
	case regime.Trending:
		return 0.9
	case regime.Ranging:
		return 0.3
	case regime.Volatile:
		return 0.5
	case regime.BearRanging:
		return 0.4
	default:
		return 0.5
	}
}

func (s *TrendFollowingStrategy) Analyze(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	if sig, ok := validateIndicators(NameTrendFollowing, indicators); !ok {
		return sig
	}

	if key, ok := requireFinite(indicators, types.KeyRSI, types.KeyMACDHistogram,
		types.KeyBBUpper, types.KeyBBMiddle, types.KeyBBLower); !ok {
		return holdSignal(NameTrendFollowing, 0, fmt.Sprintf("Analysis error: invalid indicator %q", key))
	}

	price := market[types.KeyPrice]
	rsi := indicators[types.KeyRSI]
	hist := indicators[types.KeyMACDHistogram]
	upper := indicators[types.KeyBBUpper]
	middle := indicators[types.KeyBBMiddle]
	lower := indicators[types.KeyBBLower]

	if !isFinite(price) || price <= 0 || upper <= lower {
		return holdSignal(NameTrendFollowing, 0, "Analysis error: degenerate price or Bollinger band values")
	}

	strength := s.trendStrength(rsi, hist, price, upper, middle, lower)
	direction, alignment := s.trendDirection(rsi, hist, price, middle)

	confidence := strength * 60
	if direction != 0 {
		confidence += 20
	}
	confidence += 5 * float64(alignment)
	confidence = clamp(confidence, 20, 95)

	multiplier := math.Min(1.5, 0.5+strength)

	switch {
	case direction > 0 && strength > s.minStrength:
		if rsi > s.rsiOverbought {
			return Signal{
				Action:                 ActionHold,
				Confidence:             clampConfidence(confidence * 0.7),
				Reasoning:              fmt.Sprintf("Uptrend detected but RSI %.1f is overbought, holding", rsi),
				PositionSizeMultiplier: 1.0,
				SourceStrategy:         NameTrendFollowing,
			}
		}
		return Signal{
			Action:                 ActionBuy,
			Confidence:             math.Min(95, confidence+10),
			Reasoning:              fmt.Sprintf("Uptrend confirmed (strength %.2f, %d/3 indicators aligned)", strength, alignment),
			PositionSizeMultiplier: multiplier,
			SourceStrategy:         NameTrendFollowing,
		}
	case direction < 0 && strength > s.minStrength:
		if rsi < s.rsiOversold {
			return Signal{
				Action:                 ActionHold,
				Confidence:             clampConfidence(confidence * 0.7),
				Reasoning:              fmt.Sprintf("Downtrend detected but RSI %.1f is oversold, holding", rsi),
				PositionSizeMultiplier: 1.0,
				SourceStrategy:         NameTrendFollowing,
			}
		}
		return Signal{
			Action:                 ActionSell,
			Confidence:             math.Min(95, confidence+10),
			Reasoning:              fmt.Sprintf("Downtrend confirmed (strength %.2f, %d/3 indicators aligned)", strength, alignment),
			PositionSizeMultiplier: multiplier,
			SourceStrategy:         NameTrendFollowing,
		}
	default:
		return Signal{
			Action:                 ActionHold,
			Confidence:             clampConfidence(confidence),
			Reasoning:              fmt.Sprintf("No clear trend (strength %.2f)", strength),
			PositionSizeMultiplier: 1.0,
			SourceStrategy:         NameTrendFollowing,
		}
	}
}

// trendStrength averages three independently bucketed factors into [0, 1].
func (s *TrendFollowingStrategy) trendStrength(rsi, hist, price, upper, middle, lower float64) float64 {
	var macdScore float64
	switch h := math.Abs(hist); {
	case h > 0.5:
		macdScore = 0.8
	case h > 0.2:
		macdScore = 0.6
	default:
		macdScore = 0.3
	}

	var rsiScore float64
	switch d := math.Abs(rsi - 50); {
	case d > 20:
		rsiScore = 0.8
	case d > 10:
		rsiScore = 0.6
	default:
		rsiScore = 0.3
	}

	// Band position 0 = lower band, 1 = upper band.
	pos := (price - lower) / (upper - lower)
	var bbScore float64
	switch {
	case pos >= 0.9 || pos <= 0.1:
		bbScore = 0.8
	case pos >= 2.0/3.0 || pos <= 1.0/3.0:
		bbScore = 0.6
	default:
		bbScore = 0.4
	}

	return (macdScore + rsiScore + bbScore) / 3
}

// trendDirection averages three signed indicator votes. The direction is only
// considered clear when the averaged vote exceeds the direction bar in
// magnitude. Returns the direction (-1, 0, +1) and the number of votes
// aligned with it.
func (s *TrendFollowingStrategy) trendDirection(rsi, hist, price, middle float64) (int, int) {
	votes := [3]float64{}

	if hist > 0 {
		votes[0] = 1
	} else if hist < 0 {
		votes[0] = -1
	}

	if rsi > 55 {
		votes[1] = 1
	} else if rsi < 45 {
		votes[1] = -1
	}

	if middle > 0 {
		if price > middle*1.01 {
			votes[2] = 1
		} else if price < middle*0.99 {
			votes[2] = -1
		}
	}

	avg := (votes[0] + votes[1] + votes[2]) / 3

	direction := 0
	if avg > s.directionBar {
		direction = 1
	} else if avg < -s.directionBar {
		direction = -1
	}

	alignment := 0
	if direction != 0 {
		for _, v := range votes {
			if (direction > 0 && v > 0) || (direction < 0 && v < 0) {
				alignment++
			}
		}
	}
	return direction, alignment
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
