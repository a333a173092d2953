// Package regime classifies recent price/volatility behavior into discrete
// market regimes used to select which strategy to trust.
package regime

import (
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Regime is a discrete market regime label.
type Regime string

// Base classifier regimes.
const (
	Bull     Regime = "bull"
	Bear     Regime = "bear"
	Sideways Regime = "sideways"
)

// Enhanced classifier regimes.
const (
	Trending    Regime = "trending"
	Ranging     Regime = "ranging"
	Volatile    Regime = "volatile"
	BearRanging Regime = "bear_ranging"
)

// Classification thresholds. Hand-tuned; exposed as constants so backtests
// can document the exact rule set in effect.
const (
	strongTrend24h = 3.0  // percent
	strongTrend5d  = 10.0 // percent
	moderate24h    = 1.0
	moderate5d     = 5.0

	bearMarket7d     = -5.0 // 7d change below this overrides everything
	quiet24h         = 1.5
	quietBBWidth     = 3.0
	surge24h         = 4.0
	surge5d          = 8.0
	surgeBBWidth     = 4.0
	rangingBBWidth   = 2.0
	volatileBBWidth  = 5.0
)

// Classify scores the market into bull/bear/sideways. It is the base
// three-state classifier: trend magnitude, RSI and MACD histogram each add or
// subtract points, and the summed score decides the label. Invalid input
// never raises; it defaults to sideways.
func Classify(market types.MarketData, indicators types.Indicators) Regime {
	if market == nil || indicators == nil {
		return Sideways
	}

	ch24 := market[types.KeyPriceChange24]
	ch5d := market[types.KeyPriceChange5d]
	rsi := indicators[types.KeyRSI]
	hist := indicators[types.KeyMACDHistogram]

	if !finite(ch24, ch5d, rsi, hist) {
		return Sideways
	}

	score := 0
	switch {
	case ch24 > strongTrend24h && ch5d > strongTrend5d:
		score += 2
	case ch24 < -strongTrend24h && ch5d < -strongTrend5d:
		score -= 2
	case ch24 > moderate24h && ch5d > moderate5d:
		score++
	case ch24 < -moderate24h && ch5d < -moderate5d:
		score--
	}

	if rsi > 60 {
		score++
	} else if rsi < 40 && rsi > 0 {
		score--
	}

	if hist > 0.2 {
		score++
	} else if hist < -0.2 {
		score--
	}

	switch {
	case score >= 2:
		return Bull
	case score <= -2:
		return Bear
	default:
		return Sideways
	}
}

// DetectEnhanced classifies the market into the four-state regime set used by
// the adaptive manager. A bear-market override (7d change below -5%) is
// checked first and wins over all other rules. Any invalid input defaults to
// ranging.
func DetectEnhanced(market types.MarketData, indicators types.Indicators) Regime {
	if market == nil || indicators == nil {
		return Ranging
	}

	ch24 := market[types.KeyPriceChange24]
	ch5d := market[types.KeyPriceChange5d]
	ch7d := market[types.KeyPriceChange7d]

	upper := indicators[types.KeyBBUpper]
	lower := indicators[types.KeyBBLower]
	middle := indicators[types.KeyBBMiddle]

	if !finite(ch24, ch5d, ch7d, upper, lower, middle) || middle <= 0 {
		return Ranging
	}

	bbWidth := (upper - lower) / middle * 100

	// Bear-market override: quiet bear chop vs broad risk-off volatility.
	if ch7d < bearMarket7d {
		if math.Abs(ch24) < quiet24h && bbWidth < quietBBWidth {
			return BearRanging
		}
		return Volatile
	}

	switch {
	case math.Abs(ch24) > surge24h || math.Abs(ch5d) > surge5d:
		if bbWidth > surgeBBWidth {
			return Volatile
		}
		return Trending
	case math.Abs(ch24) < quiet24h && bbWidth < rangingBBWidth:
		return Ranging
	case bbWidth > volatileBBWidth:
		return Volatile
	default:
		return Ranging
	}
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
