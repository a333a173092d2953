package strategy

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// MomentumStrategy trades in the direction of recent price momentum,
// amplified by volume and confirmed by RSI/MACD technical momentum. RSI
// blow-off extremes veto entries.
type MomentumStrategy struct {
	rsiExtremeHigh  float64
	rsiExtremeLow   float64
	strongMovePct   float64
	moderateMovePct float64
	priceWeight     float64
	technicalWeight float64
}

// NewMomentumStrategy creates a momentum strategy with default thresholds.
func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{
		rsiExtremeHigh:  85,
		rsiExtremeLow:   15,
		strongMovePct:   5.0,
		moderateMovePct: 2.0,
		priceWeight:     0.4,
		technicalWeight: 0.3,
	}
}

func (s *MomentumStrategy) Name() string { return NameMomentum }

func (s *MomentumStrategy) RegimeSuitability(r regime.Regime) float64 {
	switch r {
	case regime.Bull:
		return 0.8
	case regime.Bear:
		return 0.8
	case regime.Sideways:
		return 0.4
	case regime.Trending:
		return 0.8
	case regime.Ranging:
		return 0.4
	case regime.Volatile:
		return 0.6
	case regime.BearRanging:
		return 0.5
	default:
		return 0.5
	}
}

func (s *MomentumStrategy) Analyze(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) Signal {
	if sig, ok := validateIndicators(NameMomentum, indicators); !ok {
		return sig
	}

	if key, ok := requireFinite(indicators, types.KeyRSI, types.KeyMACDHistogram); !ok {
		return holdSignal(NameMomentum, 0, fmt.Sprintf("Analysis error: invalid indicator %q", key))
	}
	if key, ok := requireFinite(market, types.KeyPriceChange1h, types.KeyPriceChange4h, types.KeyPriceChange24); !ok {
		return holdSignal(NameMomentum, 0, fmt.Sprintf("Analysis error: invalid market field %q", key))
	}

	rsi := indicators[types.KeyRSI]
	hist := indicators[types.KeyMACDHistogram]

	priceScore := s.priceMomentum(market)
	volumeStrength := s.volumeMomentum(market)
	technicalScore := s.technicalMomentum(rsi, hist)

	// Volume amplifies price momentum but never dampens it.
	volumeAmp := 1.0 + math.Max(0, volumeStrength-0.5)

	total := priceScore*s.priceWeight*volumeAmp + technicalScore*s.technicalWeight

	var label string
	switch {
	case total >= 0.4:
		label = "strong_bullish"
	case total >= 0.2:
		label = "bullish"
	case total <= -0.4:
		label = "strong_bearish"
	case total <= -0.2:
		label = "bearish"
	default:
		label = "neutral"
	}

	strength := math.Min(0.95, math.Abs(total))
	confidence := strength*70 + 20
	strong := label == "strong_bullish" || label == "strong_bearish"

	var multiplier float64
	switch {
	case strong:
		multiplier = math.Min(1.8, 1.0+0.8*strength)
	case label != "neutral":
		multiplier = math.Min(1.4, 0.8+0.6*strength)
	default:
		multiplier = 0.6
	}

	switch label {
	case "strong_bullish", "bullish":
		if rsi > s.rsiExtremeHigh {
			return Signal{
				Action:                 ActionHold,
				Confidence:             clampConfidence(confidence * 0.6),
				Reasoning:              fmt.Sprintf("Bullish momentum but RSI %.1f is overbought, holding", rsi),
				PositionSizeMultiplier: 0.6,
				SourceStrategy:         NameMomentum,
			}
		}
		bonus := 10.0
		if strong {
			bonus = 15.0
		}
		return Signal{
			Action:                 ActionBuy,
			Confidence:             math.Min(95, confidence+bonus),
			Reasoning:              fmt.Sprintf("%s momentum (score %.2f, volume amp %.2fx)", label, total, volumeAmp),
			PositionSizeMultiplier: multiplier,
			SourceStrategy:         NameMomentum,
		}
	case "strong_bearish", "bearish":
		if rsi < s.rsiExtremeLow {
			return Signal{
				Action:                 ActionHold,
				Confidence:             clampConfidence(confidence * 0.6),
				Reasoning:              fmt.Sprintf("Bearish momentum but RSI %.1f is oversold, holding", rsi),
				PositionSizeMultiplier: 0.6,
				SourceStrategy:         NameMomentum,
			}
		}
		bonus := 10.0
		if strong {
			bonus = 15.0
		}
		return Signal{
			Action:                 ActionSell,
			Confidence:             math.Min(95, confidence+bonus),
			Reasoning:              fmt.Sprintf("%s momentum (score %.2f, volume amp %.2fx)", label, total, volumeAmp),
			PositionSizeMultiplier: multiplier,
			SourceStrategy:         NameMomentum,
		}
	default:
		return Signal{
			Action:                 ActionHold,
			Confidence:             clampConfidence(confidence * 0.7),
			Reasoning:              fmt.Sprintf("Weak momentum (score %.2f)", total),
			PositionSizeMultiplier: 0.6,
			SourceStrategy:         NameMomentum,
		}
	}
}

// priceMomentum weights recent percent returns (1h 50%, 4h 30%, 24h 20%) and
// grades the magnitude into weak/moderate/strong strength, signed by the
// direction of the move.
func (s *MomentumStrategy) priceMomentum(market types.MarketData) float64 {
	weighted := market[types.KeyPriceChange1h]*0.5 +
		market[types.KeyPriceChange4h]*0.3 +
		market[types.KeyPriceChange24]*0.2

	mag := math.Abs(weighted)
	var strength float64
	switch {
	case mag > s.strongMovePct:
		strength = math.Min(1.0, 0.6+(mag-s.strongMovePct)/10)
	case mag > s.moderateMovePct:
		strength = math.Min(0.6, 0.4+(mag-s.moderateMovePct)/15)
	default:
		strength = 0.2
	}

	if weighted < 0 {
		return -strength
	}
	return strength
}

// volumeMomentum grades the current/average volume ratio into [0.3, 0.9].
func (s *MomentumStrategy) volumeMomentum(market types.MarketData) float64 {
	volume := market[types.KeyVolume]
	avg := market[types.KeyAvgVolume]
	if !isFinite(volume) || !isFinite(avg) || avg <= 0 {
		return 0.5
	}

	switch ratio := volume / avg; {
	case ratio > 2.0:
		return 0.9
	case ratio > 1.5:
		return 0.7
	case ratio > 0.8:
		return 0.5
	default:
		return 0.3
	}
}

// technicalMomentum averages an RSI-derived score and a MACD-histogram score,
// both signed and bounded to [-0.8, 0.8].
func (s *MomentumStrategy) technicalMomentum(rsi, hist float64) float64 {
	rsiScore := clamp((rsi-50)/30*0.8, -0.8, 0.8)

	var macdScore float64
	switch h := math.Abs(hist); {
	case h > 0.5:
		macdScore = 0.8
	case h > 0.1:
		macdScore = 0.5
	case h > 0:
		macdScore = 0.2
	}
	if hist < 0 {
		macdScore = -macdScore
	}

	return (rsiScore + macdScore) / 2
}
