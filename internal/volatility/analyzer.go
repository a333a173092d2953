// Package volatility classifies recent price volatility and produces
// additive strategy weight adjustments.
package volatility

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
)

// Volatility categories.
const (
	CategoryLow     = "low"
	CategoryNormal  = "normal"
	CategoryHigh    = "high"
	CategoryExtreme = "extreme"
)

const (
	minSamples = 10

	// Annualized volatility boundaries between categories, assuming
	// hourly samples.
	lowBound     = 0.30
	normalBound  = 0.60
	extremeBound = 1.20

	samplesPerYear = 24 * 365
)

// Analyzer implements strategy.VolatilityAnalyzer using the standard
// deviation of log returns over the supplied price window.
type Analyzer struct{}

// NewAnalyzer creates a volatility analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes the annualized volatility of the price window and maps it
// to a category with per-strategy weight deltas.
func (a *Analyzer) Analyze(productID string, prices []float64) (*strategy.VolatilityResult, error) {
	if len(prices) < minSamples {
		return nil, fmt.Errorf("insufficient price history for %s: %d samples", productID, len(prices))
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			return nil, fmt.Errorf("non-positive price in history for %s", productID)
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	score := math.Sqrt(variance) * math.Sqrt(samplesPerYear)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, fmt.Errorf("volatility computation failed for %s", productID)
	}

	category := categorize(score)
	return &strategy.VolatilityResult{
		Category:            category,
		Score:               score,
		StrategyAdjustments: adjustmentsFor(category),
	}, nil
}

func categorize(score float64) string {
	switch {
	case score < lowBound:
		return CategoryLow
	case score < normalBound:
		return CategoryNormal
	case score < extremeBound:
		return CategoryHigh
	default:
		return CategoryExtreme
	}
}

// adjustmentsFor returns additive weight deltas per strategy. Calm markets
// favor trend following, turbulent markets favor mean reversion and the
// LLM strategy.
func adjustmentsFor(category string) map[string]float64 {
	switch category {
	case CategoryLow:
		return map[string]float64{
			strategy.NameTrendFollowing: 0.05,
			strategy.NameMomentum:       -0.05,
		}
	case CategoryHigh:
		return map[string]float64{
			strategy.NameMeanReversion:  0.05,
			strategy.NameTrendFollowing: -0.05,
		}
	case CategoryExtreme:
		return map[string]float64{
			strategy.NameMeanReversion:  0.05,
			strategy.NameLLM:            0.05,
			strategy.NameTrendFollowing: -0.05,
			strategy.NameMomentum:       -0.05,
		}
	default:
		return map[string]float64{}
	}
}
