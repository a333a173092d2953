package backtest

import (
	"math"
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Trade is one executed backtest order.
type Trade struct {
	Timestamp      time.Time
	Side           string
	Price          float64
	Quantity       float64
	Value          float64
	Commission     float64
	Confidence     float64
	SourceStrategy string
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Results collects backtest outcomes and derived metrics.
type Results struct {
	Config Config

	Trades      []Trade
	EquityCurve []EquityPoint

	StartTime    time.Time
	EndTime      time.Time
	FinalEquity  float64

	// Attribution
	DecisionsBySource map[string]int
	ActionCounts      map[string]int
	RegimeBars        map[string]int

	// Derived metrics, filled by UpdateMetrics.
	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	SharpeRatio      float64
	WinRate          float64
	TotalTrades      int
	TotalCommission  float64
}

// NewResults creates an empty results set for a run.
func NewResults(config Config) *Results {
	return &Results{
		Config:            config,
		DecisionsBySource: make(map[string]int),
		ActionCounts:      make(map[string]int),
		RegimeBars:        make(map[string]int),
	}
}

func (r *Results) recordTrade(trade Trade) {
	r.Trades = append(r.Trades, trade)
	r.TotalCommission += trade.Commission
}

func (r *Results) recordBar(ts time.Time, equity float64, regimeName string, signal strategy.Signal) {
	if r.StartTime.IsZero() {
		r.StartTime = ts
	}
	r.EndTime = ts
	r.EquityCurve = append(r.EquityCurve, EquityPoint{Timestamp: ts, Equity: equity})
	r.RegimeBars[regimeName]++
	r.ActionCounts[signal.Action.String()]++
	if signal.SourceStrategy != "" {
		r.DecisionsBySource[signal.SourceStrategy]++
	}
}

func (r *Results) finish(lastCandle types.OHLCV, portfolio *types.Portfolio) {
	r.FinalEquity = equity(portfolio, r.Config.Symbol, lastCandle.Close)
	r.UpdateMetrics()
}

// UpdateMetrics recomputes all derived metrics from the raw run data.
func (r *Results) UpdateMetrics() {
	r.TotalTrades = len(r.Trades)
	if r.Config.InitialBalance > 0 {
		r.TotalReturn = (r.FinalEquity - r.Config.InitialBalance) / r.Config.InitialBalance
	}
	r.MaxDrawdown = r.calculateMaxDrawdown()
	r.SharpeRatio = r.CalculateSharpeRatio()
	r.WinRate = r.CalculateWinRate()
	r.AnnualizedReturn = r.calculateAnnualizedReturn()
}

func (r *Results) calculateMaxDrawdown() float64 {
	peak := 0.0
	maxDD := 0.0
	for _, point := range r.EquityCurve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// CalculateSharpeRatio computes the per-bar Sharpe ratio from the equity
// curve, assuming a zero risk-free rate.
func (r *Results) CalculateSharpeRatio() float64 {
	if len(r.EquityCurve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(r.EquityCurve)-1)
	for i := 1; i < len(r.EquityCurve); i++ {
		prev := r.EquityCurve[i-1].Equity
		if prev > 0 {
			returns = append(returns, (r.EquityCurve[i].Equity-prev)/prev)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	avgReturn := 0.0
	for _, ret := range returns {
		avgReturn += ret
	}
	avgReturn /= float64(len(returns))

	variance := 0.0
	for _, ret := range returns {
		variance += math.Pow(ret-avgReturn, 2)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}
	return avgReturn / stdDev
}

// CalculateWinRate computes the percentage of round trips closed at a
// profit. A round trip is the buys since the last flat position followed by
// the sell that flattened it.
func (r *Results) CalculateWinRate() float64 {
	wins := 0
	total := 0

	costBasis := 0.0
	quantity := 0.0
	for _, trade := range r.Trades {
		switch trade.Side {
		case "BUY":
			costBasis += trade.Value
			quantity += trade.Quantity
		case "SELL":
			if quantity <= 0 {
				continue
			}
			total++
			if trade.Value-trade.Commission > costBasis {
				wins++
			}
			costBasis = 0
			quantity = 0
		}
	}

	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

func (r *Results) calculateAnnualizedReturn() float64 {
	if len(r.EquityCurve) < 2 || r.Config.InitialBalance <= 0 {
		return 0
	}
	years := r.EndTime.Sub(r.StartTime).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}
	ratio := r.FinalEquity / r.Config.InitialBalance
	if ratio <= 0 {
		return 0
	}
	return math.Pow(ratio, 1.0/years) - 1.0
}
