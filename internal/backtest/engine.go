// Package backtest replays historical candles through a signal combiner and
// tracks the resulting portfolio.
package backtest

import (
	"fmt"
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/indicators"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// SignalCombiner is the common surface of the weighted and adaptive
// strategy managers.
type SignalCombiner interface {
	GetCombinedSignal(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) strategy.Signal
	GetCurrentMarketRegime() regime.Regime
}

// priceHistorySetter is implemented by managers that consult a volatility
// analyzer over a caller-supplied price window. Feeding the replay window
// explicitly keeps each bar's decision a function of that bar's data alone.
type priceHistorySetter interface {
	SetPriceHistory(prices []float64)
}

// Config holds backtest parameters.
type Config struct {
	Symbol         string
	InitialBalance float64
	BaseAmount     float64      // USD per base-size buy
	Commission     float64      // fraction per side, e.g. 0.001
	CandleInterval time.Duration
	WindowSize     int // candles fed to the indicator snapshot per step
}

// DefaultConfig returns the default backtest parameters.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:         symbol,
		InitialBalance: 10000.0,
		BaseAmount:     100.0,
		Commission:     0.001,
		CandleInterval: time.Hour,
		WindowSize:     200,
	}
}

// Engine replays candles bar by bar through the combiner.
type Engine struct {
	config   Config
	combiner SignalCombiner
}

// NewEngine creates a backtest engine.
func NewEngine(config Config, combiner SignalCombiner) *Engine {
	if config.WindowSize < indicators.MinPeriods {
		config.WindowSize = indicators.MinPeriods
	}
	return &Engine{config: config, combiner: combiner}
}

// Run replays the candle series. The first WindowSize candles warm up the
// indicators; decisions start after that.
func (e *Engine) Run(data []types.OHLCV) (*Results, error) {
	if len(data) <= e.config.WindowSize {
		return nil, fmt.Errorf("insufficient data: need more than %d candles, got %d", e.config.WindowSize, len(data))
	}

	results := NewResults(e.config)
	portfolio := &types.Portfolio{
		CashUSD:  e.config.InitialBalance,
		Holdings: map[string]float64{},
	}

	setter, feedsPrices := e.combiner.(priceHistorySetter)
	closes := make([]float64, 0, e.config.WindowSize+1)

	for i := e.config.WindowSize; i < len(data); i++ {
		window := data[i-e.config.WindowSize : i+1]
		candle := data[i]

		snapshot, err := indicators.Snapshot(window)
		if err != nil {
			continue
		}
		market := indicators.MarketSnapshot(window, e.config.CandleInterval)

		if feedsPrices {
			closes = closes[:0]
			for _, c := range window {
				closes = append(closes, c.Close)
			}
			setter.SetPriceHistory(closes)
		}

		signal := e.combiner.GetCombinedSignal(market, snapshot, portfolio)
		currentRegime := e.combiner.GetCurrentMarketRegime()

		e.apply(results, portfolio, signal, candle)

		results.recordBar(candle.Timestamp, equity(portfolio, e.config.Symbol, candle.Close), string(currentRegime), signal)
	}

	// Mark remaining holdings to the last close.
	results.finish(data[len(data)-1], portfolio)
	return results, nil
}

// apply executes the signal against the portfolio. Buys spend the base
// amount scaled by the position size multiplier; sells close the position.
func (e *Engine) apply(results *Results, portfolio *types.Portfolio, signal strategy.Signal, candle types.OHLCV) {
	price := candle.Close
	if price <= 0 {
		return
	}

	switch signal.Action {
	case strategy.ActionBuy:
		spend := e.config.BaseAmount * signal.PositionSizeMultiplier
		if spend > portfolio.CashUSD {
			spend = portfolio.CashUSD
		}
		if spend <= 0 {
			return
		}
		commission := spend * e.config.Commission
		quantity := (spend - commission) / price
		portfolio.CashUSD -= spend
		portfolio.Holdings[e.config.Symbol] += quantity
		results.recordTrade(Trade{
			Timestamp:      candle.Timestamp,
			Side:           "BUY",
			Price:          price,
			Quantity:       quantity,
			Value:          spend,
			Commission:     commission,
			Confidence:     signal.Confidence,
			SourceStrategy: signal.SourceStrategy,
		})

	case strategy.ActionSell:
		quantity := portfolio.Holdings[e.config.Symbol]
		if quantity <= 0 {
			return
		}
		proceeds := quantity * price
		commission := proceeds * e.config.Commission
		portfolio.CashUSD += proceeds - commission
		portfolio.Holdings[e.config.Symbol] = 0
		results.recordTrade(Trade{
			Timestamp:      candle.Timestamp,
			Side:           "SELL",
			Price:          price,
			Quantity:       quantity,
			Value:          proceeds,
			Commission:     commission,
			Confidence:     signal.Confidence,
			SourceStrategy: signal.SourceStrategy,
		})
	}
}

func equity(portfolio *types.Portfolio, symbol string, price float64) float64 {
	return portfolio.CashUSD + portfolio.Holdings[symbol]*price
}
