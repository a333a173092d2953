// Package bot runs the live signal loop: fetch market data, combine
// strategy signals, and publish the decision.
package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/config"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/exchange/bybit"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/indicators"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/logger"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/monitoring"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/regime"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// SignalCombiner is the surface the bot needs from a strategy manager. The
// bot evaluates through EvaluateAll so each strategy runs once per tick and
// the per-strategy metrics describe the same pass that produced the decision.
type SignalCombiner interface {
	EvaluateAll(market types.MarketData, indicators types.Indicators, portfolio *types.Portfolio) (map[string]strategy.Signal, strategy.Signal)
	GetCurrentMarketRegime() regime.Regime
}

// priceHistorySetter is implemented by managers that consult a volatility
// analyzer over a caller-supplied price window.
type priceHistorySetter interface {
	SetPriceHistory(prices []float64)
}

// SignalBot periodically evaluates the market and emits combined signals.
// It never places orders.
type SignalBot struct {
	config   *config.Config
	client   *bybit.Client
	combiner SignalCombiner
	fileLog  *logger.Logger
	health   *monitoring.HealthChecker

	interval   bybit.KlineInterval
	windowSize int

	running  bool
	stopChan chan struct{}
}

// New creates a signal bot.
func New(cfg *config.Config, client *bybit.Client, combiner SignalCombiner) (*SignalBot, error) {
	interval, err := bybit.IntervalFor(cfg.Trading.CandleInterval)
	if err != nil {
		return nil, err
	}

	fileLog, err := logger.NewLogger(cfg.Trading.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	return &SignalBot{
		config:     cfg,
		client:     client,
		combiner:   combiner,
		fileLog:    fileLog,
		health:     monitoring.NewHealthChecker(3 * cfg.Trading.Interval),
		interval:   interval,
		windowSize: 200,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start launches the signal loop and the monitoring endpoints.
func (bot *SignalBot) Start() error {
	bot.running = true
	bot.printStartupInfo()
	bot.startMonitoringServers()

	go bot.signalLoop()
	return nil
}

// Stop terminates the signal loop.
func (bot *SignalBot) Stop() {
	if bot.running {
		bot.running = false
		close(bot.stopChan)
	}
	bot.fileLog.Close()
}

// Done reports loop termination.
func (bot *SignalBot) Done() <-chan struct{} {
	return bot.stopChan
}

func (bot *SignalBot) signalLoop() {
	bot.evaluate()

	ticker := time.NewTicker(bot.config.Trading.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bot.evaluate()
		case <-bot.stopChan:
			return
		}
	}
}

// evaluate runs one decision cycle.
func (bot *SignalBot) evaluate() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("error in signal loop: %v", r)
			monitoring.RecordError("signal_loop_panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), bot.config.Trading.Interval)
	defer cancel()

	candles, err := bot.client.GetKlines(ctx, bybit.KlineParams{
		Category: bot.config.Trading.Category,
		Symbol:   bot.config.Trading.Symbol,
		Interval: bot.interval,
		Limit:    bot.windowSize + 5,
	})
	if err != nil {
		log.Printf("failed to get klines: %v", err)
		bot.fileLog.LogError("kline fetch", err)
		bot.health.MarkConnected(false)
		monitoring.RecordError("kline_fetch")
		return
	}
	bot.health.MarkConnected(true)

	if len(candles) < indicators.MinPeriods {
		log.Printf("not enough data points (%d < %d)", len(candles), indicators.MinPeriods)
		return
	}

	snapshot, err := indicators.Snapshot(candles)
	if err != nil {
		log.Printf("indicator snapshot failed: %v", err)
		bot.fileLog.LogError("indicator snapshot", err)
		monitoring.RecordError("indicator_snapshot")
		return
	}
	market := indicators.MarketSnapshot(candles, bot.config.Trading.CandleInterval)
	price := market[types.KeyPrice]

	if setter, ok := bot.combiner.(priceHistorySetter); ok {
		closes := make([]float64, len(candles))
		for i, c := range candles {
			closes[i] = c.Close
		}
		setter.SetPriceHistory(closes)
	}

	perStrategy, signal := bot.combiner.EvaluateAll(market, snapshot, nil)
	currentRegime := string(bot.combiner.GetCurrentMarketRegime())

	bot.fileLog.LogDecision(price, currentRegime, signal.Action.String(), signal.Confidence,
		signal.PositionSizeMultiplier, signal.SourceStrategy, signal.Reasoning)

	monitoring.UpdatePrice(bot.config.Trading.Symbol, price)
	monitoring.UpdateRegime(bot.config.Trading.Symbol, currentRegime)
	monitoring.RecordDecision(bot.config.Trading.Symbol, signal.Action.String(), signal.SourceStrategy, signal.Confidence)
	for name, sig := range perStrategy {
		monitoring.UpdateStrategyConfidence(name, sig.Confidence)
	}
	bot.health.RecordDecision(price)

	bot.printDecision(price, currentRegime, signal)
}

func (bot *SignalBot) printDecision(price float64, currentRegime string, signal strategy.Signal) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s @ %s", bot.config.Trading.Symbol, time.Now().Format("15:04:05")))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Price", fmt.Sprintf("$%.2f", price)},
		{"Regime", currentRegime},
		{"Action", signal.Action.String()},
		{"Confidence", fmt.Sprintf("%.1f", signal.Confidence)},
		{"Size Multiplier", fmt.Sprintf("%.2f", signal.PositionSizeMultiplier)},
		{"Source", signal.SourceStrategy},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 60, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func (bot *SignalBot) printStartupInfo() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SIGNAL BOT INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Symbol", bot.config.Trading.Symbol},
		{"Category", bot.config.Trading.Category},
		{"Check Interval", bot.config.Trading.Interval.String()},
		{"Candle Interval", bot.config.Trading.CandleInterval.String()},
		{"Adaptive Manager", fmt.Sprintf("%v", bot.config.Trading.Adaptive)},
		{"LLM Enabled", fmt.Sprintf("%v", bot.config.LLM.Enabled)},
		{"Environment", bot.environmentString()},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func (bot *SignalBot) environmentString() string {
	if bot.client.IsTestnet() {
		return "testnet"
	}
	return "mainnet"
}

func (bot *SignalBot) startMonitoringServers() {
	metricsAddr := fmt.Sprintf(":%d", bot.config.Monitoring.PrometheusPort)
	healthAddr := fmt.Sprintf(":%d", bot.config.Monitoring.HealthPort)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/health", bot.health)
		if err := http.ListenAndServe(healthAddr, mux); err != nil {
			log.Printf("health server stopped: %v", err)
		}
	}()
}
