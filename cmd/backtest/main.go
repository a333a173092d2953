package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/backtest"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/tracker"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/volatility"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/data"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/reporting"
)

func main() {
	var (
		dataFile       = flag.String("data", "", "Path to historical candle CSV file")
		symbol         = flag.String("symbol", "BTCUSDT", "Trading pair symbol")
		manager        = flag.String("manager", "adaptive", "Strategy manager: adaptive or weighted")
		initialBalance = flag.Float64("balance", 10000.0, "Initial balance in USD")
		baseAmount     = flag.Float64("base-amount", 100.0, "Base buy amount in USD")
		commission     = flag.Float64("commission", 0.001, "Commission per side as a fraction")
		candleInterval = flag.Duration("interval", time.Hour, "Candle interval of the data file")
		windowSize     = flag.Int("window", 200, "Indicator window size in candles")
		excelOut       = flag.String("excel", "", "Optional path for an Excel report")
		trackerPath    = flag.String("decision-log", "", "Optional path for a JSONL decision log")
		envFile        = flag.String("env", ".env", "Environment file path (default: .env)")
	)
	flag.Parse()

	if *dataFile == "" {
		log.Fatal("Please specify a data file with -data flag")
	}

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			log.Printf("Warning: could not load env file: %v", err)
		}
	}

	provider := data.NewCSVProvider()
	candles, err := provider.LoadData(*dataFile)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}
	if err := provider.ValidateData(candles); err != nil {
		log.Fatalf("Invalid data: %v", err)
	}
	fmt.Printf("Loaded %d candles from %s\n", len(candles), *dataFile)

	combiner, err := buildCombiner(*manager, *symbol, *trackerPath)
	if err != nil {
		log.Fatalf("Failed to build strategy manager: %v", err)
	}

	config := backtest.Config{
		Symbol:         *symbol,
		InitialBalance: *initialBalance,
		BaseAmount:     *baseAmount,
		Commission:     *commission,
		CandleInterval: *candleInterval,
		WindowSize:     *windowSize,
	}

	engine := backtest.NewEngine(config, combiner)
	results, err := engine.Run(candles)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	reporting.OutputConsole(results)

	if *excelOut != "" {
		if err := reporting.NewExcelReporter().WriteResults(results, *excelOut); err != nil {
			log.Fatalf("Failed to write Excel report: %v", err)
		}
		fmt.Printf("Excel report written to %s\n", *excelOut)
	}
}

// buildCombiner creates the requested manager. Backtests run without the
// LLM strategy so results stay reproducible.
func buildCombiner(kind, symbol, trackerPath string) (backtest.SignalCombiner, error) {
	var decisionLog strategy.DecisionTracker
	if trackerPath != "" {
		fileTracker, err := tracker.NewFileTracker(trackerPath)
		if err != nil {
			return nil, err
		}
		decisionLog = fileTracker
	}

	switch kind {
	case "adaptive":
		return strategy.NewAdaptiveManager(symbol, nil, decisionLog), nil
	case "weighted":
		return strategy.NewManager(symbol, nil, decisionLog, volatility.NewAnalyzer()), nil
	}
	return nil, fmt.Errorf("unknown manager type %q (expected adaptive or weighted)", kind)
}
