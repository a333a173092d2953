package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/bot"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/config"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/exchange/bybit"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/llm"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/tracker"
	"github.com/schmidb/AI-crypto-bot-sub001/internal/volatility"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file path (default: .env)")
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: could not load env file (%v), using environment variables", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.Secret,
		Testnet:   cfg.Exchange.Testnet,
	})

	combiner, err := buildCombiner(cfg)
	if err != nil {
		log.Fatalf("Failed to build strategy manager: %v", err)
	}

	signalBot, err := bot.New(cfg, client, combiner)
	if err != nil {
		log.Fatalf("Failed to create signal bot: %v", err)
	}

	if err := signalBot.Start(); err != nil {
		log.Fatalf("Failed to start signal bot: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\nShutdown signal received...")
	case <-signalBot.Done():
		fmt.Println("\nBot stopped...")
	}

	signalBot.Stop()
	fmt.Println("Bot stopped successfully")
}

// buildCombiner wires the strategy manager from configuration.
func buildCombiner(cfg *config.Config) (bot.SignalCombiner, error) {
	var llmStrategy *strategy.LLMStrategy
	if cfg.LLM.Enabled {
		client := llm.NewClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		llmStrategy = strategy.NewLLMStrategy(client, nil, cfg.Trading.Symbol)
	}

	decisionLog, err := tracker.NewFileTracker(cfg.Tracker.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Trading.Adaptive {
		return strategy.NewAdaptiveManager(cfg.Trading.Symbol, llmStrategy, decisionLog), nil
	}
	return strategy.NewManager(cfg.Trading.Symbol, llmStrategy, decisionLog, volatility.NewAnalyzer()), nil
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}
