// Package config loads bot configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string

	Exchange struct {
		APIKey  string
		Secret  string
		Testnet bool
	}

	Trading struct {
		Symbol         string
		Category       string
		BaseAmount     float64
		Interval       time.Duration
		CandleInterval time.Duration
		Adaptive       bool
	}

	LLM struct {
		Enabled bool
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	Tracker struct {
		Path string
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", false)

	cfg.Trading.Symbol = getEnv("TRADING_SYMBOL", "BTCUSDT")
	cfg.Trading.Category = getEnv("TRADING_CATEGORY", "spot")
	cfg.Trading.BaseAmount = getEnvFloat("BASE_AMOUNT", 100.0)
	cfg.Trading.Interval = getEnvDuration("TRADING_INTERVAL", 5*time.Minute)
	cfg.Trading.CandleInterval = getEnvDuration("CANDLE_INTERVAL", time.Hour)
	cfg.Trading.Adaptive = getEnvBool("ADAPTIVE_MANAGER", true)

	cfg.LLM.Enabled = getEnvBool("LLM_ENABLED", false)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", "")
	cfg.LLM.Model = getEnv("LLM_MODEL", "gpt-4o-mini")
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 60*time.Second)

	cfg.Tracker.Path = getEnv("DECISION_LOG_PATH", "data/decisions.jsonl")

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	return cfg
}

// Validate checks configuration consistency before startup.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading symbol must not be empty")
	}
	if c.Trading.BaseAmount <= 0 {
		return fmt.Errorf("base amount must be positive, got %.2f", c.Trading.BaseAmount)
	}
	if c.Trading.Interval <= 0 {
		return fmt.Errorf("trading interval must be positive")
	}
	if c.Trading.CandleInterval <= 0 {
		return fmt.Errorf("candle interval must be positive")
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required when LLM_ENABLED is true")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
