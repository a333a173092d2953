package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// MarketData is the loosely-typed market snapshot consumed by strategies.
// Expected keys: price, volume, avg_volume, price_change_1h, price_change_4h,
// price_change_24h, price_change_5d, price_change_7d. Percent changes are
// expressed in percent units (1.5 == +1.5%).
type MarketData map[string]float64

// Indicators is the technical indicator snapshot consumed by strategies.
// Expected keys: rsi, macd, macd_signal, macd_histogram, bb_upper, bb_middle,
// bb_lower, sma_20. Producers may omit keys; consumers must treat missing
// values defensively.
type Indicators map[string]float64

// Portfolio describes the caller's current holdings. Strategies receive it
// for completeness but the documented decision rules do not depend on it.
type Portfolio struct {
	CashUSD  float64
	Holdings map[string]float64 // asset -> quantity
}

// MarketData keys.
const (
	KeyPrice         = "price"
	KeyVolume        = "volume"
	KeyAvgVolume     = "avg_volume"
	KeyPriceChange1h = "price_change_1h"
	KeyPriceChange4h = "price_change_4h"
	KeyPriceChange24 = "price_change_24h"
	KeyPriceChange5d = "price_change_5d"
	KeyPriceChange7d = "price_change_7d"
)

// Indicator keys.
const (
	KeyRSI           = "rsi"
	KeyMACD          = "macd"
	KeyMACDSignal    = "macd_signal"
	KeyMACDHistogram = "macd_histogram"
	KeyBBUpper       = "bb_upper"
	KeyBBMiddle      = "bb_middle"
	KeyBBLower       = "bb_lower"
	KeySMA20         = "sma_20"
)
