// Package indicators computes the technical indicator snapshot the strategy
// layer consumes from a window of OHLCV candles.
package indicators

import (
	"fmt"
	"math"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Default indicator periods.
const (
	RSIPeriod       = 14
	SMAPeriod       = 20
	MACDFastPeriod  = 12
	MACDSlowPeriod  = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerStdDev = 2.0
	ATRPeriod       = 14
)

// MinPeriods is the minimum number of candles needed to compute every
// indicator in the snapshot.
const MinPeriods = MACDSlowPeriod + MACDSignal

// Snapshot computes rsi, sma_20, macd/macd_signal/macd_histogram and the
// Bollinger bands over the most recent candles of data. The returned map is
// the Indicators contract consumed by the strategies.
func Snapshot(data []types.OHLCV) (types.Indicators, error) {
	if len(data) < MinPeriods {
		return nil, fmt.Errorf("insufficient data: need at least %d candles, got %d", MinPeriods, len(data))
	}

	closes := make([]float64, len(data))
	for i, c := range data {
		closes[i] = c.Close
	}

	rsi := RSI(closes, RSIPeriod)
	sma := SMA(closes, SMAPeriod)
	macd, signal, histogram := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignal)
	upper, middle, lower := Bollinger(closes, BollingerPeriod, BollingerStdDev)

	return types.Indicators{
		types.KeyRSI:           rsi,
		types.KeySMA20:         sma,
		types.KeyMACD:          macd,
		types.KeyMACDSignal:    signal,
		types.KeyMACDHistogram: histogram,
		types.KeyBBUpper:       upper,
		types.KeyBBMiddle:      middle,
		types.KeyBBLower:       lower,
	}, nil
}

// SMA returns the simple moving average of the last period closes.
func SMA(closes []float64, period int) float64 {
	if len(closes) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period)
}

// RSI returns the Wilder-smoothed relative strength index of the last close.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, signal line and histogram of the last close.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, histogram float64) {
	if len(closes) < slow+signalPeriod {
		return 0, 0, 0
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal line smooths the MACD line itself; seed it after the slow
	// EMA has warmed up.
	signalSeries := emaSeries(macdSeries[slow-1:], signalPeriod)

	line = macdSeries[len(macdSeries)-1]
	signal = signalSeries[len(signalSeries)-1]
	return line, signal, line - signal
}

// Bollinger returns the upper, middle and lower bands of the last close.
func Bollinger(closes []float64, period int, stdDevMult float64) (upper, middle, lower float64) {
	if len(closes) < period {
		return 0, 0, 0
	}

	window := closes[len(closes)-period:]
	middle = SMA(closes, period)

	variance := 0.0
	for _, c := range window {
		d := c - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	return middle + stdDevMult*std, middle, middle - stdDevMult*std
}

// ATR returns the average true range over the last period candles.
func ATR(data []types.OHLCV, period int) float64 {
	if len(data) < period+1 {
		return 0
	}
	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		tr := math.Max(data[i].High-data[i].Low,
			math.Max(math.Abs(data[i].High-data[i-1].Close), math.Abs(data[i].Low-data[i-1].Close)))
		sum += tr
	}
	return sum / float64(period)
}

// emaSeries computes the full EMA series, seeding with an SMA of the first
// period values.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}

	k := 2.0 / float64(period+1)
	seedLen := period
	if seedLen > len(values) {
		seedLen = len(values)
	}

	seed := 0.0
	for i := 0; i < seedLen; i++ {
		seed += values[i]
	}
	seed /= float64(seedLen)

	for i := range values {
		if i < seedLen {
			out[i] = seed
			continue
		}
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}
