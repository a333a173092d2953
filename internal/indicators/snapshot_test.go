package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// hourlyCandles builds a chronological window of hourly candles from closes,
// ending at a fixed reference time.
func hourlyCandles(closes ...float64) []types.OHLCV {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = types.OHLCV{
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
			Timestamp: end.Add(time.Duration(i-len(closes)) * time.Hour),
		}
	}
	return out
}

// flatCandles returns n hourly candles at a constant close.
func flatCandles(n int, close float64) []types.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = close
	}
	return hourlyCandles(closes...)
}

// TestSnapshot_InsufficientData tests the minimum window requirement.
func TestSnapshot_InsufficientData(t *testing.T) {
	_, err := Snapshot(flatCandles(MinPeriods-1, 100))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")
}

// TestSnapshot_AllKeysPresent tests that a full window yields every contract
// key with a finite value.
func TestSnapshot_AllKeysPresent(t *testing.T) {
	snap, err := Snapshot(flatCandles(50, 100))
	assert.NoError(t, err)

	keys := []string{
		types.KeyRSI, types.KeySMA20,
		types.KeyMACD, types.KeyMACDSignal, types.KeyMACDHistogram,
		types.KeyBBUpper, types.KeyBBMiddle, types.KeyBBLower,
	}
	for _, k := range keys {
		v, ok := snap[k]
		assert.True(t, ok, "missing key %s", k)
		assert.False(t, v != v, "NaN value for %s", k)
	}

	// A flat series has no trend and no dispersion.
	assert.InDelta(t, 100.0, snap[types.KeySMA20], 1e-9)
	assert.InDelta(t, 0.0, snap[types.KeyMACD], 1e-9)
	assert.InDelta(t, 100.0, snap[types.KeyBBUpper], 1e-9)
	assert.InDelta(t, 100.0, snap[types.KeyBBLower], 1e-9)
}

// TestSMA_KnownSeries tests the simple moving average against hand-computed
// values.
func TestSMA_KnownSeries(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 4.0, SMA(closes, 3), 1e-9) // (3+4+5)/3
	assert.InDelta(t, 3.0, SMA(closes, 5), 1e-9)
	assert.Equal(t, 0.0, SMA(closes, 6))
	assert.Equal(t, 0.0, SMA(closes, 0))
}

// TestRSI_Extremes tests the Wilder RSI boundary behavior.
func TestRSI_Extremes(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	assert.Equal(t, 100.0, RSI(rising, 14))

	// Too little history defaults to the neutral midpoint.
	assert.Equal(t, 50.0, RSI([]float64{100, 101}, 14))

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	assert.Less(t, RSI(falling, 14), 5.0)
}

// TestBollinger_SymmetricBands tests that the bands sit symmetrically around
// the middle SMA.
func TestBollinger_SymmetricBands(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}

	upper, middle, lower := Bollinger(closes, 20, 2.0)

	assert.InDelta(t, 100.0, middle, 1e-9)
	assert.InDelta(t, middle-lower, upper-middle, 1e-9)
	assert.Greater(t, upper, middle)
	assert.Less(t, lower, middle)
}

// TestMACD_TrendSign tests that a sustained uptrend produces a positive MACD
// line.
func TestMACD_TrendSign(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 * (1 + 0.01*float64(i))
	}

	line, _, _ := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignal)
	assert.Greater(t, line, 0.0)

	// Insufficient history returns zeros rather than garbage.
	l, s, h := MACD(closes[:20], MACDFastPeriod, MACDSlowPeriod, MACDSignal)
	assert.Zero(t, l)
	assert.Zero(t, s)
	assert.Zero(t, h)
}

// TestATR_ConstantRange tests the average true range on candles with a fixed
// high-low spread.
func TestATR_ConstantRange(t *testing.T) {
	data := flatCandles(20, 100) // high-low spread is 2 by construction
	assert.InDelta(t, 2.0, ATR(data, 14), 1e-9)
	assert.Equal(t, 0.0, ATR(data[:10], 14))
}

// TestMarketSnapshot_DerivedFields tests price, volume and the exact 24h
// percent change over hourly candles.
func TestMarketSnapshot_DerivedFields(t *testing.T) {
	closes := make([]float64, 48)
	for i := range closes {
		closes[i] = 100 + float64(i) // last close 147, 24 bars earlier 123
	}
	data := hourlyCandles(closes...)

	md := MarketSnapshot(data, time.Hour)

	assert.Equal(t, 147.0, md[types.KeyPrice])
	assert.Equal(t, 1000.0, md[types.KeyVolume])
	assert.InDelta(t, 1000.0, md[types.KeyAvgVolume], 1e-9)
	assert.InDelta(t, (147.0-123.0)/123.0*100, md[types.KeyPriceChange24], 1e-9)
	assert.InDelta(t, (147.0-146.0)/146.0*100, md[types.KeyPriceChange1h], 1e-9)
}

// TestMarketSnapshot_ShortWindowFallsBackToOldest tests that horizons longer
// than the window measure against the first candle.
func TestMarketSnapshot_ShortWindowFallsBackToOldest(t *testing.T) {
	data := hourlyCandles(100, 101, 102, 110)

	md := MarketSnapshot(data, time.Hour)

	// 7 days of hourly bars do not exist; fall back to the oldest close.
	assert.InDelta(t, 10.0, md[types.KeyPriceChange7d], 1e-9)
	assert.InDelta(t, 10.0, md[types.KeyPriceChange5d], 1e-9)
}

// TestMarketSnapshot_InvalidInput tests the nil returns on empty input.
func TestMarketSnapshot_InvalidInput(t *testing.T) {
	assert.Nil(t, MarketSnapshot(nil, time.Hour))
	assert.Nil(t, MarketSnapshot(hourlyCandles(100), 0))
}
