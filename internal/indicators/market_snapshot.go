package indicators

import (
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

const avgVolumePeriod = 20

// MarketSnapshot derives the MarketData map the strategies consume from a
// candle window. interval is the candle duration; percent changes for
// horizons the window cannot cover fall back to the oldest available candle.
func MarketSnapshot(data []types.OHLCV, interval time.Duration) types.MarketData {
	if len(data) == 0 || interval <= 0 {
		return nil
	}

	last := data[len(data)-1]

	md := types.MarketData{
		types.KeyPrice:     last.Close,
		types.KeyVolume:    last.Volume,
		types.KeyAvgVolume: avgVolume(data, avgVolumePeriod),
	}

	horizons := []struct {
		key string
		d   time.Duration
	}{
		{types.KeyPriceChange1h, time.Hour},
		{types.KeyPriceChange4h, 4 * time.Hour},
		{types.KeyPriceChange24, 24 * time.Hour},
		{types.KeyPriceChange5d, 5 * 24 * time.Hour},
		{types.KeyPriceChange7d, 7 * 24 * time.Hour},
	}

	for _, h := range horizons {
		md[h.key] = percentChange(data, int(h.d/interval))
	}
	return md
}

// percentChange returns the percent move of the last close against the close
// bars candles earlier.
func percentChange(data []types.OHLCV, bars int) float64 {
	if bars < 1 {
		bars = 1
	}
	idx := len(data) - 1 - bars
	if idx < 0 {
		idx = 0
	}
	base := data[idx].Close
	if base <= 0 {
		return 0
	}
	return (data[len(data)-1].Close - base) / base * 100
}

func avgVolume(data []types.OHLCV, period int) float64 {
	if len(data) < period {
		period = len(data)
	}
	sum := 0.0
	for _, c := range data[len(data)-period:] {
		sum += c.Volume
	}
	return sum / float64(period)
}
