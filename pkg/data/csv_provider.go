// Package data loads historical candle data for backtesting.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

// Provider supplies historical candles from some source.
type Provider interface {
	GetName() string
	LoadData(source string) ([]types.OHLCV, error)
}

// CSVColumnMapping describes the layout of a candle CSV file.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches "timestamp,open,high,low,close,volume" with
// RFC 3339 timestamps.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   time.RFC3339,
}

// CSVProvider implements Provider for CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical data from a CSV file. Malformed rows are
// skipped with a warning.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var data []types.OHLCV

	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("insufficient columns at line %d (expected %d, got %d), skipping", lineNum, p.format.MinColumns, len(record))
			continue
		}

		candle, err := p.parseRecord(record)
		if err != nil {
			log.Printf("invalid row at line %d, skipping: %v", lineNum, err)
			continue
		}

		data = append(data, candle)
	}

	return data, nil
}

func (p *CSVProvider) parseRecord(record []string) (types.OHLCV, error) {
	timestamp, err := p.parseTimestamp(record[p.format.TimestampCol])
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid timestamp %q: %w", record[p.format.TimestampCol], err)
	}

	open, err := strconv.ParseFloat(record[p.format.OpenCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid open price %q: %w", record[p.format.OpenCol], err)
	}
	high, err := strconv.ParseFloat(record[p.format.HighCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid high price %q: %w", record[p.format.HighCol], err)
	}
	low, err := strconv.ParseFloat(record[p.format.LowCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid low price %q: %w", record[p.format.LowCol], err)
	}
	closePrice, err := strconv.ParseFloat(record[p.format.CloseCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid close price %q: %w", record[p.format.CloseCol], err)
	}
	volume, err := strconv.ParseFloat(record[p.format.VolumeCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid volume %q: %w", record[p.format.VolumeCol], err)
	}

	if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
		return types.OHLCV{}, fmt.Errorf("non-positive price data")
	}
	if high < open || high < closePrice || high < low {
		return types.OHLCV{}, fmt.Errorf("high below other prices")
	}
	if low > open || low > closePrice {
		return types.OHLCV{}, fmt.Errorf("low above other prices")
	}

	return types.OHLCV{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// parseTimestamp accepts the configured date format or a unix
// millisecond/second epoch.
func (p *CSVProvider) parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(p.format.DateFormat, raw); err == nil {
		return ts, nil
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp format")
	}
	if epoch > 1e12 {
		return time.UnixMilli(epoch), nil
	}
	return time.Unix(epoch, 0), nil
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}
		if candle.High < candle.Low {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
				i, candle.High, candle.Low)
		}
		if i > 0 && candle.Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}

	return nil
}
