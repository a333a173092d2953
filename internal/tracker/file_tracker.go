// Package tracker records strategy decisions to disk for later review.
package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
)

// DecisionRecord is one line in the decision log.
type DecisionRecord struct {
	Timestamp    time.Time                 `json:"timestamp"`
	ProductID    string                    `json:"product_id"`
	CurrentPrice float64                   `json:"current_price"`
	Signals      map[string]SignalSnapshot `json:"signals"`
	Final        SignalSnapshot            `json:"final"`
}

// SignalSnapshot is the serialized form of a strategy signal.
type SignalSnapshot struct {
	Action                 string  `json:"action"`
	Confidence             float64 `json:"confidence"`
	Reasoning              string  `json:"reasoning"`
	PositionSizeMultiplier float64 `json:"position_size_multiplier"`
	SourceStrategy         string  `json:"source_strategy"`
}

// FileTracker appends decision records to a JSONL file. It is safe for
// concurrent use.
type FileTracker struct {
	mu   sync.Mutex
	path string
}

// NewFileTracker creates a tracker writing to the given file, creating
// parent directories as needed.
func NewFileTracker(path string) (*FileTracker, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create tracker directory: %w", err)
		}
	}
	return &FileTracker{path: path}, nil
}

// RecordDecision implements strategy.DecisionTracker.
func (t *FileTracker) RecordDecision(productID string, signals map[string]strategy.Signal, final strategy.Signal, currentPrice float64) error {
	record := DecisionRecord{
		Timestamp:    time.Now().UTC(),
		ProductID:    productID,
		CurrentPrice: currentPrice,
		Signals:      make(map[string]SignalSnapshot, len(signals)),
		Final:        snapshot(final),
	}
	for name, sig := range signals {
		record.Signals[name] = snapshot(sig)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open decision log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write decision record: %w", err)
	}
	return nil
}

func snapshot(sig strategy.Signal) SignalSnapshot {
	return SignalSnapshot{
		Action:                 sig.Action.String(),
		Confidence:             sig.Confidence,
		Reasoning:              sig.Reasoning,
		PositionSizeMultiplier: sig.PositionSizeMultiplier,
		SourceStrategy:         sig.SourceStrategy,
	}
}
