package strategy

import "math"

// Action represents the type of trading action
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseAction maps an external action string to an Action. Anything that is
// not exactly BUY or SELL is treated as HOLD so malformed collaborator output
// can never propagate into the decision path.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "BUY":
		return ActionBuy, true
	case "SELL":
		return ActionSell, true
	case "HOLD":
		return ActionHold, true
	default:
		return ActionHold, false
	}
}

// Signal is the trading signal produced by a strategy or a combiner.
// Confidence is a 0-100 certainty score, not a calibrated probability.
// Reasoning is free-form audit text and is never parsed for logic; the
// originating strategy is carried in the structured SourceStrategy field
// instead.
type Signal struct {
	Action                 Action
	Confidence             float64
	Reasoning              string
	PositionSizeMultiplier float64
	StopLoss               float64
	TakeProfit             float64
	SourceStrategy         string
	Metadata               map[string]float64
}

// clampConfidence bounds a confidence value into [0, 100]. Producers are not
// trusted to stay in range, so every consumer clamps.
func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return clamp(c, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// holdSignal builds a HOLD signal with the given confidence and reasoning.
func holdSignal(source string, confidence float64, reasoning string) Signal {
	return Signal{
		Action:                 ActionHold,
		Confidence:             clampConfidence(confidence),
		Reasoning:              reasoning,
		PositionSizeMultiplier: 1.0,
		SourceStrategy:         source,
	}
}
