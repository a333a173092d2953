package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decision metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_bot_decisions_total",
			Help: "Total number of combined strategy decisions",
		},
		[]string{"symbol", "action", "source_strategy"},
	)

	decisionConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_decision_confidence",
			Help: "Confidence of the latest combined decision",
		},
		[]string{"symbol"},
	)

	// Per-strategy metrics
	strategyConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_strategy_confidence",
			Help: "Latest confidence per individual strategy",
		},
		[]string{"strategy"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_current_price",
			Help: "Current price of trading symbol",
		},
		[]string{"symbol"},
	)

	marketRegime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_market_regime",
			Help: "Active market regime (1 for the current regime, 0 otherwise)",
		},
		[]string{"symbol", "regime"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_bot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(decisionConfidence)
	prometheus.MustRegister(strategyConfidence)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(marketRegime)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordDecision records a combined decision metric.
func RecordDecision(symbol, action, sourceStrategy string, confidence float64) {
	decisionsTotal.WithLabelValues(symbol, action, sourceStrategy).Inc()
	decisionConfidence.WithLabelValues(symbol).Set(confidence)
}

// UpdateStrategyConfidence updates the per-strategy confidence metric.
func UpdateStrategyConfidence(strategy string, confidence float64) {
	strategyConfidence.WithLabelValues(strategy).Set(confidence)
}

// UpdatePrice updates the current price metric
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

var regimeNames = []string{"bull", "bear", "sideways", "trending", "ranging", "volatile", "bear_ranging"}

// UpdateRegime marks the active market regime for the symbol.
func UpdateRegime(symbol, regime string) {
	for _, name := range regimeNames {
		value := 0.0
		if name == regime {
			value = 1.0
		}
		marketRegime.WithLabelValues(symbol, name).Set(value)
	}
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
