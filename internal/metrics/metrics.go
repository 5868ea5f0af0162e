package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autopilot_signals_received_total",
			Help: "Total number of prediction signals received",
		},
	)

	buyEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_buy_evaluations_total",
			Help: "Terminal BUY workflow evaluations by outcome",
		},
		[]string{"outcome"},
	)

	sellCloses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_sell_closes_total",
			Help: "Terminal SELL rule evaluations by outcome",
		},
		[]string{"outcome"},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autopilot_monitor_cycle_seconds",
			Help:    "Sell monitor cycle duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
		},
	)

	quoteUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autopilot_quote_unavailable_total",
			Help: "Positions skipped in a cycle because no quote was available",
		},
	)
)

func SignalReceived() {
	signalsReceived.Inc()
}

func BuyEvaluation(outcome string) {
	buyEvaluations.WithLabelValues(outcome).Inc()
}

func SellClose(outcome string) {
	sellCloses.WithLabelValues(outcome).Inc()
}

func ObserveCycle(d time.Duration) {
	cycleDuration.Observe(d.Seconds())
}

func QuoteUnavailable() {
	quoteUnavailable.Inc()
}
