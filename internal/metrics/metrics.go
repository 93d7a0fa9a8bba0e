// Package metrics exposes Prometheus collectors of the trading loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// IndicatorValue latest RSI per pair.
	IndicatorValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rsitrader_indicator_value",
		Help: "Latest RSI value per pair.",
	}, []string{"pair"})

	// CanBuy mirrors AccountState.CanBuy.
	CanBuy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rsitrader_can_buy",
		Help: "1 while the bot waits for an entry, 0 while holding.",
	}, []string{"pair"})

	// TradesTotal counts committed trades, partitioned by side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsitrader_trades_total",
		Help: "Filled orders committed to the ledger.",
	}, []string{"side"})

	// OrdersRejectedTotal counts venue rejections, partitioned by side.
	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsitrader_orders_rejected_total",
		Help: "Orders declined by the venue.",
	}, []string{"side"})

	// IterationErrorsTotal counts failed loop iterations by error kind.
	IterationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsitrader_iteration_errors_total",
		Help: "Loop iterations that ended with an error, by kind.",
	}, []string{"kind"})

	// OrderSettleSeconds submission-to-terminal-status latency.
	OrderSettleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rsitrader_order_settle_seconds",
		Help:    "Time from submission to terminal order status.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
