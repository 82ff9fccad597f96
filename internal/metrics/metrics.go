// Package metrics exposes Prometheus collectors for scans and deliveries.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the radar.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec // labels: trigger
	TickerOutcomes   *prometheus.CounterVec // labels: outcome
	QuoteFallbacks   prometheus.Counter
	FetchDuration    prometheus.Histogram
	CycleDuration    prometheus.Histogram
	CyclesSkipped    *prometheus.CounterVec // labels: reason
	SignalsDelivered prometheus.Counter
	DeliveryFailures prometheus.Counter
	DedupResets      prometheus.Counter
	DedupWindowSize  prometheus.Gauge
	MarketOpen       prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalradar_scans_total",
			Help: "Scans run, by trigger (scheduled, manual)",
		}, []string{"trigger"}),
		TickerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalradar_ticker_outcomes_total",
			Help: "Per-ticker analysis outcomes (ok or error kind)",
		}, []string{"outcome"}),
		QuoteFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalradar_quote_fallbacks_total",
			Help: "Live quotes unavailable, last close used instead",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalradar_fetch_duration_seconds",
			Help:    "Series fetch latency per ticker",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalradar_cycle_duration_seconds",
			Help:    "Scheduled cycle duration including delivery",
			Buckets: prometheus.DefBuckets,
		}),
		CyclesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalradar_cycles_skipped_total",
			Help: "Scheduled cycles that did not scan, by reason",
		}, []string{"reason"}),
		SignalsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalradar_signals_delivered_total",
			Help: "Signals included in delivered batches",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalradar_delivery_failures_total",
			Help: "Batch deliveries that failed after retries",
		}),
		DedupResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalradar_dedup_resets_total",
			Help: "Dedup window resets caused by starvation",
		}),
		DedupWindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalradar_dedup_window_size",
			Help: "Tickers currently held in the dedup window",
		}),
		MarketOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalradar_market_open",
			Help: "Market session state at the last cycle (0=closed, 1=open)",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScansTotal,
		m.TickerOutcomes,
		m.QuoteFallbacks,
		m.FetchDuration,
		m.CycleDuration,
		m.CyclesSkipped,
		m.SignalsDelivered,
		m.DeliveryFailures,
		m.DedupResets,
		m.DedupWindowSize,
		m.MarketOpen,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (for tests and gathering).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ScanStarted(trigger string) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(trigger).Inc()
}

func (m *Metrics) TickerOutcome(outcome string) {
	if m == nil {
		return
	}
	m.TickerOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuoteFallback() {
	if m == nil {
		return
	}
	m.QuoteFallbacks.Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CycleSkipped(reason string) {
	if m == nil {
		return
	}
	m.CyclesSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Delivered(signals int) {
	if m == nil {
		return
	}
	m.SignalsDelivered.Add(float64(signals))
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

func (m *Metrics) DedupReset() {
	if m == nil {
		return
	}
	m.DedupResets.Inc()
}

func (m *Metrics) SetDedupWindow(n int) {
	if m == nil {
		return
	}
	m.DedupWindowSize.Set(float64(n))
}

func (m *Metrics) SetMarketOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.MarketOpen.Set(1)
	} else {
		m.MarketOpen.Set(0)
	}
}
