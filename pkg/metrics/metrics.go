package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the bot.
type Metrics struct {
	registry *prometheus.Registry

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Skipped      *prometheus.CounterVec // labels: symbol, cause
	Signals      *prometheus.CounterVec // labels: symbol
	Suppressed   *prometheus.CounterVec // labels: symbol
	Sends        *prometheus.CounterVec // labels: result
	Subscribers  prometheus.Gauge
	StreamConns  prometheus.Gauge
}

// New creates the collectors on their own registry, so several instances can
// coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emacross_ticks_total",
			Help: "Total scheduler ticks run",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emacross_tick_duration_seconds",
			Help:    "Time spent processing every watched symbol in a tick",
			Buckets: prometheus.DefBuckets,
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emacross_skipped_total",
			Help: "Symbols skipped in a tick (by cause)",
		}, []string{"symbol", "cause"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emacross_signals_total",
			Help: "Crossover events emitted",
		}, []string{"symbol"}),
		Suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emacross_suppressed_total",
			Help: "Crossovers already announced and not notified again",
		}, []string{"symbol"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emacross_sends_total",
			Help: "Notifications sent to subscribers (by result)",
		}, []string{"result"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "emacross_subscribers",
			Help: "Subscribers in the last dispatch snapshot",
		}),
		StreamConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "emacross_stream_connections",
			Help: "Connected websocket stream clients",
		}),
	}
	m.registry.MustRegister(
		m.Ticks,
		m.TickDuration,
		m.Skipped,
		m.Signals,
		m.Suppressed,
		m.Sends,
		m.Subscribers,
		m.StreamConns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
