package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Captures counts accepted capture requests by method
	Captures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "captures_total", Help: "Captured webhook events by method."},
		[]string{"method"},
	)
	// Replays counts replay attempts by outcome (ok, not_found, forward_error)
	Replays = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "replays_total", Help: "Replay attempts by outcome."},
		[]string{"outcome"},
	)
	// ReplayLatency tracks outbound replay latencies in milliseconds
	ReplayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "replay_latency_ms", Help: "Replay forwarding latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
	)
	// LiveSessions gauges currently connected viewer sessions
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "live_sessions", Help: "Connected live viewer sessions."},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Captures)
		Registry.MustRegister(Replays)
		Registry.MustRegister(ReplayLatency)
		Registry.MustRegister(LiveSessions)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
