package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hookloop/internal/api"
	"hookloop/internal/config"
	"hookloop/internal/logger"
	"hookloop/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	srv, err := api.NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to init server", zap.Error(err))
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Capture (unauthenticated, any method)
	mux.HandleFunc("/hooks/", srv.CaptureHandler)

	// Tenant-scoped reads
	mux.HandleFunc("/v1/events", srv.EventsHandler)
	mux.HandleFunc("/v1/stats", srv.StatsHandler)

	// Replay
	mux.HandleFunc("/v1/replay/", srv.ReplayHandler)

	// Registration
	mux.HandleFunc("/v1/tenants", srv.TenantsHandler)

	// Live updates
	mux.HandleFunc("/v1/events/stream", srv.EventStreamHandler)
	mux.HandleFunc("/ws", srv.WSHandler)

	// Health & ops
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.HandleFunc("/debug/info", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", srv.IndexHandler)

	addr := ":" + cfg.Port

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("API listening", zap.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades need the raw ResponseWriter (Hijacker)
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, httpStatus(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, httpStatus(rec.status)).Observe(dur.Seconds())
		logger.Info("request",
			zap.String("remote", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", dur),
		)
	})
}

func httpStatus(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
