package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"hookloop/internal/logger"
	"hookloop/internal/metrics"
	"hookloop/internal/redact"
	"hookloop/internal/replay"
	"hookloop/internal/store"
)

// maxCaptureBody caps inbound payloads at 1 MiB.
const maxCaptureBody = 1 << 20

// IndexHandler answers the root path with a service banner.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeProblem(w, http.StatusNotFound, KindNotFound, "Not Found", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "hookloop is active"})
}

// CaptureHandler handles ANY /hooks/{tenantID}. The endpoint is
// unauthenticated: third-party webhook senders cannot be made to log in.
// Order matters: redact, then durably insert, then publish. A fan-out
// failure never fails the capture; a store failure publishes nothing.
func (s *Server) CaptureHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/hooks/")
	tenantID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || tenantID <= 0 {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid tenant id", "path must be /hooks/{tenantId}", r.URL.Path)
		return
	}
	if !s.Limiter.Allow(tenantID) {
		writeProblem(w, http.StatusTooManyRequests, KindRateLimited, "Rate limited", "capture rate exceeded for tenant", r.URL.Path)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCaptureBody))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Unreadable body", err.Error(), r.URL.Path)
		return
	}
	var body any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid JSON body", err.Error(), r.URL.Path)
			return
		}
	}
	redacted := redact.Redact(body)
	evt, err := s.Store.InsertEvent(r.Context(), tenantID, r.Method, flattenHeaders(r.Header), redacted)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, KindStore, "Capture failed", "event could not be stored", r.URL.Path)
		return
	}
	// The insert is durable here; viewers are only told about events a
	// concurrent list query can already see.
	s.Broker.Publish(tenantID, evt)
	metrics.Captures.WithLabelValues(evt.Method).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "id": evt.ID, "tenantId": tenantID})
}

// EventsHandler handles GET /v1/events: the caller's 50 most recent
// events, newest first, headers and body as parsed JSON.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, err := s.tenantFromRequest(r)
	if err != nil {
		writeProblem(w, http.StatusUnauthorized, KindAuth, "Unauthorized", "missing or invalid credential", r.URL.Path)
		return
	}
	limit := store.MaxListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, err := s.Store.ListRecentEvents(r.Context(), tenantID, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, KindStore, "List events failed", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// StatsHandler handles GET /v1/stats.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, err := s.tenantFromRequest(r)
	if err != nil {
		writeProblem(w, http.StatusUnauthorized, KindAuth, "Unauthorized", "missing or invalid credential", r.URL.Path)
		return
	}
	resp, err := s.Stats.Stats(r.Context(), tenantID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, KindStore, "Stats failed", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplayHandler handles POST /v1/replay/{eventID}. The lookup is by raw
// event id with no ownership check, mirroring the observed design; the
// access-control gap is recorded in DESIGN.md.
func (s *Server) ReplayHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/replay/")
	eventID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || eventID <= 0 {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid event id", "path must be /v1/replay/{eventId}", r.URL.Path)
		return
	}
	var req struct {
		TargetURL  string `json:"targetUrl"`
		CustomBody any    `json:"customBody"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.TargetURL) == "" {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Missing targetUrl", "", r.URL.Path)
		return
	}
	start := time.Now()
	res, err := s.Forwarder.Replay(r.Context(), eventID, req.TargetURL, req.CustomBody)
	metrics.ReplayLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		var fe *replay.ForwardError
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.Replays.WithLabelValues("not_found").Inc()
			writeProblem(w, http.StatusNotFound, KindNotFound, "Event not found", "", r.URL.Path)
		case errors.As(err, &fe):
			metrics.Replays.WithLabelValues("forward_error").Inc()
			writeProblem(w, http.StatusBadGateway, KindForward, "Replay failed", fe.Error(), r.URL.Path)
		default:
			metrics.Replays.WithLabelValues("error").Inc()
			writeProblem(w, http.StatusInternalServerError, KindStore, "Replay failed", "", r.URL.Path)
		}
		return
	}
	metrics.Replays.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"status": "replayed", "targetStatus": res.TargetStatus})
}

// TenantsHandler handles POST /v1/tenants: register an endpoint owner.
func (s *Server) TenantsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Invalid email", "", r.URL.Path)
		return
	}
	t, err := s.Store.CreateTenant(r.Context(), req.Email)
	if errors.Is(err, store.ErrDuplicate) {
		writeProblem(w, http.StatusConflict, KindValidation, "Tenant exists", "email already registered", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, KindStore, "Create tenant failed", "", r.URL.Path)
		return
	}
	logger.Info("tenant registered", zap.Int64("tenantId", t.ID))
	writeJSON(w, http.StatusCreated, t)
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, KindStore, "Not Ready", "", r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// flattenHeaders converts http.Header to the stored mapping: single
// values as strings, repeated headers as arrays.
func flattenHeaders(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		key := strings.ToLower(k)
		if len(vs) == 1 {
			out[key] = vs[0]
			continue
		}
		arr := make([]any, len(vs))
		for i, v := range vs {
			arr[i] = v
		}
		out[key] = arr
	}
	return out
}
