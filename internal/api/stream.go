package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hookloop/internal/metrics"
	"hookloop/internal/model"
)

// EventStreamHandler handles GET /v1/events/stream?tenantId=N — the SSE
// form of the live-update channel. The subscription is dropped as soon
// as the client goes away.
func (s *Server) EventStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, err := strconv.ParseInt(r.URL.Query().Get("tenantId"), 10, 64)
	if err != nil || tenantID <= 0 {
		writeProblem(w, http.StatusBadRequest, KindValidation, "Missing tenantId", "", r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, KindValidation, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(tenantID)
	defer s.Broker.Unsubscribe(tenantID, ch)
	metrics.LiveSessions.Inc()
	defer metrics.LiveSessions.Dec()

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"tenantId\":%d,\"ts\":\"%s\"}\n\n", tenantID, time.Now().UTC().Format(model.TimestampLayout))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: event\n")
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}
