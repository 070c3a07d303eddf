package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hookloop/internal/logger"
	"hookloop/internal/metrics"
	"hookloop/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type     string          `json:"type"`
	TenantID int64           `json:"tenantId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// WSHandler handles GET /ws — the WebSocket live-update channel. A client
// announces the tenant it watches with {"type":"subscribe","tenantId":N}
// and then receives one {"type":"event"} frame per completed capture.
// Every subscription is released on unsubscribe or disconnect.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	session := uuid.New().String()
	subs := map[int64]chan model.Event{}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	// WriteJSON is not safe for concurrent use; all frames funnel through
	// out, drained by one goroutine until quit. out itself is never
	// closed so late fan-out sends cannot panic; they just drop.
	out := make(chan any, 16)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-quit:
				return
			case v := <-out:
				if err := conn.WriteJSON(v); err != nil {
					return
				}
			}
		}
	}()
	send := func(v any) {
		select {
		case out <- v:
		default:
		}
	}

	// keepalive
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				send(wsMessage{Type: "ping"})
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "subscribe":
			if msg.TenantID <= 0 {
				send(wsMessage{Type: "error", Payload: []byte(`{"message":"tenantId required"}`)})
				continue
			}
			if _, ok := subs[msg.TenantID]; ok {
				continue
			}
			ch := s.Broker.Subscribe(msg.TenantID)
			subs[msg.TenantID] = ch
			metrics.LiveSessions.Inc()
			logger.Debug("viewer subscribed", zap.String("session", session), zap.Int64("tenantId", msg.TenantID))
			send(wsMessage{Type: "subscribed", TenantID: msg.TenantID})
			go func(tid int64, c chan model.Event) {
				for evt := range c {
					payload, _ := json.Marshal(evt)
					send(wsMessage{Type: "event", TenantID: tid, Payload: payload})
				}
			}(msg.TenantID, ch)
		case "unsubscribe":
			if ch, ok := subs[msg.TenantID]; ok {
				s.Broker.Unsubscribe(msg.TenantID, ch)
				delete(subs, msg.TenantID)
				metrics.LiveSessions.Dec()
			}
		case "ping":
			send(wsMessage{Type: "pong"})
		default:
			// ignore
		}
	}

	for tid, ch := range subs {
		s.Broker.Unsubscribe(tid, ch)
		delete(subs, tid)
		metrics.LiveSessions.Dec()
	}
	close(quit)
	logger.Debug("viewer disconnected", zap.String("session", session))
}
