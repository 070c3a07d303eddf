// Package main runs a demo WebSocket client that watches a tenant's
// live capture stream and triggers one capture to exercise it.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	tenant := os.Getenv("TENANT_ID")
	if tenant == "" {
		tenant = "1"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS and subscribe
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	sub := fmt.Sprintf(`{"type":"subscribe","tenantId":%s}`, tenant)
	if err := c.WriteMessage(websocket.TextMessage, []byte(sub)); err != nil {
		log.Fatal(err)
	}

	// Fire a capture with a field that should come back redacted
	go func() {
		time.Sleep(300 * time.Millisecond)
		body := []byte(`{"event":"login_attempt","user":{"email":"a@b.com","password":"hunter2"}}`)
		req, _ := http.NewRequest(http.MethodPost, base+"/hooks/"+tenant, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("capture failed: %v", err)
			return
		}
		_ = resp.Body.Close()
		log.Printf("capture status: %d", resp.StatusCode)
	}()

	deadline := time.Now().Add(10 * time.Second)
	_ = c.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, msg, err := c.ReadMessage()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("recv: %s", msg)
	}
}
