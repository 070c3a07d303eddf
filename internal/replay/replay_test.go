package replay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hookloop/internal/store"
)

func seedEvent(t *testing.T, m *store.Memory, body any) int64 {
	t.Helper()
	evt, err := m.InsertEvent(context.Background(), 1, "POST", map[string]any{"x-src": "test"}, body)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return evt.ID
}

func TestReplayForwardsStoredBody(t *testing.T) {
	m := store.NewMemory()
	id := seedEvent(t, m, map[string]any{"email": "a@b.com", "password": "***_REDACTED_***"})

	var got []byte
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: %q", ct)
		}
		w.WriteHeader(200)
	}))
	defer target.Close()

	f := NewForwarder(m)
	res, err := f.Replay(context.Background(), id, target.URL, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.TargetStatus != 200 {
		t.Fatalf("status: %d", res.TargetStatus)
	}
	var sent map[string]any
	if err := json.Unmarshal(got, &sent); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if sent["password"] != "***_REDACTED_***" || sent["email"] != "a@b.com" {
		t.Fatalf("payload drift: %v", sent)
	}
}

func TestReplayOverrideWinsVerbatim(t *testing.T) {
	m := store.NewMemory()
	id := seedEvent(t, m, map[string]any{"orig": true})

	var got []byte
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(204)
	}))
	defer target.Close()

	f := NewForwarder(m)
	override := map[string]any{"edited": "yes"}
	if _, err := f.Replay(context.Background(), id, target.URL, override); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	var sent map[string]any
	if err := json.Unmarshal(got, &sent); err != nil {
		t.Fatal(err)
	}
	if sent["edited"] != "yes" {
		t.Fatalf("override lost: %v", sent)
	}
	if _, ok := sent["orig"]; ok {
		t.Fatalf("bodies blended: %v", sent)
	}
}

func TestReplayUnknownEventMakesNoCall(t *testing.T) {
	m := store.NewMemory()
	var calls atomic.Int64
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer target.Close()

	f := NewForwarder(m)
	_, err := f.Replay(context.Background(), 999, target.URL, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("outbound call made for missing event")
	}
}

func TestReplayTargetErrorStatus(t *testing.T) {
	m := store.NewMemory()
	id := seedEvent(t, m, map[string]any{"k": "v"})
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer target.Close()

	f := NewForwarder(m)
	_, err := f.Replay(context.Background(), id, target.URL, nil)
	var fe *ForwardError
	if !errors.As(err, &fe) {
		t.Fatalf("want ForwardError, got %v", err)
	}
	if fe.Status != 503 {
		t.Fatalf("status: %d", fe.Status)
	}
}

func TestReplayUnreachableTarget(t *testing.T) {
	m := store.NewMemory()
	id := seedEvent(t, m, nil)
	f := NewForwarder(m)
	_, err := f.Replay(context.Background(), id, "http://127.0.0.1:1/unreachable", nil)
	var fe *ForwardError
	if !errors.As(err, &fe) {
		t.Fatalf("want ForwardError, got %v", err)
	}
	if fe.Err == nil {
		t.Fatalf("transport error missing: %+v", fe)
	}
}
