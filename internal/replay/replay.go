// Package replay forwards stored events to caller-chosen targets.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hookloop/internal/store"
)

// Forwarder replays captured events against arbitrary target URLs.
// Replays are one-shot: no retry, no persistence of the attempt.
type Forwarder struct {
	Store store.Store
	HTTP  *http.Client
}

func NewForwarder(s store.Store) *Forwarder {
	return &Forwarder{Store: s, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Result reports the target's response to a successful forward.
type Result struct {
	TargetStatus int
}

// ForwardError means the outbound call failed or the target rejected it.
// The stored event is unaffected either way.
type ForwardError struct {
	Status int   // target status when the call completed, 0 otherwise
	Err    error // transport error when the call did not complete
}

func (e *ForwardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forward failed: %v", e.Err)
	}
	return fmt.Sprintf("target responded with status %d", e.Status)
}

func (e *ForwardError) Unwrap() error { return e.Err }

// Replay loads the event, builds the payload (override wins over the stored
// body, never blended), and issues a single synchronous POST to targetURL.
// A missing event surfaces store.ErrNotFound before any outbound call.
func (f *Forwarder) Replay(ctx context.Context, eventID int64, targetURL string, override any) (Result, error) {
	evt, err := f.Store.GetEvent(ctx, eventID)
	if err != nil {
		return Result{}, err
	}
	payload := evt.Body
	if override != nil {
		payload = override
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, &ForwardError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return Result{}, &ForwardError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ForwardError{Status: resp.StatusCode}
	}
	return Result{TargetStatus: resp.StatusCode}, nil
}
