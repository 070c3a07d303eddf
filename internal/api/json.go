package api

import (
	"encoding/json"
	"net/http"
)

// Error kinds carried in Problem.Kind so clients can branch without
// parsing free text.
const (
	KindValidation  = "validation"
	KindNotFound    = "not_found"
	KindAuth        = "auth"
	KindStore       = "store"
	KindForward     = "forward"
	KindRateLimited = "rate_limited"
)

// Problem is an RFC7807-style error body with a machine-checkable kind.
type Problem struct {
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, kind, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Kind:     kind,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}
