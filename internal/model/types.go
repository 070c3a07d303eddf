package model

// Core domain types for the capture/replay pipeline.

// Tenant owns a capture endpoint and a private event stream. Created by
// registration and immutable afterwards; the pipeline only reads the id.
type Tenant struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// Event is one immutable captured callback. The body is stored already
// redacted; the raw payload never reaches the store or a viewer.
type Event struct {
	ID        int64          `json:"id"`
	TenantID  int64          `json:"tenantId"`
	Method    string         `json:"method"`
	Headers   map[string]any `json:"headers"`
	Body      any            `json:"body,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// TimestampLayout renders capture times: UTC, second precision. Live
// pushes carry the identical string a later list query returns.
const TimestampLayout = "2006-01-02 15:04:05"

// BucketLayout is the minute-granularity prefix used by the stats timeline.
const BucketLayout = "2006-01-02 15:04"

// MethodCount is one entry of the per-method stats breakdown.
type MethodCount struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// TimeBucket is one minute of capture activity.
type TimeBucket struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// StoreStats is the raw aggregate the store computes. Buckets are
// newest-first; the stats aggregator reverses them for callers.
type StoreStats struct {
	Total   int
	Methods map[string]int
	Buckets []TimeBucket
}

// StatsResponse is the wire shape of the stats endpoint.
type StatsResponse struct {
	Total    int           `json:"total"`
	Methods  []MethodCount `json:"methods"`
	Timeline []TimeBucket  `json:"timeline"`
}
