package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// tenantLimiter throttles the unauthenticated capture path per tenant so
// one noisy endpoint cannot starve the rest. Zero rps disables limiting.
type tenantLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newTenantLimiter(rps float64, burst int) *tenantLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &tenantLimiter{limiters: map[int64]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (t *tenantLimiter) Allow(tenantID int64) bool {
	if t.rps <= 0 {
		return true
	}
	t.mu.Lock()
	l := t.limiters[tenantID]
	if l == nil {
		l = rate.NewLimiter(t.rps, t.burst)
		t.limiters[tenantID] = l
	}
	t.mu.Unlock()
	return l.Allow()
}
