package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"hookloop/internal/model"
)

// Memory is an in-memory store used when no DATABASE_URL is set, and as the
// isolated per-test store.
type Memory struct {
	mu         sync.Mutex
	nextEvent  int64
	nextTenant int64
	events     []model.Event    // insertion order
	byTenant   map[int64][]int  // tenant -> indexes into events
	byID       map[int64]int    // event id -> index
	tenants    map[string]model.Tenant
}

func NewMemory() *Memory {
	return &Memory{
		byTenant: map[int64][]int{},
		byID:     map[int64]int{},
		tenants:  map[string]model.Tenant{},
	}
}

func (m *Memory) CreateTenant(ctx context.Context, email string) (model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := m.tenants[key]; ok {
		return model.Tenant{}, ErrDuplicate
	}
	m.nextTenant++
	t := model.Tenant{ID: m.nextTenant, Email: key, CreatedAt: time.Now().UTC().Format(model.TimestampLayout)}
	m.tenants[key] = t
	return t, nil
}

func (m *Memory) GetTenantByEmail(ctx context.Context, email string) (model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.Tenant{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) InsertEvent(ctx context.Context, tenantID int64, method string, headers map[string]any, body any) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEvent++
	evt := model.Event{
		ID:        m.nextEvent,
		TenantID:  tenantID,
		Method:    method,
		Headers:   headers,
		Body:      body,
		Timestamp: time.Now().UTC().Format(model.TimestampLayout),
	}
	m.events = append(m.events, evt)
	idx := len(m.events) - 1
	m.byTenant[tenantID] = append(m.byTenant[tenantID], idx)
	m.byID[evt.ID] = idx
	return evt, nil
}

func (m *Memory) ListRecentEvents(ctx context.Context, tenantID int64, limit int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	ids := m.byTenant[tenantID]
	out := make([]model.Event, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[ids[i]])
	}
	return out, nil
}

func (m *Memory) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.byID[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return m.events[idx], nil
}

func (m *Memory) AggregateStats(ctx context.Context, tenantID int64) (model.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.StoreStats{Methods: map[string]int{}}
	seen := map[string]int{} // minute bucket -> count
	var order []string       // buckets newest-first
	ids := m.byTenant[tenantID]
	st.Total = len(ids)
	for i := len(ids) - 1; i >= 0; i-- {
		evt := m.events[ids[i]]
		st.Methods[evt.Method]++
		b := evt.Timestamp
		if len(b) >= len(model.BucketLayout) {
			b = b[:len(model.BucketLayout)]
		}
		if _, ok := seen[b]; !ok && len(order) < StatsBucketCount {
			order = append(order, b)
		}
		seen[b]++
	}
	st.Buckets = make([]model.TimeBucket, 0, len(order))
	for _, b := range order {
		st.Buckets = append(st.Buckets, model.TimeBucket{Time: b, Count: seen[b]})
	}
	return st, nil
}
