package store

import (
	"context"
	"errors"

	"hookloop/internal/model"
)

// Store is the persistence interface used by the API server. Implementations
// must support concurrent writers: event ids are unique and strictly
// increasing in insertion-completion order, and readers never observe a
// partially written record.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, email string) (model.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (model.Tenant, error)

	// Events. InsertEvent persists the (already redacted) record and returns
	// it with the assigned id and capture timestamp; the insert is durable
	// before it returns.
	InsertEvent(ctx context.Context, tenantID int64, method string, headers map[string]any, body any) (model.Event, error)
	ListRecentEvents(ctx context.Context, tenantID int64, limit int) ([]model.Event, error)
	GetEvent(ctx context.Context, id int64) (model.Event, error)

	// AggregateStats computes total, per-method and per-minute counts for a
	// tenant from current contents. Buckets come back newest-first.
	AggregateStats(ctx context.Context, tenantID int64) (model.StoreStats, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// MaxListLimit caps ListRecentEvents results.
const MaxListLimit = 50

// StatsBucketCount is how many minute buckets AggregateStats keeps.
const StatsBucketCount = 10
