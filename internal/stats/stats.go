// Package stats computes per-tenant capture statistics on demand.
package stats

import (
	"context"

	"hookloop/internal/model"
	"hookloop/internal/store"
)

// Aggregator answers stats queries fresh from the store: no cache,
// no incremental state.
type Aggregator struct {
	Store store.Store
}

func NewAggregator(s store.Store) *Aggregator { return &Aggregator{Store: s} }

// Stats returns total, per-method counts, and the minute timeline.
// The store hands buckets back newest-first; callers get them
// oldest-first, capped at the store's bucket window.
func (a *Aggregator) Stats(ctx context.Context, tenantID int64) (model.StatsResponse, error) {
	raw, err := a.Store.AggregateStats(ctx, tenantID)
	if err != nil {
		return model.StatsResponse{}, err
	}
	resp := model.StatsResponse{
		Total:    raw.Total,
		Methods:  make([]model.MethodCount, 0, len(raw.Methods)),
		Timeline: make([]model.TimeBucket, 0, len(raw.Buckets)),
	}
	for m, c := range raw.Methods {
		resp.Methods = append(resp.Methods, model.MethodCount{Method: m, Count: c})
	}
	buckets := raw.Buckets
	if len(buckets) > store.StatsBucketCount {
		buckets = buckets[:store.StatsBucketCount]
	}
	for i := len(buckets) - 1; i >= 0; i-- {
		resp.Timeline = append(resp.Timeline, buckets[i])
	}
	return resp, nil
}
