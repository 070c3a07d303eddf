package store

import (
	"context"
	"sync"
	"testing"

	"hookloop/internal/model"
)

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var last int64
	for i := 0; i < 5; i++ {
		evt, err := m.InsertEvent(ctx, 1, "POST", map[string]any{"x": "y"}, nil)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if evt.ID <= last {
			t.Fatalf("id not increasing: %d after %d", evt.ID, last)
		}
		last = evt.ID
	}
}

func TestConcurrentInsertsUniqueIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	const n = 200
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		tenant := int64(1 + i%2)
		go func(tid int64) {
			defer wg.Done()
			evt, err := m.InsertEvent(ctx, tid, "POST", nil, nil)
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			ids <- evt.ID
		}(tenant)
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d ids, got %d", n, len(seen))
	}
}

func TestListRecentTenantIsolationAndOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a1, _ := m.InsertEvent(ctx, 1, "POST", nil, map[string]any{"seq": 1})
	_, _ = m.InsertEvent(ctx, 2, "GET", nil, nil)
	a2, _ := m.InsertEvent(ctx, 1, "PUT", nil, map[string]any{"seq": 2})

	got, err := m.ListRecentEvents(ctx, 1, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tenant 1 should see 2 events, got %d", len(got))
	}
	// newest first
	if got[0].ID != a2.ID || got[1].ID != a1.ID {
		t.Fatalf("wrong order: %d, %d", got[0].ID, got[1].ID)
	}
	for _, e := range got {
		if e.TenantID != 1 {
			t.Fatalf("cross-tenant leak: %+v", e)
		}
	}
}

func TestListRecentLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < MaxListLimit+10; i++ {
		_, _ = m.InsertEvent(ctx, 1, "POST", nil, nil)
	}
	got, _ := m.ListRecentEvents(ctx, 1, 0)
	if len(got) != MaxListLimit {
		t.Fatalf("limit not applied: %d", len(got))
	}
	got, _ = m.ListRecentEvents(ctx, 1, 5)
	if len(got) != 5 {
		t.Fatalf("explicit limit: %d", len(got))
	}
}

func TestGetEventNotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.GetEvent(context.Background(), 999); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAggregateStatsEmpty(t *testing.T) {
	m := NewMemory()
	st, err := m.AggregateStats(context.Background(), 42)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 0 || len(st.Methods) != 0 || len(st.Buckets) != 0 {
		t.Fatalf("expected empty stats, got %+v", st)
	}
}

func TestAggregateStatsCounts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.InsertEvent(ctx, 1, "POST", nil, nil)
	_, _ = m.InsertEvent(ctx, 1, "POST", nil, nil)
	_, _ = m.InsertEvent(ctx, 1, "GET", nil, nil)
	_, _ = m.InsertEvent(ctx, 2, "DELETE", nil, nil)

	st, err := m.AggregateStats(ctx, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 {
		t.Fatalf("total: %d", st.Total)
	}
	if st.Methods["POST"] != 2 || st.Methods["GET"] != 1 {
		t.Fatalf("methods: %v", st.Methods)
	}
	if _, ok := st.Methods["DELETE"]; ok {
		t.Fatalf("tenant 2's method leaked into tenant 1 stats")
	}
	// all inserts land within the same minute in practice
	sum := 0
	for _, b := range st.Buckets {
		if len(b.Time) != len(model.BucketLayout) {
			t.Fatalf("bucket key %q has wrong width", b.Time)
		}
		sum += b.Count
	}
	if sum != 3 {
		t.Fatalf("bucket counts sum to %d", sum)
	}
}

func TestTenantCreateAndLookup(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	t1, err := m.CreateTenant(ctx, "A@B.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if t1.ID == 0 || t1.Email != "a@b.com" {
		t.Fatalf("bad tenant: %+v", t1)
	}
	if _, err := m.CreateTenant(ctx, "a@b.com"); err != ErrDuplicate {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	got, err := m.GetTenantByEmail(ctx, "a@b.com")
	if err != nil || got.ID != t1.ID {
		t.Fatalf("lookup: %v %+v", err, got)
	}
}
