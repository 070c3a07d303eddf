//go:build postgres_integration

package store

import (
	"os"
	"testing"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.MigrateDir("../../db/migrations"); err != nil {
		t.Fatalf("MigrateDir: %v", err)
	}
	evt, err := p.InsertEvent(t.Context(), 1, "POST", map[string]any{"x-test": "1"}, map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	got, err := p.GetEvent(t.Context(), evt.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Timestamp != evt.Timestamp {
		t.Fatalf("timestamp drift: stored %q, returned %q", evt.Timestamp, got.Timestamp)
	}
	if _, err := p.ListRecentEvents(t.Context(), 1, 1); err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if _, err := p.AggregateStats(t.Context(), 1); err != nil {
		t.Fatalf("AggregateStats: %v", err)
	}
}
