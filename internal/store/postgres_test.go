package store

import (
	"fmt"
	"testing"
)

type fakeRow struct{ vals []any }

func (f fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.vals) {
		return fmt.Errorf("want %d dests, got %d", len(f.vals), len(dest))
	}
	for i, v := range f.vals {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *[]byte:
			if v == nil {
				*d = nil
			} else {
				*d = v.([]byte)
			}
		default:
			return fmt.Errorf("unsupported dest %T", dest[i])
		}
	}
	return nil
}

func TestScanEventDecodesJSONColumns(t *testing.T) {
	row := fakeRow{vals: []any{
		int64(7), int64(3), "POST",
		[]byte(`{"content-type":"application/json"}`),
		[]byte(`{"hello":"world"}`),
		"2024-01-02 03:04:05",
	}}
	evt, err := scanEvent(row)
	if err != nil {
		t.Fatalf("scanEvent: %v", err)
	}
	if evt.ID != 7 || evt.TenantID != 3 || evt.Method != "POST" {
		t.Fatalf("bad event: %+v", evt)
	}
	if evt.Headers["content-type"] != "application/json" {
		t.Fatalf("headers: %v", evt.Headers)
	}
	if evt.Body.(map[string]any)["hello"] != "world" {
		t.Fatalf("body: %v", evt.Body)
	}
}

func TestScanEventNullBody(t *testing.T) {
	row := fakeRow{vals: []any{int64(1), int64(1), "GET", []byte(`{}`), nil, "2024-01-02 03:04:05"}}
	evt, err := scanEvent(row)
	if err != nil {
		t.Fatalf("scanEvent: %v", err)
	}
	if evt.Body != nil {
		t.Fatalf("body should be absent: %v", evt.Body)
	}
}
