package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hookloop/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies every .sql file in dir in lexical order (dev helper).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(b)); err != nil {
			return fmt.Errorf("migration %s: %w", f, err)
		}
	}
	return nil
}

func (p *Postgres) CreateTenant(ctx context.Context, email string) (model.Tenant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var t model.Tenant
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO tenants (email) VALUES ($1)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, email, to_char(created_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')`,
		email).Scan(&t.ID, &t.Email, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrDuplicate
	}
	if err != nil {
		return model.Tenant{}, err
	}
	return t, nil
}

func (p *Postgres) GetTenantByEmail(ctx context.Context, email string) (model.Tenant, error) {
	var t model.Tenant
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, to_char(created_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')
		 FROM tenants WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&t.ID, &t.Email, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrNotFound
	}
	if err != nil {
		return model.Tenant{}, err
	}
	return t, nil
}

func (p *Postgres) InsertEvent(ctx context.Context, tenantID int64, method string, headers map[string]any, body any) (model.Event, error) {
	evt := model.Event{TenantID: tenantID, Method: method, Headers: headers, Body: body}
	hb, err := json.Marshal(headers)
	if err != nil {
		return model.Event{}, err
	}
	var bb any
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return model.Event{}, err
		}
		bb = raw
	}
	err = p.db.QueryRowContext(ctx,
		`INSERT INTO events (tenant_id, method, headers, body) VALUES ($1,$2,$3,$4)
		 RETURNING id, to_char(captured_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')`,
		tenantID, method, hb, bb).Scan(&evt.ID, &evt.Timestamp)
	if err != nil {
		return model.Event{}, err
	}
	return evt, nil
}

func (p *Postgres) ListRecentEvents(ctx context.Context, tenantID int64, limit int) ([]model.Event, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, tenant_id, method, headers, body,
		        to_char(captured_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')
		 FROM events WHERE tenant_id = $1 ORDER BY id DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (p *Postgres) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, method, headers, body,
		        to_char(captured_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')
		 FROM events WHERE id = $1`, id)
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return evt, err
}

func (p *Postgres) AggregateStats(ctx context.Context, tenantID int64) (model.StoreStats, error) {
	st := model.StoreStats{Methods: map[string]int{}, Buckets: []model.TimeBucket{}}
	if err := p.db.QueryRowContext(ctx,
		`SELECT count(*) FROM events WHERE tenant_id = $1`, tenantID).Scan(&st.Total); err != nil {
		return st, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT method, count(*) FROM events WHERE tenant_id = $1 GROUP BY method`, tenantID)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var m string
		var c int
		if err := rows.Scan(&m, &c); err != nil {
			rows.Close()
			return st, err
		}
		st.Methods[m] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, err
	}
	rows, err = p.db.QueryContext(ctx,
		`SELECT to_char(captured_at AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI') AS bucket, count(*)
		 FROM events WHERE tenant_id = $1
		 GROUP BY bucket ORDER BY bucket DESC LIMIT $2`, tenantID, StatsBucketCount)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var b model.TimeBucket
		if err := rows.Scan(&b.Time, &b.Count); err != nil {
			return st, err
		}
		st.Buckets = append(st.Buckets, b)
	}
	return st, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanEvent(r rowScanner) (model.Event, error) {
	var evt model.Event
	var headers []byte
	var body []byte
	if err := r.Scan(&evt.ID, &evt.TenantID, &evt.Method, &headers, &body, &evt.Timestamp); err != nil {
		return model.Event{}, err
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &evt.Headers); err != nil {
			return model.Event{}, err
		}
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &evt.Body); err != nil {
			return model.Event{}, err
		}
	}
	return evt, nil
}
