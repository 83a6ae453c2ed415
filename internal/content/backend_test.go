package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hitoshi/ledgersite/internal/store"
)

// memBackend はテーブルを行のスライスとして保持するテスト用のBackend。
// 等値フィルタ・降順ソート・件数上限をストアと同じ意味で適用する。
type memBackend struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	fail   map[string]error
	calls  map[string]int
}

func newMemBackend() *memBackend {
	return &memBackend{
		tables: map[string][]map[string]any{},
		fail:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (m *memBackend) add(table string, rows ...map[string]any) {
	m.tables[table] = append(m.tables[table], rows...)
}

func (m *memBackend) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *memBackend) Query(_ context.Context, q store.Query, _ store.Auth) (store.Rows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[q.Table]++
	if err := m.fail[q.Table]; err != nil {
		return nil, err
	}

	var matched []map[string]any
	for _, row := range m.tables[q.Table] {
		ok := true
		for _, f := range q.Filters {
			if row[f.Column] != f.Value {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, row)
		}
	}

	if q.OrderColumn != "" {
		slices.SortStableFunc(matched, func(a, b map[string]any) int {
			at, _ := a[q.OrderColumn].(time.Time)
			bt, _ := b[q.OrderColumn].(time.Time)
			if q.OrderDir == store.Desc {
				return bt.Compare(at)
			}
			return at.Compare(bt)
		})
	}

	limit := q.RowLimit
	if q.ExpectOne {
		limit = 2
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return &memRows{columns: q.Columns, records: matched, pos: -1}, nil
}

func (m *memBackend) Ping(context.Context, store.Auth) error {
	return nil
}

type memRows struct {
	columns []string
	records []map[string]any
	pos     int
}

func (r *memRows) Next() bool {
	r.pos++
	return r.pos < len(r.records)
}

func (r *memRows) Scan(dest ...any) error {
	if len(dest) != len(r.columns) {
		return fmt.Errorf("expected %d destinations, got %d", len(r.columns), len(dest))
	}
	rec := r.records[r.pos]
	for i, col := range r.columns {
		v := rec[col]
		switch d := dest[i].(type) {
		case *string:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("column %s: cannot scan %T into string", col, v)
			}
			*d = s
		case *bool:
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("column %s: cannot scan %T into bool", col, v)
			}
			*d = b
		case *time.Time:
			t, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("column %s: cannot scan %T into time", col, v)
			}
			*d = t
		case *sql.NullString:
			if err := d.Scan(v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("column %s: unsupported destination %T", col, dest[i])
		}
	}
	return nil
}

func (r *memRows) Err() error   { return nil }
func (r *memRows) Close() error { return nil }

var _ store.Backend = (*memBackend)(nil)

var errUnavailable = errors.New("store unavailable")

func day(n int) time.Time {
	return time.Date(2024, 1, n, 9, 0, 0, 0, time.UTC)
}

func newsRow(id, slug string, created time.Time, published bool) map[string]any {
	return map[string]any{
		"id":         id,
		"title":      "News " + id,
		"excerpt":    "excerpt " + id,
		"image_url":  nil,
		"featured":   false,
		"slug":       slug,
		"published":  published,
		"created_at": created,
		"updated_at": created,
	}
}

func insightRow(id, slug string, created time.Time, published bool) map[string]any {
	return map[string]any{
		"id":           id,
		"title":        "Insight " + id,
		"hook":         "hook " + id,
		"slug":         slug,
		"image_url":    "https://cdn.example.com/" + id + ".png",
		"type":         "column",
		"content":      "<p>body " + id + "</p>",
		"download_url": nil,
		"published":    published,
		"created_at":   created,
		"updated_at":   created,
	}
}

func templateRow(id, slug string, created time.Time, published bool) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       "Template " + id,
		"description": "description " + id,
		"category":    "tax",
		"slug":        slug,
		"image_url":   nil,
		"file_url":    "https://cdn.example.com/" + id + ".xlsx",
		"published":   published,
		"created_at":  created,
		"updated_at":  created,
	}
}

func solutionRow(id, slug string, created time.Time, published bool) map[string]any {
	return map[string]any{
		"id":         id,
		"title":      "Solution " + id,
		"summary":    "summary " + id,
		"content":    "<p>solution " + id + "</p>",
		"slug":       slug,
		"image_url":  nil,
		"icon":       "calculator",
		"published":  published,
		"created_at": created,
		"updated_at": created,
	}
}

// recordingMetrics はRecordQueryの呼び出しを記録する。
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]string
	served   []int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: map[string][]string{}}
}

func (m *recordingMetrics) RecordQuery(table, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[table] = append(m.outcomes[table], outcome)
}

func (m *recordingMetrics) RecordUpdatesServed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.served = append(m.served, count)
}

func newTestReader(backend store.Backend, rec *recordingMetrics, policy FetchPolicy) *Reader {
	client := store.NewProvider(backend, store.ProviderConfig{AnonKey: "anon-key"}).Client(store.StaticContext())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if rec == nil {
		return NewReader(client, logger, nil, policy)
	}
	return NewReader(client, logger, rec, policy)
}
