package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/ledgersite/internal/content"
	"github.com/hitoshi/ledgersite/internal/feed"
	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/security"
	"github.com/hitoshi/ledgersite/internal/store"
)

// fakeStore はPostgREST互換APIのテスト用実装。
// eqフィルタ、created_atの降順、limitのみを解釈する。
type fakeStore struct {
	mu       sync.Mutex
	tables   map[string][]map[string]any
	failing  map[string]int
	pingDown bool
	authSeen []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:  make(map[string][]map[string]any),
		failing: make(map[string]int),
	}
}

func (s *fakeStore) add(table string, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], row)
}

func (s *fakeStore) fail(table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[table] = status
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authSeen = append(s.authSeen, r.Header.Get("Authorization"))

	table := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rest/v1"), "/")
	if table == "" {
		if s.pingDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "{}")
		return
	}
	if status, ok := s.failing[table]; ok {
		w.WriteHeader(status)
		io.WriteString(w, `{"message":"unavailable"}`)
		return
	}

	params := r.URL.Query()
	rows := make([]map[string]any, 0)
	for _, row := range s.tables[table] {
		if matches(row, params) {
			rows = append(rows, row)
		}
	}
	if params.Get("order") == "created_at.desc" {
		slices.SortStableFunc(rows, func(a, b map[string]any) int {
			return strings.Compare(b["created_at"].(string), a["created_at"].(string))
		})
	}
	if n, err := strconv.Atoi(params.Get("limit")); err == nil && n < len(rows) {
		rows = rows[:n]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func matches(row map[string]any, params map[string][]string) bool {
	for key, values := range params {
		switch key {
		case "select", "order", "limit":
			continue
		}
		for _, v := range values {
			if fmt.Sprint(row[key]) != strings.TrimPrefix(v, "eq.") {
				return false
			}
		}
	}
	return true
}

// stamp はn日目の作成日時を返す。
func stamp(day int) string {
	return time.Date(2026, 1, day, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func newsRow(slug string, day int, published, featured bool) map[string]any {
	return map[string]any{
		"id": "news-" + slug, "title": "News " + slug, "excerpt": "excerpt " + slug,
		"image_url": nil, "featured": featured, "slug": slug, "published": published,
		"created_at": stamp(day), "updated_at": stamp(day),
	}
}

func insightRow(slug, typ string, day int, published bool, body string) map[string]any {
	return map[string]any{
		"id": "insight-" + slug, "title": "Insight " + slug, "hook": "hook " + slug,
		"slug": slug, "image_url": nil, "type": typ, "content": body, "download_url": nil,
		"published": published, "created_at": stamp(day), "updated_at": stamp(day),
	}
}

func templateRow(slug string, day int) map[string]any {
	return map[string]any{
		"id": "template-" + slug, "title": "Template " + slug, "description": "desc",
		"category": "tax", "slug": slug, "image_url": nil, "file_url": "https://files.example.com/" + slug + ".xlsx",
		"published": true, "created_at": stamp(day), "updated_at": stamp(day),
	}
}

func solutionRow(slug string, day int, body string) map[string]any {
	return map[string]any{
		"id": "solution-" + slug, "title": "Solution " + slug, "summary": "summary",
		"content": body, "slug": slug, "image_url": nil, "icon": "calculator",
		"published": true, "created_at": stamp(day), "updated_at": stamp(day),
	}
}

// stubSubmitter はSubmitterのテスト用実装。
type stubSubmitter struct {
	submitFn func(body []byte) (string, error)
	calls    int
}

func (s *stubSubmitter) Submit(_ context.Context, body []byte) (string, error) {
	s.calls++
	if s.submitFn == nil {
		return "req-1", nil
	}
	return s.submitFn(body)
}

type testEnv struct {
	store     *fakeStore
	submitter *stubSubmitter
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs := newFakeStore()
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	provider := store.NewProvider(store.NewRESTBackend(srv.URL, 2*time.Second), store.ProviderConfig{
		AnonKey:       "anon-key",
		SessionCookie: "sb-access-token",
		SessionMaxAge: 3600,
	})

	limiter := middleware.NewRateLimiter(middleware.SubmissionRateLimiterConfig(5))
	t.Cleanup(limiter.Stop)

	sub := &stubSubmitter{}
	router := NewRouter(&RouterDeps{
		Provider:          provider,
		FetchPolicy:       content.PerSourceLimit,
		Sanitizer:         security.NewContentSanitizer(),
		RSS:               feed.NewRSSGenerator("https://ledger.example.com", feed.Channel{Title: "新着情報", Language: "ja"}),
		Submitter:         sub,
		RateLimiter:       limiter,
		CORSAllowedOrigin: "http://localhost:3000",
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	return &testEnv{store: fs, submitter: sub, router: router}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v\nraw: %s", err, w.Body.String())
	}
	return v
}

func httptestRequestWithCookie(path, name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
