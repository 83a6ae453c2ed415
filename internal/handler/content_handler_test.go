package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/model"
)

func TestListNews_PublishedNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("news", newsRow("old", 1, true, false))
	env.store.add("news", newsRow("draft", 5, false, false))
	env.store.add("news", newsRow("new", 3, true, true))

	w := env.get("/api/news")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	items := decodeInto[[]model.NewsItem](t, w)
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Slug != "new" || items[1].Slug != "old" {
		t.Errorf("order = [%s %s], want [new old]", items[0].Slug, items[1].Slug)
	}
	if !items[0].Featured {
		t.Error("featured flag should be decoded")
	}
}

func TestListNews_FeaturedAndLimit(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("news", newsRow("a", 1, true, true))
	env.store.add("news", newsRow("b", 2, true, false))
	env.store.add("news", newsRow("c", 3, true, true))

	items := decodeInto[[]model.NewsItem](t, env.get("/api/news?featured=true&limit=1"))
	if len(items) != 1 || items[0].Slug != "c" {
		t.Errorf("items = %+v, want only c", items)
	}
}

func TestListNews_BackendFailure_ReturnsEmptyArray(t *testing.T) {
	env := newTestEnv(t)
	env.store.fail("news", http.StatusInternalServerError)

	w := env.get("/api/news")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListEndpoints_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/news?limit=0",
		"/api/insights?limit=-3",
		"/api/templates?limit=abc",
		"/api/solutions?limit=1.5",
		"/api/updates?limit=zero",
		"/updates.rss?limit=0",
	} {
		t.Run(path, func(t *testing.T) {
			w := env.get(path)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			body := decodeInto[middleware.ErrorResponseBody](t, w)
			if body.Code != model.ErrCodeInvalidLimit {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidLimit)
			}
		})
	}
}

func TestListTemplates_LimitClampedToMax(t *testing.T) {
	env := newTestEnv(t)
	for day := 1; day <= 28; day++ {
		env.store.add("templates", templateRow("t"+stamp(day)[8:10], day))
	}
	for day := 1; day <= 28; day++ {
		env.store.add("templates", templateRow("u"+stamp(day)[8:10], day))
	}

	items := decodeInto[[]model.TemplateItem](t, env.get("/api/templates?limit=500"))
	if len(items) != maxLimit {
		t.Errorf("len = %d, want %d", len(items), maxLimit)
	}
}

func TestGetNews_FoundAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("news", newsRow("opening", 2, true, false))
	env.store.add("news", newsRow("hidden", 3, false, false))

	w := env.get("/api/news/opening")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if item := decodeInto[model.NewsItem](t, w); item.Title != "News opening" {
		t.Errorf("title = %q, want %q", item.Title, "News opening")
	}

	for _, slug := range []string{"missing", "hidden"} {
		w := env.get("/api/news/" + slug)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", slug, w.Code, http.StatusNotFound)
			continue
		}
		if body := decodeInto[middleware.ErrorResponseBody](t, w); body.Code != model.ErrCodeContentNotFound {
			t.Errorf("%s: code = %q, want %q", slug, body.Code, model.ErrCodeContentNotFound)
		}
	}
}

func TestSlugsRoute_TakesPrecedenceOverDetail(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("news", newsRow("a", 1, true, false))
	env.store.add("news", newsRow("b", 2, true, false))
	env.store.add("news", newsRow("c", 3, false, false))

	slugs := decodeInto[[]string](t, env.get("/api/news/slugs"))
	if strings.Join(slugs, ",") != "b,a" {
		t.Errorf("slugs = %v, want [b a]", slugs)
	}
}

func TestSlugs_BackendFailure_ReturnsEmptyArray(t *testing.T) {
	env := newTestEnv(t)
	env.store.fail("solutions", http.StatusBadGateway)

	w := env.get("/api/solutions/slugs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListInsights_ByType(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("insights", insightRow("guide", "guide", 1, true, ""))
	env.store.add("insights", insightRow("column", "column", 2, true, ""))

	items := decodeInto[[]model.InsightItem](t, env.get("/api/insights?type=guide"))
	if len(items) != 1 || items[0].Slug != "guide" {
		t.Errorf("items = %+v, want only guide", items)
	}
}

func TestGetInsight_SanitizesContent(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("insights", insightRow("tax", "column", 1, true,
		`<p>決算のポイント</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`))

	w := env.get("/api/insights/tax")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	item := decodeInto[model.InsightItem](t, w)
	if !strings.Contains(item.Content, "<p>決算のポイント</p>") {
		t.Errorf("content lost allowed markup: %q", item.Content)
	}
	if strings.Contains(item.Content, "script") || strings.Contains(item.Content, "javascript:") {
		t.Errorf("content not sanitized: %q", item.Content)
	}
}

func TestGetSolution_SanitizesContent(t *testing.T) {
	env := newTestEnv(t)
	env.store.add("solutions", solutionRow("bookkeeping", 1, `<h2>記帳代行</h2><img src=x onerror="alert(1)">`))

	item := decodeInto[model.SolutionItem](t, env.get("/api/solutions/bookkeeping"))
	if strings.Contains(item.Content, "onerror") {
		t.Errorf("content not sanitized: %q", item.Content)
	}
	if item.Icon == nil || *item.Icon != "calculator" {
		t.Errorf("icon = %v, want calculator", item.Icon)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if w := env.get("/api/templates/none"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRequestContext_SendsSessionToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptestRequestWithCookie("/api/templates", "sb-access-token", "user-jwt")
	w := serve(env, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := env.store.authSeen[len(env.store.authSeen)-1]; got != "Bearer user-jwt" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer user-jwt")
	}
	renewed := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "sb-access-token" && c.MaxAge == 3600 {
			renewed = true
		}
	}
	if !renewed {
		t.Error("session cookie should be renewed")
	}
}
