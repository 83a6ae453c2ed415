package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ledgersite/internal/content"
	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/model"
	"github.com/hitoshi/ledgersite/internal/security"
)

// ReaderFunc はリクエストごとのReaderを生成する。
// リクエストの実行コンテキスト（Cookie）に紐づいたハンドルを使うため、リクエスト間で共有しない。
type ReaderFunc func(w http.ResponseWriter, r *http.Request) *content.Reader

// ContentHandler はコンテンツ種別ごとの一覧・詳細・スラッグ一覧を返すハンドラー。
// 一覧は取得に失敗しても200と空配列を返す。
type ContentHandler struct {
	reader    ReaderFunc
	sanitizer security.ContentSanitizer
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(reader ReaderFunc, sanitizer security.ContentSanitizer) *ContentHandler {
	return &ContentHandler{reader: reader, sanitizer: sanitizer}
}

// writeDetail はポイント検索の結果を書き込む。見つからない場合は404を返す。
func writeDetail[T any](w http.ResponseWriter, item *T, kind, slug string) {
	if item == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContentNotFoundError(kind, slug))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ContentHandler) listOptions(w http.ResponseWriter, r *http.Request) (content.ListOptions, bool) {
	limit, apiErr := parseLimit(r, 0)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return content.ListOptions{}, false
	}
	return content.ListOptions{Limit: limit}, true
}

// ListNews はお知らせ一覧を返す。
// GET /api/news?limit=N&featured=true
func (h *ContentHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.listOptions(w, r)
	if !ok {
		return
	}
	reader := h.reader(w, r)

	if r.URL.Query().Get("featured") == "true" {
		writeJSON(w, http.StatusOK, reader.FeaturedNews(r.Context(), opts.Limit))
		return
	}
	writeJSON(w, http.StatusOK, reader.News(r.Context(), opts))
}

// GetNews はお知らせ詳細を返す。
// GET /api/news/{slug}
func (h *ContentHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	writeDetail(w, h.reader(w, r).NewsBySlug(r.Context(), slug), "お知らせ", slug)
}

// NewsSlugs は公開済みお知らせのスラッグ一覧を返す。
// GET /api/news/slugs
func (h *ContentHandler) NewsSlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader(w, r).NewsSlugs(r.Context()))
}

// ListInsights はインサイト一覧を返す。typeを指定すると種別で絞り込む。
// GET /api/insights?limit=N&type=T
func (h *ContentHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.listOptions(w, r)
	if !ok {
		return
	}
	reader := h.reader(w, r)

	if typ := r.URL.Query().Get("type"); typ != "" {
		writeJSON(w, http.StatusOK, reader.InsightsByType(r.Context(), typ, opts.Limit))
		return
	}
	writeJSON(w, http.StatusOK, reader.Insights(r.Context(), opts))
}

// GetInsight はインサイト詳細を返す。本文はサニタイズ済み。
// GET /api/insights/{slug}
func (h *ContentHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	item := h.reader(w, r).InsightBySlug(r.Context(), slug)
	if item != nil {
		sanitized := security.SanitizeInsight(h.sanitizer, *item)
		item = &sanitized
	}
	writeDetail(w, item, "インサイト", slug)
}

// InsightSlugs は公開済みインサイトのスラッグ一覧を返す。
func (h *ContentHandler) InsightSlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader(w, r).InsightSlugs(r.Context()))
}

// ListTemplates はテンプレート一覧を返す。
func (h *ContentHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.listOptions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.reader(w, r).Templates(r.Context(), opts))
}

// GetTemplate はテンプレート詳細を返す。
func (h *ContentHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	writeDetail(w, h.reader(w, r).TemplateBySlug(r.Context(), slug), "テンプレート", slug)
}

// TemplateSlugs は公開済みテンプレートのスラッグ一覧を返す。
func (h *ContentHandler) TemplateSlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader(w, r).TemplateSlugs(r.Context()))
}

// ListSolutions はソリューション一覧を返す。
func (h *ContentHandler) ListSolutions(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.listOptions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.reader(w, r).Solutions(r.Context(), opts))
}

// GetSolution はソリューション詳細を返す。本文はサニタイズ済み。
func (h *ContentHandler) GetSolution(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	item := h.reader(w, r).SolutionBySlug(r.Context(), slug)
	if item != nil {
		sanitized := security.SanitizeSolution(h.sanitizer, *item)
		item = &sanitized
	}
	writeDetail(w, item, "ソリューション", slug)
}

// SolutionSlugs は公開済みソリューションのスラッグ一覧を返す。
func (h *ContentHandler) SolutionSlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader(w, r).SolutionSlugs(r.Context()))
}
