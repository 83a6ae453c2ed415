package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ledgersite/internal/content"
	"github.com/hitoshi/ledgersite/internal/feed"
	"github.com/hitoshi/ledgersite/internal/metrics"
	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/security"
	"github.com/hitoshi/ledgersite/internal/store"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// コンテンツ
	Provider    *store.Provider
	FetchPolicy content.FetchPolicy
	Sanitizer   security.ContentSanitizer
	RSS         *feed.RSSGenerator

	// 問い合わせ
	Submitter   Submitter
	RateLimiter *middleware.RateLimiter
	CSRF        middleware.CSRFConfig

	// ミドルウェア・観測
	CORSAllowedOrigin string
	Logger            *slog.Logger
	Metrics           metrics.QueryRecorder
	Gatherer          prometheus.Gatherer // nilなら/metricsを公開しない
}

// readerFor はリクエストの実行コンテキストに紐づいたReaderを生成する。
func (d *RouterDeps) readerFor(w http.ResponseWriter, r *http.Request) *content.Reader {
	client := d.Provider.Client(store.RequestContext(w, r))
	return content.NewReader(client, d.Logger, d.Metrics, d.FetchPolicy)
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Recovery → SecurityHeaders → CORS
//
// 問い合わせ送信のみ RateLimit → CSRF を追加で通す。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	contentHandler := NewContentHandler(deps.readerFor, deps.Sanitizer)
	updatesHandler := NewUpdatesHandler(deps.readerFor, deps.RSS)
	submissionHandler := NewSubmissionHandler(deps.Submitter, logger)

	r.Get("/health", NewHealthHandler(deps.Provider))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Get("/updates.rss", updatesHandler.RSS)

	r.Route("/api", func(r chi.Router) {
		r.Route("/news", func(r chi.Router) {
			r.Get("/", contentHandler.ListNews)
			r.Get("/slugs", contentHandler.NewsSlugs)
			r.Get("/{slug}", contentHandler.GetNews)
		})
		r.Route("/insights", func(r chi.Router) {
			r.Get("/", contentHandler.ListInsights)
			r.Get("/slugs", contentHandler.InsightSlugs)
			r.Get("/{slug}", contentHandler.GetInsight)
		})
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", contentHandler.ListTemplates)
			r.Get("/slugs", contentHandler.TemplateSlugs)
			r.Get("/{slug}", contentHandler.GetTemplate)
		})
		r.Route("/solutions", func(r chi.Router) {
			r.Get("/", contentHandler.ListSolutions)
			r.Get("/slugs", contentHandler.SolutionSlugs)
			r.Get("/{slug}", contentHandler.GetSolution)
		})

		r.Get("/updates", updatesHandler.Latest)

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		r.With(
			deps.RateLimiter.Middleware(),
			middleware.NewCSRFMiddleware(deps.CSRF),
		).Post("/service-requests", submissionHandler.Create)
	})

	return r
}
