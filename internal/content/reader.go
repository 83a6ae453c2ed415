// Package content は公開コンテンツの取得と新着情報の集約を提供する。
//
// 公開メソッドは取得失敗をログとメトリクスに記録したうえで空値に丸めて返す。
// 「該当なし」と「取得失敗」を区別したい呼び出し元は *Result メソッドを使う。
package content

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/ledgersite/internal/metrics"
	"github.com/hitoshi/ledgersite/internal/model"
	"github.com/hitoshi/ledgersite/internal/store"
)

// Reader はコンテンツ種別ごとの取得関数をまとめたもの。
// 実行コンテキストごとのstore.Clientに対して生成する。
type Reader struct {
	client  *store.Client
	logger  *slog.Logger
	metrics metrics.QueryRecorder
	policy  FetchPolicy
}

// NewReader はReaderを生成する。loggerとrecがnilの場合は既定値を使う。
func NewReader(client *store.Client, logger *slog.Logger, rec metrics.QueryRecorder, policy FetchPolicy) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Reader{
		client:  client,
		logger:  logger,
		metrics: rec,
		policy:  policy,
	}
}

// observe は1回の取得結果をログとメトリクスに記録する。
func (r *Reader) observe(table, op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNoRows):
		outcome = metrics.OutcomeNotFound
		r.logger.Info("content not found", "table", table, "op", op)
	default:
		outcome = metrics.OutcomeError
		r.logger.Warn("content query failed", "table", table, "op", op, "error", err)
	}
	r.metrics.RecordQuery(table, outcome, time.Since(start))
}

func list[T any](ctx context.Context, r *Reader, t Table[T], op string, opts ListOptions) model.Result[[]T] {
	start := time.Now()
	res := FetchPublished(ctx, r.client, t, opts)
	r.observe(t.Name, op, start, res.Reason)
	return res
}

func one[T any](ctx context.Context, r *Reader, t Table[T], op, slug string) model.Result[*T] {
	start := time.Now()
	res := FetchOne(ctx, r.client, t, BySlug(slug))
	r.observe(t.Name, op, start, res.Reason)
	return res
}

func (r *Reader) slugs(ctx context.Context, table, op string) model.Result[[]string] {
	start := time.Now()
	res := FetchSlugs(ctx, r.client, table)
	r.observe(table, op, start, res.Reason)
	return res
}

// --- news ---

// NewsResult は公開済みのお知らせを新しい順に取得する。
func (r *Reader) NewsResult(ctx context.Context, opts ListOptions) model.Result[[]model.NewsItem] {
	return list(ctx, r, NewsTable, "News", opts)
}

// News は公開済みのお知らせを返す。失敗時は空スライス。
func (r *Reader) News(ctx context.Context, opts ListOptions) []model.NewsItem {
	return r.NewsResult(ctx, opts).Or([]model.NewsItem{})
}

// FeaturedNews はトップページ掲載対象のお知らせを返す。
func (r *Reader) FeaturedNews(ctx context.Context, limit int) []model.NewsItem {
	opts := ListOptions{
		Limit:   limit,
		Filters: []store.Filter{{Column: "featured", Value: true}},
	}
	return list(ctx, r, NewsTable, "FeaturedNews", opts).Or([]model.NewsItem{})
}

// NewsBySlugResult はslugでお知らせを1件取得する。
func (r *Reader) NewsBySlugResult(ctx context.Context, slug string) model.Result[*model.NewsItem] {
	return one(ctx, r, NewsTable, "NewsBySlug", slug)
}

// NewsBySlug はslugでお知らせを1件返す。見つからない場合・失敗時はnil。
func (r *Reader) NewsBySlug(ctx context.Context, slug string) *model.NewsItem {
	return r.NewsBySlugResult(ctx, slug).Or(nil)
}

// NewsSlugsResult は公開済みお知らせのslugを列挙する。
func (r *Reader) NewsSlugsResult(ctx context.Context) model.Result[[]string] {
	return r.slugs(ctx, NewsTable.Name, "NewsSlugs")
}

// NewsSlugs は公開済みお知らせのslugを返す。失敗時は空スライス。
func (r *Reader) NewsSlugs(ctx context.Context) []string {
	return r.NewsSlugsResult(ctx).Or([]string{})
}

// --- insights ---

// InsightsResult は公開済みのインサイトを新しい順に取得する。
func (r *Reader) InsightsResult(ctx context.Context, opts ListOptions) model.Result[[]model.InsightItem] {
	return list(ctx, r, InsightsTable, "Insights", opts)
}

// Insights は公開済みのインサイトを返す。失敗時は空スライス。
func (r *Reader) Insights(ctx context.Context, opts ListOptions) []model.InsightItem {
	return r.InsightsResult(ctx, opts).Or([]model.InsightItem{})
}

// InsightsByType は指定した種別のインサイトを返す。
func (r *Reader) InsightsByType(ctx context.Context, typ string, limit int) []model.InsightItem {
	opts := ListOptions{
		Limit:   limit,
		Filters: []store.Filter{{Column: "type", Value: typ}},
	}
	return list(ctx, r, InsightsTable, "InsightsByType", opts).Or([]model.InsightItem{})
}

// InsightBySlugResult はslugでインサイトを1件取得する。
func (r *Reader) InsightBySlugResult(ctx context.Context, slug string) model.Result[*model.InsightItem] {
	return one(ctx, r, InsightsTable, "InsightBySlug", slug)
}

// InsightBySlug はslugでインサイトを1件返す。見つからない場合・失敗時はnil。
func (r *Reader) InsightBySlug(ctx context.Context, slug string) *model.InsightItem {
	return r.InsightBySlugResult(ctx, slug).Or(nil)
}

// InsightSlugsResult は公開済みインサイトのslugを列挙する。
func (r *Reader) InsightSlugsResult(ctx context.Context) model.Result[[]string] {
	return r.slugs(ctx, InsightsTable.Name, "InsightSlugs")
}

// InsightSlugs は公開済みインサイトのslugを返す。
func (r *Reader) InsightSlugs(ctx context.Context) []string {
	return r.InsightSlugsResult(ctx).Or([]string{})
}

// --- templates ---

func (r *Reader) TemplatesResult(ctx context.Context, opts ListOptions) model.Result[[]model.TemplateItem] {
	return list(ctx, r, TemplatesTable, "Templates", opts)
}

// Templates は公開済みの書式テンプレートを返す。
func (r *Reader) Templates(ctx context.Context, opts ListOptions) []model.TemplateItem {
	return r.TemplatesResult(ctx, opts).Or([]model.TemplateItem{})
}

func (r *Reader) TemplateBySlugResult(ctx context.Context, slug string) model.Result[*model.TemplateItem] {
	return one(ctx, r, TemplatesTable, "TemplateBySlug", slug)
}

func (r *Reader) TemplateBySlug(ctx context.Context, slug string) *model.TemplateItem {
	return r.TemplateBySlugResult(ctx, slug).Or(nil)
}

func (r *Reader) TemplateSlugsResult(ctx context.Context) model.Result[[]string] {
	return r.slugs(ctx, TemplatesTable.Name, "TemplateSlugs")
}

func (r *Reader) TemplateSlugs(ctx context.Context) []string {
	return r.TemplateSlugsResult(ctx).Or([]string{})
}

// --- solutions ---

func (r *Reader) SolutionsResult(ctx context.Context, opts ListOptions) model.Result[[]model.SolutionItem] {
	return list(ctx, r, SolutionsTable, "Solutions", opts)
}

// Solutions は公開済みのサービス紹介を返す。
func (r *Reader) Solutions(ctx context.Context, opts ListOptions) []model.SolutionItem {
	return r.SolutionsResult(ctx, opts).Or([]model.SolutionItem{})
}

func (r *Reader) SolutionBySlugResult(ctx context.Context, slug string) model.Result[*model.SolutionItem] {
	return one(ctx, r, SolutionsTable, "SolutionBySlug", slug)
}

func (r *Reader) SolutionBySlug(ctx context.Context, slug string) *model.SolutionItem {
	return r.SolutionBySlugResult(ctx, slug).Or(nil)
}

func (r *Reader) SolutionSlugsResult(ctx context.Context) model.Result[[]string] {
	return r.slugs(ctx, SolutionsTable.Name, "SolutionSlugs")
}

func (r *Reader) SolutionSlugs(ctx context.Context) []string {
	return r.SolutionSlugsResult(ctx).Or([]string{})
}
