package content

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/ledgersite/internal/model"
)

// FetchPolicy は新着情報の集約時に各ソースから何件取得するかを表す。
type FetchPolicy int

const (
	// PerSourceLimit は各ソースをlimit件で打ち切る（既定）。
	// 降順に並べた上位limit件に1ソースからlimit件を超えて入ることはないため、
	// 両ソースが成功していれば結果は欠けない。
	PerSourceLimit FetchPolicy = iota
	// OverFetch は各ソースから2*limit件を取得する。
	OverFetch
)

// String はFetchPolicyの設定値表記を返す。
func (p FetchPolicy) String() string {
	switch p {
	case OverFetch:
		return "over_fetch"
	default:
		return "per_source"
	}
}

// ParseFetchPolicy は設定値からFetchPolicyを返す。空文字列は既定値になる。
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_source":
		return PerSourceLimit, nil
	case "over_fetch":
		return OverFetch, nil
	default:
		return PerSourceLimit, fmt.Errorf("不正な取得ポリシーです: %q (per_source|over_fetch)", s)
	}
}

// sourceLimit はポリシーに応じた1ソースあたりの取得件数を返す。
func (p FetchPolicy) sourceLimit(limit int) int {
	if p == OverFetch {
		return limit * 2
	}
	return limit
}

// UpdatesResult は新着情報の集約結果。
// 失敗したソースは空として扱われ、そのエラーがNewsErr/InsightsErrに残る。
type UpdatesResult struct {
	Items       []model.UpdateItem
	NewsErr     error
	InsightsErr error
}

// LatestUpdates はお知らせとインサイトを統合した新着情報を新しい順にlimit件返す。
func (r *Reader) LatestUpdates(ctx context.Context, limit int) []model.UpdateItem {
	return r.LatestUpdatesResult(ctx, limit).Items
}

// LatestUpdatesResult はLatestUpdatesと同じ集約を行い、ソースごとの失敗も返す。
//
// 2つのソースは並行に取得し、一方の失敗は他方を取り消さない。
// 統合後に作成日時の降順で安定ソートしてからlimit件に切り詰める。
// 同時刻の項目はお知らせが先になる。
func (r *Reader) LatestUpdatesResult(ctx context.Context, limit int) UpdatesResult {
	if limit <= 0 {
		return UpdatesResult{Items: []model.UpdateItem{}}
	}

	perSource := ListOptions{Limit: r.policy.sourceLimit(limit)}

	var (
		news     model.Result[[]model.NewsItem]
		insights model.Result[[]model.InsightItem]
	)

	// 各ブランチは常にnilを返すため、Waitのエラーは見ない。
	var g errgroup.Group
	g.Go(func() error {
		news = list(ctx, r, NewsTable, "LatestUpdates", perSource)
		return nil
	})
	g.Go(func() error {
		insights = list(ctx, r, InsightsTable, "LatestUpdates", perSource)
		return nil
	})
	_ = g.Wait()

	newsItems := news.Or(nil)
	insightItems := insights.Or(nil)

	merged := make([]model.UpdateItem, 0, len(newsItems)+len(insightItems))
	for _, n := range newsItems {
		merged = append(merged, model.UpdateFromNews(n))
	}
	for _, i := range insightItems {
		merged = append(merged, model.UpdateFromInsight(i))
	}

	slices.SortStableFunc(merged, func(a, b model.UpdateItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	r.metrics.RecordUpdatesServed(len(merged))

	return UpdatesResult{
		Items:       merged,
		NewsErr:     news.Reason,
		InsightsErr: insights.Reason,
	}
}
