package content

import (
	"context"
	"fmt"

	"github.com/hitoshi/ledgersite/internal/model"
	"github.com/hitoshi/ledgersite/internal/store"
)

// 公開フラグの列名と並び順の列名。全テーブル共通。
const (
	publishedColumn = "published"
	recencyColumn   = "created_at"
	slugColumn      = "slug"
)

// ListOptions は一覧取得のオプション。
type ListOptions struct {
	Limit   int            // 0以下は上限なし
	Filters []store.Filter // published以外に追加する等値条件
}

// publishedQuery は公開済みの行だけを新しい順に取得するクエリを組み立てる。
func publishedQuery(table string, columns []string, filters []store.Filter) store.Query {
	q := store.From(table).Select(columns...).Eq(publishedColumn, true)
	for _, f := range filters {
		q = q.Eq(f.Column, f.Value)
	}
	return q.Order(recencyColumn, store.Desc)
}

// FetchPublished は公開済みの行を作成日時の降順で取得する。
// 一致する行がない場合は空スライスのOkを返す。
func FetchPublished[T any](ctx context.Context, c *store.Client, t Table[T], opts ListOptions) model.Result[[]T] {
	q := publishedQuery(t.Name, t.Columns, opts.Filters)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	items, err := store.List[T](ctx, c, q, t.Scan)
	if err != nil {
		return model.Fail[[]T](fmt.Errorf("%sの一覧取得に失敗しました: %w", t.Name, err))
	}
	return model.Ok(items)
}

// FetchOne は公開済みの行をポイント検索する。
// 一致なし・複数一致のいずれもFailとして返す。
func FetchOne[T any](ctx context.Context, c *store.Client, t Table[T], filters ...store.Filter) model.Result[*T] {
	q := publishedQuery(t.Name, t.Columns, filters)

	item, err := store.One[T](ctx, c, q, t.Scan)
	if err != nil {
		return model.Fail[*T](fmt.Errorf("%sの取得に失敗しました: %w", t.Name, err))
	}
	return model.Ok(&item)
}

// FetchSlugs は公開済みの行のslugを作成日時の降順で列挙する。静的パス生成で使う。
func FetchSlugs(ctx context.Context, c *store.Client, table string) model.Result[[]string] {
	q := publishedQuery(table, []string{slugColumn}, nil)

	slugs, err := store.Strings(ctx, c, q)
	if err != nil {
		return model.Fail[[]string](fmt.Errorf("%sのslug列挙に失敗しました: %w", table, err))
	}
	return model.Ok(slugs)
}

// BySlug はslugの等値条件を返す。
func BySlug(slug string) store.Filter {
	return store.Filter{Column: slugColumn, Value: slug}
}
