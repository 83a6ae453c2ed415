package store

import (
	"context"
	"fmt"
)

// Client はコンテンツストアへの読み取りハンドル。
// 認証情報とCookieストアを保持するだけで、生成時に通信は行わない。
type Client struct {
	backend Backend
	auth    Auth
	cookies CookieStore
	mode    Mode
}

// Mode はハンドルの実行コンテキスト種別を返す。
func (c *Client) Mode() Mode {
	return c.mode
}

// Cookies はハンドルに紐づくCookieストアを返す。
func (c *Client) Cookies() CookieStore {
	return c.cookies
}

// Rows はクエリを検証して実行し、結果行を返す。
func (c *Client) Rows(ctx context.Context, q Query) (Rows, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.backend.Query(ctx, q, c.auth)
}

// RowScanner は1行分の値を読み出す。Rowsはこれを満たす。
type RowScanner interface {
	Scan(dest ...any) error
}

// Scanner は1行をTに変換する関数。
type Scanner[T any] func(row RowScanner) (T, error)

// List はクエリ結果の全行をTのスライスとして返す。
// 一致する行がない場合は空スライスを返す。
func List[T any](ctx context.Context, c *Client, q Query, scan Scanner[T]) ([]T, error) {
	rows, err := c.Rows(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%sの行の読み取りに失敗しました: %w", q.Table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%sの走査に失敗しました: %w", q.Table, err)
	}
	return items, nil
}

// One はちょうど1行に一致するポイント検索を行う。
// 一致なしはErrNoRows、複数一致はErrMultipleRowsを返す。
func One[T any](ctx context.Context, c *Client, q Query, scan Scanner[T]) (T, error) {
	var zero T
	items, err := List(ctx, c, q.Single(), scan)
	if err != nil {
		return zero, err
	}
	switch len(items) {
	case 0:
		return zero, ErrNoRows
	case 1:
		return items[0], nil
	default:
		return zero, ErrMultipleRows
	}
}

// Strings は1列だけを選択したクエリの値を文字列スライスとして返す。
func Strings(ctx context.Context, c *Client, q Query) ([]string, error) {
	if len(q.Columns) != 1 {
		return nil, fmt.Errorf("%w: Strings requires exactly one column, got %d", ErrInvalidIdentifier, len(q.Columns))
	}
	return List[string](ctx, c, q, func(row RowScanner) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	})
}
