// Package store はコンテンツストアへの読み取りハンドルを提供する。
//
// コンテンツストアはPostgreSQLに直接接続するSQLBackendと、
// URLとAPIキーで到達するホスト型REST（PostgREST互換）のRESTBackendの
// いずれかで実装される。どちらも同じQueryを受け取り、同じRowsを返すため、
// クエリを組み立てる側はバックエンドの違いを意識しない。
package store

import (
	"fmt"
	"regexp"
)

// Direction は並び順を表す。
type Direction int

const (
	// Asc は昇順。
	Asc Direction = iota
	// Desc は降順。
	Desc
)

// Filter は列の等値条件を表す。
type Filter struct {
	Column string
	Value  any
}

// Query は1テーブルに対する読み取りクエリを表す。
// ビルダーメソッドはレシーバを変更せず、変更後のコピーを返す。
type Query struct {
	Table       string
	Columns     []string
	Filters     []Filter
	OrderColumn string
	OrderDir    Direction
	RowLimit    int  // 0以下は上限なし
	ExpectOne   bool // 1行ちょうどを期待するポイント検索
}

// identifierPattern はテーブル名・列名として許可する形式。
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// From は指定テーブルに対するクエリを開始する。
func From(table string) Query {
	return Query{Table: table}
}

// Select は取得する列を指定する。
func (q Query) Select(columns ...string) Query {
	q.Columns = append([]string(nil), columns...)
	return q
}

// Eq は等値条件を追加する。
func (q Query) Eq(column string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// Order は並び順を指定する。
func (q Query) Order(column string, dir Direction) Query {
	q.OrderColumn = column
	q.OrderDir = dir
	return q
}

// Limit は取得件数の上限を指定する。0以下を指定すると上限なしになる。
func (q Query) Limit(n int) Query {
	q.RowLimit = n
	return q
}

// Single はクエリをポイント検索にする。
func (q Query) Single() Query {
	q.ExpectOne = true
	return q
}

// effectiveLimit はバックエンドに渡す行数上限を返す。
// ポイント検索では複数行の一致を検出するため2行まで取得する。
func (q Query) effectiveLimit() int {
	if q.ExpectOne {
		return 2
	}
	if q.RowLimit < 0 {
		return 0
	}
	return q.RowLimit
}

// Validate はテーブル名・列名が識別子として妥当かを検証する。
// 識別子はSQL文やURLパスにそのまま埋め込まれるため、値と違ってバインドできない。
func (q Query) Validate() error {
	if !identifierPattern.MatchString(q.Table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, q.Table)
	}
	if len(q.Columns) == 0 {
		return fmt.Errorf("%w: no columns selected on %s", ErrInvalidIdentifier, q.Table)
	}
	for _, c := range q.Columns {
		if !identifierPattern.MatchString(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, c)
		}
	}
	for _, f := range q.Filters {
		if !identifierPattern.MatchString(f.Column) {
			return fmt.Errorf("%w: filter column %q", ErrInvalidIdentifier, f.Column)
		}
	}
	if q.OrderColumn != "" && !identifierPattern.MatchString(q.OrderColumn) {
		return fmt.Errorf("%w: order column %q", ErrInvalidIdentifier, q.OrderColumn)
	}
	return nil
}
