package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLBackend はPostgreSQLに直接クエリを発行するBackend実装。
type SQLBackend struct {
	db *sql.DB
}

// NewSQLBackend はSQLBackendを生成する。
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Query はQueryをSELECT文に変換して実行する。
func (b *SQLBackend) Query(ctx context.Context, q Query, _ Auth) (Rows, error) {
	stmt, args, err := renderSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%sの取得に失敗しました: %w", q.Table, err)
	}
	return rows, nil
}

// Ping はデータベースへの疎通を確認する。
func (b *SQLBackend) Ping(ctx context.Context, _ Auth) error {
	return b.db.PingContext(ctx)
}

// renderSelect はQueryからプレースホルダ付きのSELECT文と引数を組み立てる。
// プレースホルダはフィルタの追加順に$1から採番し、LIMITが最後になる。
func renderSelect(q Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	args := make([]any, 0, len(q.Filters)+1)

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Table)

	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&b, "%s = $%d", f.Column, len(args))
	}

	if q.OrderColumn != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderColumn)
		if q.OrderDir == Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	if limit := q.effectiveLimit(); limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	return b.String(), args, nil
}

// compile-time interface check
var _ Backend = (*SQLBackend)(nil)
var _ Rows = (*sql.Rows)(nil)
