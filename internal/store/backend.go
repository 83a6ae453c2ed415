package store

import "context"

// Auth はバックエンドへの1回の呼び出しで使用する認証情報。
// SQLBackendでは使用しない。
type Auth struct {
	Key   string // APIキー（apikeyヘッダー）
	Token string // Bearerトークン（セッションのアクセストークンまたはAPIキー）
}

// Rows はクエリ結果の行を順に読み出すためのインターフェース。
// *sql.Rowsはこのインターフェースを満たす。
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Backend はコンテンツストアの実装を表す。
type Backend interface {
	// Query はクエリを実行して結果行を返す。
	// Queryは呼び出し前に検証済みであること。
	Query(ctx context.Context, q Query, auth Auth) (Rows, error)

	// Ping はバックエンドへの疎通を確認する。
	Ping(ctx context.Context, auth Auth) error
}
