package model

// Result は読み取り処理の結果を表す。
// 成功時はDataを、失敗時はReasonを保持する。
// 公開APIは失敗を空値に丸めて返すが、ログや呼び出し元が
// 「該当なし」と「取得失敗」を区別したい場合はResultを参照する。
type Result[T any] struct {
	Data   T
	Reason error
}

// Ok は成功結果を生成する。
func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Fail は失敗結果を生成する。Dataはゼロ値になる。
func Fail[T any](reason error) Result[T] {
	return Result[T]{Reason: reason}
}

// OK は結果が成功かどうかを返す。
func (r Result[T]) OK() bool {
	return r.Reason == nil
}

// Or は成功時はData、失敗時はfallbackを返す。
func (r Result[T]) Or(fallback T) T {
	if r.Reason != nil {
		return fallback
	}
	return r.Data
}
