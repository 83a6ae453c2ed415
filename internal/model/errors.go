// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: content, validation, submission, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeContentNotFound  = "CONTENT_NOT_FOUND"
	ErrCodeInvalidLimit     = "INVALID_LIMIT"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeCSRFInvalid      = "CSRF_TOKEN_INVALID"
	ErrCodeSubmissionFailed = "SUBMISSION_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
// 非公開のコンテンツも同じエラーになる。
func NewContentNotFoundError(kind, slug string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %s", kind, slug),
		Category: "content",
		Action:   "URLを確認するか、一覧ページからお探しください。",
	}
}

// NewInvalidLimitError は件数指定が不正な場合のエラーを生成する。
func NewInvalidLimitError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLimit,
		Message:  fmt.Sprintf("無効な件数指定です: %s", raw),
		Category: "validation",
		Action:   "limitには1以上の整数を指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの解析に失敗しました: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "短時間に送信が集中しています。",
		Category: "submission",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証に失敗した場合のエラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "validation",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
