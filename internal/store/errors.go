package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows はポイント検索で一致する行がなかったことを示す。
	ErrNoRows = errors.New("store: no rows")
	// ErrMultipleRows はポイント検索で複数行が一致したことを示す。
	ErrMultipleRows = errors.New("store: multiple rows")
	// ErrInvalidIdentifier はテーブル名・列名が不正なことを示す。
	ErrInvalidIdentifier = errors.New("store: invalid identifier")
)

// StatusError はHTTP型バックエンドが2xx以外を返したことを表す。
type StatusError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("store responded with status %d: %s", e.StatusCode, e.Message)
}
