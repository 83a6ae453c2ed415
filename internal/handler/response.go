// Package handler はHTTP APIのルーティングとハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/ledgersite/internal/model"
)

const (
	// maxLimit は一覧系エンドポイントで指定できる件数の上限。超えた値は丸める。
	maxLimit = 50

	defaultUpdatesLimit = 3
	defaultRSSLimit     = 20
)

// writeJSON は値をJSONとして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// parseLimit はクエリパラメータlimitを解釈する。
// 未指定ならdefで、1未満や整数でない値はINVALID_LIMIT、maxLimit超はmaxLimitに丸める。
func parseLimit(r *http.Request, def int) (int, *model.APIError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, model.NewInvalidLimitError(raw)
	}
	return min(n, maxLimit), nil
}
