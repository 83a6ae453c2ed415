package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// restPathPrefix はPostgREST互換APIのテーブルエンドポイントの接頭辞。
const restPathPrefix = "/rest/v1"

// RESTBackend はURLとAPIキーで到達するホスト型ストア（PostgREST互換）のBackend実装。
type RESTBackend struct {
	client *resty.Client
}

// NewRESTBackend はRESTBackendを生成する。
// baseURLはストアのプロジェクトURL（例: "https://xyz.example.co"）を指定する。
// timeoutはHTTPクライアントのタイムアウトで、応答のないストアへの呼び出しはここで打ち切られる。
func NewRESTBackend(baseURL string, timeout time.Duration) *RESTBackend {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+restPathPrefix).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RESTBackend{client: client}
}

// Query はQueryをPostgRESTのクエリ文字列に変換してGETリクエストを発行する。
func (b *RESTBackend) Query(ctx context.Context, q Query, auth Auth) (Rows, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	resp, err := b.request(ctx, auth).
		SetQueryParamsFromValues(restParams(q)).
		Get("/" + q.Table)
	if err != nil {
		return nil, fmt.Errorf("%sの取得に失敗しました: %w", q.Table, err)
	}
	if resp.IsError() {
		return nil, statusErrorFrom(resp.StatusCode(), resp.Body())
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%sの応答の解析に失敗しました: %w", q.Table, err)
	}

	return &jsonRows{columns: q.Columns, records: records, pos: -1}, nil
}

// Ping はストアのルートエンドポイントへの疎通を確認する。
func (b *RESTBackend) Ping(ctx context.Context, auth Auth) error {
	resp, err := b.request(ctx, auth).Get("/")
	if err != nil {
		return fmt.Errorf("ストアへの疎通確認に失敗しました: %w", err)
	}
	if resp.IsError() {
		return statusErrorFrom(resp.StatusCode(), resp.Body())
	}
	return nil
}

func (b *RESTBackend) request(ctx context.Context, auth Auth) *resty.Request {
	req := b.client.R().SetContext(ctx)
	if auth.Key != "" {
		req.SetHeader("apikey", auth.Key)
	}
	if auth.Token != "" {
		req.SetAuthToken(auth.Token)
	}
	return req
}

// restParams はQueryをPostgRESTのクエリパラメータに変換する。
//
//	select=a,b&published=eq.true&order=created_at.desc&limit=5
func restParams(q Query) url.Values {
	params := url.Values{}
	params.Set("select", strings.Join(q.Columns, ","))
	for _, f := range q.Filters {
		params.Add(f.Column, "eq."+formatValue(f.Value))
	}
	if q.OrderColumn != "" {
		dir := "asc"
		if q.OrderDir == Desc {
			dir = "desc"
		}
		params.Set("order", q.OrderColumn+"."+dir)
	}
	if limit := q.effectiveLimit(); limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// statusErrorFrom はエラー応答のボディからPostgRESTのmessageを取り出してStatusErrorを生成する。
func statusErrorFrom(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	return &StatusError{StatusCode: status, Message: payload.Message}
}

func decodeRecords(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// compile-time interface check
var _ Backend = (*RESTBackend)(nil)
