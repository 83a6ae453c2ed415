// Package submission は問い合わせフォームの送信内容を外部のWebhookへ転送する。
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hitoshi/ledgersite/internal/metrics"
)

// RequestIDHeader は転送時に付与するリクエストIDのヘッダー名。
const RequestIDHeader = "X-Request-ID"

var (
	// ErrInvalidPayload は送信内容がJSONオブジェクトでない場合のエラー。
	ErrInvalidPayload = errors.New("送信内容はJSONオブジェクトである必要があります")
	// ErrNotConfigured は転送先が設定されていない場合のエラー。
	ErrNotConfigured = errors.New("問い合わせの転送先が設定されていません")
)

// RejectedError は転送先が送信内容を受け付けなかったことを表す。
// 利用者の入力に起因するため、クライアントには400として返す。
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("問い合わせが受け付けられませんでした (status %d): %s", e.StatusCode, e.Message)
}

// webhookResponse は転送先が返すレスポンス本文。
type webhookResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// Forwarder は問い合わせ内容をWebhookへ転送する。
type Forwarder struct {
	client     *resty.Client
	webhookURL string
	logger     *slog.Logger
	metrics    metrics.SubmissionRecorder
}

// NewForwarder はForwarderを生成する。
// httpClientにはSSRF対策済みのクライアントを渡すこと。
func NewForwarder(httpClient *http.Client, webhookURL string, logger *slog.Logger, rec metrics.SubmissionRecorder) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	client := resty.NewWithClient(httpClient).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Forwarder{
		client:     client,
		webhookURL: webhookURL,
		logger:     logger,
		metrics:    rec,
	}
}

// Submit は送信内容を検証して転送し、発行したリクエストIDを返す。
//
// 返すエラーの種類:
//   - ErrInvalidPayload: 本文がJSONオブジェクトでない
//   - *RejectedError: 転送先が4xxまたは success:false を返した
//   - それ以外: 未設定・通信失敗・転送先の5xx
func (f *Forwarder) Submit(ctx context.Context, body []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		f.metrics.RecordSubmission(metrics.SubmissionRejected)
		return "", ErrInvalidPayload
	}

	if f.webhookURL == "" {
		f.metrics.RecordSubmission(metrics.SubmissionFailed)
		return "", ErrNotConfigured
	}

	requestID := uuid.NewString()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		SetBody(payload).
		Post(f.webhookURL)
	if err != nil {
		f.metrics.RecordSubmission(metrics.SubmissionFailed)
		f.logger.Error("submission forward failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return requestID, fmt.Errorf("問い合わせの転送に失敗しました: %w", err)
	}

	if err := interpret(resp.StatusCode(), resp.Body()); err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			f.metrics.RecordSubmission(metrics.SubmissionRejected)
			f.logger.Info("submission rejected",
				slog.String("request_id", requestID),
				slog.Int("status", rejected.StatusCode),
				slog.String("reason", rejected.Message),
			)
		} else {
			f.metrics.RecordSubmission(metrics.SubmissionFailed)
			f.logger.Error("submission forward failed",
				slog.String("request_id", requestID),
				slog.Int("status", resp.StatusCode()),
			)
		}
		return requestID, err
	}

	f.metrics.RecordSubmission(metrics.SubmissionAccepted)
	f.logger.Info("submission forwarded", slog.String("request_id", requestID))
	return requestID, nil
}

// interpret は転送先のレスポンスを成功・拒否・失敗に分類する。
func interpret(status int, body []byte) error {
	var wr webhookResponse
	// 本文が空またはJSONでない場合はステータスだけで判定する
	_ = json.Unmarshal(body, &wr)

	switch {
	case status >= 500:
		return fmt.Errorf("転送先がエラーを返しました: status %d", status)
	case status >= 400:
		msg := wr.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &RejectedError{StatusCode: status, Message: msg}
	case status < 200 || status >= 300:
		return fmt.Errorf("転送先から想定外のステータスが返りました: status %d", status)
	case wr.Success != nil && !*wr.Success:
		msg := wr.Error
		if msg == "" {
			msg = "送信内容が受け付けられませんでした"
		}
		return &RejectedError{StatusCode: status, Message: msg}
	default:
		return nil
	}
}
