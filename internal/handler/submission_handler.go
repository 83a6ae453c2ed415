package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/submission"
)

// maxSubmissionBytes は問い合わせ本文の最大サイズ。
const maxSubmissionBytes = 64 << 10

const (
	msgSubmissionInvalid = "送信内容を読み取れませんでした。入力内容をご確認ください。"
	msgSubmissionFailed  = "送信に失敗しました。しばらく待ってから再度お試しください。"
)

// Submitter は問い合わせ内容を転送する。
type Submitter interface {
	Submit(ctx context.Context, body []byte) (string, error)
}

// submissionResponse は問い合わせ送信エンドポイントのレスポンス。
type submissionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SubmissionHandler は問い合わせ送信のHTTPハンドラー。
type SubmissionHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewSubmissionHandler はSubmissionHandlerを生成する。
func NewSubmissionHandler(submitter Submitter, logger *slog.Logger) *SubmissionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionHandler{submitter: submitter, logger: logger}
}

// Create は問い合わせを転送する。
// POST /api/service-requests
//
// 成功は200、本文の不備や転送先での拒否は400、それ以外の失敗は500を
// いずれも {success, error} の形で返す。
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("panic in submission handler",
				slog.Any("panic", rec),
				slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			)
			writeJSON(w, http.StatusInternalServerError, submissionResponse{Error: msgSubmissionFailed})
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, submissionResponse{Error: msgSubmissionInvalid})
		return
	}

	requestID, err := h.submitter.Submit(r.Context(), body)
	if err != nil {
		var rejected *submission.RejectedError
		switch {
		case errors.Is(err, submission.ErrInvalidPayload):
			writeJSON(w, http.StatusBadRequest, submissionResponse{Error: msgSubmissionInvalid})
		case errors.As(err, &rejected):
			writeJSON(w, http.StatusBadRequest, submissionResponse{Error: rejected.Message})
		default:
			h.logger.Error("submission failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			)
			writeJSON(w, http.StatusInternalServerError, submissionResponse{Error: msgSubmissionFailed})
		}
		return
	}

	h.logger.Info("submission forwarded",
		slog.String("submission_id", requestID),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	writeJSON(w, http.StatusOK, submissionResponse{Success: true})
}
