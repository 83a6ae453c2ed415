package handler

import (
	"net/http"

	"github.com/hitoshi/ledgersite/internal/feed"
	"github.com/hitoshi/ledgersite/internal/middleware"
)

// UpdatesHandler は新着情報（お知らせとインサイトの混在フィード）を返すハンドラー。
type UpdatesHandler struct {
	reader ReaderFunc
	rss    *feed.RSSGenerator
}

// NewUpdatesHandler はUpdatesHandlerを生成する。
func NewUpdatesHandler(reader ReaderFunc, rss *feed.RSSGenerator) *UpdatesHandler {
	return &UpdatesHandler{reader: reader, rss: rss}
}

// Latest は新着情報をJSONで返す。
// GET /api/updates?limit=N
func (h *UpdatesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimit(r, defaultUpdatesLimit)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, h.reader(w, r).LatestUpdates(r.Context(), limit))
}

// RSS は新着情報をRSS 2.0で返す。
// GET /updates.rss
func (h *UpdatesHandler) RSS(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimit(r, defaultRSSLimit)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	items := h.reader(w, r).LatestUpdates(r.Context(), limit)

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.rss.Generate(items))
}
