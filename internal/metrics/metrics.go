// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// クエリ結果の分類
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// 送信結果の分類
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionFailed   = "failed"
)

// QueryRecorder はコンテンツ取得層が使うメトリクス記録のインターフェース。
type QueryRecorder interface {
	RecordQuery(table, outcome string, duration time.Duration)
	RecordUpdatesServed(count int)
}

// SubmissionRecorder は問い合わせ送信の結果を記録するインターフェース。
type SubmissionRecorder interface {
	RecordSubmission(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	queries       *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	updatesServed prometheus.Histogram
	submissions   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersite_content_queries_total",
			Help: "テーブル・結果別のコンテンツ取得数",
		}, []string{"table", "outcome"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgersite_content_query_seconds",
			Help:    "コンテンツ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		updatesServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgersite_updates_items",
			Help:    "新着情報フィード1回あたりの返却件数",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersite_submissions_total",
			Help: "結果別の問い合わせ送信数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.queries,
		c.queryLatency,
		c.updatesServed,
		c.submissions,
	)

	return c
}

// RecordQuery はコンテンツ取得1回の結果とレイテンシを記録する。
func (c *Collector) RecordQuery(table, outcome string, duration time.Duration) {
	c.queries.WithLabelValues(table, outcome).Inc()
	c.queryLatency.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordUpdatesServed は新着情報フィードの返却件数を記録する。
func (c *Collector) RecordUpdatesServed(count int) {
	c.updatesServed.Observe(float64(count))
}

// RecordSubmission は問い合わせ送信の結果を記録する。
func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// Nop は何も記録しない実装。メトリクスを使わない実行（slugsコマンドやテスト）で使う。
type Nop struct{}

func (Nop) RecordQuery(string, string, time.Duration) {}
func (Nop) RecordUpdatesServed(int)                  {}
func (Nop) RecordSubmission(string)                  {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ QueryRecorder      = (*Collector)(nil)
	_ SubmissionRecorder = (*Collector)(nil)
	_ QueryRecorder      = Nop{}
	_ SubmissionRecorder = Nop{}
)
