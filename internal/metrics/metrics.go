// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 取り込みパイプラインとHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordRefreshSuccess(feedID string)
	RecordRefreshFailure(feedID string, reason string)
	RecordParseFailure(feedID string)
	RecordHTTPStatus(statusCode int)
	RecordRefreshLatency(duration time.Duration)
	RecordArticlesInserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	refreshSuccess   prometheus.Counter
	refreshFail      prometheus.Counter
	parseFail        prometheus.Counter
	httpStatus       *prometheus.CounterVec
	refreshLatency   prometheus.Histogram
	articlesInserted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssreader_refresh_success_total",
			Help: "フィード更新成功の合計数",
		}),
		refreshFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssreader_refresh_fail_total",
			Help: "フィード更新失敗の合計数",
		}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssreader_parse_fail_total",
			Help: "フィードパース失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssreader_http_status_total",
			Help: "APIレスポンスのHTTPステータスコード別の合計数",
		}, []string{"status_code"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rssreader_refresh_latency_seconds",
			Help:    "フィード更新1件のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		articlesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssreader_articles_inserted_total",
			Help: "新規保存された記事の合計数",
		}),
	}

	reg.MustRegister(
		c.refreshSuccess,
		c.refreshFail,
		c.parseFail,
		c.httpStatus,
		c.refreshLatency,
		c.articlesInserted,
	)

	return c
}

// RecordRefreshSuccess はフィード更新成功を記録する。
func (c *Collector) RecordRefreshSuccess(feedID string) {
	c.refreshSuccess.Inc()
}

// RecordRefreshFailure はフィード更新失敗を記録する。
func (c *Collector) RecordRefreshFailure(feedID string, reason string) {
	c.refreshFail.Inc()
}

// RecordParseFailure はパース失敗を記録する。
func (c *Collector) RecordParseFailure(feedID string) {
	c.parseFail.Inc()
}

// RecordHTTPStatus はAPIレスポンスのHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRefreshLatency はフィード更新1件のレイテンシを記録する。
func (c *Collector) RecordRefreshLatency(duration time.Duration) {
	c.refreshLatency.Observe(duration.Seconds())
}

// RecordArticlesInserted は新規保存された記事数を記録する。
func (c *Collector) RecordArticlesInserted(count int) {
	c.articlesInserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
