// Package telemetry 服务自身的运行指标。
//
// 与 /api/metrics 导出的业务数据不同，这里记录的是服务本身的行为：
// 上报结果、外部数据源缓存命中、降级次数等，通过管理接口以标准
// Prometheus 格式暴露。所有方法对 nil 接收者安全。
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio_server"

// 上报结果
const (
	ResultAccepted  = "accepted"
	ResultRejected  = "rejected"
	ResultMalformed = "malformed"
	ResultError     = "error"
)

// Recorder 自监控指标集合
type Recorder struct {
	registry *prometheus.Registry

	ingestTotal         *prometheus.CounterVec
	bridgeFetchTotal    *prometheus.CounterVec
	bridgeFallbackTotal *prometheus.CounterVec
	exportDegraded      prometheus.Counter
	exportDuration      prometheus.Histogram
}

// NewRecorder 创建并注册自监控指标，registry 为 nil 时新建
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: registry,
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Metric samples received on POST /api/metrics by type and result.",
		}, []string{"metric_type", "result"}),
		bridgeFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_fetch_total",
			Help:      "External metrics bridge reads by cache result.",
		}, []string{"cache"}),
		bridgeFallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_fallback_total",
			Help:      "Times the bridge fell back to simulated data.",
		}, []string{"reason"}),
		exportDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_degraded_total",
			Help:      "Exports served without bridge metrics.",
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent building the exposition body.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	registry.MustRegister(
		r.ingestTotal,
		r.bridgeFetchTotal,
		r.bridgeFallbackTotal,
		r.exportDegraded,
		r.exportDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordIngest 记录一次上报结果
func (r *Recorder) RecordIngest(metricType, result string) {
	if r == nil {
		return
	}
	if metricType == "" {
		metricType = "unknown"
	}
	r.ingestTotal.WithLabelValues(metricType, result).Inc()
}

// RecordBridgeFetch 记录外部数据源缓存命中情况
func (r *Recorder) RecordBridgeFetch(hit bool) {
	if r == nil {
		return
	}
	cache := "miss"
	if hit {
		cache = "hit"
	}
	r.bridgeFetchTotal.WithLabelValues(cache).Inc()
}

// RecordBridgeFallback 记录一次回退到模拟数据
func (r *Recorder) RecordBridgeFallback(reason string) {
	if r == nil {
		return
	}
	r.bridgeFallbackTotal.WithLabelValues(reason).Inc()
}

// RecordExport 记录一次导出耗时及是否降级
func (r *Recorder) RecordExport(d time.Duration, degraded bool) {
	if r == nil {
		return
	}
	r.exportDuration.Observe(d.Seconds())
	if degraded {
		r.exportDegraded.Inc()
	}
}

// Registry 返回底层 Registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler 自监控指标的 HTTP 处理器
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
