// Package exporter 将本地统计与外部统计源拼接为 Prometheus 文本格式。
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/exposition"
	"portfolio/internal/telemetry"
)

var errNoBridge = errors.New("no bridge configured")

// Separator 本地指标与外部指标之间的分隔注释
const Separator = "# --- GA4 bridge metrics ---"

// Fetcher 外部统计数据来源
type Fetcher interface {
	Fetch(ctx context.Context) (bridge.Metrics, error)
}

// SnapshotReader 本地统计数据来源
type SnapshotReader interface {
	Snapshot() analytics.Snapshot
}

// Exporter 组装 /api/metrics 的导出内容
type Exporter struct {
	store    SnapshotReader
	fetcher  Fetcher
	instance string
	recorder *telemetry.Recorder
	logger   *slog.Logger
}

// Option Exporter 选项
type Option func(*Exporter)

// WithInstance 在输出头部标注实例 ID
func WithInstance(id string) Option {
	return func(e *Exporter) { e.instance = id }
}

// WithRecorder 设置自监控
func WithRecorder(r *telemetry.Recorder) Option {
	return func(e *Exporter) { e.recorder = r }
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// New 创建 Exporter，fetcher 可为 nil（仅导出本地统计）
func New(store SnapshotReader, fetcher Fetcher, opts ...Option) *Exporter {
	e := &Exporter{store: store, fetcher: fetcher}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Export 生成完整的导出文本
//
// 外部统计源失败或 panic 时只输出本地统计，并附一行说明，从不返回错误。
func (e *Exporter) Export(ctx context.Context) string {
	start := time.Now()

	var b strings.Builder
	if e.instance != "" {
		fmt.Fprintf(&b, "# instance: %s\n", e.instance)
	}

	storeText, err := FormatStore(e.store.Snapshot())
	if err != nil {
		// 固定结构的指标族编码失败只可能是程序错误
		e.logger.Error("编码本地统计指标失败", "error", err)
		fmt.Fprintf(&b, "# portfolio metrics unavailable: %s\n", oneLine(err.Error()))
	} else {
		b.WriteString(storeText)
	}

	b.WriteByte('\n')
	b.WriteString(Separator)
	b.WriteByte('\n')

	bridgeText, err := e.bridgeText(ctx)
	degraded := err != nil
	if degraded {
		e.logger.Warn("外部统计数据不可用，仅导出本地统计", "error", err)
		fmt.Fprintf(&b, "# ga4 bridge unavailable: %s\n", oneLine(err.Error()))
	} else {
		b.WriteString(bridgeText)
	}

	e.recorder.RecordExport(time.Since(start), degraded)
	return b.String()
}

func (e *Exporter) bridgeText(ctx context.Context) (text string, err error) {
	if e.fetcher == nil {
		return "", errNoBridge
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	m, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return "", err
	}
	return bridge.FormatExposition(m)
}

// FormatStore 将本地统计快照编码为指标族，顺序固定
func FormatStore(s analytics.Snapshot) (string, error) {
	pages := make([]exposition.LabeledValue, 0, len(analytics.PageCategories))
	for _, p := range analytics.PageCategories {
		pages = append(pages, exposition.LabeledValue{Label: p, Value: float64(s.PageViewsByPage[p])})
	}
	demos := make([]exposition.LabeledValue, 0, len(analytics.DemoTypes))
	for _, d := range analytics.DemoTypes {
		demos = append(demos, exposition.LabeledValue{Label: d, Value: float64(s.DemoClicksByType[d])})
	}

	var lastUpdated float64
	if !s.LastUpdated.IsZero() {
		lastUpdated = float64(s.LastUpdated.Unix())
	}

	return exposition.Encode(
		exposition.Counter("portfolio_page_views_total", "Total number of page views.", float64(s.PageViews)),
		exposition.CounterVec("portfolio_page_views", "Page views by page.", "page", pages),
		exposition.Counter("portfolio_demo_clicks_total", "Total number of demo clicks.", float64(s.DemoClicks)),
		exposition.CounterVec("portfolio_demo_clicks", "Demo clicks by demo type.", "demo_type", demos),
		exposition.CounterVec("portfolio_engagement_metrics", "Engagement counters.", "type", []exposition.LabeledValue{
			{Label: "contact_submissions", Value: float64(s.ContactSubmissions)},
			{Label: "project_views", Value: float64(s.ProjectViews)},
		}),
		exposition.GaugeVec("portfolio_performance_metrics", "Page performance reported by clients.", "type", []exposition.LabeledValue{
			{Label: "avg_page_load_time", Value: s.AvgPageLoadTime},
			{Label: "bounce_rate", Value: s.BounceRate},
		}),
		exposition.Gauge("portfolio_visitors_unique", "Number of unique visitors.", float64(s.UniqueVisitors)),
		exposition.Gauge("portfolio_active_users", "Currently active users.", s.ActiveUsers),
		exposition.Gauge("portfolio_last_updated_timestamp", "Unix time of the last recorded sample.", lastUpdated),
	)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
