package bridge

import (
	"fmt"

	"portfolio/internal/exposition"
)

// FormatExposition 将外部统计数据转换为 Prometheus 文本格式
// 指标族顺序固定：实时 → 当日 → 近 7 天 → 性能 → 互动 → 更新时间
func FormatExposition(m Metrics) (string, error) {
	source := m.Source
	if source == "" {
		source = ModeSimulated
	}

	body, err := exposition.Encode(
		// 实时
		exposition.Gauge("ga4_active_users", "Active users in the last 30 minutes.", float64(m.Realtime.ActiveUsers)),
		exposition.Gauge("ga4_realtime_page_views", "Page views in the last 30 minutes.", float64(m.Realtime.PageViews)),

		// 当日
		exposition.Gauge("ga4_daily_users", "Users today.", float64(m.Daily.Users)),
		exposition.Gauge("ga4_daily_page_views", "Page views today.", float64(m.Daily.PageViews)),
		exposition.Gauge("ga4_daily_sessions", "Sessions today.", float64(m.Daily.Sessions)),
		exposition.Gauge("ga4_bounce_rate", "Bounce rate today (0-1).", m.Daily.BounceRate),
		exposition.GaugeVec("ga4_demo_clicks", "Demo clicks today by demo type.", "demo_type", []exposition.LabeledValue{
			{Label: "chat", Value: float64(m.Daily.DemoClicks.Chat)},
			{Label: "dashboard", Value: float64(m.Daily.DemoClicks.Dashboard)},
		}),
		exposition.Gauge("ga4_unique_countries", "Distinct visitor countries today.", float64(m.Daily.UniqueCountries)),

		// 近 7 天
		exposition.Gauge("ga4_weekly_users", "Users in the last 7 days.", float64(m.Weekly.Users)),
		exposition.Gauge("ga4_weekly_page_views", "Page views in the last 7 days.", float64(m.Weekly.PageViews)),
		exposition.Gauge("ga4_weekly_sessions", "Sessions in the last 7 days.", float64(m.Weekly.Sessions)),

		exposition.GaugeVec("ga4_performance_metrics", "Page performance from the analytics source.", "type", []exposition.LabeledValue{
			{Label: "avg_page_load_ms", Value: m.Performance.AvgPageLoadMillis},
			{Label: "avg_session_duration_seconds", Value: m.Performance.AvgSessionSeconds},
		}),

		exposition.GaugeVec("ga4_engagement_metrics", "Engagement from the analytics source.", "type", []exposition.LabeledValue{
			{Label: "contact_submissions", Value: float64(m.Engagement.ContactSubmissions)},
			{Label: "project_views", Value: float64(m.Engagement.ProjectViews)},
			{Label: "pages_per_session", Value: m.Engagement.PagesPerSession},
		}),

		exposition.Gauge("ga4_last_updated_timestamp", "Unix time the analytics data was produced.", unixSeconds(m)),
	)
	if err != nil {
		return "", fmt.Errorf("编码外部统计指标失败: %w", err)
	}

	return fmt.Sprintf("# ga4 source: %s\n", source) + body, nil
}

func unixSeconds(m Metrics) float64 {
	if m.LastUpdated.IsZero() {
		return 0
	}
	return float64(m.LastUpdated.Unix())
}
