package bridge

import "time"

// Mode 数据来源
type Mode string

const (
	// ModeSimulated 本地生成的模拟数据
	ModeSimulated Mode = "simulated"
	// ModeLive 真实统计服务
	ModeLive Mode = "live"
)

// Metrics 外部统计源的数据，字段与统计服务报表接口一致
type Metrics struct {
	Realtime    Realtime    `json:"realtime"`
	Daily       Daily       `json:"daily"`
	Weekly      Weekly      `json:"weekly"`
	Performance Performance `json:"performance"`
	Engagement  Engagement  `json:"engagement"`
	LastUpdated time.Time   `json:"last_updated"`

	// Source 实际产出数据的来源，不参与反序列化
	Source Mode `json:"-"`
}

// Realtime 最近 30 分钟
type Realtime struct {
	ActiveUsers int64 `json:"active_users"`
	PageViews   int64 `json:"page_views"`
}

// Daily 当天汇总
type Daily struct {
	Users           int64      `json:"users"`
	PageViews       int64      `json:"page_views"`
	Sessions        int64      `json:"sessions"`
	BounceRate      float64    `json:"bounce_rate"`
	DemoClicks      DemoClicks `json:"demo_clicks"`
	UniqueCountries int64      `json:"unique_countries"`
}

// DemoClicks 演示入口点击
type DemoClicks struct {
	Chat      int64 `json:"chat"`
	Dashboard int64 `json:"dashboard"`
}

// Weekly 最近 7 天
type Weekly struct {
	Users     int64 `json:"users"`
	PageViews int64 `json:"page_views"`
	Sessions  int64 `json:"sessions"`
}

// Performance 页面性能
type Performance struct {
	AvgPageLoadMillis float64 `json:"avg_page_load_ms"`
	AvgSessionSeconds float64 `json:"avg_session_duration_seconds"`
}

// Engagement 互动数据
type Engagement struct {
	ContactSubmissions int64   `json:"contact_submissions"`
	ProjectViews       int64   `json:"project_views"`
	PagesPerSession    float64 `json:"pages_per_session"`
}
