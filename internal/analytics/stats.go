package analytics

import (
	"maps"
	"strings"
	"time"
)

// 页面分类
const (
	PageHome     = "home"
	PageProjects = "projects"
	PageContact  = "contact"
	PageOther    = "other"
)

// 演示类型
const (
	DemoChat      = "chat"
	DemoDashboard = "dashboard"
)

// PageCategories 导出时页面分类的固定顺序
var PageCategories = []string{PageHome, PageProjects, PageContact, PageOther}

// DemoTypes 导出时演示类型的固定顺序
var DemoTypes = []string{DemoChat, DemoDashboard}

// Snapshot 统计数据的只读副本
type Snapshot struct {
	PageViews          uint64            `json:"page_views"`
	PageViewsByPage    map[string]uint64 `json:"page_views_by_page"`
	DemoClicks         uint64            `json:"demo_clicks"`
	DemoClicksByType   map[string]uint64 `json:"demo_clicks_by_type"`
	ContactSubmissions uint64            `json:"contact_submissions"`
	ProjectViews       uint64            `json:"project_views"`

	AvgPageLoadTime float64 `json:"avg_page_load_time"` // 毫秒
	BounceRate      float64 `json:"bounce_rate"`
	ActiveUsers     float64 `json:"active_users"`

	UniqueVisitors int       `json:"unique_visitors"`
	LastUpdated    time.Time `json:"last_updated"`
}

// clone 深拷贝，避免调用方通过 map 修改内部状态
func (s Snapshot) clone() Snapshot {
	s.PageViewsByPage = maps.Clone(s.PageViewsByPage)
	s.DemoClicksByType = maps.Clone(s.DemoClicksByType)
	return s
}

// PageCategory 将页面名归类为 home / projects / contact / other
func PageCategory(page string) string {
	p := strings.ToLower(strings.TrimSpace(page))
	p = strings.TrimPrefix(p, "/")
	switch {
	case p == "", p == "home", p == "index", p == "index.html":
		return PageHome
	case strings.Contains(p, "project"):
		return PageProjects
	case strings.Contains(p, "contact"):
		return PageContact
	default:
		return PageOther
	}
}

// demoType 归一化演示类型，未知类型返回空串
func demoType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case DemoChat:
		return DemoChat
	case DemoDashboard:
		return DemoDashboard
	default:
		return ""
	}
}
