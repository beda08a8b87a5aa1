package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

var (
	// ErrUnknownMetricType 不支持的 metric_type
	ErrUnknownMetricType = errors.New("unknown metric type")
	// ErrMalformedSample 请求体不是合法的 JSON 对象
	ErrMalformedSample = errors.New("malformed metric sample")
)

// MetricType 客户端上报的事件类型
type MetricType string

const (
	TypePageView          MetricType = "page_view"
	TypeDemoClick         MetricType = "demo_click"
	TypeContactSubmission MetricType = "contact_submission"
	TypeProjectView       MetricType = "project_view"
	TypePerformanceUpdate MetricType = "performance_update"
	TypeActiveUsersUpdate MetricType = "active_users_update"
)

// MetricTypes 全部可识别的事件类型
var MetricTypes = []MetricType{
	TypePageView,
	TypeDemoClick,
	TypeContactSubmission,
	TypeProjectView,
	TypePerformanceUpdate,
	TypeActiveUsersUpdate,
}

// ParseMetricType 解析事件类型
func ParseMetricType(s string) (MetricType, error) {
	for _, t := range MetricTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetricType, s)
}

// Sample 单条上报事件，每种事件类型对应一个具体结构
type Sample interface {
	Type() MetricType
	sample()
}

// PageView 页面浏览
type PageView struct {
	Page string
}

// DemoClick 演示入口点击
type DemoClick struct {
	DemoType string
}

// ContactSubmission 联系表单提交
type ContactSubmission struct{}

// ProjectView 项目详情浏览
type ProjectView struct {
	Project string
}

// PerformanceUpdate 前端性能数据，字段缺失或非法时为 nil
type PerformanceUpdate struct {
	LoadTime   *float64 // 毫秒
	BounceRate *float64 // [0,1]
}

// ActiveUsersUpdate 当前在线人数
type ActiveUsersUpdate struct {
	Count float64
}

func (PageView) Type() MetricType          { return TypePageView }
func (DemoClick) Type() MetricType         { return TypeDemoClick }
func (ContactSubmission) Type() MetricType { return TypeContactSubmission }
func (ProjectView) Type() MetricType       { return TypeProjectView }
func (PerformanceUpdate) Type() MetricType { return TypePerformanceUpdate }
func (ActiveUsersUpdate) Type() MetricType { return TypeActiveUsersUpdate }

func (PageView) sample()          {}
func (DemoClick) sample()         {}
func (ContactSubmission) sample() {}
func (ProjectView) sample()       {}
func (PerformanceUpdate) sample() {}
func (ActiveUsersUpdate) sample() {}

// envelope POST /api/metrics 请求体
type envelope struct {
	MetricType  string          `json:"metric_type"`
	MetricValue json.RawMessage `json:"metric_value"`
	Metadata    json.RawMessage `json:"metadata"`
}

// DecodeSample 解析上报的 JSON
// metadata 中无法识别或类型不对的字段按缺失处理，不会报错
func DecodeSample(data []byte) (Sample, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSample, err)
	}

	t, err := ParseMetricType(env.MetricType)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	if len(env.Metadata) > 0 {
		// 非对象的 metadata 视为空
		_ = json.Unmarshal(env.Metadata, &meta)
	}

	switch t {
	case TypePageView:
		return PageView{Page: stringField(meta, "page")}, nil
	case TypeDemoClick:
		return DemoClick{DemoType: stringField(meta, "demo_type")}, nil
	case TypeContactSubmission:
		return ContactSubmission{}, nil
	case TypeProjectView:
		project := stringField(meta, "project")
		if project == "" {
			project = stringField(meta, "project_name")
		}
		return ProjectView{Project: project}, nil
	case TypePerformanceUpdate:
		p := PerformanceUpdate{}
		if v, ok := numberField(meta, "load_time"); ok && v >= 0 {
			p.LoadTime = &v
		}
		if v, ok := numberField(meta, "bounce_rate"); ok && v >= 0 && v <= 1 {
			p.BounceRate = &v
		}
		return p, nil
	case TypeActiveUsersUpdate:
		count, _ := toNumber(rawValue(env.MetricValue))
		return ActiveUsersUpdate{Count: math.Max(count, 0)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetricType, env.MetricType)
}

func rawValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func stringField(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func numberField(meta map[string]any, key string) (float64, bool) {
	v, ok := meta[key]
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// toNumber 宽松地转换为数字，接受数字和数字字符串
func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool, map[string]any, []any:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
