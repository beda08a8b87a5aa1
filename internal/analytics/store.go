package analytics

import (
	"fmt"
	"sync"
	"time"
)

// Options 统计存储选项
type Options struct {
	// MaxUniqueVisitors 大于 0 时独立访客集合按 LRU 限制容量
	MaxUniqueVisitors int
	// Now 时钟，测试时可替换
	Now func() time.Time
}

// Store 进程内的指标聚合
//
// 数据只存在于当前进程内存：重启后清零，多实例部署时各实例分别计数，
// 任一实例导出的总数都只是全局的一部分。
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	pageViews          uint64
	pageViewsByPage    map[string]uint64
	demoClicks         uint64
	demoClicksByType   map[string]uint64
	contactSubmissions uint64
	projectViews       uint64

	avgPageLoadTime float64
	bounceRate      float64
	activeUsers     float64

	visitors    visitorSet
	lastUpdated time.Time
}

// NewStore 创建统计存储
func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		now:              now,
		pageViewsByPage:  make(map[string]uint64, len(PageCategories)),
		demoClicksByType: make(map[string]uint64, len(DemoTypes)),
		visitors:         newVisitorSet(opts.MaxUniqueVisitors),
	}
	for _, p := range PageCategories {
		s.pageViewsByPage[p] = 0
	}
	for _, d := range DemoTypes {
		s.demoClicksByType[d] = 0
	}
	return s
}

// Record 记录一条事件并返回记录后的快照
// 无法识别的事件返回 ErrUnknownMetricType，且不修改任何状态
func (s *Store) Record(sample Sample, clientID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := sample.(type) {
	case PageView:
		s.pageViews++
		s.pageViewsByPage[PageCategory(v.Page)]++
	case DemoClick:
		s.demoClicks++
		if dt := demoType(v.DemoType); dt != "" {
			s.demoClicksByType[dt]++
		}
	case ContactSubmission:
		s.contactSubmissions++
	case ProjectView:
		s.projectViews++
	case PerformanceUpdate:
		if v.LoadTime != nil {
			s.avgPageLoadTime = (s.avgPageLoadTime + *v.LoadTime) / 2
		}
		if v.BounceRate != nil {
			s.bounceRate = *v.BounceRate
		}
	case ActiveUsersUpdate:
		s.activeUsers = max(v.Count, 0)
	default:
		return Snapshot{}, fmt.Errorf("%w: %T", ErrUnknownMetricType, sample)
	}

	if clientID != "" {
		s.visitors.Add(clientID)
	}
	s.lastUpdated = s.now()

	return s.snapshotLocked(), nil
}

// Snapshot 返回当前统计的副本
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		PageViews:          s.pageViews,
		PageViewsByPage:    s.pageViewsByPage,
		DemoClicks:         s.demoClicks,
		DemoClicksByType:   s.demoClicksByType,
		ContactSubmissions: s.contactSubmissions,
		ProjectViews:       s.projectViews,
		AvgPageLoadTime:    s.avgPageLoadTime,
		BounceRate:         s.bounceRate,
		ActiveUsers:        s.activeUsers,
		UniqueVisitors:     s.visitors.Len(),
		LastUpdated:        s.lastUpdated,
	}.clone()
}
