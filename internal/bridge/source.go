package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoCredentials 真实数据源缺少 endpoint 或 token
var ErrNoCredentials = errors.New("live analytics source requires endpoint and api token")

const maxResponseBytes = 1 << 20

// Source 外部统计数据来源
type Source interface {
	Fetch(ctx context.Context) (Metrics, error)
}

// SimulatedSource 生成模拟数据，不依赖网络，也不读写本地统计
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulatedSource 创建模拟数据源，rng 为 nil 时使用随机种子
func NewSimulatedSource(rng *rand.Rand, now func() time.Time) *SimulatedSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &SimulatedSource{rng: rng, now: now}
}

// Fetch 实现 Source
func (s *SimulatedSource) Fetch(_ context.Context) (Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Generate(s.rng, s.now()), nil
}

// Generate 在合理范围内生成一组模拟数据，结果只取决于 rng 和 now
func Generate(rng *rand.Rand, now time.Time) Metrics {
	between := func(lo, hi int64) int64 { return lo + rng.Int64N(hi-lo+1) }
	ratio := func(lo, hi float64) float64 { return round(lo+rng.Float64()*(hi-lo), 2) }

	dailyUsers := between(40, 200)
	weeklyUsers := dailyUsers * between(5, 7)

	return Metrics{
		Realtime: Realtime{
			ActiveUsers: between(1, 25),
			PageViews:   between(5, 80),
		},
		Daily: Daily{
			Users:      dailyUsers,
			PageViews:  int64(float64(dailyUsers) * ratio(1.5, 4)),
			Sessions:   int64(float64(dailyUsers) * ratio(1.1, 1.6)),
			BounceRate: ratio(0.25, 0.6),
			DemoClicks: DemoClicks{
				Chat:      between(5, 40),
				Dashboard: between(3, 30),
			},
			UniqueCountries: between(5, 35),
		},
		Weekly: Weekly{
			Users:     weeklyUsers,
			PageViews: int64(float64(weeklyUsers) * ratio(1.5, 4)),
			Sessions:  int64(float64(weeklyUsers) * ratio(1.1, 1.6)),
		},
		Performance: Performance{
			AvgPageLoadMillis: round(800+rng.Float64()*1700, 1),
			AvgSessionSeconds: round(60+rng.Float64()*240, 1),
		},
		Engagement: Engagement{
			ContactSubmissions: between(0, 5),
			ProjectViews:       between(20, 150),
			PagesPerSession:    ratio(1.5, 4.5),
		},
		LastUpdated: now,
		Source:      ModeSimulated,
	}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// LiveConfig 真实数据源配置
type LiveConfig struct {
	Endpoint   string
	PropertyID string
	APIToken   string
	Timeout    time.Duration
	Client     *http.Client
}

// LiveSource 通过 HTTP 拉取统计服务的报表
type LiveSource struct {
	endpoint   string
	propertyID string
	token      string
	timeout    time.Duration
	client     *http.Client
}

// NewLiveSource 创建真实数据源，缺少凭据时返回 ErrNoCredentials
func NewLiveSource(cfg LiveConfig) (*LiveSource, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, ErrNoCredentials
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &LiveSource{
		endpoint:   cfg.Endpoint,
		propertyID: cfg.PropertyID,
		token:      cfg.APIToken,
		timeout:    cfg.Timeout,
		client:     cfg.Client,
	}, nil
}

// Fetch 单次请求，不重试
func (s *LiveSource) Fetch(ctx context.Context) (Metrics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return Metrics{}, fmt.Errorf("构造请求失败: %w", err)
	}
	if s.propertyID != "" {
		q := req.URL.Query()
		q.Set("property_id", s.propertyID)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Metrics{}, fmt.Errorf("请求统计服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Metrics{}, fmt.Errorf("统计服务返回状态码 %d", resp.StatusCode)
	}

	var m Metrics
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&m); err != nil {
		return Metrics{}, fmt.Errorf("解析统计服务响应失败: %w", err)
	}
	if m.LastUpdated.IsZero() {
		m.LastUpdated = time.Now()
	}
	m.Source = ModeLive
	return m, nil
}
