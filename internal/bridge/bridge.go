package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portfolio/internal/config"
	"portfolio/internal/telemetry"
)

const (
	// DefaultTTL 缓存有效期
	DefaultTTL = 5 * time.Minute

	cacheKey = "ga4_metrics"
)

type cacheEntry struct {
	data      Metrics
	timestamp time.Time
}

// Bridge 外部统计数据的缓存读取入口
//
// 缓存有效期内直接返回缓存；过期后同步重新获取并覆盖。
// 配置了真实数据源时优先使用，任何失败都回退到模拟数据，不向上返回。
type Bridge struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	ttl       time.Duration
	now       func() time.Time
	live      Source
	simulated Source
	recorder  *telemetry.Recorder
	logger    *slog.Logger
}

// Option Bridge 选项
type Option func(*Bridge)

// WithTTL 设置缓存有效期
func WithTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// WithLiveSource 启用真实数据源
func WithLiveSource(s Source) Option {
	return func(b *Bridge) { b.live = s }
}

// WithSimulatedSource 替换模拟数据源
func WithSimulatedSource(s Source) Option {
	return func(b *Bridge) { b.simulated = s }
}

// WithRecorder 设置自监控
func WithRecorder(r *telemetry.Recorder) Option {
	return func(b *Bridge) { b.recorder = r }
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New 创建 Bridge，默认使用模拟数据源
func New(opts ...Option) *Bridge {
	b := &Bridge{
		entries: make(map[string]cacheEntry, 1),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.simulated == nil {
		b.simulated = NewSimulatedSource(nil, b.now)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// NewFromConfig 按配置创建 Bridge
func NewFromConfig(cfg config.BridgeConfig, opts ...Option) *Bridge {
	base := []Option{WithTTL(cfg.CacheTTL())}

	if cfg.Mode == config.BridgeModeLive {
		live, err := NewLiveSource(LiveConfig{
			Endpoint:   cfg.Endpoint,
			PropertyID: cfg.PropertyID,
			APIToken:   cfg.APIToken,
			Timeout:    cfg.Timeout(),
		})
		if err != nil {
			slog.Warn("真实统计源未配置凭据，使用模拟数据", "error", err)
		} else {
			base = append(base, WithLiveSource(live))
		}
	}

	return New(append(base, opts...)...)
}

// Mode 当前配置的数据源模式
func (b *Bridge) Mode() Mode {
	if b.live != nil {
		return ModeLive
	}
	return ModeSimulated
}

// Fetch 读取外部统计数据
func (b *Bridge) Fetch(ctx context.Context) (Metrics, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if e, ok := b.entries[cacheKey]; ok && now.Sub(e.timestamp) < b.ttl {
		b.recorder.RecordBridgeFetch(true)
		return e.data, nil
	}
	b.recorder.RecordBridgeFetch(false)

	data, err := b.load(ctx)
	if err != nil {
		return Metrics{}, err
	}
	b.entries[cacheKey] = cacheEntry{data: data, timestamp: now}
	return data, nil
}

// Invalidate 清除缓存，下次 Fetch 重新获取
func (b *Bridge) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, cacheKey)
}

// CachedAt 返回缓存写入时间，无缓存时 ok 为 false
func (b *Bridge) CachedAt() (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[cacheKey]
	return e.timestamp, ok
}

func (b *Bridge) load(ctx context.Context) (Metrics, error) {
	if b.live != nil {
		data, err := b.live.Fetch(ctx)
		if err == nil {
			return data, nil
		}
		b.logger.Warn("获取真实统计数据失败，回退到模拟数据", "error", err)
		b.recorder.RecordBridgeFallback("live_error")
	}
	return b.simulated.Fetch(ctx)
}
