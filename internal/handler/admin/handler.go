package admin

import (
	"context"
	"net/http"
	"time"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/telemetry"
)

// BridgeCache 外部统计源缓存
type BridgeCache interface {
	Fetch(ctx context.Context) (bridge.Metrics, error)
	Invalidate()
	CachedAt() (time.Time, bool)
	Mode() bridge.Mode
}

// Handler 管理接口处理器
type Handler struct {
	store     *analytics.Store
	bridge    BridgeCache
	recorder  *telemetry.Recorder
	instance  string
	startedAt time.Time
	metrics   http.Handler
}

// NewHandler 创建管理接口处理器
func NewHandler(store *analytics.Store, b BridgeCache, recorder *telemetry.Recorder, instance string) *Handler {
	h := &Handler{
		store:     store,
		bridge:    b,
		recorder:  recorder,
		instance:  instance,
		startedAt: time.Now(),
	}
	if recorder != nil {
		h.metrics = recorder.Handler()
	}
	return h
}

// Response 通用响应结构
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
