package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health 健康检查
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Data: map[string]any{
			"status":    "healthy",
			"instance":  h.instance,
			"timestamp": time.Now(),
		},
	})
}

// Stats 本地统计的 JSON 视图
func (h *Handler) Stats(c echo.Context) error {
	data := map[string]any{
		"instance":       h.instance,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"metrics":        h.store.Snapshot(),
	}
	if h.bridge != nil {
		bridgeInfo := map[string]any{"mode": h.bridge.Mode()}
		if at, ok := h.bridge.CachedAt(); ok {
			bridgeInfo["cached_at"] = at
		}
		data["bridge"] = bridgeInfo
	}

	return c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RefreshBridge 清除外部统计源缓存并立即重新获取
func (h *Handler) RefreshBridge(c echo.Context) error {
	if h.bridge == nil {
		return c.JSON(http.StatusNotFound, Response{
			Success: false,
			Message: "外部统计源未启用",
		})
	}

	h.bridge.Invalidate()
	m, err := h.bridge.Fetch(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: fmt.Sprintf("刷新失败: %v", err),
		})
	}

	return c.JSON(http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("刷新成功，数据来源: %s", m.Source),
		Data:    m,
	})
}
