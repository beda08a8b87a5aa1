package admin

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes 注册管理路由
func (h *Handler) RegisterRoutes(g *echo.Group) {
	// 系统
	g.GET("/health", h.Health)
	g.GET("/stats", h.Stats)

	// 自监控
	if h.metrics != nil {
		g.GET("/metrics", echo.WrapHandler(h.metrics))
	}

	// 外部统计源
	g.POST("/bridge/refresh", h.RefreshBridge)
}
