package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/config"
	"portfolio/internal/exporter"
	"portfolio/internal/handler/admin"
	"portfolio/internal/handler/metrics"
	"portfolio/internal/middleware"
	"portfolio/internal/telemetry"
)

// Components 服务依赖的组件
type Components struct {
	Store    *analytics.Store
	Bridge   *bridge.Bridge
	Exporter *exporter.Exporter
	Recorder *telemetry.Recorder
	Instance string
}

// Server 应用服务器
type Server struct {
	echo   *echo.Echo
	config *config.Config
	comp   Components
}

// New 创建新的服务器实例
func New(cfg *config.Config, comp Components) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		config: cfg,
		comp:   comp,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware 设置中间件
func (s *Server) setupMiddleware() {
	// 日志中间件
	s.echo.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true, // 将错误转发给全局错误处理程序，以便其决定适当的响应状态码
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error == nil {
				slog.LogAttrs(context.Background(), slog.LevelInfo, "REQ",
					slog.String("method", v.Method),
					slog.Int("status", v.Status),
					slog.String("uri", v.URI),
					slog.String("remote_ip", v.RemoteIP),
					slog.Duration("latency", v.Latency),
				)
			} else {
				slog.LogAttrs(context.Background(), slog.LevelError, "REQ_ERR",
					slog.String("method", v.Method),
					slog.Int("status", v.Status),
					slog.String("uri", v.URI),
					slog.String("err", v.Error.Error()),
				)
			}
			return nil
		},
	}))

	// 恢复中间件
	s.echo.Use(echomw.Recover())

	// CORS 中间件
	s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 业务 API
	apiGroup := s.echo.Group("/api")
	apiGroup.Use(echomw.BodyLimit(s.config.Metrics.BodyLimit))
	metrics.NewHandler(s.comp.Store, s.comp.Exporter, s.comp.Recorder, s.comp.Instance).
		RegisterRoutes(apiGroup)

	// 管理 API（在静态文件中间件之前注册，优先级更高）
	if s.config.Server.AdminPass != "" {
		adminGroup := s.echo.Group("/_api")
		adminGroup.Use(echomw.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Server.AdminUser)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Server.AdminPass)) == 1
			return userOK && passOK, nil
		}))

		var bridgeCache admin.BridgeCache
		if s.comp.Bridge != nil {
			bridgeCache = s.comp.Bridge
		}
		admin.NewHandler(s.comp.Store, bridgeCache, s.comp.Recorder, s.comp.Instance).
			RegisterRoutes(adminGroup)
	} else {
		slog.Warn("未设置 admin_pass，管理接口已禁用")
	}

	// 静态文件服务（作为最后的中间件，处理所有其他请求）
	s.echo.Use(middleware.StaticFileServer(s.config.Server.SiteDir, s.config.Server.Index))
}

// Start 启动服务器，正常关闭时返回 nil
func (s *Server) Start() error {
	s.printStartupInfo()
	err := s.echo.Start(":" + s.config.Server.Port)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// printStartupInfo 打印启动信息
func (s *Server) printStartupInfo() {
	fmt.Println("作品集站点服务启动中...")
	fmt.Printf("监听端口: %s\n", s.config.Server.Port)
	fmt.Printf("站点目录: %s\n", s.config.Server.SiteDir)
	if s.comp.Bridge != nil {
		fmt.Printf("外部统计源: %s\n", s.comp.Bridge.Mode())
	}
	fmt.Println("\n指标 API:")
	fmt.Println("   - GET    /api/metrics              Prometheus 文本格式导出")
	fmt.Println("   - POST   /api/metrics              上报客户端事件")
	if s.config.Server.AdminPass != "" {
		fmt.Println("\n管理 API:")
		fmt.Println("   - GET    /_api/health              健康检查")
		fmt.Println("   - GET    /_api/stats               统计快照")
		fmt.Println("   - GET    /_api/metrics             服务自监控指标")
		fmt.Println("   - POST   /_api/bridge/refresh      刷新外部统计缓存")
	}
}

// Echo 返回 Echo 实例（用于扩展路由等）
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config 返回配置
func (s *Server) Config() *config.Config {
	return s.config
}
