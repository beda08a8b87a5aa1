package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/config"
	"portfolio/internal/exporter"
	"portfolio/internal/logging"
	"portfolio/internal/server"
	"portfolio/internal/site"
	"portfolio/internal/telemetry"
)

const (
	configPath      = "config.toml"
	shutdownTimeout = 5 * time.Second
)

func main() {
	// 加载配置
	cfg, created, err := config.LoadOrInit(configPath, true)
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if created {
		slog.Info("已生成默认配置文件", "path", configPath)
	}

	// 设置日志级别
	logging.SetLevelWithStr(cfg.Server.LogLevel)

	// 初始化站点目录
	if _, err := site.NewInitializer(cfg.Server.SiteDir, cfg.Server.Index).Initialize(); err != nil {
		slog.Warn("初始化站点目录失败", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, newComponents(cfg))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("正在关闭服务器")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		w := config.NewWatcher(configPath, func(next *config.Config) {
			logging.SetLevelWithStr(next.Server.LogLevel)
			slog.Info("日志级别已更新，其余配置重启后生效", "log_level", next.Server.LogLevel)
		})
		// 监听失败不影响服务
		if err := w.Run(ctx); err != nil {
			slog.Warn("配置热重载不可用", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("服务器异常退出", "error", err)
		os.Exit(1)
	}
}

// newComponents 按配置组装统计、外部数据源和导出器
func newComponents(cfg *config.Config) server.Components {
	instance := uuid.NewString()
	logger := slog.Default().With("instance", instance)
	recorder := telemetry.NewRecorder(nil)

	store := analytics.NewStore(analytics.Options{
		MaxUniqueVisitors: cfg.Metrics.MaxUniqueVisitors,
	})
	b := bridge.NewFromConfig(cfg.Bridge,
		bridge.WithRecorder(recorder),
		bridge.WithLogger(logger),
	)
	exp := exporter.New(store, b,
		exporter.WithInstance(instance),
		exporter.WithRecorder(recorder),
		exporter.WithLogger(logger),
	)

	return server.Components{
		Store:    store,
		Bridge:   b,
		Exporter: exp,
		Recorder: recorder,
		Instance: instance,
	}
}
