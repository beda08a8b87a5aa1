package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// level 全局日志级别，配置热重载时直接修改，无需重建处理器
var level = new(slog.LevelVar)

func init() {
	// 默认使用 info 级别，可以在其他地方通过 SetLevel 来调整
	level.Set(slog.LevelInfo)
	slog.SetDefault(New(os.Stdout))
}

// New 创建基于 tint 的日志记录器，级别跟随全局设置
func New(w io.Writer) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		AddSource:  true,
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// SetLevel 设置日志级别
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level 返回当前日志级别
func Level() slog.Level {
	return level.Level()
}

// ParseLevel 解析日志级别字符串，无法识别时返回 info 和 false
func ParseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevelWithStr 通过字符串设置日志级别
func SetLevelWithStr(levelStr string) {
	l, ok := ParseLevel(levelStr)
	if !ok {
		slog.Warn("未知的日志级别，使用 info", "level", levelStr)
	}
	SetLevel(l)
}
