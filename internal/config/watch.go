package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher 监听配置文件变更并回调
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher 创建配置监听器，onChange 在配置文件变更且解析成功后调用
func NewWatcher(path string, onChange func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		onChange: onChange,
	}
}

// Run 阻塞监听，直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	defer fw.Close()

	// 监听所在目录：编辑器保存时常以重命名替换文件
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("监听目录 %s 失败: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	slog.Info("配置文件监听已启动", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("配置文件监听错误", "error", err)
		}
	}
}

// schedule 合并短时间内的多次事件
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err == nil {
		applyEnvOverrides(cfg)
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("重新加载配置失败，保留当前配置", "path", w.path, "error", err)
		return
	}

	slog.Info("配置文件已重新加载", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
