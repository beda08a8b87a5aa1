package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInit_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	cfg, created, err := LoadOrInit(path, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "1323", cfg.Server.Port)
	assert.Equal(t, BridgeModeSimulated, cfg.Bridge.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Bridge.CacheTTL())

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written to disk")

	_, created, err = LoadOrInit(path, false)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadOrInit_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "8080"
site_dir = "./dist"

[bridge]
mode = "simulated"
`), 0644))

	t.Setenv("PORTFOLIO_PORT", "9090")
	t.Setenv("PORTFOLIO_BRIDGE_MODE", "LIVE")
	t.Setenv("PORTFOLIO_BRIDGE_ENDPOINT", "https://analytics.example.com/report")
	t.Setenv("PORTFOLIO_BRIDGE_API_TOKEN", "secret")
	t.Setenv("PORTFOLIO_MAX_UNIQUE_VISITORS", "500")

	cfg, _, err := LoadOrInit(path, true)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "./dist", cfg.Server.SiteDir)
	assert.Equal(t, BridgeModeLive, cfg.Bridge.Mode)
	assert.True(t, cfg.Bridge.HasCredentials())
	assert.Equal(t, 500, cfg.Metrics.MaxUniqueVisitors)
	// 未出现在文件中的字段保持默认值
	assert.Equal(t, "index.html", cfg.Server.Index)
	assert.Equal(t, 300, cfg.Bridge.CacheTTLSeconds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"empty site dir", func(c *Config) { c.Server.SiteDir = "" }, true},
		{"negative visitors", func(c *Config) { c.Metrics.MaxUniqueVisitors = -1 }, true},
		{"unknown mode", func(c *Config) { c.Bridge.Mode = "mirror" }, true},
		{"empty mode defaults", func(c *Config) { c.Bridge.Mode = "" }, false},
		{"zero ttl defaults", func(c *Config) { c.Bridge.CacheTTLSeconds = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, BridgeModeSimulated, cfg.Bridge.Mode)
			assert.Positive(t, cfg.Bridge.CacheTTLSeconds)
		})
	}
}

func TestHasCredentials(t *testing.T) {
	b := BridgeConfig{Endpoint: "https://example.com"}
	assert.False(t, b.HasCredentials())
	b.APIToken = "  "
	assert.False(t, b.HasCredentials())
	b.APIToken = "token"
	assert.True(t, b.HasCredentials())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Default().Save(path))

	changed := make(chan *Config, 4)
	w := NewWatcher(path, func(c *Config) { changed <- c })
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := Default()
	cfg.Server.LogLevel = "debug"

	// 监听启动是异步的，重复写入直到收到回调
	require.Eventually(t, func() bool {
		if err := cfg.Save(path); err != nil {
			return false
		}
		select {
		case got := <-changed:
			return got.Server.LogLevel == "debug"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}
