package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

// 数据源模式
const (
	BridgeModeSimulated = "simulated"
	BridgeModeLive      = "live"
)

// Config 服务配置
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Metrics MetricsConfig `toml:"metrics"`
	Bridge  BridgeConfig  `toml:"bridge"`
}

// ServerConfig HTTP 服务与站点配置
type ServerConfig struct {
	Port      string `toml:"port"`
	LogLevel  string `toml:"log_level"`
	SiteDir   string `toml:"site_dir"` // 作品集站点构建产物目录
	Index     string `toml:"index"`
	AdminUser string `toml:"admin_user"`
	AdminPass string `toml:"admin_pass"` // 为空时不开放管理接口
}

// MetricsConfig 指标采集配置
type MetricsConfig struct {
	// MaxUniqueVisitors 独立访客集合上限，0 表示不限制
	MaxUniqueVisitors int    `toml:"max_unique_visitors"`
	BodyLimit         string `toml:"body_limit"`
}

// BridgeConfig 外部统计源配置
type BridgeConfig struct {
	Mode            string `toml:"mode"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	Endpoint        string `toml:"endpoint"`
	PropertyID      string `toml:"property_id"`
	APIToken        string `toml:"api_token"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// CacheTTL 缓存有效期
func (b BridgeConfig) CacheTTL() time.Duration {
	return time.Duration(b.CacheTTLSeconds) * time.Second
}

// Timeout 单次请求超时
func (b BridgeConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// HasCredentials 是否配置了真实数据源的访问凭据
func (b BridgeConfig) HasCredentials() bool {
	return strings.TrimSpace(b.Endpoint) != "" && strings.TrimSpace(b.APIToken) != ""
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "1323",
			LogLevel:  "info",
			SiteDir:   "./site",
			Index:     "index.html",
			AdminUser: "admin",
		},
		Metrics: MetricsConfig{
			MaxUniqueVisitors: 0,
			BodyLimit:         "64K",
		},
		Bridge: BridgeConfig{
			Mode:            BridgeModeSimulated,
			CacheTTLSeconds: 300,
			TimeoutSeconds:  10,
		},
	}
}

// LoadOrInit 从 TOML 加载配置，如果文件不存在则创建默认配置
func LoadOrInit(path string, envOverride bool) (*Config, bool, error) {
	created := false

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		// 首次启动：先用 ENV 覆盖默认，再写入文件
		applyEnvOverrides(cfg)
		if err := writeToml(path, cfg); err != nil {
			slog.Warn("写入配置文件失败，将仅使用内存配置", "path", path, "error", err)
			return cfg, true, cfg.Validate()
		}
		created = true
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, created, err
	}

	// 存在则用环境变量覆盖配置（不写回文件）
	if envOverride {
		applyEnvOverrides(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, created, err
	}
	return cfg, created, nil
}

// Load 读取配置文件，缺省字段使用默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	return writeToml(path, c)
}

// Validate 校验配置并补全非法的可选项
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("无效的端口: %q", c.Server.Port)
	}
	if c.Server.SiteDir == "" {
		return errors.New("site_dir 不能为空")
	}
	if c.Server.Index == "" {
		c.Server.Index = "index.html"
	}
	if c.Metrics.MaxUniqueVisitors < 0 {
		return fmt.Errorf("无效的 max_unique_visitors: %d", c.Metrics.MaxUniqueVisitors)
	}
	if c.Metrics.BodyLimit == "" {
		c.Metrics.BodyLimit = "64K"
	}

	c.Bridge.Mode = strings.ToLower(strings.TrimSpace(c.Bridge.Mode))
	switch c.Bridge.Mode {
	case "":
		c.Bridge.Mode = BridgeModeSimulated
	case BridgeModeSimulated, BridgeModeLive:
	default:
		return fmt.Errorf("无效的 bridge.mode: %q", c.Bridge.Mode)
	}
	if c.Bridge.CacheTTLSeconds <= 0 {
		c.Bridge.CacheTTLSeconds = 300
	}
	if c.Bridge.TimeoutSeconds <= 0 {
		c.Bridge.TimeoutSeconds = 10
	}
	return nil
}

func writeToml[T any](path string, cfg T) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	// 确保目录存在
	if dir := dirOf(path); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}
	return os.WriteFile(path, b, 0644)
}

func dirOf(path string) string {
	i := strings.LastIndexAny(path, "/\\")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// applyEnvOverrides 读取环境变量并覆盖配置 不回写文件
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("PORTFOLIO_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("PORTFOLIO_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("PORTFOLIO_SITE_DIR"); v != "" {
		cfg.Server.SiteDir = v
	}
	if v := os.Getenv("PORTFOLIO_ADMIN_USER"); v != "" {
		cfg.Server.AdminUser = v
	}
	if v := os.Getenv("PORTFOLIO_ADMIN_PASS"); v != "" {
		cfg.Server.AdminPass = v
	}

	// Metrics
	if v := os.Getenv("PORTFOLIO_MAX_UNIQUE_VISITORS"); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			cfg.Metrics.MaxUniqueVisitors = n
		} else {
			slog.Warn("忽略无效的环境变量", "key", "PORTFOLIO_MAX_UNIQUE_VISITORS", "value", v)
		}
	}

	// Bridge
	if v := os.Getenv("PORTFOLIO_BRIDGE_MODE"); v != "" {
		cfg.Bridge.Mode = v
	}
	if v := os.Getenv("PORTFOLIO_BRIDGE_ENDPOINT"); v != "" {
		cfg.Bridge.Endpoint = v
	}
	if v := os.Getenv("PORTFOLIO_BRIDGE_PROPERTY_ID"); v != "" {
		cfg.Bridge.PropertyID = v
	}
	if v := os.Getenv("PORTFOLIO_BRIDGE_API_TOKEN"); v != "" {
		cfg.Bridge.APIToken = v
	}
}
