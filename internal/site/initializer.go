package site

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Initializer 站点目录初始化器
type Initializer struct {
	siteDir string // 站点构建产物目录
	index   string
}

// NewInitializer 创建站点初始化器
func NewInitializer(siteDir, index string) *Initializer {
	if index == "" {
		index = "index.html"
	}
	return &Initializer{
		siteDir: siteDir,
		index:   index,
	}
}

// Initialize 确保站点目录存在，缺少首页时写入占位页
// 返回是否写入了占位页
func (i *Initializer) Initialize() (bool, error) {
	if err := os.MkdirAll(i.siteDir, 0755); err != nil {
		return false, fmt.Errorf("创建目录 %s 失败: %w", i.siteDir, err)
	}

	indexPath := filepath.Join(i.siteDir, i.index)
	if _, err := os.Stat(indexPath); !errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err := os.WriteFile(indexPath, []byte(placeholderHTML), 0644); err != nil {
		return false, fmt.Errorf("创建 %s 失败: %w", indexPath, err)
	}
	slog.Warn("站点目录缺少首页，已写入占位页", "path", indexPath)
	return true, nil
}

// placeholderHTML 站点尚未构建时的占位页
const placeholderHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Portfolio</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 100px auto;
            padding: 20px;
            text-align: center;
        }
        h1 { color: #333; }
        p { color: #666; }
        code { color: #007bff; }
    </style>
</head>
<body>
    <h1>Portfolio</h1>
    <p>站点尚未部署，请将构建产物放入站点目录</p>
    <p>运行指标: <code>GET /api/metrics</code></p>
</body>
</html>
`
