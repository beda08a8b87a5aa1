package middleware

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// passThroughPrefixes 交给路由处理的路径前缀
var passThroughPrefixes = []string{"/api", "/_api"}

// StaticFileServer 作品集站点的静态文件服务中间件
func StaticFileServer(root, index string) echo.MiddlewareFunc {
	if index == "" {
		index = "index.html"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqPath := c.Request().URL.Path
			for _, prefix := range passThroughPrefixes {
				if reqPath == prefix || strings.HasPrefix(reqPath, prefix+"/") {
					return next(c)
				}
			}

			method := c.Request().Method
			if method != http.MethodGet && method != http.MethodHead {
				return c.JSON(http.StatusMethodNotAllowed, map[string]string{
					"error": "静态资源只支持 GET",
				})
			}

			if reqPath == "/" {
				reqPath = "/" + index
			}
			filePath := filepath.Join(root, filepath.FromSlash(reqPath))

			// 安全检查：防止路径遍历攻击
			if !isPathSafe(root, filePath) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "禁止访问",
				})
			}

			info, err := os.Stat(filePath)
			if err != nil {
				return handleNotFound(c, root, reqPath)
			}

			// 如果是目录，尝试返回 index.html
			if info.IsDir() {
				return handleDirectory(c, filePath, index)
			}

			return c.File(filePath)
		}
	}
}

// isPathSafe 检查路径是否位于站点目录内
func isPathSafe(rootDir, filePath string) bool {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return false
	}

	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// handleNotFound 处理文件未找到的情况
func handleNotFound(c echo.Context, rootDir, reqPath string) error {
	// 尝试返回 404.html
	notFoundPath := filepath.Join(rootDir, "404.html")
	if _, err := os.Stat(notFoundPath); err == nil {
		return fileWithStatus(c, notFoundPath, http.StatusNotFound)
	}

	return c.JSON(http.StatusNotFound, map[string]string{
		"error": "文件未找到",
		"path":  reqPath,
	})
}

// handleDirectory 处理目录请求
func handleDirectory(c echo.Context, dirPath, indexFile string) error {
	indexPath := filepath.Join(dirPath, indexFile)
	if _, err := os.Stat(indexPath); err == nil {
		return c.File(indexPath)
	}

	return c.JSON(http.StatusForbidden, map[string]string{
		"error": "目录访问被禁止",
	})
}

func fileWithStatus(c echo.Context, path string, status int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, data)
}
