package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"portfolio/internal/analytics"
	"portfolio/internal/telemetry"
)

// allowedMethods 405 响应的 Allow 头
const allowedMethods = "GET, POST"

// Exporter 生成导出文本
type Exporter interface {
	Export(ctx context.Context) string
}

// Handler /api/metrics 处理器
type Handler struct {
	store    *analytics.Store
	exporter Exporter
	recorder *telemetry.Recorder
	instance string
}

// NewHandler 创建处理器，recorder 可为 nil
func NewHandler(store *analytics.Store, exporter Exporter, recorder *telemetry.Recorder, instance string) *Handler {
	return &Handler{
		store:    store,
		exporter: exporter,
		recorder: recorder,
		instance: instance,
	}
}

// CurrentMetrics POST 成功后回显的计数
type CurrentMetrics struct {
	PageViews          uint64  `json:"page_views"`
	DemoClicks         uint64  `json:"demo_clicks"`
	ContactSubmissions uint64  `json:"contact_submissions"`
	ProjectViews       uint64  `json:"project_views"`
	UniqueVisitors     int     `json:"unique_visitors"`
	ActiveUsers        float64 `json:"active_users"`
}

// RecordResponse POST 成功响应
type RecordResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Instance       string         `json:"instance,omitempty"`
	CurrentMetrics CurrentMetrics `json:"current_metrics"`
}

// RegisterRoutes 注册路由，方法分发在处理器内完成以保证 405 的 Allow 头
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.Any("/metrics", h.Serve)
}

// Serve 按请求方法分发
func (h *Handler) Serve(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return h.Export(c)
	case http.MethodPost:
		return h.Record(c)
	default:
		c.Response().Header().Set(echo.HeaderAllow, allowedMethods)
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{
			"error": "Method not allowed",
		})
	}
}

// Export 以 Prometheus 文本格式导出，始终返回 200
func (h *Handler) Export(c echo.Context) error {
	body := h.exporter.Export(c.Request().Context())
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(body))
}

// Record 接收一条客户端上报
func (h *Handler) Record(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.recorder.RecordIngest("", telemetry.ResultMalformed)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "读取请求体失败",
		})
	}

	sample, err := analytics.DecodeSample(data)
	if err != nil {
		return h.rejected(c, "", err)
	}

	snap, err := h.store.Record(sample, ClientID(c.Request()))
	if err != nil {
		return h.rejected(c, string(sample.Type()), err)
	}
	h.recorder.RecordIngest(string(sample.Type()), telemetry.ResultAccepted)

	return c.JSON(http.StatusOK, RecordResponse{
		Success:  true,
		Message:  "Metric recorded",
		Instance: h.instance,
		CurrentMetrics: CurrentMetrics{
			PageViews:          snap.PageViews,
			DemoClicks:         snap.DemoClicks,
			ContactSubmissions: snap.ContactSubmissions,
			ProjectViews:       snap.ProjectViews,
			UniqueVisitors:     snap.UniqueVisitors,
			ActiveUsers:        snap.ActiveUsers,
		},
	})
}

func (h *Handler) rejected(c echo.Context, metricType string, err error) error {
	switch {
	case errors.Is(err, analytics.ErrUnknownMetricType):
		h.recorder.RecordIngest(metricType, telemetry.ResultRejected)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Unknown metric type",
		})
	case errors.Is(err, analytics.ErrMalformedSample):
		h.recorder.RecordIngest(metricType, telemetry.ResultMalformed)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON body",
		})
	default:
		slog.Error("记录指标失败", "metric_type", metricType, "error", err)
		h.recorder.RecordIngest(metricType, telemetry.ResultError)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
}

// ClientID 取 X-Forwarded-For 的第一个地址，否则取连接的远端地址
func ClientID(r *http.Request) string {
	if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
