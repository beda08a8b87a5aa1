package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/telemetry"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*echo.Echo, *analytics.Store, *bridge.Bridge) {
	t.Helper()
	store := analytics.NewStore(analytics.Options{})
	clk := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	b := bridge.New(bridge.WithClock(clk.Now))
	recorder := telemetry.NewRecorder(prometheus.NewRegistry())

	e := echo.New()
	NewHandler(store, b, recorder, "inst-1").RegisterRoutes(e.Group("/_api"))
	return e, store, b
}

func request(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := request(e, http.MethodGet, "/_api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "inst-1", data["instance"])
}

func TestStats(t *testing.T) {
	e, store, _ := newTestServer(t)
	_, err := store.Record(analytics.PageView{Page: "contact"}, "192.0.2.1")
	require.NoError(t, err)

	rec := request(e, http.MethodGet, "/_api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec).Data.(map[string]any)
	metrics := data["metrics"].(map[string]any)
	assert.EqualValues(t, 1, metrics["page_views"])
	assert.EqualValues(t, 1, metrics["unique_visitors"])
	assert.Equal(t, map[string]any{"mode": "simulated"}, data["bridge"])
}

func TestRefreshBridge(t *testing.T) {
	e, _, b := newTestServer(t)

	rec := request(e, http.MethodPost, "/_api/bridge/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Data, "realtime")

	_, ok := b.CachedAt()
	assert.True(t, ok)
}

func TestSelfMetrics(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := request(e, http.MethodGet, "/_api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
