package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/analytics"
	"portfolio/internal/bridge"
	"portfolio/internal/config"
	"portfolio/internal/exporter"
	"portfolio/internal/telemetry"
)

func newTestServer(t *testing.T, adminPass string) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Server.SiteDir = t.TempDir()
	cfg.Server.AdminPass = adminPass
	cfg.Metrics.BodyLimit = "1K"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Server.SiteDir, "index.html"), []byte("portfolio"), 0644))

	store := analytics.NewStore(analytics.Options{})
	b := bridge.New()
	recorder := telemetry.NewRecorder(prometheus.NewRegistry())

	return New(cfg, Components{
		Store:    store,
		Bridge:   b,
		Exporter: exporter.New(store, b, exporter.WithRecorder(recorder)),
		Recorder: recorder,
		Instance: "test",
	})
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, "secret")

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "portfolio", rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_page_views_total")
	assert.Contains(t, rec.Body.String(), "ga4_active_users")

	rec = do(s, httptest.NewRequest(http.MethodDelete, "/api/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get(echo.HeaderAllow))
}

func TestServer_PostBodyLimit(t *testing.T) {
	s := newTestServer(t, "")

	body := `{"metric_type":"page_view","metadata":{"page":"` + strings.Repeat("x", 2048) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/metrics", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := do(s, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_AdminAuth(t *testing.T) {
	s := newTestServer(t, "secret")

	rec := do(s, httptest.NewRequest(http.MethodGet, "/_api/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/_api/health", nil)
	req.SetBasicAuth("admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, do(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/_api/health", nil)
	req.SetBasicAuth("admin", "secret")
	assert.Equal(t, http.StatusOK, do(s, req).Code)
}

func TestServer_AdminDisabledWithoutPassword(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/_api/health", nil)
	req.SetBasicAuth("admin", "")
	assert.Equal(t, http.StatusNotFound, do(s, req).Code)
}
