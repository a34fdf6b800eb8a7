package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DATA-DOG/go-sqlmock"

	"reportforge/internal/config"
	"reportforge/internal/infrastructure"
	"reportforge/internal/pdf"
	"reportforge/internal/report"
	"reportforge/internal/services"
	"reportforge/internal/store"
	"reportforge/internal/template"
)

// newTestApplication assembles an application without opening a real
// database or probing for an installed converter
func newTestApplication(t *testing.T) (*Application, sqlmock.Sqlmock) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.TemplatesDir = t.TempDir()
	cfg.Storage.TempDir = t.TempDir()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	registry := prometheus.NewRegistry()

	a := &Application{
		Config:          &cfg,
		Logger:          logger,
		Metrics:         infrastructure.NewMetrics(registry),
		DB:              store.NewDB(db, logger),
		Modules:         report.NewRegistry(),
		Templates:       template.NewRegistry(cfg.Storage.TemplatesDir, logger),
		Converter:       pdf.NewLibreOffice(cfg.Converter, cfg.Storage.TempDir, logger),
		metricsRegistry: registry,
	}
	a.Reports = services.NewReportService(
		a.Templates,
		a.Modules,
		a.DB,
		template.NewRenderer(logger),
		a.Converter,
		logger,
		a.Metrics,
	)
	a.setupRouter()
	a.createServer()
	return a, mock
}

func TestRouterWiring(t *testing.T) {
	a, _ := newTestApplication(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/health"},
		{http.MethodGet, "/api/version"},
		{http.MethodGet, "/api/reports/generate"},
		{http.MethodGet, "/api/reports/types"},
		{http.MethodPost, "/api/reports/batch"},
		{http.MethodGet, "/api/reports/preview/sales"},
		{http.MethodGet, "/api/reports/status/sales"},
		{http.MethodPost, "/api/templates"},
		{http.MethodGet, "/api/templates"},
		{http.MethodGet, "/api/templates/some-id"},
		{http.MethodDelete, "/api/templates/some-id"},
		{http.MethodGet, "/api/templates/domain/sales"},
		{http.MethodGet, "/metrics"},
	}

	for _, route := range routes {
		rctx := chi.NewRouteContext()
		assert.True(t, a.Router.Match(rctx, route.method, route.path),
			"expected route %s %s to be registered", route.method, route.path)
	}
}

func TestVersionEndpoint(t *testing.T) {
	a, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), Version)
}

func TestTypesEndpoint(t *testing.T) {
	a, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/types", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	for _, domain := range []string{"sales", "inventory", "customers", "orders"} {
		assert.Contains(t, rec.Body.String(), domain)
	}
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	a, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServerConfiguration(t *testing.T) {
	a, _ := newTestApplication(t)

	assert.Equal(t, ":8080", a.Server.Addr)
	assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
	assert.Equal(t, a.Config.Server.WriteTimeout, a.Server.WriteTimeout)
}

func TestGracefulStop(t *testing.T) {
	a, _ := newTestApplication(t)

	// Stop without Start exercises the shutdown path on an idle server
	require.NoError(t, a.Stop(context.Background()))
}
