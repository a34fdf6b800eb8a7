package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportforge/internal/config"
	"reportforge/internal/errors"
	"reportforge/internal/infrastructure"
	customMiddleware "reportforge/internal/middleware"
	"reportforge/internal/pdf"
	"reportforge/internal/report"
	"reportforge/internal/services"
	"reportforge/internal/store"
	"reportforge/internal/template"
	handlers "reportforge/internal/transport/http"
	"reportforge/internal/validation"
)

const (
	// Version is the service version reported by /api/version
	Version = "1.0.0"
	// AppName is the human readable service name
	AppName = "ReportForge"
)

// Application wires the configuration, registries and services behind the
// HTTP server
type Application struct {
	Config    *config.Config
	Router    *chi.Mux
	Server    *http.Server
	Logger    *slog.Logger
	Metrics   *infrastructure.Metrics
	DB        *store.DB
	Modules   *report.Registry
	Templates *template.Registry
	Converter *pdf.LibreOffice
	Reports   *services.ReportService

	metricsRegistry *prometheus.Registry
}

// NewApplication creates a fully wired application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the report pipeline bottom up
func (a *Application) initializeServices() error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	a.Metrics = infrastructure.NewMetrics(registry)
	a.metricsRegistry = registry

	db, err := store.Open(a.Config.Database, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db

	a.Modules = report.NewRegistry()

	a.Templates = template.NewRegistry(a.Config.Storage.TemplatesDir, a.Logger)
	if err := a.Templates.Rehydrate(); err != nil {
		return fmt.Errorf("failed to restore stored templates: %w", err)
	}
	a.Metrics.TemplatesStored.Set(float64(a.Templates.Count()))

	a.Converter = pdf.NewLibreOffice(a.Config.Converter, a.Config.Storage.TempDir, a.Logger)

	a.Reports = services.NewReportService(
		a.Templates,
		a.Modules,
		a.DB,
		template.NewRenderer(a.Logger),
		a.Converter,
		a.Logger,
		a.Metrics,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	if a.Config.Server.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	a.setupAPIRoutes(r)

	// metrics sit outside the API timeout group
	r.Handle("/metrics", promhttp.HandlerFor(a.metricsRegistry, promhttp.HandlerOpts{}))

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger)
	uploadValidator := validation.NewUploadValidator(a.Logger, a.Config.MaxUploadBytes())

	reportHandler := handlers.NewReportHandler(a.Reports, a.Logger, errorHandler)
	templateHandler := handlers.NewTemplateHandler(
		a.Templates,
		uploadValidator,
		a.Logger,
		errorHandler,
		a.Metrics,
		a.Config.MaxUploadBytes(),
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", a.handleHealth)
		r.Get("/version", a.handleVersion)

		// generation holds the external converter open, so it gets the
		// write timeout rather than the read timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
			r.Mount("/reports", reportHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
			r.Mount("/templates", templateHandler.Routes())
		})
	})
}

// handleHealth reports the readiness of the pipeline's collaborators
func (a *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database":  "ok",
		"converter": "ok",
	}
	healthy := true

	if err := a.DB.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := a.Converter.Probe(r.Context()); err != nil {
		checks["converter"] = err.Error()
		healthy = false
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    status,
		"version":   Version,
		"checks":    checks,
		"templates": a.Templates.Count(),
	})
}

// handleVersion reports build information
func (a *Application) handleVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"name":    AppName,
		"version": Version,
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.Converter.Probe(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Document converter unavailable at startup",
			slog.String("binary", a.Config.Converter.Binary),
			slog.String("error", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Int("templates", a.Templates.Count()))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing database", slog.String("error", err.Error()))
	}

	infrastructure.CloseLogFile()

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
