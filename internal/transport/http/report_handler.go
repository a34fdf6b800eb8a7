package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "reportforge/internal/errors"
	"reportforge/internal/report"
	"reportforge/internal/services"
	"reportforge/internal/store"
)

// ReportHandler handles report generation HTTP requests
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/generate", h.Generate)
	r.Get("/types", h.GetTypes)
	r.Post("/batch", h.GenerateBatch)

	r.Route("/preview/{reportType}", func(r chi.Router) {
		r.Use(h.ReportTypeCtx)
		r.Get("/", h.Preview)
	})
	r.Route("/status/{reportType}", func(r chi.Router) {
		r.Use(h.ReportTypeCtx)
		r.Get("/", h.GetStatus)
	})

	return r
}

// ReportTypeCtx middleware validates the reportType URL parameter
func (h *ReportHandler) ReportTypeCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "reportType") == "" {
			h.errorHandler.HandleError(w, r, apierrors.MissingParameter("reportType"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// filtersFromQuery collects the recognized filter parameters from the query
// string. Unrecognized parameters are ignored.
func filtersFromQuery(r *http.Request) store.FilterSet {
	filters := store.FilterSet{}
	q := r.URL.Query()
	for _, key := range []string{store.FilterFromDate, store.FilterToDate, store.FilterType} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}
	return filters
}

// Generate handles GET /api/reports/generate and streams the PDF back
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	reportType := r.URL.Query().Get("report")
	if reportType == "" {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter("report"))
		return
	}
	templateName := r.URL.Query().Get("templateName")
	filters := filtersFromQuery(r)

	h.logger.InfoContext(r.Context(), "generating report",
		slog.String("request_id", reqID),
		slog.String("report_type", reportType),
		slog.String("template_name", templateName),
		slog.Int("filters", len(filters)),
	)

	result, err := h.service.Generate(r.Context(), report.Domain(reportType), filters, templateName)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report_type", reportType),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.PDF); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream pdf",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
	}
}

// GetTypes handles GET /api/reports/types
func (h *ReportHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	domains := h.service.AvailableDomains()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   domains,
		"count":  len(domains),
	})
}

// Preview handles GET /api/reports/preview/{reportType}
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	reportType := chi.URLParam(r, "reportType")
	filters := filtersFromQuery(r)

	h.logger.InfoContext(r.Context(), "previewing report data",
		slog.String("request_id", reqID),
		slog.String("report_type", reportType),
	)

	preview, err := h.service.PreviewData(r.Context(), report.Domain(reportType), filters)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report preview failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report_type", reportType),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   preview,
	})
}

// GetStatus handles GET /api/reports/status/{reportType}
func (h *ReportHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "reportType")

	status := h.service.Status(r.Context(), report.Domain(reportType))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// BatchRequest is the payload for POST /api/reports/batch
type BatchRequest struct {
	Reports []services.BatchItem `json:"reports" validate:"required,min=1,max=5,dive"`
}

// GenerateBatch handles POST /api/reports/batch
func (h *ReportHandler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req BatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		details := []string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("field %s failed on the %s rule", fe.Field(), fe.Tag()))
			}
		}
		h.errorHandler.HandleError(w, r, apierrors.ValidationFailed(details))
		return
	}

	h.logger.InfoContext(r.Context(), "generating report batch",
		slog.String("request_id", reqID),
		slog.Int("items", len(req.Reports)),
	)

	batch, err := h.service.GenerateBatch(r.Context(), req.Reports)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "batch generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}
