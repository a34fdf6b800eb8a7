package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "reportforge/internal/errors"
	"reportforge/internal/infrastructure"
	"reportforge/internal/report"
	"reportforge/internal/validation"
)

// uploadFieldName is the multipart form field carrying the template file
const uploadFieldName = "template"

// TemplateHandler handles template management HTTP requests
type TemplateHandler struct {
	store        TemplateStoreInterface
	validator    *validation.UploadValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	metrics      *infrastructure.Metrics
	maxUpload    int64
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(
	store TemplateStoreInterface,
	uploadValidator *validation.UploadValidator,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
	metrics *infrastructure.Metrics,
	maxUpload int64,
) *TemplateHandler {
	return &TemplateHandler{
		store:        store,
		validator:    uploadValidator,
		logger:       logger.With(slog.String("component", "template_handler")),
		errorHandler: errorHandler,
		metrics:      metrics,
		maxUpload:    maxUpload,
	}
}

// Routes returns the template routes
func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)
	r.Get("/domain/{reportType}", h.ListByDomain)

	return r
}

// Upload handles POST /api/templates with a multipart template file
func (h *TemplateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid multipart form",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter(uploadFieldName))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read uploaded template",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}

	reportType := r.FormValue("reportType")
	templateName := h.validator.SanitizeName(r.FormValue("templateName"))

	if violations := h.validator.ValidateTemplate(header.Filename, content, reportType); len(violations) > 0 {
		h.errorHandler.HandleError(w, r, apierrors.ValidationFailed(violations))
		return
	}

	rec, err := h.store.Save(content, report.Domain(reportType), header.Filename, templateName)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store template",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report_type", reportType),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TemplatesStored.Set(float64(h.store.Count()))
	}

	h.logger.InfoContext(r.Context(), "template uploaded",
		slog.String("request_id", reqID),
		slog.String("template_id", rec.ID),
		slog.String("report_type", reportType),
		slog.Int64("size", rec.Size),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rec,
	})
}

// List handles GET /api/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.store.List()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// GetByID handles GET /api/templates/{id}
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rec,
	})
}

// Delete handles DELETE /api/templates/{id}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TemplatesStored.Set(float64(h.store.Count()))
	}

	h.logger.InfoContext(r.Context(), "template deleted",
		slog.String("request_id", reqID),
		slog.String("template_id", id),
	)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// ListByDomain handles GET /api/templates/domain/{reportType}
func (h *TemplateHandler) ListByDomain(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "reportType")

	records := h.store.ListByDomain(report.Domain(reportType))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}
