package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ErrorHandler provides centralized error handling for HTTP handlers.
// It maps pipeline error types to API responses and logs each failure
// with request context.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError converts any error to an API error response and renders it
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	render.Render(w, r, h.toAPIError(err))
}

// toAPIError maps pipeline errors onto the HTTP error taxonomy
func (h *ErrorHandler) toAPIError(err error) *APIError {
	// Context errors first: cancellation and deadline are not server faults
	if errors.Is(err, context.DeadlineExceeded) {
		return New(http.StatusGatewayTimeout, "TIMEOUT", "The request took too long to process")
	}
	if errors.Is(err, context.Canceled) {
		return New(http.StatusRequestTimeout, "CANCELLED", "The request was cancelled")
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ValidationFailed(validationErr.Violations)
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return NotFoundWithMessage(notFoundErr.Message)
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return NewWithDetails(http.StatusInternalServerError, "FETCH_FAILED",
			"Failed to fetch report data", fetchErr.Error())
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return NewWithDetails(http.StatusInternalServerError, "RENDER_FAILED",
			"Failed to populate report template", renderErr.Error())
	}

	var conversionErr *ConversionError
	if errors.As(err, &conversionErr) {
		return NewWithDetails(http.StatusInternalServerError, "CONVERSION_FAILED",
			"Failed to convert document to PDF", conversionErr.Error())
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return ErrInternalServer
}
