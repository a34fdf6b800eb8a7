package errors

import (
	"fmt"
	"strings"
)

// ValidationError reports user-correctable problems with a report request.
// It carries the full itemized list of violated rules.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError creates a ValidationError from a list of violations
func NewValidationError(violations []string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// NotFoundError reports an unknown template, template name, or domain
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NewNotFoundError creates a NotFoundError for the named resource
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// FetchError reports a row-source failure, keeping the report domain for context
type FetchError struct {
	Domain string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch data for %s report: %v", e.Domain, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError wraps a row-source failure with its report domain
func NewFetchError(domain string, cause error) *FetchError {
	return &FetchError{Domain: domain, Cause: cause}
}

// RenderError reports a template/data mismatch or a structurally invalid template
type RenderError struct {
	Template string
	Cause    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template %s: %v", e.Template, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError wraps a rendering failure with the template involved
func NewRenderError(template string, cause error) *RenderError {
	return &RenderError{Template: template, Cause: cause}
}

// ConversionError reports a failure of the external document renderer.
// Callers never see raw process-invocation errors, only this wrapper.
type ConversionError struct {
	Cause error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("document conversion failed: %v", e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// NewConversionError wraps an external renderer failure
func NewConversionError(cause error) *ConversionError {
	return &ConversionError{Cause: cause}
}
