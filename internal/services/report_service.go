package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "reportforge/internal/errors"
	"reportforge/internal/infrastructure"
	"reportforge/internal/pdf"
	"reportforge/internal/report"
	"reportforge/internal/store"
	"reportforge/internal/template"
)

// PDFContentType is the content type of every generated report
const PDFContentType = "application/pdf"

// MaxBatchSize caps the number of sub-requests in one batch call
const MaxBatchSize = 5

// previewSampleSize caps the sample rows returned by Preview
const previewSampleSize = 5

var domainNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// TemplateResolver is the slice of the template registry the orchestrator needs
type TemplateResolver interface {
	Resolve(domain report.Domain, templateName string) (*template.Record, error)
	Domains() []report.Domain
}

// DocumentRenderer populates a stored template with a data context
type DocumentRenderer interface {
	Render(path string, ctx template.Context) ([]byte, error)
}

// Result is the outcome of a single report generation. Ephemeral,
// constructed per request and never persisted.
type Result struct {
	PDF          []byte
	Filename     string
	ContentType  string
	TemplateName string
}

// Preview is the fetch-and-transform-only view of a report request
type Preview struct {
	Domain     report.Domain  `json:"reportType"`
	DataCount  int            `json:"dataCount"`
	SampleRows []store.Row    `json:"sampleData"`
	Summary    report.Summary `json:"summary"`
}

// BatchItem is one sub-request of a batch generation call
type BatchItem struct {
	Report       string            `json:"report" validate:"required"`
	TemplateName string            `json:"templateName,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
}

// BatchItemResult marks one successful sub-request
type BatchItemResult struct {
	Report   string `json:"report"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Status   string `json:"status"`
}

// BatchItemError marks one failed sub-request
type BatchItemError struct {
	Report  string   `json:"report"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// BatchResult aggregates a batch run. Results and Errors each preserve the
// input order of their items.
type BatchResult struct {
	BatchID    string            `json:"batchId"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Results    []BatchItemResult `json:"results"`
	Errors     []BatchItemError  `json:"errors"`
}

// ReportService sequences the report pipeline:
// resolve template, fetch, transform, summarize, render, convert.
// Any step's failure aborts the request; there are no partial retries.
type ReportService struct {
	templates TemplateResolver
	modules   *report.Registry
	source    store.RowSource
	renderer  DocumentRenderer
	converter pdf.Converter
	logger    *slog.Logger
	metrics   *infrastructure.Metrics

	// now is injectable so filename derivation is testable
	now func() time.Time
}

// NewReportService wires the orchestrator's collaborators
func NewReportService(
	templates TemplateResolver,
	modules *report.Registry,
	source store.RowSource,
	renderer DocumentRenderer,
	converter pdf.Converter,
	logger *slog.Logger,
	metrics *infrastructure.Metrics,
) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		templates: templates,
		modules:   modules,
		source:    source,
		renderer:  renderer,
		converter: converter,
		logger:    logger.With(slog.String("component", "report_service")),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Generate runs the full pipeline for one report request
func (s *ReportService) Generate(ctx context.Context, domain report.Domain, filters store.FilterSet, templateName string) (*Result, error) {
	if violations := s.Validate(domain, filters); len(violations) > 0 {
		s.countFailure(domain, "validate")
		return nil, apperrors.NewValidationError(violations)
	}

	rec, err := s.templates.Resolve(domain, templateName)
	if err != nil {
		s.countFailure(domain, "resolve")
		return nil, err
	}

	module, err := s.modules.Get(domain)
	if err != nil {
		s.countFailure(domain, "resolve")
		return nil, apperrors.NewNotFoundError("domain", err.Error())
	}

	rows, err := s.source.Query(ctx, "SELECT * FROM "+module.Table(), filters, module.Columns())
	if err != nil {
		s.countFailure(domain, "fetch")
		return nil, apperrors.NewFetchError(string(domain), err)
	}

	transformed := module.Transform(rows)
	summary := module.Summarize(transformed)

	s.logger.InfoContext(ctx, "report data prepared",
		slog.String("report_type", string(domain)),
		slog.String("template", rec.Name),
		slog.Int("records", len(transformed)))

	doc, err := s.renderer.Render(rec.Path, template.Context{
		Domain:       domain,
		TemplateName: rec.Name,
		GeneratedAt:  s.now(),
		Filters:      filters,
		Rows:         transformed,
		Summary:      summary,
	})
	if err != nil {
		s.countFailure(domain, "render")
		return nil, err
	}

	convertStart := time.Now()
	pdfBytes, err := s.converter.Convert(ctx, doc)
	if err != nil {
		s.countFailure(domain, "convert")
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ConversionTime.Observe(time.Since(convertStart).Seconds())
		s.metrics.ReportsGenerated.WithLabelValues(string(domain)).Inc()
	}

	return &Result{
		PDF:          pdfBytes,
		Filename:     s.filename(domain, templateName),
		ContentType:  PDFContentType,
		TemplateName: rec.Name,
	}, nil
}

// FetchData runs fetch and transform only
func (s *ReportService) FetchData(ctx context.Context, domain report.Domain, filters store.FilterSet) ([]store.Row, error) {
	module, err := s.modules.Get(domain)
	if err != nil {
		return nil, apperrors.NewNotFoundError("domain", err.Error())
	}

	rows, err := s.source.Query(ctx, "SELECT * FROM "+module.Table(), filters, module.Columns())
	if err != nil {
		return nil, apperrors.NewFetchError(string(domain), err)
	}

	return module.Transform(rows), nil
}

// PreviewData fetches, transforms and summarizes without generating a PDF
func (s *ReportService) PreviewData(ctx context.Context, domain report.Domain, filters store.FilterSet) (*Preview, error) {
	if violations := s.Validate(domain, filters); len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations)
	}

	rows, err := s.FetchData(ctx, domain, filters)
	if err != nil {
		return nil, err
	}

	module, err := s.modules.Get(domain)
	if err != nil {
		return nil, apperrors.NewNotFoundError("domain", err.Error())
	}

	sample := rows
	if len(sample) > previewSampleSize {
		sample = sample[:previewSampleSize]
	}

	return &Preview{
		Domain:     domain,
		DataCount:  len(rows),
		SampleRows: sample,
		Summary:    module.Summarize(rows),
	}, nil
}

// Validate checks a report request and returns the list of violated rules.
// An empty list means the request is valid; Validate never fails.
func (s *ReportService) Validate(domain report.Domain, filters store.FilterSet) []string {
	var violations []string

	if domain == "" {
		violations = append(violations, "report type is required")
	} else if !domainNamePattern.MatchString(string(domain)) {
		violations = append(violations, "invalid report type format")
	} else if !s.modules.Has(domain) {
		violations = append(violations, fmt.Sprintf("unsupported report type: %s", domain))
	}

	fromDate, fromErr := parseFilterDate(filters.Get(store.FilterFromDate))
	if fromErr != nil {
		violations = append(violations, "invalid fromDate format, use YYYY-MM-DD")
	}
	toDate, toErr := parseFilterDate(filters.Get(store.FilterToDate))
	if toErr != nil {
		violations = append(violations, "invalid toDate format, use YYYY-MM-DD")
	}

	if fromErr == nil && toErr == nil && !fromDate.IsZero() && !toDate.IsZero() && fromDate.After(toDate) {
		violations = append(violations, "fromDate cannot be after toDate")
	}

	return violations
}

// GenerateBatch runs up to MaxBatchSize sub-requests in parallel. Each item
// fails independently; results and errors come back in input order.
func (s *ReportService) GenerateBatch(ctx context.Context, items []BatchItem) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidationError([]string{"reports array is required and must not be empty"})
	}
	if len(items) > MaxBatchSize {
		return nil, apperrors.NewValidationError([]string{
			fmt.Sprintf("maximum %d reports can be generated in batch", MaxBatchSize)})
	}

	results := make([]*BatchItemResult, len(items))
	failures := make([]*BatchItemError, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxBatchSize)

	for i, item := range items {
		g.Go(func() error {
			results[i], failures[i] = s.runBatchItem(gctx, item)
			return nil
		})
	}
	// Items never return errors through the group; Wait only synchronizes
	_ = g.Wait()

	batch := &BatchResult{
		BatchID: fmt.Sprintf("%d", s.now().UnixMilli()),
		Total:   len(items),
	}
	for i := range items {
		if results[i] != nil {
			batch.Results = append(batch.Results, *results[i])
		} else if failures[i] != nil {
			batch.Errors = append(batch.Errors, *failures[i])
		}
	}
	batch.Successful = len(batch.Results)
	batch.Failed = len(batch.Errors)

	return batch, nil
}

func (s *ReportService) runBatchItem(ctx context.Context, item BatchItem) (*BatchItemResult, *BatchItemError) {
	if item.Report == "" {
		return nil, &BatchItemError{Report: "unknown", Error: "report type is required"}
	}

	domain := report.Domain(item.Report)
	filters := store.FilterSet(item.Filters)

	if violations := s.Validate(domain, filters); len(violations) > 0 {
		return nil, &BatchItemError{Report: item.Report, Error: "validation failed", Details: violations}
	}

	result, err := s.Generate(ctx, domain, filters, item.TemplateName)
	if err != nil {
		return nil, &BatchItemError{Report: item.Report, Error: err.Error()}
	}

	return &BatchItemResult{
		Report:   item.Report,
		Filename: result.Filename,
		Size:     len(result.PDF),
		Status:   "success",
	}, nil
}

// AvailableDomains returns the union of domains with a registered module and
// domains that have at least one uploaded template
func (s *ReportService) AvailableDomains() []report.Domain {
	seen := make(map[report.Domain]struct{})
	var out []report.Domain
	for _, d := range s.modules.Domains() {
		seen[d] = struct{}{}
		out = append(out, d)
	}
	for _, d := range s.templates.Domains() {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// DomainStatus describes whether report generation is currently possible
// for a domain
type DomainStatus struct {
	Domain      report.Domain    `json:"reportType"`
	Template    string           `json:"template"`
	Database    string           `json:"database"`
	Converter   string           `json:"converter"`
	CanGenerate bool             `json:"canGenerate"`
	Record      *template.Record `json:"templateInfo,omitempty"`
}

// Status probes the collaborators a generation for this domain would touch
func (s *ReportService) Status(ctx context.Context, domain report.Domain) *DomainStatus {
	status := &DomainStatus{
		Domain:    domain,
		Template:  "missing",
		Database:  "disconnected",
		Converter: "unavailable",
	}

	if rec, err := s.templates.Resolve(domain, ""); err == nil {
		status.Template = "available"
		status.Record = rec
	}
	if err := s.source.Ping(ctx); err == nil {
		status.Database = "connected"
	}
	if err := s.converter.Probe(ctx); err == nil {
		status.Converter = "available"
	}

	status.CanGenerate = status.Template == "available" &&
		status.Database == "connected" &&
		status.Converter == "available"
	return status
}

// filename derives the download name: the template name when one was
// requested explicitly, otherwise the domain plus the current date
func (s *ReportService) filename(domain report.Domain, templateName string) string {
	date := s.now().Format("2006-01-02")
	if templateName != "" {
		return fmt.Sprintf("%s_%s.pdf", templateName, date)
	}
	return fmt.Sprintf("%s_report_%s.pdf", domain, date)
}

func (s *ReportService) countFailure(domain report.Domain, stage string) {
	if s.metrics != nil {
		s.metrics.ReportsFailed.WithLabelValues(string(domain), stage).Inc()
	}
}

// parseFilterDate parses an optional YYYY-MM-DD filter value. An empty value
// is valid and returns the zero time.
func parseFilterDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}
