package http

import (
	"context"

	"reportforge/internal/report"
	"reportforge/internal/services"
	"reportforge/internal/store"
	"reportforge/internal/template"
)

// ReportServiceInterface defines the report operations the handlers depend on
type ReportServiceInterface interface {
	Generate(ctx context.Context, domain report.Domain, filters store.FilterSet, templateName string) (*services.Result, error)
	PreviewData(ctx context.Context, domain report.Domain, filters store.FilterSet) (*services.Preview, error)
	GenerateBatch(ctx context.Context, items []services.BatchItem) (*services.BatchResult, error)
	Status(ctx context.Context, domain report.Domain) *services.DomainStatus
	AvailableDomains() []report.Domain
}

// TemplateStoreInterface defines the template registry operations the
// handlers depend on
type TemplateStoreInterface interface {
	Save(file []byte, domain report.Domain, originalName, templateName string) (*template.Record, error)
	Get(id string) (*template.Record, error)
	List() []*template.Record
	ListByDomain(domain report.Domain) []*template.Record
	Delete(id string) error
	Count() int
}
