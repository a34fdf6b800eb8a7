// Package report implements the per-domain transform and summary modules of
// the report pipeline. Each domain knows its own field set, derived columns,
// and summary statistics; the orchestrator dispatches on the domain tag.
package report

import (
	"fmt"
	"sort"
	"sync"

	"reportforge/internal/store"
)

// Domain is a report category with its own data shape and derived metrics
type Domain string

// Built-in report domains
const (
	DomainSales     Domain = "sales"
	DomainInventory Domain = "inventory"
	DomainCustomers Domain = "customers"
	DomainOrders    Domain = "orders"
)

// Summary holds aggregate statistics computed over a transformed dataset.
// Keys are merge-field names; values are display-ready scalars or small
// nested structures.
type Summary map[string]any

// Module is the capability pair each report domain implements. Transform
// returns new rows and never mutates its input; Summarize is stateless and
// recomputed per request.
type Module interface {
	Table() string
	Columns() store.Columns
	Transform(rows []store.Row) []store.Row
	Summarize(rows []store.Row) Summary
}

// Registry maps domains to their modules. New domains register a module
// without any orchestrator changes.
type Registry struct {
	mu      sync.RWMutex
	modules map[Domain]Module
}

// NewRegistry creates a registry populated with the built-in domains.
// Orders reuses the sales module.
func NewRegistry() *Registry {
	r := &Registry{modules: make(map[Domain]Module)}

	sales := NewSalesModule()
	r.Register(DomainSales, sales)
	r.Register(DomainInventory, NewInventoryModule())
	r.Register(DomainCustomers, NewCustomersModule())
	r.Register(DomainOrders, sales)

	return r
}

// Register binds a module to a domain, replacing any previous binding
func (r *Registry) Register(domain Domain, m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[domain] = m
}

// Get returns the module for a domain
func (r *Registry) Get(domain Domain) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[domain]
	if !ok {
		return nil, fmt.Errorf("no module registered for report type: %s", domain)
	}
	return m, nil
}

// Has reports whether a domain is registered
func (r *Registry) Has(domain Domain) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[domain]
	return ok
}

// Domains returns the registered domains in sorted order
func (r *Registry) Domains() []Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Domain, 0, len(r.modules))
	for d := range r.modules {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
