// Package template manages uploaded report templates: an in-memory registry
// of metadata backed by files on disk, and a renderer that merges report data
// into a template workbook. The registry is the sole owner of the template
// files' lifetime.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "reportforge/internal/errors"
	"reportforge/internal/report"
)

// Record holds metadata and the storage handle for an uploaded template
type Record struct {
	ID           string        `json:"id"`
	Domain       report.Domain `json:"report_type"`
	Name         string        `json:"template_name"`
	Filename     string        `json:"filename"`
	Path         string        `json:"-"`
	OriginalName string        `json:"original_name"`
	Size         int64         `json:"size"`
	UploadedAt   time.Time     `json:"upload_date"`
}

// Registry is the shared, in-memory template catalog. Writes are serialized;
// reads take a consistent snapshot under a read lock. Lookups scan linearly,
// which is fine for the expected template counts (tens, not thousands).
type Registry struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*Record
	// order preserves insertion order so Resolve without a name is deterministic
	order []string
}

// NewRegistry creates a registry storing template files under dir
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:     dir,
		logger:  logger.With(slog.String("component", "template_registry")),
		records: make(map[string]*Record),
	}
}

// Save persists the uploaded file under a generated unique name and registers
// its metadata. The display name defaults to the original filename minus its
// extension.
func (r *Registry) Save(file []byte, domain report.Domain, originalName, templateName string) (*Record, error) {
	ext := filepath.Ext(originalName)
	id := uuid.NewString()
	filename := fmt.Sprintf("%s_%s%s", domain, id, ext)
	path := filepath.Join(r.dir, filename)

	if err := os.WriteFile(path, file, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save template file: %w", err)
	}

	if templateName == "" {
		templateName = strings.TrimSuffix(originalName, ext)
	}

	rec := &Record{
		ID:           id,
		Domain:       domain,
		Name:         templateName,
		Filename:     filename,
		Path:         path,
		OriginalName: originalName,
		Size:         int64(len(file)),
		UploadedAt:   time.Now(),
	}

	r.mu.Lock()
	r.records[id] = rec
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.logger.Info("template saved",
		slog.String("filename", filename),
		slog.String("report_type", string(domain)),
		slog.String("template_name", templateName))

	return rec, nil
}

// Resolve returns the first template registered for the domain, narrowed to
// an exact name match when templateName is non-empty. The two failure modes
// carry distinct messages.
func (r *Registry) Resolve(domain report.Domain, templateName string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		rec := r.records[id]
		if rec.Domain != domain {
			continue
		}
		if templateName == "" || rec.Name == templateName {
			return rec, nil
		}
	}

	if templateName != "" {
		return nil, apperrors.NewNotFoundError("template",
			fmt.Sprintf("no template found for report type: %s with name: %s", domain, templateName))
	}
	return nil, apperrors.NewNotFoundError("template",
		fmt.Sprintf("no template found for report type: %s", domain))
}

// Get returns a template by id
func (r *Registry) Get(id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("template", fmt.Sprintf("template not found: %s", id))
	}
	return rec, nil
}

// List returns all registered templates in insertion order
func (r *Registry) List() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// ListByDomain returns the templates registered for a domain
func (r *Registry) ListByDomain(domain report.Domain) []*Record {
	var out []*Record
	for _, rec := range r.List() {
		if rec.Domain == domain {
			out = append(out, rec)
		}
	}
	return out
}

// NamesByDomain returns the display names of a domain's templates
func (r *Registry) NamesByDomain(domain report.Domain) []string {
	var out []string
	for _, rec := range r.ListByDomain(domain) {
		out = append(out, rec.Name)
	}
	return out
}

// Domains returns the distinct domains that have at least one template
func (r *Registry) Domains() []report.Domain {
	seen := make(map[report.Domain]struct{})
	var out []report.Domain
	for _, rec := range r.List() {
		if _, ok := seen[rec.Domain]; ok {
			continue
		}
		seen[rec.Domain] = struct{}{}
		out = append(out, rec.Domain)
	}
	return out
}

// Count returns the number of registered templates
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Delete removes the template file from storage, then removes its metadata.
// A file that is already gone does not block the metadata removal.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return apperrors.NewNotFoundError("template", fmt.Sprintf("template not found: %s", id))
	}

	if err := os.Remove(rec.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete template file: %w", err)
	}

	delete(r.records, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("template deleted", slog.String("filename", rec.Filename))
	return nil
}

// Rehydrate scans the storage directory and re-registers template files left
// over from a previous run. Stored filenames encode domain and id as
// <domain>_<uuid><ext>; anything else is skipped.
func (r *Registry) Rehydrate() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to scan templates directory: %w", err)
	}

	restored := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)

		idx := strings.LastIndex(base, "_")
		if idx <= 0 {
			continue
		}
		domain, id := base[:idx], base[idx+1:]
		if _, err := uuid.Parse(id); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		r.mu.Lock()
		if _, exists := r.records[id]; !exists {
			r.records[id] = &Record{
				ID:           id,
				Domain:       report.Domain(domain),
				Name:         base,
				Filename:     name,
				Path:         filepath.Join(r.dir, name),
				OriginalName: name,
				Size:         info.Size(),
				UploadedAt:   info.ModTime(),
			}
			r.order = append(r.order, id)
			restored++
		}
		r.mu.Unlock()
	}

	if restored > 0 {
		r.logger.Info("templates rehydrated from disk", slog.Int("count", restored))
	}
	return nil
}
