package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "reportforge/internal/errors"
	"reportforge/internal/report"
	"reportforge/internal/store"
)

// Merge-field syntax: {{name}} for scalars, a cell containing {{#rows}} marks
// the dataset row whose other cells hold per-record field tokens.
var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

const rowsMarker = "#rows"

// Context carries everything a template can reference during rendering
type Context struct {
	Domain       report.Domain
	TemplateName string
	GeneratedAt  time.Time
	Filters      store.FilterSet
	Rows         []store.Row
	Summary      report.Summary
}

// Renderer merges a data context into a template workbook, producing a
// populated document buffer. Nothing is persisted.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a template renderer
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger: logger.With(slog.String("component", "template_renderer")),
	}
}

// Render reads the template workbook at path and binds the context into its
// merge fields. A token that names a field absent from the context fails with
// a RenderError rather than being skipped silently.
func (r *Renderer) Render(path string, ctx Context) ([]byte, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewRenderError(path, fmt.Errorf("failed to read template file: %w", err))
	}
	return r.RenderBytes(path, doc, ctx)
}

// RenderBytes is Render over an in-memory template document
func (r *Renderer) RenderBytes(name string, doc []byte, ctx Context) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(doc))
	if err != nil {
		return nil, apperrors.NewRenderError(name, fmt.Errorf("invalid template document: %w", err))
	}
	defer f.Close()

	scalars := ctx.scalarFields()

	for _, sheet := range f.GetSheetList() {
		if err := r.renderSheet(f, sheet, scalars, ctx.Rows); err != nil {
			return nil, apperrors.NewRenderError(name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewRenderError(name, fmt.Errorf("failed to serialize document: %w", err))
	}

	r.logger.Debug("template rendered",
		slog.String("template", name),
		slog.Int("rows", len(ctx.Rows)))

	return buf.Bytes(), nil
}

func (r *Renderer) renderSheet(f *excelize.File, sheet string, scalars map[string]string, dataRows []store.Row) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	markerRow := -1
	var rowTemplate []string

	for i, row := range rows {
		isMarker := false
		for _, cell := range row {
			if tokenNames(cell)[rowsMarker] {
				isMarker = true
				break
			}
		}
		if isMarker {
			if markerRow >= 0 {
				return fmt.Errorf("sheet %s contains more than one {{%s}} marker", sheet, rowsMarker)
			}
			markerRow = i + 1
			rowTemplate = append([]string(nil), row...)
			continue
		}

		for j, cell := range row {
			if !strings.Contains(cell, "{{") {
				continue
			}
			replaced, err := substituteScalars(cell, scalars)
			if err != nil {
				return err
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, axis, replaced); err != nil {
				return err
			}
		}
	}

	if markerRow >= 0 {
		if err := r.expandRows(f, sheet, markerRow, rowTemplate, dataRows); err != nil {
			return err
		}
	}

	return nil
}

// expandRows replaces the marker row with one row per dataset record. An
// empty dataset clears the marker row.
func (r *Renderer) expandRows(f *excelize.File, sheet string, markerRow int, rowTemplate []string, dataRows []store.Row) error {
	// Strip the marker itself from the template cells
	cells := make([]string, len(rowTemplate))
	for i, cell := range rowTemplate {
		cells[i] = strings.TrimSpace(tokenPattern.ReplaceAllStringFunc(cell, func(match string) string {
			if tokenNames(match)[rowsMarker] {
				return ""
			}
			return match
		}))
	}

	if err := validateRowFields(cells, dataRows); err != nil {
		return err
	}

	if len(dataRows) == 0 {
		for j := range cells {
			axis, err := excelize.CoordinatesToCellName(j+1, markerRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, axis, ""); err != nil {
				return err
			}
		}
		return nil
	}

	if len(dataRows) > 1 {
		if err := f.InsertRows(sheet, markerRow+1, len(dataRows)-1); err != nil {
			return fmt.Errorf("failed to insert data rows: %w", err)
		}
	}

	for k, record := range dataRows {
		for j, cell := range cells {
			value := tokenPattern.ReplaceAllStringFunc(cell, func(match string) string {
				name := tokenPattern.FindStringSubmatch(match)[1]
				return displayValue(record[name])
			})
			axis, err := excelize.CoordinatesToCellName(j+1, markerRow+k)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, axis, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateRowFields requires every row-scope token to name a field present in
// at least one record; a field no record carries is a template/data mismatch.
func validateRowFields(cells []string, dataRows []store.Row) error {
	if len(dataRows) == 0 {
		return nil
	}
	for _, cell := range cells {
		for name := range tokenNames(cell) {
			found := false
			for _, record := range dataRows {
				if _, ok := record[name]; ok {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("template references unknown field: %s", name)
			}
		}
	}
	return nil
}

// substituteScalars replaces every token in a cell from the scalar context.
// A token naming a field absent from the context is an error, surfaced to
// the caller rather than skipped.
func substituteScalars(cell string, scalars map[string]string) (string, error) {
	var unknown string
	replaced := tokenPattern.ReplaceAllStringFunc(cell, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		value, ok := scalars[name]
		if !ok {
			if unknown == "" {
				unknown = name
			}
			return match
		}
		return value
	})
	if unknown != "" {
		return "", fmt.Errorf("template references unknown field: %s", unknown)
	}
	return replaced, nil
}

// scalarFields flattens the context into merge-field names. Filters and
// summary entries are exposed as filters.<key> and summary.<key>.
func (c Context) scalarFields() map[string]string {
	fields := map[string]string{
		"reportType":    strings.ToUpper(string(c.Domain)),
		"templateName":  c.TemplateName,
		"generatedDate": c.GeneratedAt.Format(time.RFC3339),
		"recordCount":   strconv.Itoa(len(c.Rows)),
	}
	for k, v := range c.Filters {
		fields["filters."+k] = v
	}
	for k, v := range c.Summary {
		fields["summary."+k] = displayValue(v)
	}
	return fields
}

// tokenNames extracts the set of token names appearing in a cell
func tokenNames(cell string) map[string]bool {
	out := make(map[string]bool)
	for _, match := range tokenPattern.FindAllStringSubmatch(cell, -1) {
		out[match[1]] = true
	}
	return out
}

// displayValue renders a context value into cell text. Scalars print
// directly; nested structures (distributions, groupings) fall back to JSON.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}
