package template

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "reportforge/internal/errors"
	"reportforge/internal/report"
	"reportforge/internal/store"
)

// buildTemplate assembles an in-memory workbook from cell values keyed by axis
func buildTemplate(t *testing.T, cells map[string]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	for axis, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", axis, value))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func renderContext() Context {
	return Context{
		Domain:       report.DomainSales,
		TemplateName: "monthly",
		GeneratedAt:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Filters:      store.FilterSet{"fromDate": "2026-08-01"},
		Rows: []store.Row{
			{"id": "1", "amount": "100.00", "quantity": 2},
			{"id": "2", "amount": "50.00", "quantity": 1},
		},
		Summary: report.Summary{"totalRecords": 2, "totalAmount": "150.00"},
	}
}

func sheetRows(t *testing.T, doc []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(doc))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	return rows
}

func TestRenderer_ScalarFields(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "Report: {{reportType}}",
		"B1": "{{templateName}}",
		"A2": "Generated {{generatedDate}}",
		"B2": "From {{filters.fromDate}}",
		"A3": "Total: {{summary.totalAmount}} over {{recordCount}} records",
	})

	r := NewRenderer(nil)
	out, err := r.RenderBytes("test.xlsx", tpl, renderContext())
	require.NoError(t, err)

	rows := sheetRows(t, out)
	assert.Equal(t, "Report: SALES", rows[0][0])
	assert.Equal(t, "monthly", rows[0][1])
	assert.Equal(t, "Generated 2026-09-01T10:00:00Z", rows[1][0])
	assert.Equal(t, "From 2026-08-01", rows[1][1])
	assert.Equal(t, "Total: 150.00 over 2 records", rows[2][0])
}

func TestRenderer_RowExpansion(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "ID",
		"B1": "Amount",
		"A2": "{{#rows}}{{id}}",
		"B2": "{{amount}}",
		"A3": "Footer",
	})

	r := NewRenderer(nil)
	out, err := r.RenderBytes("test.xlsx", tpl, renderContext())
	require.NoError(t, err)

	rows := sheetRows(t, out)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, []string{"1", "100.00"}, rows[1][:2])
	assert.Equal(t, []string{"2", "50.00"}, rows[2][:2])
	assert.Equal(t, "Footer", rows[3][0])
}

func TestRenderer_RowExpansion_EmptyDataset(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "ID",
		"A2": "{{#rows}}{{id}}",
		"A3": "Footer",
	})

	ctx := renderContext()
	ctx.Rows = nil

	r := NewRenderer(nil)
	out, err := r.RenderBytes("test.xlsx", tpl, ctx)
	require.NoError(t, err)

	rows := sheetRows(t, out)
	assert.Equal(t, "Footer", rows[2][0])
	if len(rows[1]) > 0 {
		assert.Empty(t, rows[1][0], "marker row must be cleared")
	}
}

func TestRenderer_UnknownScalarField(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "{{nonexistent}}",
	})

	r := NewRenderer(nil)
	_, err := r.RenderBytes("test.xlsx", tpl, renderContext())

	require.Error(t, err)
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestRenderer_UnknownRowField(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "{{#rows}}{{no_such_column}}",
	})

	r := NewRenderer(nil)
	_, err := r.RenderBytes("test.xlsx", tpl, renderContext())

	require.Error(t, err)
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, err.Error(), "no_such_column")
}

func TestRenderer_FieldMissingFromSomeRecords(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{
		"A1": "{{#rows}}{{amount}}",
	})

	ctx := renderContext()
	ctx.Rows = []store.Row{
		{"amount": "10.00"},
		{"quantity": 1}, // no amount: cell degrades to empty
	}

	r := NewRenderer(nil)
	out, err := r.RenderBytes("test.xlsx", tpl, ctx)
	require.NoError(t, err)

	rows := sheetRows(t, out)
	assert.Equal(t, "10.00", rows[0][0])
}

func TestRenderer_InvalidDocument(t *testing.T) {
	r := NewRenderer(nil)
	_, err := r.RenderBytes("bad.xlsx", []byte("not a workbook"), renderContext())

	require.Error(t, err)
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
}

func TestRenderer_RenderFromDisk(t *testing.T) {
	tpl := buildTemplate(t, map[string]string{"A1": "{{reportType}}"})

	dir := t.TempDir()
	path := filepath.Join(dir, "tpl.xlsx")
	require.NoError(t, os.WriteFile(path, tpl, 0o644))

	r := NewRenderer(nil)
	out, err := r.Render(path, renderContext())
	require.NoError(t, err)

	rows := sheetRows(t, out)
	assert.Equal(t, "SALES", rows[0][0])
}

func TestRenderer_MissingTemplateFile(t *testing.T) {
	r := NewRenderer(nil)
	_, err := r.Render(t.TempDir()+"/missing.xlsx", renderContext())

	require.Error(t, err)
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
}
