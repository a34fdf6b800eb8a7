package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportforge/internal/store"
)

func TestSalesModule_Transform(t *testing.T) {
	m := NewSalesModule()

	rows := []store.Row{
		{"id": 1, "amount": 100.0, "quantity": 2, "price": 50.0, "sale_date": "2026-03-01 10:30:00"},
		{"id": 2, "amount": "50", "quantity": "1", "sale_date": "2026-03-02"},
		{"id": 3, "quantity": 4},
	}

	got := m.Transform(rows)
	require.Len(t, got, 3)

	assert.Equal(t, "200.00", got[0]["total"])
	assert.Equal(t, "100.00", got[0]["amount"])
	assert.Equal(t, 2, got[0]["quantity"])
	assert.Equal(t, "50.00", got[0]["price"])
	assert.Equal(t, "2026-03-01", got[0]["sale_date"])

	assert.Equal(t, "50.00", got[1]["total"])

	_, hasTotal := got[2]["total"]
	assert.False(t, hasTotal, "total requires both amount and quantity")
}

func TestSalesModule_Transform_DoesNotMutateInput(t *testing.T) {
	m := NewSalesModule()
	rows := []store.Row{{"amount": 100.0, "quantity": 2}}

	m.Transform(rows)

	assert.Equal(t, 100.0, rows[0]["amount"], "input rows must not be mutated")
	_, hasTotal := rows[0]["total"]
	assert.False(t, hasTotal)
}

func TestSalesModule_Summarize(t *testing.T) {
	m := NewSalesModule()

	rows := m.Transform([]store.Row{
		{"amount": 100.0, "quantity": 2, "sale_date": "2026-03-01"},
		{"amount": 50.0, "quantity": 1, "sale_date": "2026-03-01"},
	})

	summary := m.Summarize(rows)

	assert.Equal(t, 2, summary["totalRecords"])
	assert.Equal(t, "150.00", summary["totalAmount"])
	assert.Equal(t, "75.00", summary["averageAmount"])

	byDate, ok := summary["salesByDate"].(map[string]DateGroup)
	require.True(t, ok)
	group := byDate["2026-03-01"]
	assert.Equal(t, 2, group.Count)
	assert.Equal(t, 150.0, group.Total)
}

func TestSalesModule_Summarize_MissingAmountsCountAsZero(t *testing.T) {
	m := NewSalesModule()

	summary := m.Summarize([]store.Row{
		{"amount": 100.0},
		{"quantity": 3},
	})

	assert.Equal(t, "100.00", summary["totalAmount"])
	assert.Equal(t, "50.00", summary["averageAmount"])
}

func TestSalesModule_Summarize_EmptyDataset(t *testing.T) {
	m := NewSalesModule()

	summary := m.Summarize(nil)

	assert.Equal(t, 0, summary["totalRecords"])
	assert.NotEmpty(t, summary["message"])
	_, hasTotal := summary["totalAmount"]
	assert.False(t, hasTotal, "empty dataset must carry no numeric aggregates")
}
