package report

import (
	"reportforge/internal/store"
)

// DateGroup is the per-date bucket in the sales summary
type DateGroup struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// SalesModule transforms and summarizes sales rows. The orders domain reuses
// this module unchanged.
type SalesModule struct{}

// NewSalesModule creates the sales report module
func NewSalesModule() *SalesModule {
	return &SalesModule{}
}

func (m *SalesModule) Table() string {
	return "sales_data"
}

func (m *SalesModule) Columns() store.Columns {
	return store.Columns{Date: "sale_date", Type: "sale_type"}
}

// Transform normalizes dates and numeric fields and derives total = amount * quantity
func (m *SalesModule) Transform(rows []store.Row) []store.Row {
	out := make([]store.Row, 0, len(rows))
	for _, src := range rows {
		row := cloneRow(src)

		// Capture raw numerics before display normalization rewrites them
		amount, hasAmount := fieldNumber(row, "amount")
		quantity, hasQuantity := fieldNumber(row, "quantity")

		normalizeDates(row, []string{"created_date", "updated_date", "sale_date"})
		normalizeNumbers(row, []string{"amount", "quantity", "price"})

		if hasAmount && hasQuantity {
			row["total"] = formatMoney(amount * quantity)
		}

		out = append(out, row)
	}
	return out
}

// Summarize computes total/average amount and groups sales per date
func (m *SalesModule) Summarize(rows []store.Row) Summary {
	summary := baseSummary(rows, []string{"amount", "quantity"})
	if len(rows) == 0 {
		return summary
	}

	totalAmount := sumField(rows, "amount")
	summary["totalAmount"] = formatMoney(totalAmount)
	summary["averageAmount"] = formatMoney(totalAmount / float64(len(rows)))

	if _, present := rows[0]["sale_date"]; present {
		salesByDate := make(map[string]DateGroup)
		for _, row := range rows {
			date := rowString(row, "sale_date")
			group := salesByDate[date]
			group.Count++
			amount, _ := fieldNumber(row, "amount")
			group.Total += amount
			salesByDate[date] = group
		}
		summary["salesByDate"] = salesByDate
	}

	return summary
}
