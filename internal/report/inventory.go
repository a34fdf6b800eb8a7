package report

import (
	"reportforge/internal/store"
)

// Stock status labels derived from quantity vs reorder level
const (
	StockStatusOut = "Out of Stock"
	StockStatusLow = "Low Stock"
	StockStatusIn  = "In Stock"
)

// maxLowStockSample caps the low/out-of-stock rows carried in the summary
const maxLowStockSample = 10

// InventoryModule transforms and summarizes inventory rows
type InventoryModule struct{}

// NewInventoryModule creates the inventory report module
func NewInventoryModule() *InventoryModule {
	return &InventoryModule{}
}

func (m *InventoryModule) Table() string {
	return "inventory_data"
}

func (m *InventoryModule) Columns() store.Columns {
	return store.Columns{Date: "last_restock_date", Type: "category"}
}

// Transform normalizes dates and numbers, derives total_value = quantity * price
// and classifies stock_status against the reorder level
func (m *InventoryModule) Transform(rows []store.Row) []store.Row {
	out := make([]store.Row, 0, len(rows))
	for _, src := range rows {
		row := cloneRow(src)

		quantity, hasQuantity := fieldNumber(row, "quantity")
		price, hasPrice := fieldNumber(row, "price")
		reorderLevel, hasReorder := fieldNumber(row, "reorder_level")

		normalizeDates(row, []string{"created_date", "updated_date", "last_restock_date"})
		normalizeNumbers(row, []string{"quantity", "price", "reorder_level"})

		if hasQuantity && hasPrice {
			row["total_value"] = formatMoney(quantity * price)
		}

		if hasQuantity && hasReorder {
			switch {
			case quantity <= 0:
				row["stock_status"] = StockStatusOut
			case quantity <= reorderLevel:
				row["stock_status"] = StockStatusLow
			default:
				row["stock_status"] = StockStatusIn
			}
		}

		out = append(out, row)
	}
	return out
}

// Summarize computes quantity aggregates, stock status counts and a sample
// of rows needing restock
func (m *InventoryModule) Summarize(rows []store.Row) Summary {
	summary := baseSummary(rows, []string{"quantity", "price"})
	if len(rows) == 0 {
		return summary
	}

	totalQuantity := sumField(rows, "quantity")
	summary["totalQuantity"] = int(totalQuantity)
	summary["averageQuantity"] = int(totalQuantity/float64(len(rows)) + 0.5)

	stockStatusCounts := make(map[string]int)
	var lowStock []store.Row
	for _, row := range rows {
		status := rowString(row, "stock_status")
		if status == "" {
			continue
		}
		stockStatusCounts[status]++
		if status == StockStatusLow || status == StockStatusOut {
			lowStock = append(lowStock, row)
		}
	}
	summary["stockStatusCounts"] = stockStatusCounts
	summary["lowStockCount"] = len(lowStock)
	if len(lowStock) > maxLowStockSample {
		lowStock = lowStock[:maxLowStockSample]
	}
	summary["lowStockItems"] = lowStock

	return summary
}
