package report

import (
	"sort"
	"time"

	"reportforge/internal/store"
)

// Customer segments by lifetime value
const (
	SegmentPremium = "Premium"
	SegmentGold    = "Gold"
	SegmentSilver  = "Silver"
	SegmentBronze  = "Bronze"
)

// Customer status by days since last purchase
const (
	StatusActive     = "Active"
	StatusRecent     = "Recent"
	StatusOccasional = "Occasional"
	StatusInactive   = "Inactive"
)

// maxTopCustomers caps the top-by-lifetime-value list carried in the summary
const maxTopCustomers = 10

// CustomersModule transforms and summarizes customer rows
type CustomersModule struct {
	// now is injectable so status classification is testable
	now func() time.Time
}

// NewCustomersModule creates the customers report module
func NewCustomersModule() *CustomersModule {
	return &CustomersModule{now: time.Now}
}

func (m *CustomersModule) Table() string {
	return "customer_data"
}

func (m *CustomersModule) Columns() store.Columns {
	return store.Columns{Date: "registration_date", Type: "customer_type"}
}

// Transform normalizes dates and numbers and derives customer_segment from
// lifetime value and customer_status from recency of the last purchase
func (m *CustomersModule) Transform(rows []store.Row) []store.Row {
	now := m.now()

	out := make([]store.Row, 0, len(rows))
	for _, src := range rows {
		row := cloneRow(src)

		lifetimeValue, hasLifetime := fieldNumber(row, "lifetime_value")
		lastPurchase, hasLastPurchase := time.Time{}, false
		if v, ok := row["last_purchase_date"]; ok && v != nil {
			lastPurchase, hasLastPurchase = parseDate(v)
		}

		normalizeDates(row, []string{"created_date", "updated_date", "last_purchase_date", "registration_date"})
		normalizeNumbers(row, []string{"total_purchases", "lifetime_value"})

		if hasLifetime {
			row["customer_segment"] = segmentFor(lifetimeValue)
		}

		if hasLastPurchase {
			days := int(now.Sub(lastPurchase).Hours() / 24)
			row["customer_status"] = statusFor(days)
		}

		out = append(out, row)
	}
	return out
}

func segmentFor(lifetimeValue float64) string {
	switch {
	case lifetimeValue >= 10000:
		return SegmentPremium
	case lifetimeValue >= 5000:
		return SegmentGold
	case lifetimeValue >= 1000:
		return SegmentSilver
	default:
		return SegmentBronze
	}
}

func statusFor(daysSincePurchase int) string {
	switch {
	case daysSincePurchase <= 30:
		return StatusActive
	case daysSincePurchase <= 90:
		return StatusRecent
	case daysSincePurchase <= 365:
		return StatusOccasional
	default:
		return StatusInactive
	}
}

// Summarize computes segment/status distributions, the distinct customer
// count and the top customers by lifetime value
func (m *CustomersModule) Summarize(rows []store.Row) Summary {
	summary := baseSummary(rows, []string{"total_purchases", "lifetime_value"})
	if len(rows) == 0 {
		return summary
	}

	segmentCounts := make(map[string]int)
	statusCounts := make(map[string]int)
	uniqueIDs := make(map[string]struct{})

	for _, row := range rows {
		if segment := rowString(row, "customer_segment"); segment != "" {
			segmentCounts[segment]++
		}
		if status := rowString(row, "customer_status"); status != "" {
			statusCounts[status]++
		}
		id := rowString(row, "customer_id")
		if id == "" {
			id = rowString(row, "id")
		}
		if id != "" {
			uniqueIDs[id] = struct{}{}
		}
	}

	summary["segmentDistribution"] = segmentCounts
	summary["statusDistribution"] = statusCounts
	summary["uniqueCustomers"] = len(uniqueIDs)

	var withValue []store.Row
	for _, row := range rows {
		if _, ok := fieldNumber(row, "lifetime_value"); ok {
			withValue = append(withValue, row)
		}
	}
	sort.SliceStable(withValue, func(i, j int) bool {
		a, _ := fieldNumber(withValue[i], "lifetime_value")
		b, _ := fieldNumber(withValue[j], "lifetime_value")
		return a > b
	})
	if len(withValue) > maxTopCustomers {
		withValue = withValue[:maxTopCustomers]
	}
	summary["topCustomers"] = withValue

	return summary
}
