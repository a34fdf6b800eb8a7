package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"reportforge/internal/store"
)

// displayDateFormat is the normalized form for all date fields in rendered reports
const displayDateFormat = "2006-01-02"

// acceptedDateLayouts are the raw forms the pipeline tolerates from row sources
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// emptySummaryMessage is returned for datasets with no rows instead of
// numeric aggregates, so no aggregate ever divides by zero.
const emptySummaryMessage = "No data available for the specified criteria"

// numericValue extracts a float64 from the loosely typed scalars a row can
// hold. Missing or unparsable values report ok=false and are treated as zero
// in aggregates by callers.
func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// fieldNumber reads a numeric field from a row, zero when absent
func fieldNumber(row store.Row, field string) (float64, bool) {
	v, ok := row[field]
	if !ok || v == nil {
		return 0, false
	}
	return numericValue(v)
}

// parseDate parses a raw date value from a row source
func parseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range acceptedDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// cloneRow copies a row so transforms never mutate fetched data
func cloneRow(row store.Row) store.Row {
	out := make(store.Row, len(row)+4)
	for k, v := range row {
		out[k] = v
	}
	return out
}

// normalizeDates rewrites the named date fields to the display format.
// Fields that are absent or unparsable are left as-is; a malformed optional
// field degrades to omission, never an aborted request.
func normalizeDates(row store.Row, fields []string) {
	for _, field := range fields {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseDate(v); ok {
			row[field] = t.Format(displayDateFormat)
		}
	}
}

// normalizeNumbers rewrites the named numeric fields: money-like fields
// (amount, price, total, value) become fixed two-decimal strings, count-like
// fields (quantity, count, level) become integers.
func normalizeNumbers(row store.Row, fields []string) {
	for _, field := range fields {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		num, ok := numericValue(v)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(field, "amount"),
			strings.Contains(field, "price"),
			strings.Contains(field, "total"),
			strings.Contains(field, "value"):
			row[field] = formatMoney(num)
		case strings.Contains(field, "quantity"),
			strings.Contains(field, "count"),
			strings.Contains(field, "level"):
			row[field] = int(num)
		}
	}
}

// formatMoney renders a fixed two-decimal representation
func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// baseSummary computes record count plus total/average for each named field.
// Missing numeric fields count as zero. Empty datasets produce the
// totalRecords/message pair with no numeric aggregates.
func baseSummary(rows []store.Row, fields []string) Summary {
	if len(rows) == 0 {
		return Summary{
			"totalRecords": 0,
			"message":      emptySummaryMessage,
		}
	}

	summary := Summary{
		"totalRecords": len(rows),
		"generatedAt":  time.Now().Format("2006-01-02 15:04:05"),
	}

	for _, field := range fields {
		if _, present := rows[0][field]; !present {
			continue
		}
		var total float64
		for _, row := range rows {
			n, _ := fieldNumber(row, field)
			total += n
		}
		summary["total"+titleCase(field)] = total
		summary["average"+titleCase(field)] = formatMoney(total / float64(len(rows)))
	}

	return summary
}

// titleCase upper-cases the first letter of a field name for summary keys
func titleCase(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// sumField totals a numeric field across rows, missing values counting as zero
func sumField(rows []store.Row, field string) float64 {
	var total float64
	for _, row := range rows {
		n, _ := fieldNumber(row, field)
		total += n
	}
	return total
}

// rowString reads a string field from a row, "" when absent
func rowString(row store.Row, field string) string {
	v, ok := row[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
