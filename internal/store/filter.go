package store

// FilterSet maps user-supplied filter keys to values. Only the recognized
// keys below participate in query building; everything else is ignored by
// the row source but may still reach transform logic.
type FilterSet map[string]string

// Recognized filter keys
const (
	FilterFromDate = "fromDate"
	FilterToDate   = "toDate"
	FilterType     = "type"
)

// Default predicate columns, used when a domain does not override them
const (
	DefaultDateColumn = "date_column"
	DefaultTypeColumn = "type_column"
)

// Columns names the table columns the recognized filters bind to
type Columns struct {
	Date string
	Type string
}

// Get returns the value for a filter key, or "" if absent
func (f FilterSet) Get(key string) string {
	return f[key]
}

// Clone returns a copy of the filter set
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// BuildQuery appends a parameterized WHERE clause for the recognized filters
// to the base query. Clauses combine with AND in declaration order (fromDate,
// toDate, type) so positional parameters line up; unrecognized keys are
// dropped silently. With no recognized filters the base query is returned
// unchanged with no arguments.
func BuildQuery(base string, filters FilterSet, cols Columns) (string, []any) {
	if cols.Date == "" {
		cols.Date = DefaultDateColumn
	}
	if cols.Type == "" {
		cols.Type = DefaultTypeColumn
	}

	var clauses []string
	var args []any

	if v := filters.Get(FilterFromDate); v != "" {
		clauses = append(clauses, cols.Date+" >= ?")
		args = append(args, v)
	}
	if v := filters.Get(FilterToDate); v != "" {
		clauses = append(clauses, cols.Date+" <= ?")
		args = append(args, v)
	}
	if v := filters.Get(FilterType); v != "" {
		clauses = append(clauses, cols.Type+" = ?")
		args = append(args, v)
	}

	if len(clauses) == 0 {
		return base, nil
	}

	query := base + " WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		query += " AND " + clause
	}
	return query, args
}
