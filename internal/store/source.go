package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"reportforge/internal/config"
)

// Row is an open mapping of column name to scalar value. Shape is determined
// by the backing table; missing optional columns are simply absent keys.
type Row map[string]any

// RowSource fetches rows for a base query constrained by a filter set
type RowSource interface {
	Query(ctx context.Context, base string, filters FilterSet, cols Columns) ([]Row, error)
	Ping(ctx context.Context) error
}

// DB is a RowSource backed by a database/sql pool. Each call acquires a
// connection for a single statement and releases it before returning, so
// connections are never held across pipeline steps.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens a database/sql pool from configuration and verifies connectivity
func Open(cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewDB(db, logger), nil
}

// NewDB wraps an existing pool. The caller keeps ownership of db's lifecycle
// unless Close is used.
func NewDB(db *sql.DB, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		db:     db,
		logger: logger.With(slog.String("component", "row_source")),
	}
}

// Query builds the filtered query and scans all rows into generic maps
func (d *DB) Query(ctx context.Context, base string, filters FilterSet, cols Columns) ([]Row, error) {
	query, args := BuildQuery(base, filters, cols)

	d.logger.DebugContext(ctx, "executing query",
		slog.String("query", query),
		slog.Int("args", len(args)))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return out, nil
}

// Ping verifies the pool can reach the database
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the underlying pool
func (d *DB) Close() error {
	return d.db.Close()
}

// normalizeValue converts driver-specific scan results into plain scalars
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}
