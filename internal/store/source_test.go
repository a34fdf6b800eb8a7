package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Query_WithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "amount", "quantity", "sale_date"}).
		AddRow(1, 100.0, 2, "2026-03-01").
		AddRow(2, 50.0, 1, "2026-03-02")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sales_data WHERE sale_date >= ? AND sale_date <= ?")).
		WithArgs("2026-03-01", "2026-03-31").
		WillReturnRows(rows)

	source := NewDB(db, nil)
	got, err := source.Query(context.Background(),
		"SELECT * FROM sales_data",
		FilterSet{"fromDate": "2026-03-01", "toDate": "2026-03-31"},
		Columns{Date: "sale_date"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-01", got[0]["sale_date"])
	assert.Equal(t, 100.0, got[0]["amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Query_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM inventory_data")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	source := NewDB(db, nil)
	got, err := source.Query(context.Background(), "SELECT * FROM inventory_data", nil, Columns{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Query_ByteSlicesBecomeStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customer_data")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Acme Corp")))

	source := NewDB(db, nil)
	got, err := source.Query(context.Background(), "SELECT * FROM customer_data", nil, Columns{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Corp", got[0]["name"])
}

func TestDB_Query_ExecutionError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sales_data")).
		WillReturnError(errors.New("connection pool exhausted"))

	source := NewDB(db, nil)
	_, err = source.Query(context.Background(), "SELECT * FROM sales_data", nil, Columns{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query execution failed")
	assert.Contains(t, err.Error(), "connection pool exhausted")
}

func TestDB_Query_EmptyResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sales_data")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount"}))

	source := NewDB(db, nil)
	got, err := source.Query(context.Background(), "SELECT * FROM sales_data", nil, Columns{})

	require.NoError(t, err)
	assert.Empty(t, got)
}
