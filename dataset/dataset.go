// Package dataset models described, queryable database tables.
package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/datascope-io/datascope/query/executor"
	"github.com/datascope-io/datascope/query/sqlgen"
)

// DataSet describes a database table with typed columns and default
// output columns. The column map is populated at construction time,
// either from configuration or via DiscoverColumns, so that query
// validation never performs I/O.
type DataSet struct {
	ID   string
	Name string

	ConnectionAlias string
	DatabaseSchema  string
	DatabaseTable   string

	Columns     map[string]Column
	ColumnOrder []string

	DefaultColumnNames      []string
	PersonalDataColumnNames []string

	// UseAttributesTable selects the <table>_attributes lookup variant
	// for autocompletion.
	UseAttributesTable bool

	// Description is rendered in the CLI when describing the data set.
	Description string

	// Provider of the backing connection, used to pick the SQL dialect.
	Provider string
}

// Dialect returns the SQL dialect of the data set's backing connection.
func (ds *DataSet) Dialect() sqlgen.Dialect {
	return sqlgen.ForProvider(ds.Provider)
}

// HasColumn reports whether name is a column of the data set.
func (ds *DataSet) HasColumn(name string) bool {
	_, ok := ds.Columns[name]
	return ok
}

// ColumnNames returns all column names in schema-defined order.
func (ds *DataSet) ColumnNames() []string {
	if len(ds.ColumnOrder) == len(ds.Columns) {
		return append([]string(nil), ds.ColumnOrder...)
	}
	names := make([]string, 0, len(ds.Columns))
	for _, name := range ds.ColumnOrder {
		if ds.HasColumn(name) {
			names = append(names, name)
		}
	}
	for name := range ds.Columns {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// IsPersonalData reports whether the column is flagged as personal data.
func (ds *DataSet) IsPersonalData(name string) bool {
	return contains(ds.PersonalDataColumnNames, name)
}

// RowCount returns the total number of rows of the data set table,
// or 0 when the table has no known columns.
func (ds *DataSet) RowCount(ctx context.Context, exec executor.Executor) (int64, error) {
	if len(ds.Columns) == 0 {
		return 0, nil
	}
	d := ds.Dialect()
	rows, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias,
		fmt.Sprintf("SELECT count(*) FROM %s", d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable)))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return scanInt64(rows[0][0])
}

// Autocomplete returns up to 50 values of column that contain term,
// case-insensitively. Array columns are unnested first; data sets with
// an attributes table look the values up there instead of scanning.
func (ds *DataSet) Autocomplete(ctx context.Context, exec executor.Executor, columnName, term string) ([]string, error) {
	column, ok := ds.Columns[columnName]
	if !ok {
		return nil, fmt.Errorf("%w: %q in data set %q", ErrUnknownColumn, columnName, ds.ID)
	}

	d := ds.Dialect()
	table := d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable)
	pattern := d.QuoteLiteral("%" + strings.ToLower(term) + "%")

	var sqlText string
	switch {
	case column.Type == TypeTextArray:
		sqlText = fmt.Sprintf(`SELECT f
FROM (SELECT DISTINCT unnest(%s) AS f FROM %s) t
WHERE lower(f) LIKE %s
ORDER BY f
LIMIT 50`, d.QuoteIdentifier(columnName), table, pattern)

	case ds.UseAttributesTable:
		sqlText = fmt.Sprintf(`SELECT value
FROM %s
WHERE attribute = %s
      AND lower(value) LIKE %s
LIMIT 50`, d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable+"_attributes"),
			d.QuoteLiteral(columnName), pattern)

	default:
		col := d.QuoteIdentifier(columnName)
		sqlText = fmt.Sprintf(`SELECT DISTINCT %s
FROM %s
WHERE lower(%s) LIKE %s
      AND %s <> ''
ORDER BY %s
LIMIT 50`, col, table, col, pattern, col, col)
	}

	rows, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, sqlText)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			values = append(values, fmt.Sprintf("%v", row[0]))
		}
	}
	return values, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func scanInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		var out int64
		_, err := fmt.Sscanf(n, "%d", &out)
		return out, err
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}
