package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DiscoverColumns introspects a table and returns its columns keyed by
// name plus the column names in table-defined order. Columns whose
// backend type has no ColumnType mapping are skipped.
func DiscoverColumns(ctx context.Context, db *sql.DB, provider, schema, table string) (map[string]Column, []string, error) {
	switch provider {
	case "postgresql", "postgres":
		return discoverPostgres(ctx, db, schema, table)
	case "mysql":
		return discoverMySQL(ctx, db, schema, table)
	case "sqlite", "sqlite3":
		return discoverSQLite(ctx, db, table)
	default:
		return nil, nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

func discoverPostgres(ctx context.Context, db *sql.DB, schema, table string) (map[string]Column, []string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT att.attname,
       pg_catalog.format_type(atttypid, NULL) AS display_type
FROM pg_attribute att
  JOIN pg_class tbl ON tbl.oid = att.attrelid
  JOIN pg_namespace ns ON tbl.relnamespace = ns.oid
WHERE tbl.relname = $1 AND ns.nspname = $2 AND attnum > 0
ORDER BY attnum`, table, schema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to introspect %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	return collectColumns(rows, MapPostgresType)
}

func discoverMySQL(ctx context.Context, db *sql.DB, schema, table string) (map[string]Column, []string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to introspect %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	return collectColumns(rows, MapMySQLType)
}

func discoverSQLite(ctx context.Context, db *sql.DB, table string) (map[string]Column, []string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]Column)
	var order []string
	for rows.Next() {
		var (
			cid        int
			name       string
			typeName   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typeName, &notNull, &defaultVal, &pk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		columnType, ok := MapSQLiteType(typeName)
		if !ok {
			continue
		}
		columns[name] = Column{Name: name, Type: columnType}
		order = append(order, name)
	}
	return columns, order, rows.Err()
}

func collectColumns(rows *sql.Rows, mapType func(string) (ColumnType, bool)) (map[string]Column, []string, error) {
	columns := make(map[string]Column)
	var order []string
	for rows.Next() {
		var name, typeName string
		if err := rows.Scan(&name, &typeName); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column definition: %w", err)
		}
		columnType, ok := mapType(typeName)
		if !ok {
			continue
		}
		columns[name] = Column{Name: name, Type: columnType}
		order = append(order, name)
	}
	return columns, order, rows.Err()
}

// MapPostgresType maps a Postgres display type onto a ColumnType.
func MapPostgresType(typeName string) (ColumnType, bool) {
	switch typeName {
	case "character varying", "text":
		return TypeText, true
	case "bigint", "integer", "real", "smallint", "double precision", "numeric":
		return TypeNumber, true
	case "timestamp", "timestamp with time zone", "timestamp without time zone",
		"time with time zone", "time without time zone", "date":
		return TypeDate, true
	case "json", "jsonb":
		return TypeJSON, true
	case "text[]":
		return TypeTextArray, true
	default:
		return "", false
	}
}

// MapMySQLType maps a MySQL information_schema data type onto a ColumnType.
func MapMySQLType(typeName string) (ColumnType, bool) {
	switch strings.ToLower(typeName) {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext", "enum":
		return TypeText, true
	case "tinyint", "smallint", "mediumint", "int", "bigint", "decimal", "float", "double":
		return TypeNumber, true
	case "date", "datetime", "timestamp", "time":
		return TypeDate, true
	case "json":
		return TypeJSON, true
	default:
		return "", false
	}
}

// MapSQLiteType maps a declared SQLite column type onto a ColumnType.
// SQLite type names are free-form, so matching is by affinity.
func MapSQLiteType(typeName string) (ColumnType, bool) {
	name := strings.ToUpper(typeName)
	switch {
	case strings.Contains(name, "INT"), strings.Contains(name, "REAL"),
		strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"),
		strings.Contains(name, "NUMERIC"), strings.Contains(name, "DECIMAL"):
		return TypeNumber, true
	case strings.Contains(name, "DATE"), strings.Contains(name, "TIME"):
		return TypeDate, true
	case strings.Contains(name, "CHAR"), strings.Contains(name, "TEXT"), strings.Contains(name, "CLOB"):
		return TypeText, true
	case name == "JSON":
		return TypeJSON, true
	default:
		return "", false
	}
}
