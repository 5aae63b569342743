// Package store persists saved data set queries as table rows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/sqlgen"
)

// ErrQueryNotFound is returned when loading a saved query that does not
// exist.
var ErrQueryNotFound = errors.New("saved query not found")

// Store reads and writes saved queries in a data_set_query table.
// Column lists and filters are stored as JSON text so the same table
// layout works on every supported provider.
type Store struct {
	db      *sql.DB
	dialect sqlgen.Dialect
}

// New creates a store on the given database handle.
func New(db *sql.DB, provider string) *Store {
	return &Store{db: db, dialect: sqlgen.ForProvider(provider)}
}

// EnsureTable creates the data_set_query table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS data_set_query (
    query_id         TEXT NOT NULL,
    data_set_id      TEXT NOT NULL,
    column_names     TEXT,
    sort_column_name TEXT,
    sort_order       TEXT,
    filters          TEXT,
    created_at       TIMESTAMP NOT NULL,
    created_by       TEXT NOT NULL,
    updated_at       TIMESTAMP NOT NULL,
    updated_by       TEXT NOT NULL,
    PRIMARY KEY (query_id, data_set_id)
)`)
	if err != nil {
		return fmt.Errorf("failed to create data_set_query table: %w", err)
	}
	return nil
}

// Save inserts the query, or updates it when a query with the same id
// already exists for the data set.
func (s *Store) Save(ctx context.Context, q *query.Query, savedBy string) error {
	columnNames, err := json.Marshal(q.ColumnNames)
	if err != nil {
		return fmt.Errorf("failed to serialize column names: %w", err)
	}
	filters, err := json.Marshal(q.Filters)
	if err != nil {
		return fmt.Errorf("failed to serialize filters: %w", err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, s.upsertSQL(),
		q.QueryID, q.DataSetID, string(columnNames), q.SortColumnName, string(q.SortOrder), string(filters),
		now, savedBy, now, savedBy)
	if err != nil {
		return fmt.Errorf("failed to save query %q: %w", q.QueryID, err)
	}
	return nil
}

// upsertSQL renders the insert-or-update statement for the store's
// dialect. MySQL has no ON CONFLICT clause and keys the update on the
// table's primary key instead.
func (s *Store) upsertSQL() string {
	insert := fmt.Sprintf(`
INSERT INTO data_set_query (query_id, data_set_id, column_names, sort_column_name, sort_order, filters,
                            created_at, created_by, updated_at, updated_by)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`, s.placeholders(10)...)

	if s.dialect.Name() == "mysql" {
		return insert + `
ON DUPLICATE KEY UPDATE
    column_names=VALUES(column_names),
    sort_column_name=VALUES(sort_column_name),
    sort_order=VALUES(sort_order),
    filters=VALUES(filters),
    updated_at=VALUES(updated_at),
    updated_by=VALUES(updated_by)`
	}
	return insert + `
ON CONFLICT (query_id, data_set_id)
DO UPDATE SET
    column_names=EXCLUDED.column_names,
    sort_column_name=EXCLUDED.sort_column_name,
    sort_order=EXCLUDED.sort_order,
    filters=EXCLUDED.filters,
    updated_at=EXCLUDED.updated_at,
    updated_by=EXCLUDED.updated_by`
}

// Load reads a saved query and revalidates it against the current
// schema of its data set.
func (s *Store) Load(ctx context.Context, provider query.DataSetProvider, dataSetID, queryID string) (*query.Query, error) {
	sqlText := fmt.Sprintf(`
SELECT column_names, sort_column_name, sort_order, filters,
       created_at, created_by, updated_at, updated_by
FROM data_set_query
WHERE data_set_id = %s AND query_id = %s`, s.placeholders(2)...)

	var (
		columnNames, sortColumnName, sortOrder, filters string
		createdAt, updatedAt                            time.Time
		createdBy, updatedBy                            string
	)
	err := s.db.QueryRowContext(ctx, sqlText, dataSetID, queryID).Scan(
		&columnNames, &sortColumnName, &sortOrder, &filters,
		&createdAt, &createdBy, &updatedAt, &updatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q for data set %q", ErrQueryNotFound, queryID, dataSetID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load query %q: %w", queryID, err)
	}

	p := query.Params{
		QueryID:        queryID,
		SortColumnName: sortColumnName,
		SortOrder:      query.SortOrder(sortOrder),
		CreatedAt:      createdAt,
		CreatedBy:      createdBy,
		UpdatedAt:      updatedAt,
		UpdatedBy:      updatedBy,
	}
	if err := json.Unmarshal([]byte(columnNames), &p.ColumnNames); err != nil {
		return nil, fmt.Errorf("failed to parse saved column names: %w", err)
	}
	if err := json.Unmarshal([]byte(filters), &p.Filters); err != nil {
		return nil, fmt.Errorf("failed to parse saved filters: %w", err)
	}
	return query.New(provider, dataSetID, p)
}

// Delete removes a saved query.
func (s *Store) Delete(ctx context.Context, dataSetID, queryID string) error {
	sqlText := fmt.Sprintf(`
DELETE FROM data_set_query
WHERE data_set_id = %s AND query_id = %s`, s.placeholders(2)...)

	if _, err := s.db.ExecContext(ctx, sqlText, dataSetID, queryID); err != nil {
		return fmt.Errorf("failed to delete query %q: %w", queryID, err)
	}
	return nil
}

// SavedQueryInfo summarizes a saved query for listings.
type SavedQueryInfo struct {
	QueryID   string
	UpdatedAt time.Time
	UpdatedBy string
}

// List returns the saved queries of a data set, most recently updated
// first.
func (s *Store) List(ctx context.Context, dataSetID string) ([]SavedQueryInfo, error) {
	sqlText := fmt.Sprintf(`
SELECT query_id, updated_at, updated_by
FROM data_set_query
WHERE data_set_id = %s
ORDER BY updated_at DESC`, s.placeholders(1)...)

	rows, err := s.db.QueryContext(ctx, sqlText, dataSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries for data set %q: %w", dataSetID, err)
	}
	defer rows.Close()

	var infos []SavedQueryInfo
	for rows.Next() {
		var info SavedQueryInfo
		if err := rows.Scan(&info.QueryID, &info.UpdatedAt, &info.UpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan saved query row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) placeholders(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = s.dialect.Placeholder(i + 1)
	}
	return out
}
