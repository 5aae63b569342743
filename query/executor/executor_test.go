package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope-io/datascope/query/executor"
)

func newTestRegistry(t *testing.T) *executor.Registry {
	t.Helper()
	registry := executor.NewRegistry()
	registry.Register("test", executor.Connection{
		Provider: "sqlite",
		DSN:      "file:" + t.Name() + "?mode=memory&cache=shared",
	})
	t.Cleanup(func() { registry.Close() })

	db, err := registry.DB("test")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE orders (order_id INTEGER, status TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES (1, 'open'), (2, 'closed'), (3, 'open')`)
	require.NoError(t, err)
	return registry
}

func TestExecuteQuery(t *testing.T) {
	registry := newTestRegistry(t)

	rows, columns, err := registry.ExecuteQuery(context.Background(), "test",
		`SELECT order_id, status FROM orders ORDER BY order_id`)
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "status"}, columns)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{int64(1), "open"}, rows[0])
	assert.Equal(t, []any{int64(3), "open"}, rows[2])
}

// A query that matches nothing still reports the result columns.
func TestExecuteQueryEmptyResultKeepsColumns(t *testing.T) {
	registry := newTestRegistry(t)

	rows, columns, err := registry.ExecuteQuery(context.Background(), "test",
		`SELECT order_id, status FROM orders WHERE status = 'nope'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "status"}, columns)
	assert.Empty(t, rows)
}

func TestStreamQueryEmptyResultDeliversColumns(t *testing.T) {
	registry := newTestRegistry(t)

	calls := 0
	var columns []string
	err := registry.StreamQuery(context.Background(), "test",
		`SELECT order_id, status FROM orders WHERE status = 'nope'`,
		func(cols []string, row []any) error {
			calls++
			columns = cols
			assert.Nil(t, row)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"order_id", "status"}, columns)
}

func TestStreamQueryStopsOnCallbackError(t *testing.T) {
	registry := newTestRegistry(t)

	seen := 0
	err := registry.StreamQuery(context.Background(), "test",
		`SELECT order_id FROM orders ORDER BY order_id`,
		func(columns []string, row []any) error {
			seen++
			return assert.AnError
		})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, seen)
}

func TestExecuteQueryPropagatesBackendErrors(t *testing.T) {
	registry := newTestRegistry(t)

	_, _, err := registry.ExecuteQuery(context.Background(), "test", `SELECT nope FROM missing`)
	require.Error(t, err)
}

func TestUnknownAlias(t *testing.T) {
	registry := executor.NewRegistry()
	t.Cleanup(func() { registry.Close() })

	_, _, err := registry.ExecuteQuery(context.Background(), "nope", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown connection alias "nope"`)
}

func TestUnsupportedProvider(t *testing.T) {
	registry := executor.NewRegistry()
	registry.Register("weird", executor.Connection{Provider: "oracle"})
	t.Cleanup(func() { registry.Close() })

	_, err := registry.DB("weird")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported provider "oracle"`)
}

func TestProvider(t *testing.T) {
	registry := executor.NewRegistry()
	registry.Register("dwh", executor.Connection{Provider: "postgres"})
	assert.Equal(t, "postgres", registry.Provider("dwh"))
	assert.Empty(t, registry.Provider("nope"))
}
