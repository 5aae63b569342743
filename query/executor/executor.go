// Package executor runs generated SQL against named database connections.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Executor runs SQL text against a named connection and returns the
// result rows together with the result column names. Backend errors are
// propagated to the caller unmodified; no retries are performed.
type Executor interface {
	ExecuteQuery(ctx context.Context, alias string, sqlText string) (rows [][]any, columns []string, err error)

	// StreamQuery hands result rows to fn one at a time. When the query
	// matches no rows, fn is called once with a nil row so that callers
	// always see the result column names. The underlying cursor is
	// released on every exit path, including when fn returns an error.
	StreamQuery(ctx context.Context, alias string, sqlText string, fn func(columns []string, row []any) error) error
}

// Connection describes a named database connection.
type Connection struct {
	Provider string
	DSN      string
}

// Registry maps connection aliases to database handles, opening them
// lazily and caching them for reuse.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Connection
	dbs   map[string]*sql.DB
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Connection),
		dbs:   make(map[string]*sql.DB),
	}
}

// Register adds a connection under the given alias.
func (r *Registry) Register(alias string, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[alias] = conn
}

// Provider returns the provider name registered for an alias, or "".
func (r *Registry) Provider(alias string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[alias].Provider
}

// DB returns the database handle for an alias, opening it on first use.
func (r *Registry) DB(alias string) (*sql.DB, error) {
	r.mu.RLock()
	db, ok := r.dbs[alias]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.dbs[alias]; ok {
		return db, nil
	}

	conn, ok := r.conns[alias]
	if !ok {
		return nil, fmt.Errorf("unknown connection alias %q", alias)
	}
	driver := driverName(conn.Provider)
	if driver == "" {
		return nil, fmt.Errorf("unsupported provider %q for connection %q", conn.Provider, alias)
	}

	db, err := sql.Open(driver, conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection %q: %w", alias, err)
	}
	r.dbs[alias] = db
	return db, nil
}

// Close closes all opened database handles.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for alias, db := range r.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.dbs, alias)
	}
	return firstErr
}

// ExecuteQuery runs sqlText on the aliased connection and returns all
// rows plus the result column names.
func (r *Registry) ExecuteQuery(ctx context.Context, alias string, sqlText string) ([][]any, []string, error) {
	var (
		result  [][]any
		columns []string
	)
	err := r.StreamQuery(ctx, alias, sqlText, func(cols []string, row []any) error {
		columns = cols
		if row != nil {
			result = append(result, row)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, columns, nil
}

// StreamQuery runs sqlText and passes each row to fn. An empty result
// set still delivers the column names through a single nil-row call.
func (r *Registry) StreamQuery(ctx context.Context, alias string, sqlText string, fn func(columns []string, row []any) error) error {
	db, err := r.DB(alias)
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}

	delivered := false
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		if err := fn(columns, values); err != nil {
			return err
		}
		delivered = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if !delivered {
		return fn(columns, nil)
	}
	return nil
}

// driverName maps provider names to database/sql driver names.
func driverName(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}
