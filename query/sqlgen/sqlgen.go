// Package sqlgen provides dialect-aware quoting for generated SQL.
package sqlgen

import (
	"fmt"
	"strings"
)

// Dialect holds the quoting rules of a database provider.
type Dialect struct {
	name            string
	identifierQuote string
	escapeBackslash bool
	numberedArgs    bool
}

var (
	// Postgres quotes identifiers with double quotes and uses $N placeholders.
	Postgres = Dialect{name: "postgres", identifierQuote: `"`, numberedArgs: true}

	// MySQL quotes identifiers with backticks and treats backslash as an
	// escape character inside string literals.
	MySQL = Dialect{name: "mysql", identifierQuote: "`", escapeBackslash: true}

	// SQLite follows the SQL standard double-quote identifier syntax.
	SQLite = Dialect{name: "sqlite", identifierQuote: `"`}
)

// ForProvider returns the dialect for the given provider name,
// defaulting to Postgres.
func ForProvider(provider string) Dialect {
	switch provider {
	case "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return Postgres
	}
}

// Name returns the provider name of the dialect.
func (d Dialect) Name() string { return d.name }

// QuoteIdentifier wraps a column or table name in the dialect's identifier
// quoting syntax, escaping embedded quote characters by doubling them.
func (d Dialect) QuoteIdentifier(name string) string {
	q := d.identifierQuote
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QuoteLiteral renders a string value as a SQL text literal. Embedded
// single quotes are doubled; backslashes are escaped for dialects that
// treat them as escape characters.
func (d Dialect) QuoteLiteral(text string) string {
	if d.escapeBackslash {
		text = strings.ReplaceAll(text, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}

// DateLiteral renders an ISO date string as a date literal. SQLite has
// no DATE literal syntax and compares dates as text, so it gets the
// plain quoted string.
func (d Dialect) DateLiteral(iso string) string {
	literal := d.QuoteLiteral(iso)
	if d.name == "sqlite" {
		return literal
	}
	return "DATE " + literal
}

// Placeholder returns the bind-parameter placeholder for the 1-based
// position i.
func (d Dialect) Placeholder(i int) string {
	if d.numberedArgs {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// QualifiedTable renders a schema-qualified table reference.
func (d Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}
