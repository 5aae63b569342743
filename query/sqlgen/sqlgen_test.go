package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForProvider(t *testing.T) {
	assert.Equal(t, "postgres", ForProvider("postgresql").Name())
	assert.Equal(t, "postgres", ForProvider("postgres").Name())
	assert.Equal(t, "mysql", ForProvider("mysql").Name())
	assert.Equal(t, "sqlite", ForProvider("sqlite3").Name())

	// Unknown providers fall back to Postgres.
	assert.Equal(t, "postgres", ForProvider("oracle").Name())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"order_id"`, Postgres.QuoteIdentifier("order_id"))
	assert.Equal(t, `"weird""name"`, Postgres.QuoteIdentifier(`weird"name`))
	assert.Equal(t, "`order_id`", MySQL.QuoteIdentifier("order_id"))
	assert.Equal(t, "`weird``name`", MySQL.QuoteIdentifier("weird`name"))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `'plain'`, Postgres.QuoteLiteral("plain"))
	assert.Equal(t, `'O''Brien'`, Postgres.QuoteLiteral("O'Brien"))
	assert.Equal(t, `'a\\b'`, MySQL.QuoteLiteral(`a\b`))
	assert.Equal(t, `'it''s'`, SQLite.QuoteLiteral("it's"))
}

func TestDateLiteral(t *testing.T) {
	assert.Equal(t, `DATE '2024-01-01'`, Postgres.DateLiteral("2024-01-01"))
	assert.Equal(t, `DATE '2024-01-01'`, MySQL.DateLiteral("2024-01-01"))
	assert.Equal(t, `'2024-01-01'`, SQLite.DateLiteral("2024-01-01"))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", Postgres.Placeholder(1))
	assert.Equal(t, "$7", Postgres.Placeholder(7))
	assert.Equal(t, "?", MySQL.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(1))
}

func TestQualifiedTable(t *testing.T) {
	assert.Equal(t, `"public"."orders"`, Postgres.QualifiedTable("public", "orders"))
	assert.Equal(t, `"orders"`, Postgres.QualifiedTable("", "orders"))
	assert.Equal(t, "`dwh`.`orders`", MySQL.QualifiedTable("dwh", "orders"))
}
