package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertSQLPerDialect(t *testing.T) {
	postgres := New(nil, "postgres").upsertSQL()
	assert.Contains(t, postgres, "ON CONFLICT (query_id, data_set_id)")
	assert.Contains(t, postgres, "EXCLUDED.updated_by")
	assert.Contains(t, postgres, "$10")

	mysql := New(nil, "mysql").upsertSQL()
	assert.Contains(t, mysql, "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, mysql, "VALUES(updated_by)")
	assert.NotContains(t, mysql, "ON CONFLICT")
	assert.NotContains(t, mysql, "$")

	sqlite := New(nil, "sqlite").upsertSQL()
	assert.Contains(t, sqlite, "ON CONFLICT (query_id, data_set_id)")
	assert.NotContains(t, sqlite, "$")
}
