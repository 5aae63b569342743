package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope-io/datascope/query"
)

func TestParseFilterFlags(t *testing.T) {
	filters, err := parseFilterFlags([]string{
		"status:=:open|pending",
		"amount:>=:100",
		"ordered_at:<:2024-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, []query.Filter{
		{ColumnName: "status", Operator: "=", Value: []string{"open", "pending"}},
		{ColumnName: "amount", Operator: ">=", Value: []string{"100"}},
		{ColumnName: "ordered_at", Operator: "<", Value: []string{"2024-01-01"}},
	}, filters)
}

func TestParseFilterFlagsWithoutValue(t *testing.T) {
	filters, err := parseFilterFlags([]string{"status:="})
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Empty(t, filters[0].Value)
}

// Values may contain colons; only the first two separate fields.
func TestParseFilterFlagsColonInValue(t *testing.T) {
	filters, err := parseFilterFlags([]string{"note:~:a:b:c"})
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, []string{"a:b:c"}, filters[0].Value)
}

func TestParseFilterFlagsInvalid(t *testing.T) {
	_, err := parseFilterFlags([]string{"status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestParseFilterFlagsEmpty(t *testing.T) {
	filters, err := parseFilterFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, filters)
}
