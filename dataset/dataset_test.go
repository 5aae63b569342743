package dataset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope-io/datascope/dataset"
)

type fakeExecutor struct {
	queries []string
	rows    [][]any
	err     error
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, alias string, sqlText string) ([][]any, []string, error) {
	f.queries = append(f.queries, sqlText)
	return f.rows, nil, f.err
}

func (f *fakeExecutor) StreamQuery(ctx context.Context, alias string, sqlText string, fn func(columns []string, row []any) error) error {
	rows, _, err := f.ExecuteQuery(ctx, alias, sqlText)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fn(nil, nil)
	}
	for _, row := range rows {
		if err := fn(nil, row); err != nil {
			return err
		}
	}
	return nil
}

func customersDataSet() *dataset.DataSet {
	return &dataset.DataSet{
		ID:              "customers",
		Name:            "Customers",
		ConnectionAlias: "dwh",
		DatabaseSchema:  "public",
		DatabaseTable:   "customers",
		Provider:        "postgres",
		Columns: map[string]dataset.Column{
			"customer_id": {Name: "customer_id", Type: dataset.TypeNumber},
			"city":        {Name: "city", Type: dataset.TypeText},
			"interests":   {Name: "interests", Type: dataset.TypeTextArray},
			"email":       {Name: "email", Type: dataset.TypeText},
		},
		ColumnOrder:             []string{"customer_id", "city", "interests", "email"},
		PersonalDataColumnNames: []string{"email"},
	}
}

func TestRegistry(t *testing.T) {
	ds := customersDataSet()
	registry := dataset.NewRegistry(ds)

	found, err := registry.FindDataSet("customers")
	require.NoError(t, err)
	assert.Same(t, ds, found)

	_, err = registry.FindDataSet("nope")
	require.ErrorIs(t, err, dataset.ErrDataSetNotFound)

	assert.Equal(t, []*dataset.DataSet{ds}, registry.List())
}

func TestRegistryReplacesById(t *testing.T) {
	first := customersDataSet()
	second := customersDataSet()
	second.Name = "Customers v2"

	registry := dataset.NewRegistry(first, second)
	found, err := registry.FindDataSet("customers")
	require.NoError(t, err)
	assert.Same(t, second, found)
	assert.Len(t, registry.List(), 1)
}

func TestColumnNamesKeepSchemaOrder(t *testing.T) {
	ds := customersDataSet()
	assert.Equal(t, []string{"customer_id", "city", "interests", "email"}, ds.ColumnNames())

	// Columns missing from the declared order still show up at the end.
	ds.ColumnOrder = []string{"city"}
	names := ds.ColumnNames()
	assert.Len(t, names, 4)
	assert.Equal(t, "city", names[0])
}

func TestIsPersonalData(t *testing.T) {
	ds := customersDataSet()
	assert.True(t, ds.IsPersonalData("email"))
	assert.False(t, ds.IsPersonalData("city"))
}

func TestColumnSortable(t *testing.T) {
	assert.True(t, dataset.Column{Type: dataset.TypeText}.Sortable())
	assert.True(t, dataset.Column{Type: dataset.TypeNumber}.Sortable())
	assert.True(t, dataset.Column{Type: dataset.TypeDate}.Sortable())
	assert.False(t, dataset.Column{Type: dataset.TypeTextArray}.Sortable())
	assert.False(t, dataset.Column{Type: dataset.TypeJSON}.Sortable())
}

func TestRowCount(t *testing.T) {
	ds := customersDataSet()
	exec := &fakeExecutor{rows: [][]any{{int64(123)}}}

	count, err := ds.RowCount(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, int64(123), count)
	require.Len(t, exec.queries, 1)
	assert.Equal(t, `SELECT count(*) FROM "public"."customers"`, exec.queries[0])
}

func TestRowCountWithoutColumns(t *testing.T) {
	ds := &dataset.DataSet{ID: "empty", Provider: "postgres"}
	exec := &fakeExecutor{}

	count, err := ds.RowCount(context.Background(), exec)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, exec.queries)
}

func TestAutocompletePlainColumn(t *testing.T) {
	ds := customersDataSet()
	exec := &fakeExecutor{rows: [][]any{{"Berlin"}, {"Bern"}}}

	values, err := ds.Autocomplete(context.Background(), exec, "city", "Ber")
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Bern"}, values)

	require.Len(t, exec.queries, 1)
	sqlText := exec.queries[0]
	assert.Contains(t, sqlText, `SELECT DISTINCT "city"`)
	assert.Contains(t, sqlText, `lower("city") LIKE '%ber%'`)
	assert.Contains(t, sqlText, "LIMIT 50")
}

func TestAutocompleteArrayColumn(t *testing.T) {
	ds := customersDataSet()
	exec := &fakeExecutor{rows: [][]any{{"cycling"}}}

	values, err := ds.Autocomplete(context.Background(), exec, "interests", "cyc")
	require.NoError(t, err)
	assert.Equal(t, []string{"cycling"}, values)
	assert.Contains(t, exec.queries[0], `SELECT DISTINCT unnest("interests") AS f`)
}

func TestAutocompleteAttributesTable(t *testing.T) {
	ds := customersDataSet()
	ds.UseAttributesTable = true
	exec := &fakeExecutor{}

	_, err := ds.Autocomplete(context.Background(), exec, "city", "ber")
	require.NoError(t, err)
	sqlText := exec.queries[0]
	assert.Contains(t, sqlText, `FROM "public"."customers_attributes"`)
	assert.Contains(t, sqlText, `WHERE attribute = 'city'`)
}

func TestAutocompleteQuotesTerm(t *testing.T) {
	ds := customersDataSet()
	exec := &fakeExecutor{}

	_, err := ds.Autocomplete(context.Background(), exec, "city", "O'Brien")
	require.NoError(t, err)
	assert.Contains(t, exec.queries[0], `'%o''brien%'`)
}

func TestAutocompleteUnknownColumn(t *testing.T) {
	ds := customersDataSet()
	_, err := ds.Autocomplete(context.Background(), &fakeExecutor{}, "nope", "x")
	require.ErrorIs(t, err, dataset.ErrUnknownColumn)
}
