package distribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query"
)

type fakeExecutor struct {
	queries []string
	rows    [][][]any
	err     error
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, alias string, sqlText string) ([][]any, []string, error) {
	f.queries = append(f.queries, sqlText)
	if f.err != nil {
		return nil, nil, f.err
	}
	call := len(f.queries) - 1
	if call < len(f.rows) {
		return f.rows[call], nil, nil
	}
	return nil, nil, nil
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

func histogramQuery(t *testing.T, filters ...query.Filter) *query.Query {
	t.Helper()
	ds := &dataset.DataSet{
		ID:              "orders",
		ConnectionAlias: "dwh",
		DatabaseSchema:  "public",
		DatabaseTable:   "orders",
		Provider:        "postgres",
		Columns: map[string]dataset.Column{
			"amount":     {Name: "amount", Type: dataset.TypeNumber},
			"status":     {Name: "status", Type: dataset.TypeText},
			"tags":       {Name: "tags", Type: dataset.TypeTextArray},
			"ordered_at": {Name: "ordered_at", Type: dataset.TypeDate},
		},
		ColumnOrder: []string{"amount", "status", "tags", "ordered_at"},
	}
	q, err := query.New(dataset.NewRegistry(ds), "orders", query.Params{Filters: filters})
	require.NoError(t, err)
	return q
}

func TestChooseBuckets(t *testing.T) {
	lower, width, n := chooseBuckets(1, 1000)
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 100.0, width)
	assert.Equal(t, 10, n)

	lower, width, n = chooseBuckets(2, 9)
	assert.Equal(t, 2.0, lower)
	assert.Equal(t, 1.0, width)
	assert.Equal(t, 7, n)

	lower, width, n = chooseBuckets(-25, 40)
	assert.Equal(t, -3.0, lower)
	assert.Equal(t, 10.0, width)
	assert.Equal(t, 7, n)
}

// Values that differ only below the exponent floor must still terminate
// the width search.
func TestChooseBucketsDegenerateRange(t *testing.T) {
	_, width, n := chooseBuckets(1e-12, 2e-12)
	assert.Greater(t, width, 0.0)
	assert.GreaterOrEqual(t, n, 1)
}

func TestNumberHistogram(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{1.0, 1000.0, int64(5)}},
		{{int64(0), int64(3)}, {int64(9), int64(2)}},
	}}

	buckets, err := Number(context.Background(), exec, q, "amount")
	require.NoError(t, err)
	assert.Equal(t, []Bucket{
		{Min: 0, Max: 100, Count: 3},
		{Min: 900, Max: 1000, Count: 2},
	}, buckets)

	require.Len(t, exec.queries, 2)
	assert.Contains(t, exec.queries[0], `min("amount")`)
	assert.Contains(t, exec.queries[0], `WHERE "amount" IS NOT NULL`)
	assert.Contains(t, exec.queries[1], `WHEN "amount" <= 100 THEN 0`)
	assert.Contains(t, exec.queries[1], `WHEN "amount" <= 1000 THEN 9`)
	assert.Contains(t, exec.queries[1], "GROUP BY bucket")
}

func TestNumberHistogramSingleValue(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{7.0, 7.0, int64(3)}},
	}}

	buckets, err := Number(context.Background(), exec, q, "amount")
	require.NoError(t, err)
	assert.Equal(t, []Bucket{{Min: 7, Max: 7, Count: 3}}, buckets)
	assert.Len(t, exec.queries, 1)
}

func TestNumberHistogramNoData(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{nil, nil, int64(0)}},
	}}

	buckets, err := Number(context.Background(), exec, q, "amount")
	require.NoError(t, err)
	assert.Nil(t, buckets)
}

func TestNumberHistogramRespectsFilters(t *testing.T) {
	q := histogramQuery(t, query.NewFilter("status", "=", "open"))
	exec := &fakeExecutor{rows: [][][]any{
		{{7.0, 7.0, int64(1)}},
	}}

	_, err := Number(context.Background(), exec, q, "amount")
	require.NoError(t, err)
	assert.Contains(t, exec.queries[0], `AND "status" IN ('open')`)
}

func TestNumberHistogramUnknownColumn(t *testing.T) {
	q := histogramQuery(t)
	_, err := Number(context.Background(), &fakeExecutor{}, q, "nope")
	require.ErrorIs(t, err, dataset.ErrUnknownColumn)
}

func TestTextDistribution(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{"open", int64(12)}, {"closed", int64(5)}},
	}}

	values, err := Text(context.Background(), exec, q, "status")
	require.NoError(t, err)
	assert.Equal(t, []ValueCount{
		{Value: "open", Count: 12},
		{Value: "closed", Count: 5},
	}, values)

	require.Len(t, exec.queries, 1)
	assert.Contains(t, exec.queries[0], `SELECT "status" AS value`)
	assert.Contains(t, exec.queries[0], "ORDER BY n DESC")
	assert.Contains(t, exec.queries[0], "LIMIT 10")
}

func TestTextArrayDistributionUnnestsOnlyInSelect(t *testing.T) {
	q := histogramQuery(t)
	exec := &fakeExecutor{rows: [][][]any{
		{{"sale", int64(9)}},
	}}

	values, err := TextArray(context.Background(), exec, q, "tags")
	require.NoError(t, err)
	assert.Equal(t, []ValueCount{{Value: "sale", Count: 9}}, values)

	require.Len(t, exec.queries, 1)
	assert.Contains(t, exec.queries[0], `SELECT unnest("tags") AS value`)
	assert.Contains(t, exec.queries[0], `WHERE "tags" IS NOT NULL`)
	assert.NotContains(t, exec.queries[0], `WHERE unnest`)
}
