// Package distribution computes frequency histograms for data set
// columns, adaptively choosing bucket widths for numbers and time
// resolutions for dates. All distributions respect the filters of the
// query they are computed for, so histograms always reflect the
// currently filtered view.
package distribution

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/executor"
)

// minBuckets is the minimum number of histogram buckets to aim for.
const minBuckets = 5

// topValues is how many categorical values a text distribution returns.
const topValues = 10

// minExponent floors the power-of-ten search for numeric bucket widths.
// It bounds the refinement loop for degenerate magnitudes (values that
// differ only below 1e-9) where floating point cannot split the range
// any further.
const minExponent = -9

// Bucket is one interval of a numeric histogram.
type Bucket struct {
	Min   float64
	Max   float64
	Count int64
}

// ValueCount is one categorical value and its row count.
type ValueCount struct {
	Value string
	Count int64
}

// Number returns a frequency histogram for a number column. Bucket
// boundaries lie on round power-of-ten multiples; at least six buckets
// are produced unless the range is a single value. Buckets without
// matching rows are omitted from the result, not backfilled with zeros.
func Number(ctx context.Context, exec executor.Executor, q *query.Query, columnName string) ([]Bucket, error) {
	ds := q.DataSet
	if !ds.HasColumn(columnName) {
		return nil, fmt.Errorf("%w: %q in data set %q", dataset.ErrUnknownColumn, columnName, ds.ID)
	}
	d := ds.Dialect()
	column := d.QuoteIdentifier(columnName)
	table := d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable)

	statsSQL := fmt.Sprintf(`SELECT min(%s) AS min_value,
       max(%s) AS max_value,
       count(*) AS number_of_values
FROM %s
WHERE %s IS NOT NULL%s`, column, column, table, column, filterConjunction(q))

	rows, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, statsSQL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0][0] == nil {
		return nil, nil
	}
	minValue, err := toFloat(rows[0][0])
	if err != nil {
		return nil, err
	}
	maxValue, err := toFloat(rows[0][1])
	if err != nil {
		return nil, err
	}
	count, err := toInt64(rows[0][2])
	if err != nil {
		return nil, err
	}

	if minValue == maxValue {
		return []Bucket{{Min: minValue, Max: maxValue, Count: count}}, nil
	}

	lower, width, n := chooseBuckets(minValue, maxValue)

	var b strings.Builder
	b.WriteString("SELECT CASE")
	for i := 0; i < n; i++ {
		upperBound := (lower + float64(i) + 1) * width
		fmt.Fprintf(&b, "\n    WHEN %s <= %s THEN %d", column, formatNumber(upperBound), i)
	}
	fmt.Fprintf(&b, `
  END AS bucket,
  count(*) AS n
FROM %s
WHERE %s IS NOT NULL%s
GROUP BY bucket
ORDER BY bucket`, table, column, filterConjunction(q))

	grouped, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, b.String())
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(grouped))
	for _, row := range grouped {
		if len(row) < 2 || row[0] == nil {
			continue
		}
		index, err := toInt64(row[0])
		if err != nil {
			return nil, err
		}
		rowCount, err := toInt64(row[1])
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, Bucket{
			Min:   (lower + float64(index)) * width,
			Max:   (lower + float64(index) + 1) * width,
			Count: rowCount,
		})
	}
	return buckets, nil
}

// chooseBuckets finds the coarsest power-of-ten bucket width that still
// yields more than minBuckets buckets across [minValue, maxValue].
// It returns the scaled lower bound, the bucket width and the bucket
// count; bucket i spans (lower+i)*width to (lower+i+1)*width.
func chooseBuckets(minValue, maxValue float64) (lower, width float64, n int) {
	exponent := int(math.Ceil(math.Max(log10OrZero(minValue), log10OrZero(maxValue))))

	for {
		width = math.Pow(10, float64(exponent))
		lo := math.Floor(minValue / width)
		hi := math.Ceil(maxValue / width)
		if int(hi-lo) > minBuckets || exponent <= minExponent {
			n = int(hi - lo)
			if n < 1 {
				n = 1
			}
			return lo, width, n
		}
		exponent--
	}
}

// log10OrZero treats the logarithm of zero as zero, matching the
// histogram's magnitude search semantics.
func log10OrZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Log10(math.Abs(v))
}

// Text returns the most frequent values of a text column and their
// counts, most frequent first.
func Text(ctx context.Context, exec executor.Executor, q *query.Query, columnName string) ([]ValueCount, error) {
	ds := q.DataSet
	if !ds.HasColumn(columnName) {
		return nil, fmt.Errorf("%w: %q in data set %q", dataset.ErrUnknownColumn, columnName, ds.ID)
	}
	column := ds.Dialect().QuoteIdentifier(columnName)
	return valueCounts(ctx, exec, q, column, column)
}

// TextArray returns the most frequent values of a text array column and
// their counts; arrays are flattened before counting.
func TextArray(ctx context.Context, exec executor.Executor, q *query.Query, columnName string) ([]ValueCount, error) {
	ds := q.DataSet
	if !ds.HasColumn(columnName) {
		return nil, fmt.Errorf("%w: %q in data set %q", dataset.ErrUnknownColumn, columnName, ds.ID)
	}
	column := ds.Dialect().QuoteIdentifier(columnName)
	return valueCounts(ctx, exec, q, fmt.Sprintf("unnest(%s)", column), column)
}

func valueCounts(ctx context.Context, exec executor.Executor, q *query.Query, selectExpr, whereColumn string) ([]ValueCount, error) {
	ds := q.DataSet
	d := ds.Dialect()
	sqlText := fmt.Sprintf(`SELECT %s AS value,
       count(*) AS n
FROM %s
WHERE %s IS NOT NULL%s
GROUP BY value
ORDER BY n DESC
LIMIT %d`, selectExpr,
		d.QualifiedTable(ds.DatabaseSchema, ds.DatabaseTable),
		whereColumn, filterConjunction(q), topValues)

	rows, _, err := exec.ExecuteQuery(ctx, ds.ConnectionAlias, sqlText)
	if err != nil {
		return nil, err
	}

	values := make([]ValueCount, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		count, err := toInt64(row[1])
		if err != nil {
			return nil, err
		}
		values = append(values, ValueCount{Value: fmt.Sprintf("%v", row[0]), Count: count})
	}
	return values, nil
}

// filterConjunction renders the query's filters as AND-ed predicates to
// append after an IS NOT NULL guard.
func filterConjunction(q *query.Query) string {
	predicates := q.FilterPredicates()
	if len(predicates) == 0 {
		return ""
	}
	return "\n      AND " + strings.Join(predicates, "\n      AND ")
}
