package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/datascope-io/datascope/dataset"
	"github.com/datascope-io/datascope/query/executor"
)

// RedactionMarker replaces the values of personal-data columns when a
// query is compiled without personal data. It is aliased to the original
// column name so the result shape is unaffected.
const RedactionMarker = "🔒"

// SQLOptions control how a query is rendered to SQL.
type SQLOptions struct {
	Limit  *int
	Offset *int

	// DecimalMark renders number columns with a comma decimal separator
	// when set to ",". Defaults to ".".
	DecimalMark string

	// IncludePersonalData includes the raw values of personal-data
	// columns. When false they are replaced by RedactionMarker.
	IncludePersonalData bool
}

// comparisonOperators is the allow-list for number and date predicates.
// Anything else compiles to a no-op so that operator strings can never
// smuggle SQL into the generated text.
var comparisonOperators = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// ToSQL renders the query as a SELECT statement. It returns "" when the
// query has no resolvable columns (the table is absent or nothing is
// selected), signaling "nothing to run" rather than an error.
func (q *Query) ToSQL(opts SQLOptions) string {
	if len(q.ColumnNames) == 0 {
		return ""
	}
	d := q.DataSet.Dialect()

	columns := make([]string, 0, len(q.ColumnNames))
	for _, name := range q.ColumnNames {
		quoted := d.QuoteIdentifier(name)
		switch {
		case !opts.IncludePersonalData && q.DataSet.IsPersonalData(name):
			columns = append(columns, fmt.Sprintf("%s AS %s", d.QuoteLiteral(RedactionMarker), quoted))
		case q.DataSet.Columns[name].Type == dataset.TypeNumber && opts.DecimalMark == ",":
			columns = append(columns, fmt.Sprintf("REPLACE('' || %s, '.', ',') AS %s", quoted, quoted))
		default:
			columns = append(columns, quoted)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ",\n       "))
	b.WriteString("\nFROM ")
	b.WriteString(d.QualifiedTable(q.DataSet.DatabaseSchema, q.DataSet.DatabaseTable))
	b.WriteString("\n")
	b.WriteString(q.FiltersToSQL())

	if q.SortOrder != SortNone && q.SortColumnName != "" {
		fmt.Fprintf(&b, "ORDER BY %s %s NULLS LAST\n", d.QuoteIdentifier(q.SortColumnName), q.SortOrder)
	}
	if opts.Limit != nil {
		fmt.Fprintf(&b, "LIMIT %d\n", *opts.Limit)
	}
	if opts.Offset != nil {
		fmt.Fprintf(&b, "OFFSET %d\n", *opts.Offset)
	}
	return b.String()
}

// FiltersToSQL renders the WHERE clause for the query's filters, or ""
// when there are none.
func (q *Query) FiltersToSQL() string {
	predicates := q.FilterPredicates()
	if len(predicates) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(predicates, "\n  AND ") + "\n"
}

// FilterPredicates compiles every filter to a SQL predicate, in order.
func (q *Query) FilterPredicates() []string {
	if len(q.Filters) == 0 {
		return nil
	}
	predicates := make([]string, len(q.Filters))
	for i, f := range q.Filters {
		predicates[i] = q.FilterToSQL(f)
	}
	return predicates
}

// FilterToSQL compiles a single filter to a SQL predicate, dispatching
// on the type of the filtered column. Filters that cannot be compiled
// safely become the tautology "1=1", an explicit no-op.
func (q *Query) FilterToSQL(f Filter) string {
	d := q.DataSet.Dialect()
	column := d.QuoteIdentifier(f.ColumnName)

	switch q.DataSet.Columns[f.ColumnName].Type {
	case dataset.TypeText:
		if f.Operator == "~" {
			clauses := make([]string, 0, len(f.Value))
			for _, value := range valuesOrEmpty(f.Value) {
				clauses = append(clauses,
					fmt.Sprintf("lower(%s) LIKE %s", column, d.QuoteLiteral("%"+strings.ToLower(value)+"%")))
			}
			return "(" + strings.Join(clauses, " OR ") + ")"
		}
		membership := "NOT IN"
		if f.Operator == "=" {
			membership = "IN"
		}
		literals := make([]string, 0, len(f.Value))
		for _, value := range valuesOrEmpty(f.Value) {
			literals = append(literals, d.QuoteLiteral(value))
		}
		return fmt.Sprintf("%s %s (%s)", column, membership, strings.Join(literals, ", "))

	case dataset.TypeTextArray:
		// text[] columns only occur on Postgres backends.
		literals := make([]string, 0, len(f.Value))
		for _, value := range valuesOrEmpty(f.Value) {
			literals = append(literals, d.QuoteLiteral(value))
		}
		clause := fmt.Sprintf("%s && ARRAY[%s]::TEXT[]", column, strings.Join(literals, ", "))
		if f.Operator == "!=" {
			return "not (" + clause + ")"
		}
		return clause

	case dataset.TypeNumber:
		if !comparisonOperators[f.Operator] || len(f.Value) == 0 {
			return "1=1"
		}
		number, err := strconv.ParseFloat(f.Value[0], 64)
		if err != nil {
			return "1=1"
		}
		return fmt.Sprintf("%s %s %s", column, f.Operator, formatNumber(number))

	case dataset.TypeDate:
		if !comparisonOperators[f.Operator] || len(f.Value) == 0 {
			return "1=1"
		}
		return fmt.Sprintf("%s %s %s", column, f.Operator, d.QuoteLiteral(f.Value[0]))

	default:
		return "1=1"
	}
}

// Run executes the compiled query and returns the result rows and
// column names, or nil when the query has no resolvable columns.
func (q *Query) Run(ctx context.Context, exec executor.Executor, opts SQLOptions) ([][]any, []string, error) {
	sqlText := q.ToSQL(opts)
	if sqlText == "" {
		return nil, nil, nil
	}
	return exec.ExecuteQuery(ctx, q.DataSet.ConnectionAlias, sqlText)
}

// RowCount returns how many rows the current set of filters selects.
func (q *Query) RowCount(ctx context.Context, exec executor.Executor) (int64, error) {
	sqlText := fmt.Sprintf("SELECT count(*)\nFROM %s\n%s",
		q.DataSet.Dialect().QualifiedTable(q.DataSet.DatabaseSchema, q.DataSet.DatabaseTable),
		q.FiltersToSQL())
	return q.countQuery(ctx, exec, sqlText)
}

// FilterRowCount returns how many rows the single filter at index i
// selects on its own, ignoring all other filters.
func (q *Query) FilterRowCount(ctx context.Context, exec executor.Executor, i int) (int64, error) {
	if i < 0 || i >= len(q.Filters) {
		return 0, fmt.Errorf("%w: %d of %d filters", ErrFilterIndexOutOfRange, i, len(q.Filters))
	}
	sqlText := fmt.Sprintf("SELECT count(*)\nFROM %s\nWHERE %s",
		q.DataSet.Dialect().QualifiedTable(q.DataSet.DatabaseSchema, q.DataSet.DatabaseTable),
		q.FilterToSQL(q.Filters[i]))
	return q.countQuery(ctx, exec, sqlText)
}

func (q *Query) countQuery(ctx context.Context, exec executor.Executor, sqlText string) (int64, error) {
	rows, _, err := exec.ExecuteQuery(ctx, q.DataSet.ConnectionAlias, sqlText)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return scanInt64(rows[0][0])
}

// valuesOrEmpty substitutes a single empty string for an empty value
// list so that membership tests stay syntactically valid.
func valuesOrEmpty(values []string) []string {
	if len(values) == 0 {
		return []string{""}
	}
	return values
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scanInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}
