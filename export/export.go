// Package export shapes query results for CSV and spreadsheet targets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/datascope-io/datascope/query"
	"github.com/datascope-io/datascope/query/executor"
)

// Spreadsheet cells are capped below the 50k-character API limit; longer
// values are cut and marked with an ellipsis.
const (
	maxCellLength       = 50000
	truncatedCellLength = 48995
)

// ArrayFormat selects how array values are rendered in exported cells.
type ArrayFormat string

const (
	ArrayBrackets ArrayFormat = "brackets"
	ArrayCurly    ArrayFormat = "curly"
	ArrayTuple    ArrayFormat = "tuple"
)

// Options control export rendering.
type Options struct {
	Delimiter           rune
	DecimalMark         string
	IncludePersonalData bool
	Header              bool
	Limit               *int
	ArrayFormat         ArrayFormat
}

// CSV writes the query result as CSV. Nothing is written when the query
// has no resolvable columns.
func CSV(ctx context.Context, exec executor.Executor, q *query.Query, opts Options, w io.Writer) error {
	sqlText := q.ToSQL(query.SQLOptions{
		Limit:               opts.Limit,
		DecimalMark:         opts.DecimalMark,
		IncludePersonalData: opts.IncludePersonalData,
	})
	if sqlText == "" {
		return nil
	}

	writer := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		writer.Comma = opts.Delimiter
	}

	wroteHeader := false
	err := exec.StreamQuery(ctx, q.DataSet.ConnectionAlias, sqlText, func(columns []string, row []any) error {
		if !wroteHeader {
			if err := writer.Write(columns); err != nil {
				return err
			}
			wroteHeader = true
		}
		if row == nil {
			return nil
		}
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = cellString(value, opts.ArrayFormat)
		}
		return writer.Write(record)
	})
	if err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// SheetRows runs the query and returns rows shaped for a spreadsheet
// data input: an optional header row of column names followed by one
// list per result row. Long text cells are truncated, arrays rendered
// per the configured format and timestamps formatted as DD-MM-YYYY.
// A query with no resolvable columns yields nil.
func SheetRows(ctx context.Context, exec executor.Executor, q *query.Query, opts Options) ([][]any, error) {
	sqlText := q.ToSQL(query.SQLOptions{
		Limit:               opts.Limit,
		DecimalMark:         opts.DecimalMark,
		IncludePersonalData: opts.IncludePersonalData,
	})
	if sqlText == "" {
		return nil, nil
	}

	var out [][]any
	wroteHeader := false
	err := exec.StreamQuery(ctx, q.DataSet.ConnectionAlias, sqlText, func(columns []string, row []any) error {
		if opts.Header && !wroteHeader {
			header := make([]any, len(columns))
			for i, name := range columns {
				header[i] = name
			}
			out = append(out, header)
			wroteHeader = true
		}
		if row == nil {
			return nil
		}
		shaped := make([]any, len(row))
		for i, value := range row {
			shaped[i] = sheetCell(value, opts.ArrayFormat)
		}
		out = append(out, shaped)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// sheetCell shapes a single raw value for a spreadsheet cell.
func sheetCell(value any, format ArrayFormat) any {
	switch v := value.(type) {
	case string:
		return truncateCell(scrubTabs(v))
	case []string:
		return truncateCell(formatArray(v, format))
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprintf("%v", item)
		}
		return truncateCell(formatArray(items, format))
	case time.Time:
		return v.Format("02-01-2006")
	default:
		return value
	}
}

func cellString(value any, format ArrayFormat) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return formatArray(v, format)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprintf("%v", item)
		}
		return formatArray(items, format)
	case time.Time:
		return v.Format("02-01-2006")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatArray(items []string, format ArrayFormat) string {
	if len(items) == 0 {
		return ""
	}
	scrubbed := make([]string, len(items))
	for i, item := range items {
		scrubbed[i] = scrubTabs(item)
	}
	joined := strings.Join(scrubbed, ", ")
	switch format {
	case ArrayCurly:
		return "{" + joined + "}"
	case ArrayTuple:
		return "(" + joined + ")"
	default:
		return "[" + joined + "]"
	}
}

func scrubTabs(s string) string {
	return strings.ReplaceAll(s, "\t", " - ")
}

func truncateCell(s string) string {
	if len(s) > maxCellLength {
		return s[:truncatedCellLength] + " ... "
	}
	return s
}
