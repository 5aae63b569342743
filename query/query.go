// Package query builds and compiles declarative, typed data set queries.
package query

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/datascope-io/datascope/dataset"
)

// ErrFilterIndexOutOfRange is returned by FilterRowCount for an invalid
// filter index.
var ErrFilterIndexOutOfRange = errors.New("filter index out of range")

// SortOrder is the direction of the query's ORDER BY clause.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
	SortNone SortOrder = ""
)

// DataSetProvider resolves data sets by id. The columns of a returned
// data set must already be populated; query construction performs no I/O.
type DataSetProvider interface {
	FindDataSet(id string) (*dataset.DataSet, error)
}

// Query is a validated, immutable description of a data set query:
// selected columns, sort order and a conjunction of filters. Construct
// one with New; a constructed query is safe for concurrent use.
type Query struct {
	DataSet *dataset.DataSet

	DataSetID      string
	QueryID        string
	ColumnNames    []string
	SortColumnName string
	SortOrder      SortOrder
	Filters        []Filter

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

// Params carries the caller-supplied parts of a query.
type Params struct {
	QueryID        string
	ColumnNames    []string
	SortColumnName string
	SortOrder      SortOrder
	Filters        []Filter

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

var nonWord = regexp.MustCompile(`\W+`)

// New builds a validated query for the identified data set.
//
// Unknown column names, filters on unknown columns and an invalid sort
// column are silently dropped so that stale saved queries degrade
// gracefully when a data set's schema changes. Only resolving the data
// set itself can fail.
func New(provider DataSetProvider, dataSetID string, p Params) (*Query, error) {
	ds, err := provider.FindDataSet(dataSetID)
	if err != nil {
		return nil, err
	}

	q := &Query{
		DataSet:   ds,
		DataSetID: dataSetID,
		QueryID:   normalizeQueryID(p.QueryID),
		SortOrder: normalizeSortOrder(p.SortOrder),
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
		UpdatedAt: p.UpdatedAt,
		UpdatedBy: p.UpdatedBy,
	}

	q.ColumnNames = resolveColumns(ds, p.ColumnNames)

	if ds.HasColumn(p.SortColumnName) {
		q.SortColumnName = p.SortColumnName
	}

	for _, f := range p.Filters {
		if ds.HasColumn(f.ColumnName) {
			q.Filters = append(q.Filters, f)
		}
	}

	return q, nil
}

// resolveColumns projects the requested columns onto the schema:
// explicit columns intersected with the schema if given, else the data
// set's default columns intersected with the schema, else all schema
// columns in schema order.
func resolveColumns(ds *dataset.DataSet, requested []string) []string {
	var columns []string
	for _, name := range requested {
		if ds.HasColumn(name) {
			columns = append(columns, name)
		}
	}
	if len(columns) > 0 {
		return columns
	}
	for _, name := range ds.DefaultColumnNames {
		if ds.HasColumn(name) {
			columns = append(columns, name)
		}
	}
	if len(columns) > 0 {
		return columns
	}
	return ds.ColumnNames()
}

// normalizeQueryID collapses runs of non-word characters to a single
// separator and lower-cases the result; empty input stays empty.
func normalizeQueryID(id string) string {
	if id == "" {
		return ""
	}
	return strings.ToLower(nonWord.ReplaceAllString(id, "-"))
}

func normalizeSortOrder(order SortOrder) SortOrder {
	switch SortOrder(strings.ToUpper(string(order))) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// ToMap converts the query to a plain mapping for serialization.
func (q *Query) ToMap() map[string]any {
	filters := make([]any, len(q.Filters))
	for i, f := range q.Filters {
		filters[i] = f.ToMap()
	}
	columns := make([]any, len(q.ColumnNames))
	for i, name := range q.ColumnNames {
		columns[i] = name
	}
	return map[string]any{
		"data_set_id":      q.DataSetID,
		"query_id":         q.QueryID,
		"column_names":     columns,
		"sort_column_name": q.SortColumnName,
		"sort_order":       string(q.SortOrder),
		"filters":          filters,
		"created_at":       formatDate(q.CreatedAt),
		"created_by":       q.CreatedBy,
		"updated_at":       formatDate(q.UpdatedAt),
		"updated_by":       q.UpdatedBy,
	}
}

// FromMap reconstructs a query from its plain mapping form, re-running
// the full validation against the current schema.
func FromMap(provider DataSetProvider, m map[string]any) (*Query, error) {
	p := Params{
		QueryID:        stringValue(m["query_id"]),
		SortColumnName: stringValue(m["sort_column_name"]),
		SortOrder:      SortOrder(stringValue(m["sort_order"])),
		CreatedBy:      stringValue(m["created_by"]),
		UpdatedBy:      stringValue(m["updated_by"]),
		CreatedAt:      parseDate(m["created_at"]),
		UpdatedAt:      parseDate(m["updated_at"]),
	}
	p.ColumnNames = stringList(m["column_names"])
	if filters, ok := m["filters"].([]any); ok {
		for _, item := range filters {
			if fm, ok := item.(map[string]any); ok {
				p.Filters = append(p.Filters, FilterFromMap(fm))
			}
		}
	}
	return New(provider, stringValue(m["data_set_id"]), p)
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, stringValue(item))
		}
		return out
	default:
		return nil
	}
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDate(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	s := stringValue(v)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
