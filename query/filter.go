package query

import "fmt"

// Filter is a single column-scoped restriction of a data set query.
// Filters are plain value objects; operator legality depends on the
// column type and is enforced when the filter is compiled to SQL.
type Filter struct {
	ColumnName string   `json:"column_name"`
	Operator   string   `json:"operator"`
	Value      []string `json:"value"`
}

// NewFilter creates a filter. Scalar values are carried as a
// one-element list.
func NewFilter(columnName, operator string, values ...string) Filter {
	return Filter{ColumnName: columnName, Operator: operator, Value: values}
}

// ToMap converts the filter to a plain mapping for serialization.
func (f Filter) ToMap() map[string]any {
	values := make([]any, len(f.Value))
	for i, v := range f.Value {
		values[i] = v
	}
	return map[string]any{
		"column_name": f.ColumnName,
		"operator":    f.Operator,
		"value":       values,
	}
}

// FilterFromMap reconstructs a filter from its plain mapping form.
// The value entry may be a scalar or a list of scalars.
func FilterFromMap(m map[string]any) Filter {
	f := Filter{
		ColumnName: stringValue(m["column_name"]),
		Operator:   stringValue(m["operator"]),
	}
	switch v := m["value"].(type) {
	case nil:
	case []string:
		f.Value = append(f.Value, v...)
	case []any:
		for _, item := range v {
			f.Value = append(f.Value, stringValue(item))
		}
	default:
		f.Value = []string{stringValue(v)}
	}
	return f
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
