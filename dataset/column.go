package dataset

// ColumnType classifies a data set column for predicate compilation and
// distribution strategy selection.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeTextArray ColumnType = "text[]"
	TypeNumber    ColumnType = "number"
	TypeDate      ColumnType = "date"
	TypeJSON      ColumnType = "json"
)

// Column describes a single column of a data set table.
type Column struct {
	Name string     `json:"column_name"`
	Type ColumnType `json:"type"`
}

// Sortable reports whether the column can be used in an ORDER BY clause.
func (c Column) Sortable() bool {
	return c.Type != TypeJSON && c.Type != TypeTextArray
}

// ToMap converts the column to a plain mapping.
func (c Column) ToMap() map[string]any {
	return map[string]any{"column_name": c.Name, "type": string(c.Type)}
}
