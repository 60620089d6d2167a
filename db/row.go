package db

import (
	"encoding/json"
	"fmt"
)

// Row is one record of an analysis table, holding a converted value per schema column. Rows read
// with the same schema share its column slice.
type Row struct {
	columns []Column
	values  []any
}

// NewRow expects one value per column, in column order.
func NewRow(columns []Column, values []any) Row {
	return Row{columns: columns, values: values}
}

func (row Row) Get(column string) (any, error) {
	for i, candidate := range row.columns {
		if candidate.Name == column {
			return row.values[i], nil
		}
	}

	return nil, fmt.Errorf("row has no column '%s'", column)
}

// At returns the value of the column at the given schema index.
func (row Row) At(index int) any {
	return row.values[index]
}

func (row Row) Values() []any {
	return row.values
}

func (row Row) MarshalJSON() ([]byte, error) {
	rowMap := make(map[string]any, len(row.columns))
	for i, column := range row.columns {
		rowMap[column.Name] = row.values[i]
	}
	return json.Marshal(rowMap)
}
