package db

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypedValue is a scan target for one column of a database row.
type TypedValue interface {
	Value() any
	Pointer() any
	DataType() DataType
	Set(value any) (ok bool)
}

type typedValue[T comparable] struct {
	dataType DataType
	value    T
}

// nullableValue scans columns that may hold NULL, which the drivers map to a nil pointer.
type nullableValue[T comparable] struct {
	dataType DataType
	value    *T
}

func NewTypedValue(column Column) (TypedValue, error) {
	if column.Optional {
		switch column.DataType {
		case DataTypeText, DataTypeUUID:
			return &nullableValue[string]{dataType: column.DataType}, nil
		case DataTypeInt:
			return &nullableValue[int64]{dataType: column.DataType}, nil
		case DataTypeFloat:
			return &nullableValue[float64]{dataType: column.DataType}, nil
		case DataTypeTimestamp:
			return &nullableValue[time.Time]{dataType: column.DataType}, nil
		}
	} else {
		switch column.DataType {
		case DataTypeText, DataTypeUUID:
			return &typedValue[string]{dataType: column.DataType}, nil
		case DataTypeInt:
			return &typedValue[int64]{dataType: column.DataType}, nil
		case DataTypeFloat:
			return &typedValue[float64]{dataType: column.DataType}, nil
		case DataTypeTimestamp:
			return &typedValue[time.Time]{dataType: column.DataType}, nil
		}
	}

	return nil, fmt.Errorf("unrecognized data type %v in column '%s'", column.DataType, column.Name)
}

// NewTypedValues creates a scan target for every column of the schema, and a matching slice of
// pointers to pass to a driver's Scan.
func NewTypedValues(schema TableSchema) (values []TypedValue, pointers []any, err error) {
	values = make([]TypedValue, len(schema.Columns))
	pointers = make([]any, len(schema.Columns))

	for i, column := range schema.Columns {
		values[i], err = NewTypedValue(column)
		if err != nil {
			return nil, nil, err
		}
		pointers[i] = values[i].Pointer()
	}

	return values, pointers, nil
}

// RowFromTypedValues copies the current values out of the scan targets.
func RowFromTypedValues(schema TableSchema, typedValues []TypedValue) Row {
	values := make([]any, len(typedValues))
	for i, typedValue := range typedValues {
		values[i] = typedValue.Value()
	}
	return NewRow(schema.Columns, values)
}

func (typedValue *typedValue[T]) Value() any {
	return typedValue.value
}

func (typedValue *typedValue[T]) Pointer() any {
	return &typedValue.value
}

func (typedValue *typedValue[T]) DataType() DataType {
	return typedValue.dataType
}

func (typedValue *typedValue[T]) Set(value any) (ok bool) {
	if value, ok := value.(T); ok {
		typedValue.value = value
		return true
	} else {
		return false
	}
}

func (typedValue typedValue[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(typedValue.value)
}

func (nullable *nullableValue[T]) Value() any {
	if nullable.value == nil {
		return nil
	}
	return *nullable.value
}

func (nullable *nullableValue[T]) Pointer() any {
	return &nullable.value
}

func (nullable *nullableValue[T]) DataType() DataType {
	return nullable.dataType
}

func (nullable *nullableValue[T]) Set(value any) (ok bool) {
	if value == nil {
		nullable.value = nil
		return true
	}

	if value, ok := value.(T); ok {
		nullable.value = &value
		return true
	} else {
		return false
	}
}

func (nullable nullableValue[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(nullable.value)
}
