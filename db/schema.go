package db

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/wrap"
)

type TableSchema struct {
	TableName string   `json:"tableName"`
	Columns   []Column `json:"columns"`
}

type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Optional bool     `json:"optional"`
}

func NewTableSchema(table string, columnNames []string) TableSchema {
	columns := make([]Column, 0, len(columnNames))
	for _, columnName := range columnNames {
		columns = append(columns, Column{Name: columnName})
	}

	return TableSchema{TableName: table, Columns: columns}
}

func (schema TableSchema) DeduceDataTypesFromRow(row []string) error {
	for i, field := range row {
		if i >= len(schema.Columns) {
			return errors.New("row contains more fields than there are columns")
		}

		column := schema.Columns[i]

		deducedType, isBlank := deduceDataTypeFromField(field)
		if isBlank {
			column.Optional = true
		} else if !column.DataType.IsValid() {
			column.DataType = deducedType
		} else if column.DataType != deducedType {
			// An integer column that later sees decimals is a float column.
			if column.DataType == DataTypeInt && deducedType == DataTypeFloat {
				column.DataType = DataTypeFloat
			} else if column.DataType != DataTypeFloat || deducedType != DataTypeInt {
				return fmt.Errorf(
					"found incompatible data types '%s' and '%s' in column '%s'",
					column.DataType,
					deducedType,
					column.Name,
				)
			}
		}

		schema.Columns[i] = column
	}

	return nil
}

func deduceDataTypeFromField(field string) (deducedType DataType, isBlank bool) {
	if field == "" {
		return 0, true
	}
	if _, err := strconv.ParseInt(field, 10, 64); err == nil {
		return DataTypeInt, false
	}
	if _, err := strconv.ParseFloat(field, 64); err == nil {
		return DataTypeFloat, false
	}
	if _, err := time.Parse(time.RFC3339, field); err == nil {
		return DataTypeTimestamp, false
	}
	if _, err := uuid.Parse(field); err == nil {
		return DataTypeUUID, false
	}
	return DataTypeText, false
}

// ColumnIndex returns the position of the column with the given name.
func (schema TableSchema) ColumnIndex(name string) (index int, ok bool) {
	for i, column := range schema.Columns {
		if column.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ConvertRow converts the raw fields of a CSV row to the types of the schema's columns.
func (schema TableSchema) ConvertRow(rawRow []string) (Row, error) {
	values, err := schema.ConvertAndAppendRow(make([]any, 0, len(schema.Columns)), rawRow)
	if err != nil {
		return Row{}, err
	}

	return NewRow(schema.Columns, values), nil
}

func (schema TableSchema) ConvertAndAppendRow(convertedRow []any, rawRow []string) ([]any, error) {
	if len(rawRow) != len(schema.Columns) {
		return nil, fmt.Errorf(
			"given row has %d fields, but table schema has %d columns",
			len(rawRow),
			len(schema.Columns),
		)
	}

	for i, field := range rawRow {
		column := schema.Columns[i]

		convertedField, err := convertField(field, column)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert field '%s' to %s for column '%s'",
				field,
				column.DataType,
				column.Name,
			)
		}

		convertedRow = append(convertedRow, convertedField)
	}

	return convertedRow, nil
}

func convertField(field string, column Column) (convertedField any, err error) {
	if field == "" {
		if column.Optional {
			return nil, nil
		} else {
			return nil, errors.New("tried to insert empty value into non-optional column")
		}
	}

	switch column.DataType {
	case DataTypeInt:
		return strconv.ParseInt(field, 10, 64)
	case DataTypeFloat:
		return strconv.ParseFloat(field, 64)
	case DataTypeTimestamp:
		return time.Parse(time.RFC3339, field)
	case DataTypeUUID:
		if _, err := uuid.Parse(field); err != nil {
			return nil, wrap.Errorf(err, "failed to parse value '%s' as UUID", field)
		}
		return field, nil
	case DataTypeText:
		return field, nil
	}

	return nil, fmt.Errorf("unrecognized data type '%s' in column", column.DataType)
}

func (schema TableSchema) Validate() []error {
	var errs []error

	if schema.TableName == "" {
		errs = append(errs, errors.New("table name is blank"))
	}
	if len(schema.Columns) == 0 {
		errs = append(errs, errors.New("table has no columns"))
	}

	return append(errs, schema.ValidateColumns()...)
}

// ValidateColumns checks the columns alone, for schemas that do not have a table name yet.
func (schema TableSchema) ValidateColumns() []error {
	var errs []error

	seen := make(map[string]bool, len(schema.Columns))
	for i, column := range schema.Columns {
		if err := column.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("column %d ('%s'): %w", i, column.Name, err))
		}
		if seen[column.Name] {
			errs = append(errs, fmt.Errorf("column %d ('%s'): duplicate column name", i, column.Name))
		}
		seen[column.Name] = true
	}

	return errs
}

func (column Column) Validate() error {
	if column.Name == "" {
		return errors.New("column name is blank")
	}

	if !column.DataType.IsValid() {
		return errors.New("invalid column data type")
	}

	return nil
}
