// Package layout describes a pivot table over an analysis table by column name, as YAML or JSON,
// and compiles it to a pivot configuration with the columns resolved to selectors.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/pivot"
	"hermannm.dev/wrap"
)

type Layout struct {
	RowFields    []Field   `json:"rowFields"`
	ColumnFields []Field   `json:"columnFields"`
	Measures     []Measure `json:"measures"`
}

// Field groups rows by a column. At most one of the intervals may be set, to group by buckets of
// values instead of by distinct values.
type Field struct {
	Column          string          `json:"column"`
	Title           string          `json:"title,omitempty"`
	Width           int             `json:"width,omitempty"`
	DateInterval    db.DateInterval `json:"dateInterval,omitempty"`
	IntegerInterval int64           `json:"integerInterval,omitempty"`
	FloatInterval   float64         `json:"floatInterval,omitempty"`
}

type Measure struct {
	// May be blank for COUNT.
	Column      string            `json:"column,omitempty"`
	Aggregation pivot.Aggregation `json:"aggregation"`
	Title       string            `json:"title,omitempty"`
	// A fmt format with a single verb, such as "%.2f".
	Format string `json:"format,omitempty"`
}

// Parse reads a layout from YAML, or from JSON since YAML is a superset of it. The document is
// decoded generically first, so that both formats go through the same JSON field names and enum
// parsing.
func Parse(layoutBytes []byte) (Layout, error) {
	var document any
	if err := yaml.Unmarshal(layoutBytes, &document); err != nil {
		return Layout{}, wrap.Error(err, "failed to parse layout YAML")
	}
	if document == nil {
		return Layout{}, errors.New("layout document is empty")
	}

	documentJSON, err := json.Marshal(document)
	if err != nil {
		return Layout{}, wrap.Error(err, "layout contains values that cannot be represented as JSON")
	}

	decoder := json.NewDecoder(bytes.NewReader(documentJSON))
	decoder.DisallowUnknownFields()

	var layout Layout
	if err := decoder.Decode(&layout); err != nil {
		return Layout{}, wrap.Error(err, "invalid layout")
	}

	return layout, nil
}

func ReadFile(path string) (Layout, error) {
	layoutBytes, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, wrap.Errorf(err, "failed to read layout file '%s'", path)
	}

	layout, err := Parse(layoutBytes)
	if err != nil {
		return Layout{}, wrap.Errorf(err, "failed to parse layout file '%s'", path)
	}

	return layout, nil
}

// Validate checks the layout against the schema of the table it will be applied to.
func (layout Layout) Validate(schema db.TableSchema) []error {
	var errs []error

	for i, field := range layout.RowFields {
		if err := field.validate(schema); err != nil {
			errs = append(errs, fmt.Errorf("row field %d ('%s'): %w", i, field.Column, err))
		}
	}
	for i, field := range layout.ColumnFields {
		if err := field.validate(schema); err != nil {
			errs = append(errs, fmt.Errorf("column field %d ('%s'): %w", i, field.Column, err))
		}
	}
	for i, measure := range layout.Measures {
		if err := measure.validate(schema); err != nil {
			errs = append(errs, fmt.Errorf("measure %d ('%s'): %w", i, measure.Column, err))
		}
	}

	return errs
}

func (field Field) validate(schema db.TableSchema) error {
	column, err := findColumn(schema, field.Column)
	if err != nil {
		return err
	}

	intervalCount := 0
	if field.DateInterval != 0 {
		intervalCount++
		if !field.DateInterval.IsValid() {
			return errors.New("invalid date interval")
		}
		if column.DataType != db.DataTypeTimestamp {
			return fmt.Errorf("date interval requires a TIMESTAMP column, got %v", column.DataType)
		}
	}
	if field.IntegerInterval != 0 {
		intervalCount++
		if field.IntegerInterval < 0 {
			return errors.New("integer interval must be positive")
		}
		if column.DataType != db.DataTypeInt {
			return fmt.Errorf("integer interval requires an INTEGER column, got %v", column.DataType)
		}
	}
	if field.FloatInterval != 0 {
		intervalCount++
		if field.FloatInterval < 0 {
			return errors.New("float interval must be positive")
		}
		if column.DataType != db.DataTypeFloat {
			return fmt.Errorf("float interval requires a FLOAT column, got %v", column.DataType)
		}
	}
	if intervalCount > 1 {
		return errors.New("field has more than one interval")
	}

	return nil
}

func (measure Measure) validate(schema db.TableSchema) error {
	if !measure.Aggregation.IsValid() {
		return fmt.Errorf("invalid aggregation '%v'", measure.Aggregation)
	}

	if measure.Column == "" {
		if measure.Aggregation != pivot.AggregationCount {
			return fmt.Errorf("%v requires a column", measure.Aggregation)
		}
	} else {
		column, err := findColumn(schema, measure.Column)
		if err != nil {
			return err
		}

		// On other columns these would yield a whole row instead of a value.
		if (measure.Aggregation == pivot.AggregationMin ||
			measure.Aggregation == pivot.AggregationMax) && !column.DataType.IsNumeric() {
			return fmt.Errorf(
				"%v requires an INTEGER or FLOAT column, got %v",
				measure.Aggregation,
				column.DataType,
			)
		}
	}

	if measure.Format != "" {
		if err := validateFormat(measure.Format); err != nil {
			return wrap.Errorf(err, "invalid format '%s'", measure.Format)
		}
	}

	return nil
}

func findColumn(schema db.TableSchema, name string) (db.Column, error) {
	if name == "" {
		return db.Column{}, errors.New("column is blank")
	}

	index, ok := schema.ColumnIndex(name)
	if !ok {
		return db.Column{}, fmt.Errorf("table '%s' has no column '%s'", schema.TableName, name)
	}
	return schema.Columns[index], nil
}
