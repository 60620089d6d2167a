package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/pivot"
	"hermannm.dev/wrap"
)

// Build validates the layout against the schema, and resolves every column name to a selector on
// the column's index, so that the pivot never looks columns up by name.
func (layout Layout) Build(schema db.TableSchema) (pivot.Configuration[db.Row], error) {
	if errs := layout.Validate(schema); len(errs) != 0 {
		return pivot.Configuration[db.Row]{}, wrap.Errors("invalid pivot layout", errs...)
	}

	config := pivot.Configuration[db.Row]{
		RowFields:    make([]pivot.Field[db.Row], 0, len(layout.RowFields)),
		ColumnFields: make([]pivot.Field[db.Row], 0, len(layout.ColumnFields)),
		Measures:     make([]pivot.Measure[db.Row], 0, len(layout.Measures)),
	}

	for _, field := range layout.RowFields {
		config.RowFields = append(config.RowFields, field.build(schema))
	}
	for _, field := range layout.ColumnFields {
		config.ColumnFields = append(config.ColumnFields, field.build(schema))
	}
	for _, measure := range layout.Measures {
		config.Measures = append(config.Measures, measure.build(schema))
	}

	return config, nil
}

func (field Field) build(schema db.TableSchema) pivot.Field[db.Row] {
	index, _ := schema.ColumnIndex(field.Column)

	title := field.Title
	if title == "" {
		title = field.Column
	}

	var bucket func(value any) (any, error)
	switch {
	case field.DateInterval != 0:
		bucket = dateBucket(field.DateInterval)
	case field.IntegerInterval != 0:
		bucket = integerBucket(field.IntegerInterval)
	case field.FloatInterval != 0:
		bucket = floatBucket(field.FloatInterval)
	}

	return pivot.Field[db.Row]{
		Name:  field.Column,
		Title: title,
		Width: field.Width,
		Selector: func(row db.Row) (any, error) {
			value := row.At(index)
			if bucket == nil || value == nil {
				return value, nil
			}
			return bucket(value)
		},
	}
}

// Groups timestamps by the label of the interval they fall in, such as "2023-Q2".
func dateBucket(interval db.DateInterval) func(value any) (any, error) {
	return func(value any) (any, error) {
		timestamp, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected timestamp, got %T", value)
		}
		return interval.Label(interval.Truncate(timestamp)), nil
	}
}

// Groups integers by the start of their bucket, rounding towards negative infinity.
func integerBucket(width int64) func(value any) (any, error) {
	return func(value any) (any, error) {
		integer, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}

		start := integer - integer%width
		if integer < 0 && integer%width != 0 {
			start -= width
		}
		return start, nil
	}
}

func floatBucket(width float64) func(value any) (any, error) {
	return func(value any) (any, error) {
		float, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected float, got %T", value)
		}
		return math.Floor(float/width) * width, nil
	}
}

func (measure Measure) build(schema db.TableSchema) pivot.Measure[db.Row] {
	name := measure.Column
	if name == "" {
		name = strings.ToLower(measure.Aggregation.String())
	}

	built := pivot.Measure[db.Row]{
		Name:        name,
		Title:       measure.Title,
		Aggregation: measure.Aggregation,
	}

	if measure.Column != "" {
		index, _ := schema.ColumnIndex(measure.Column)
		built.Numeric = schema.Columns[index].DataType.IsNumeric()
		built.Selector = func(row db.Row) (any, error) {
			return row.At(index), nil
		}
	}

	if measure.Format != "" {
		built.Formatter = formatter(measure.Format)
	}

	return built
}

// formatter applies a fmt format to computed values. Integer and decimal results are converted to
// float64 for float verbs, so that "%.2f" works for sums of any column type.
func formatter(format string) pivot.Formatter {
	floatVerb := hasFloatVerb(format)

	return func(value any) string {
		if floatVerb {
			switch number := value.(type) {
			case int64:
				value = float64(number)
			case decimal.Decimal:
				value = number.InexactFloat64()
			}
		}
		return fmt.Sprintf(format, value)
	}
}

func hasFloatVerb(format string) bool {
	verb, err := formatVerb(format)
	return err == nil && strings.ContainsRune("eEfFgG", verb)
}

// formatVerb returns the verb of a format with exactly one formatting directive.
func formatVerb(format string) (rune, error) {
	var verb rune
	verbCount := 0

	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '%' {
			i++
			continue
		}

		// Skips flags, width and precision.
		j := i + 1
		for j < len(runes) && strings.ContainsRune("+-# 0123456789.", runes[j]) {
			j++
		}
		if j == len(runes) {
			return 0, errors.New("format ends in the middle of a directive")
		}

		verb = runes[j]
		verbCount++
		i = j
	}

	if verbCount != 1 {
		return 0, fmt.Errorf("format must have exactly one directive, found %d", verbCount)
	}
	return verb, nil
}

func validateFormat(format string) error {
	_, err := formatVerb(format)
	return err
}
