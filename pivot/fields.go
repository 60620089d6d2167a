package pivot

import (
	"fmt"
)

// Selector picks the value of a field from an item. It is resolved once when a grid is
// configured, so evaluation never looks fields up by name.
type Selector[Item any] func(item Item) (any, error)

// Formatter turns a computed measure value into display text.
type Formatter func(value any) string

// Field is a grouping field on either axis. Width is a layout hint passed through to header
// cells.
type Field[Item any] struct {
	Name     string
	Title    string
	Width    int
	Selector Selector[Item]
}

type Measure[Item any] struct {
	Name        string
	Title       string
	Selector    Selector[Item]
	Aggregation Aggregation
	Formatter   Formatter
	// Set when the selected field is known to be numeric. Sum, Average, Min and Max then always
	// reduce numerically, so groups where every value is nil give 0 for Sum and nil otherwise,
	// instead of falling back to item counts and items.
	Numeric bool
}

// Format renders the given value with the measure's formatter, or with fmt.Sprint if the measure
// has none. Nil values (no items, or failed evaluation) render as blank.
func (measure Measure[Item]) Format(value any) string {
	if value == nil {
		return ""
	}
	if measure.Formatter != nil {
		return measure.Formatter(value)
	}
	return fmt.Sprint(value)
}

func (measure Measure[Item]) DisplayTitle() string {
	if measure.Title != "" {
		return measure.Title
	}
	return fmt.Sprintf("%s(%s)", measure.Aggregation, measure.Name)
}

// Configuration is the ordered set of row fields, column fields and measures of a pivot table.
// The order of each list is significant: it defines nesting depth for fields, and the sequence
// of value columns per column leaf for measures.
type Configuration[Item any] struct {
	RowFields    []Field[Item]
	ColumnFields []Field[Item]
	Measures     []Measure[Item]
}

func (config Configuration[Item]) IsEmpty() bool {
	return len(config.RowFields) == 0 && len(config.ColumnFields) == 0 && len(config.Measures) == 0
}

func (config Configuration[Item]) fields(axis Axis) []Field[Item] {
	if axis == AxisColumns {
		return config.ColumnFields
	}
	return config.RowFields
}

func (config Configuration[Item]) clone() Configuration[Item] {
	return Configuration[Item]{
		RowFields:    append([]Field[Item](nil), config.RowFields...),
		ColumnFields: append([]Field[Item](nil), config.ColumnFields...),
		Measures:     append([]Measure[Item](nil), config.Measures...),
	}
}

func removeField[Item any](fields []Field[Item], name string) ([]Field[Item], bool) {
	for i, field := range fields {
		if field.Name == name {
			return append(fields[:i:i], fields[i+1:]...), true
		}
	}
	return fields, false
}

func removeMeasure[Item any](measures []Measure[Item], name string) ([]Measure[Item], bool) {
	for i, measure := range measures {
		if measure.Name == name {
			return append(measures[:i:i], measures[i+1:]...), true
		}
	}
	return measures, false
}

func fieldWidths[Item any](fields []Field[Item]) []int {
	widths := make([]int, len(fields))
	for i, field := range fields {
		widths[i] = field.Width
	}
	return widths
}
