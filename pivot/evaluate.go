package pivot

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
	"hermannm.dev/devlog/log"
)

var (
	errNilSelector     = errors.New("field has no selector")
	errNonNumericValue = errors.New("numeric measure selected a non-numeric value")
)

type selectorPanicError struct {
	recovered any
}

func (err selectorPanicError) Error() string {
	return fmt.Sprintf("selector panicked: %v", err.recovered)
}

// Evaluate computes the measure's aggregation over the given items. It returns nil if there are
// no items, or if evaluation fails for any reason, so that one bad measure only blanks its own
// cells.
//
// Sum, Average, Min and Max use numeric reductions if the measure is marked numeric, or if every
// selected value is numeric. Otherwise Sum and Average fall back to the item count, Min to the
// first item and Max to the last item.
func Evaluate[Item any](items []Item, measure Measure[Item]) (result any) {
	if len(items) == 0 {
		return nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			log.Debug(
				"measure evaluation panicked",
				slog.String("measure", measure.Name),
				slog.String("cause", fmt.Sprint(recovered)),
			)
			result = nil
		}
	}()

	result, err := evaluate(items, measure)
	if err != nil {
		log.Debug(
			"measure evaluation failed",
			slog.String("measure", measure.Name),
			slog.String("cause", err.Error()),
		)
		return nil
	}
	return result
}

func evaluate[Item any](items []Item, measure Measure[Item]) (any, error) {
	if measure.Aggregation == AggregationCount {
		return int64(len(items)), nil
	}

	values := make([]any, len(items))
	for i, item := range items {
		value, err := selectValue(measure.Selector, item)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}

	switch measure.Aggregation {
	case AggregationFirst:
		return values[0], nil
	case AggregationLast:
		return values[len(values)-1], nil
	}

	numbers, isNumeric := toNumbers(values)
	if measure.Numeric {
		if !isNumeric {
			return nil, errNonNumericValue
		}
		if len(numbers.values) == 0 {
			if measure.Aggregation == AggregationSum {
				return int64(0), nil
			}
			return nil, nil
		}
	} else if len(numbers.values) == 0 {
		isNumeric = false
	}

	if !isNumeric {
		switch measure.Aggregation {
		case AggregationMin:
			return items[0], nil
		case AggregationMax:
			return items[len(items)-1], nil
		default:
			return int64(len(items)), nil
		}
	}

	switch measure.Aggregation {
	case AggregationAverage:
		return numbers.average(), nil
	case AggregationMin:
		return numbers.extreme(-1), nil
	case AggregationMax:
		return numbers.extreme(1), nil
	default:
		return numbers.sum(), nil
	}
}

type numberKind uint8

const (
	numberInt numberKind = iota + 1
	numberFloat
	numberDecimal
)

type number struct {
	kind     numberKind
	intValue int64
	float    float64
	decimal  decimal.Decimal
}

func (n number) asFloat() float64 {
	switch n.kind {
	case numberInt:
		return float64(n.intValue)
	case numberDecimal:
		return n.decimal.InexactFloat64()
	default:
		return n.float
	}
}

func (n number) asDecimal() decimal.Decimal {
	switch n.kind {
	case numberInt:
		return decimal.NewFromInt(n.intValue)
	case numberFloat:
		return decimal.NewFromFloat(n.float)
	default:
		return n.decimal
	}
}

// numbers is the non-nil numeric values of a measure, all reduced in the widest kind among them.
type numbers struct {
	kind   numberKind
	values []number
}

// toNumbers widens every non-nil value to int64, float64 or decimal. Returns false if any value is
// not a number.
func toNumbers(values []any) (numbers, bool) {
	result := numbers{values: make([]number, 0, len(values))}

	for _, value := range values {
		if value == nil {
			continue
		}

		n, ok := toNumber(value)
		if !ok {
			return numbers{}, false
		}
		if n.kind > result.kind {
			result.kind = n.kind
		}
		result.values = append(result.values, n)
	}

	return result, true
}

func toNumber(value any) (number, bool) {
	switch value := value.(type) {
	case int:
		return widenInt(value), true
	case int8:
		return widenInt(value), true
	case int16:
		return widenInt(value), true
	case int32:
		return widenInt(value), true
	case int64:
		return widenInt(value), true
	case uint:
		return widenUint(value), true
	case uint8:
		return widenUint(value), true
	case uint16:
		return widenUint(value), true
	case uint32:
		return widenUint(value), true
	case uint64:
		return widenUint(value), true
	case float32:
		return number{kind: numberFloat, float: float64(value)}, true
	case float64:
		return number{kind: numberFloat, float: value}, true
	case decimal.Decimal:
		return number{kind: numberDecimal, decimal: value}, true
	case *decimal.Decimal:
		if value == nil {
			return number{}, false
		}
		return number{kind: numberDecimal, decimal: *value}, true
	default:
		return number{}, false
	}
}

func widenInt[T constraints.Signed](value T) number {
	return number{kind: numberInt, intValue: int64(value)}
}

// widenUint widens to int64, promoting to float64 values that int64 cannot hold.
func widenUint[T constraints.Unsigned](value T) number {
	if uint64(value) > math.MaxInt64 {
		return number{kind: numberFloat, float: float64(value)}
	}
	return number{kind: numberInt, intValue: int64(value)}
}

func (numbers numbers) sum() any {
	switch numbers.kind {
	case numberInt:
		var sum int64
		for _, n := range numbers.values {
			sum += n.intValue
		}
		return sum
	case numberDecimal:
		sum := decimal.Zero
		for _, n := range numbers.values {
			sum = sum.Add(n.asDecimal())
		}
		return sum
	default:
		var sum float64
		for _, n := range numbers.values {
			sum += n.asFloat()
		}
		return sum
	}
}

func (numbers numbers) average() any {
	count := int64(len(numbers.values))

	switch numbers.kind {
	case numberDecimal:
		return numbers.sum().(decimal.Decimal).Div(decimal.NewFromInt(count))
	case numberInt:
		return float64(numbers.sum().(int64)) / float64(count)
	default:
		return numbers.sum().(float64) / float64(count)
	}
}

// extreme returns the minimum for direction -1 and the maximum for direction 1.
func (numbers numbers) extreme(direction int) any {
	best := numbers.values[0]
	for _, n := range numbers.values[1:] {
		if numbers.compare(n, best)*direction > 0 {
			best = n
		}
	}

	switch numbers.kind {
	case numberInt:
		return best.intValue
	case numberDecimal:
		return best.asDecimal()
	default:
		return best.asFloat()
	}
}

func (numbers numbers) compare(n1 number, n2 number) int {
	switch numbers.kind {
	case numberInt:
		switch {
		case n1.intValue < n2.intValue:
			return -1
		case n1.intValue > n2.intValue:
			return 1
		default:
			return 0
		}
	case numberDecimal:
		return n1.asDecimal().Cmp(n2.asDecimal())
	default:
		f1, f2 := n1.asFloat(), n2.asFloat()
		switch {
		case f1 < f2:
			return -1
		case f1 > f2:
			return 1
		default:
			return 0
		}
	}
}

// FilterByPath returns the items whose values for the first len(path) fields equal the path's
// values. Values are compared by native equality, so strings must match exactly.
func FilterByPath[Item any](items []Item, fields []Field[Item], path []any) []Item {
	if len(path) == 0 {
		return items
	}
	if len(path) > len(fields) {
		return nil
	}

	var filtered []Item
	for _, item := range items {
		if matchesPath(item, fields, path) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func matchesPath[Item any](item Item, fields []Field[Item], path []any) bool {
	for i, expected := range path {
		value, err := selectValue(fields[i].Selector, item)
		if err != nil {
			// Matches the grouping engine, which puts such items in the empty group.
			value = nil
		}
		if !valuesEqual(value, expected) {
			return false
		}
	}
	return true
}
