package pivot_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/pivot/pivot"
)

func valueMeasure(aggregation pivot.Aggregation) pivot.Measure[any] {
	return pivot.Measure[any]{
		Name:        "value",
		Selector:    func(item any) (any, error) { return item, nil },
		Aggregation: aggregation,
	}
}

var allAggregations = []pivot.Aggregation{
	pivot.AggregationSum,
	pivot.AggregationAverage,
	pivot.AggregationCount,
	pivot.AggregationMin,
	pivot.AggregationMax,
	pivot.AggregationFirst,
	pivot.AggregationLast,
}

func TestEvaluateEmptyIsNil(t *testing.T) {
	for _, aggregation := range allAggregations {
		t.Run(aggregation.String(), func(t *testing.T) {
			assert.Nil(t, pivot.Evaluate(nil, valueMeasure(aggregation)))
			assert.Nil(t, pivot.Evaluate([]any{}, valueMeasure(aggregation)))
		})
	}
}

func TestEvaluateNumeric(t *testing.T) {
	testCases := []struct {
		name        string
		items       []any
		aggregation pivot.Aggregation
		expected    any
	}{
		{"sum of ints", []any{1, 2, 3}, pivot.AggregationSum, int64(6)},
		{"sum widens small ints", []any{int16(30000), int16(30000)}, pivot.AggregationSum, int64(60000)},
		{"sum of mixed ints and floats", []any{1, 2.5}, pivot.AggregationSum, 3.5},
		{"sum skips nils", []any{nil, 3, nil, 4}, pivot.AggregationSum, int64(7)},
		{"sum of unsigned beyond int64", []any{uint64(math.MaxUint64)}, pivot.AggregationSum, float64(math.MaxUint64)},
		{"average of ints", []any{1, 2}, pivot.AggregationAverage, 1.5},
		{"average skips nils", []any{2, nil, 4}, pivot.AggregationAverage, 3.0},
		{"min of ints", []any{3, -1, 2}, pivot.AggregationMin, int64(-1)},
		{"max of ints", []any{3, -1, 2}, pivot.AggregationMax, int64(3)},
		{"max of mixed", []any{3, 3.5, uint8(2)}, pivot.AggregationMax, 3.5},
		{"count includes nils", []any{nil, 1, "a"}, pivot.AggregationCount, int64(3)},
		{"first", []any{"a", "b", "c"}, pivot.AggregationFirst, "a"},
		{"last", []any{"a", "b", "c"}, pivot.AggregationLast, "c"},
		{"first may be nil", []any{nil, 1}, pivot.AggregationFirst, nil},
		{"unrecognized aggregation sums", []any{1, 2}, pivot.Aggregation(99), int64(3)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := pivot.Evaluate(testCase.items, valueMeasure(testCase.aggregation))
			assert.Equal(t, testCase.expected, result)
		})
	}
}

func TestEvaluateNonNumericFallbacks(t *testing.T) {
	items := []any{"b", "a", "c"}

	assert.Equal(t, int64(3), pivot.Evaluate(items, valueMeasure(pivot.AggregationSum)))
	assert.Equal(t, int64(3), pivot.Evaluate(items, valueMeasure(pivot.AggregationAverage)))
	assert.Equal(t, int64(3), pivot.Evaluate(items, valueMeasure(pivot.Aggregation(99))))

	// Min and Max return the first and last item itself, not the selected value.
	assert.Equal(t, "b", pivot.Evaluate(items, valueMeasure(pivot.AggregationMin)))
	assert.Equal(t, "c", pivot.Evaluate(items, valueMeasure(pivot.AggregationMax)))

	// A single non-numeric value makes the whole measure non-numeric.
	assert.Equal(t, int64(3), pivot.Evaluate([]any{1, "2", 3}, valueMeasure(pivot.AggregationSum)))

	// Only nils is not numeric either.
	assert.Equal(t, int64(2), pivot.Evaluate([]any{nil, nil}, valueMeasure(pivot.AggregationSum)))
}

func TestEvaluateNonNumericMinReturnsItem(t *testing.T) {
	items := []sale{{Region: "East", City: "Boston"}, {Region: "West", City: "Los Angeles"}}
	measure := pivot.Measure[sale]{
		Name:        "city",
		Selector:    func(s sale) (any, error) { return s.City, nil },
		Aggregation: pivot.AggregationMin,
	}

	assert.Equal(t, items[0], pivot.Evaluate(items, measure))

	measure.Aggregation = pivot.AggregationMax
	assert.Equal(t, items[1], pivot.Evaluate(items, measure))
}

func TestEvaluateNumericMeasureWithOnlyNils(t *testing.T) {
	testCases := []struct {
		aggregation pivot.Aggregation
		expected    any
	}{
		{pivot.AggregationSum, int64(0)},
		{pivot.AggregationAverage, nil},
		{pivot.AggregationMin, nil},
		{pivot.AggregationMax, nil},
		{pivot.AggregationCount, int64(3)},
		{pivot.AggregationFirst, nil},
		{pivot.AggregationLast, nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.aggregation.String(), func(t *testing.T) {
			measure := valueMeasure(testCase.aggregation)
			measure.Numeric = true

			assert.Equal(t, testCase.expected, pivot.Evaluate([]any{nil, nil, nil}, measure))
		})
	}
}

func TestEvaluateNumericMeasure(t *testing.T) {
	measure := valueMeasure(pivot.AggregationMax)
	measure.Numeric = true

	assert.Equal(t, int64(4), pivot.Evaluate([]any{nil, 4, nil, 2}, measure))

	// A stray non-numeric value blanks the cell instead of falling back to items.
	assert.Nil(t, pivot.Evaluate([]any{4, "four"}, measure))
}

func TestEvaluateDecimal(t *testing.T) {
	items := []any{decimal.RequireFromString("0.1"), decimal.RequireFromString("0.2"), 1}

	sum := pivot.Evaluate(items, valueMeasure(pivot.AggregationSum))
	require.IsType(t, decimal.Decimal{}, sum)
	assert.True(t, decimal.RequireFromString("1.3").Equal(sum.(decimal.Decimal)))

	average := pivot.Evaluate(items[:2], valueMeasure(pivot.AggregationAverage))
	require.IsType(t, decimal.Decimal{}, average)
	assert.True(t, decimal.RequireFromString("0.15").Equal(average.(decimal.Decimal)))

	min := pivot.Evaluate(items, valueMeasure(pivot.AggregationMin))
	assert.True(t, decimal.RequireFromString("0.1").Equal(min.(decimal.Decimal)))
}

func TestEvaluateFailureIsNil(t *testing.T) {
	failing := pivot.Measure[any]{
		Name:        "failing",
		Selector:    func(any) (any, error) { return nil, errors.New("no such property") },
		Aggregation: pivot.AggregationSum,
	}
	assert.Nil(t, pivot.Evaluate([]any{1}, failing))

	panicking := pivot.Measure[any]{
		Name:        "panicking",
		Selector:    func(item any) (any, error) { return item.(string), nil },
		Aggregation: pivot.AggregationFirst,
	}
	assert.Nil(t, pivot.Evaluate([]any{1}, panicking))

	noSelector := pivot.Measure[any]{Name: "no selector", Aggregation: pivot.AggregationSum}
	assert.Nil(t, pivot.Evaluate([]any{1}, noSelector))

	// Count never reads values, so it does not need a selector.
	noSelector.Aggregation = pivot.AggregationCount
	assert.Equal(t, int64(1), pivot.Evaluate([]any{1}, noSelector))
}

func TestMeasureFormat(t *testing.T) {
	measure := valueMeasure(pivot.AggregationSum)
	assert.Equal(t, "", measure.Format(nil))
	assert.Equal(t, "42", measure.Format(int64(42)))

	measure.Formatter = func(value any) string { return "kr " + pivot.Measure[any]{}.Format(value) }
	assert.Equal(t, "kr 42", measure.Format(int64(42)))
	assert.Equal(t, "", measure.Format(nil))

	assert.Equal(t, "SUM(value)", measure.DisplayTitle())
	measure.Title = "Total"
	assert.Equal(t, "Total", measure.DisplayTitle())
}

func TestFilterByPath(t *testing.T) {
	fields := []pivot.Field[sale]{regionField, cityField}
	items := testSales()

	assert.Equal(t, items, pivot.FilterByPath(items, fields, nil))
	assert.Len(t, pivot.FilterByPath(items, fields, []any{"East"}), 3)
	assert.Len(t, pivot.FilterByPath(items, fields, []any{"East", "Boston"}), 2)
	assert.Empty(t, pivot.FilterByPath(items, fields, []any{"east"}))
	assert.Empty(t, pivot.FilterByPath(items, fields, []any{"East", "Boston", "extra"}))
}
