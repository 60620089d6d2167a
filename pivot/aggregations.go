package pivot

import (
	"hermannm.dev/enumnames"
)

type Aggregation uint8

const (
	AggregationSum Aggregation = iota + 1
	AggregationAverage
	AggregationCount
	AggregationMin
	AggregationMax
	AggregationFirst
	AggregationLast
)

var aggregationMap = enumnames.NewMap(map[Aggregation]string{
	AggregationSum:     "SUM",
	AggregationAverage: "AVERAGE",
	AggregationCount:   "COUNT",
	AggregationMin:     "MIN",
	AggregationMax:     "MAX",
	AggregationFirst:   "FIRST",
	AggregationLast:    "LAST",
})

func (aggregation Aggregation) IsValid() bool {
	_, ok := aggregationMap.GetName(aggregation)
	return ok
}

func (aggregation Aggregation) String() string {
	return aggregationMap.GetNameOrFallback(aggregation, "INVALID_AGGREGATION")
}

func (aggregation Aggregation) MarshalJSON() ([]byte, error) {
	return aggregationMap.MarshalToNameJSON(aggregation)
}

func (aggregation *Aggregation) UnmarshalJSON(bytes []byte) error {
	return aggregationMap.UnmarshalFromNameJSON(bytes, aggregation)
}

// Axis is one of the two dimensions of a pivot table, each with its own fields and drill-down
// state.
type Axis uint8

const (
	AxisRows Axis = iota + 1
	AxisColumns
)

var axisMap = enumnames.NewMap(map[Axis]string{
	AxisRows:    "ROWS",
	AxisColumns: "COLUMNS",
})

func (axis Axis) IsValid() bool {
	_, ok := axisMap.GetName(axis)
	return ok
}

func (axis Axis) String() string {
	return axisMap.GetNameOrFallback(axis, "INVALID_AXIS")
}

func (axis Axis) MarshalJSON() ([]byte, error) {
	return axisMap.MarshalToNameJSON(axis)
}

func (axis *Axis) UnmarshalJSON(bytes []byte) error {
	return axisMap.UnmarshalFromNameJSON(bytes, axis)
}

// ParseAxis finds the axis with the given name, as produced by String.
func ParseAxis(name string) (Axis, bool) {
	for _, axis := range []Axis{AxisRows, AxisColumns} {
		if axis.String() == name {
			return axis, true
		}
	}
	return 0, false
}
