package db

import (
	"fmt"
	"time"

	"hermannm.dev/enumnames"
)

type DateInterval int8

const (
	DateIntervalYear DateInterval = iota + 1
	DateIntervalQuarter
	DateIntervalMonth
	DateIntervalWeek
	DateIntervalDay
)

var dateIntervalMap = enumnames.NewMap(map[DateInterval]string{
	DateIntervalYear:    "YEAR",
	DateIntervalQuarter: "QUARTER",
	DateIntervalMonth:   "MONTH",
	DateIntervalWeek:    "WEEK",
	DateIntervalDay:     "DAY",
})

func (dateInterval DateInterval) IsValid() bool {
	_, ok := dateIntervalMap.GetName(dateInterval)
	return ok
}

func (dateInterval DateInterval) String() string {
	return dateIntervalMap.GetNameOrFallback(dateInterval, "INVALID_DATE_INTERVAL")
}

func (dateInterval DateInterval) MarshalJSON() ([]byte, error) {
	return dateIntervalMap.MarshalToNameJSON(dateInterval)
}

func (dateInterval *DateInterval) UnmarshalJSON(bytes []byte) error {
	return dateIntervalMap.UnmarshalFromNameJSON(bytes, dateInterval)
}

// Truncate returns the start of the interval that the given time falls in, in the time's own
// location. Weeks start on Monday.
func (dateInterval DateInterval) Truncate(timestamp time.Time) time.Time {
	year, month, day := timestamp.Date()
	location := timestamp.Location()

	switch dateInterval {
	case DateIntervalYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, location)
	case DateIntervalQuarter:
		quarterStart := time.Month((int(month)-1)/3*3 + 1)
		return time.Date(year, quarterStart, 1, 0, 0, 0, 0, location)
	case DateIntervalMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, location)
	case DateIntervalWeek:
		daysSinceMonday := (int(timestamp.Weekday()) + 6) % 7
		return time.Date(year, month, day-daysSinceMonday, 0, 0, 0, 0, location)
	case DateIntervalDay:
		return time.Date(year, month, day, 0, 0, 0, 0, location)
	default:
		return timestamp
	}
}

// Label formats the start of an interval for use as a group title, such as "2023-Q2".
func (dateInterval DateInterval) Label(intervalStart time.Time) string {
	switch dateInterval {
	case DateIntervalYear:
		return intervalStart.Format("2006")
	case DateIntervalQuarter:
		quarter := (int(intervalStart.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", intervalStart.Year(), quarter)
	case DateIntervalMonth:
		return intervalStart.Format("2006-01")
	case DateIntervalWeek:
		year, week := intervalStart.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return intervalStart.Format("2006-01-02")
	}
}
