package api

import (
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/pivot"
)

// PivotResult is the render-ready JSON form of a pivot table.
type PivotResult struct {
	Generation       uint64               `json:"generation"`
	Measures         []MeasureHeader      `json:"measures"`
	ColumnHeaderRows [][]pivot.HeaderCell `json:"columnHeaderRows"`
	ColumnLeaves     []pivot.ColumnLeaf   `json:"columnLeaves"`
	BodyRows         []BodyRowResult      `json:"bodyRows"`
	// One cell per column leaf per measure, in the same order as a body row's value cells.
	ColumnTotals []pivot.ValueCell `json:"columnTotals"`
	GrandTotals  []TotalCell       `json:"grandTotals"`
}

type MeasureHeader struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type BodyRowResult struct {
	pivot.BodyRow
	Totals []TotalCell `json:"totals"`
}

type TotalCell struct {
	Measure   int    `json:"measure"`
	Value     any    `json:"value"`
	Formatted string `json:"formatted"`
}

func newPivotResult(grid *pivot.Grid[db.Row]) PivotResult {
	measures := grid.Configuration().Measures
	columnLeaves := grid.GetColumnLeaves()
	bodyRows := grid.GetBodyRows()

	result := PivotResult{
		Generation:       grid.Generation(),
		Measures:         make([]MeasureHeader, len(measures)),
		ColumnHeaderRows: grid.GetColumnHeaderRows(),
		ColumnLeaves:     columnLeaves,
		BodyRows:         make([]BodyRowResult, len(bodyRows)),
		ColumnTotals:     make([]pivot.ValueCell, 0, len(columnLeaves)*len(measures)),
		GrandTotals:      make([]TotalCell, len(measures)),
	}

	for i, measure := range measures {
		result.Measures[i] = MeasureHeader{Name: measure.Name, Title: measure.DisplayTitle()}

		total := grid.GetGrandTotal(measure)
		result.GrandTotals[i] = TotalCell{Measure: i, Value: total, Formatted: measure.Format(total)}
	}

	for i, row := range bodyRows {
		totals := make([]TotalCell, len(measures))
		for j, measure := range measures {
			total := grid.GetRowTotal(row, measure)
			totals[j] = TotalCell{Measure: j, Value: total, Formatted: measure.Format(total)}
		}
		result.BodyRows[i] = BodyRowResult{BodyRow: row, Totals: totals}
	}

	for i, leaf := range columnLeaves {
		for j, measure := range measures {
			total := grid.GetColumnTotal(leaf.Path, measure)
			result.ColumnTotals = append(result.ColumnTotals, pivot.ValueCell{
				ColumnLeaf: i,
				Measure:    j,
				Value:      total,
				Formatted:  measure.Format(total),
			})
		}
	}

	return result
}
