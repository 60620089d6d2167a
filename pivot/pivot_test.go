package pivot_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/pivot/pivot"
)

type sale struct {
	Region string
	City   string
	Amount int
}

var (
	regionField = pivot.Field[sale]{
		Name:     "region",
		Title:    "Region",
		Width:    120,
		Selector: func(s sale) (any, error) { return s.Region, nil },
	}
	cityField = pivot.Field[sale]{
		Name:     "city",
		Title:    "City",
		Selector: func(s sale) (any, error) { return s.City, nil },
	}
	sumAmount = pivot.Measure[sale]{
		Name:        "amount",
		Title:       "Amount",
		Selector:    func(s sale) (any, error) { return s.Amount, nil },
		Aggregation: pivot.AggregationSum,
	}
	countSales = pivot.Measure[sale]{
		Name:        "count",
		Aggregation: pivot.AggregationCount,
	}
)

func testSales() []sale {
	return []sale{
		{Region: "East", City: "Boston", Amount: 10},
		{Region: "East", City: "New York", Amount: 20},
		{Region: "East", City: "Boston", Amount: 5},
		{Region: "West", City: "Los Angeles", Amount: 7},
	}
}

func newGrid(allowDrillDown bool, rowFields, columnFields []pivot.Field[sale]) *pivot.Grid[sale] {
	grid := pivot.NewGrid[sale](pivot.Options{AllowDrillDown: allowDrillDown})
	grid.Configure(rowFields, columnFields, []pivot.Measure[sale]{sumAmount})
	grid.SetItems(testSales())
	return grid
}

func rowValues(rows []pivot.BodyRow) map[string][]any {
	values := make(map[string][]any, len(rows))
	for _, row := range rows {
		var titles string
		for _, cell := range row.HeaderCells {
			if !cell.IsFiller {
				titles += "/" + cell.Title
			}
		}

		cellValues := make([]any, len(row.ValueCells))
		for i, cell := range row.ValueCells {
			cellValues[i] = cell.Value
		}
		values[titles] = cellValues
	}
	return values
}

func TestSingleRowFieldSums(t *testing.T) {
	grid := pivot.NewGrid[sale](pivot.Options{AllowDrillDown: true})
	grid.Configure(
		[]pivot.Field[sale]{regionField},
		nil,
		[]pivot.Measure[sale]{sumAmount},
	)
	grid.SetItems([]sale{
		{Region: "East", Amount: 10},
		{Region: "East", Amount: 20},
		{Region: "West", Amount: 5},
	})

	rows := grid.GetBodyRows()
	require.Len(t, rows, 2)

	assert.Equal(t, "East", rows[0].HeaderCells[0].Title)
	assert.Equal(t, int64(30), rows[0].ValueCells[0].Value)
	assert.Equal(t, "30", rows[0].ValueCells[0].Formatted)
	assert.Equal(t, "West", rows[1].HeaderCells[0].Title)
	assert.Equal(t, int64(5), rows[1].ValueCells[0].Value)

	assert.Equal(t, int64(35), grid.GetGrandTotal(sumAmount))
	assert.Equal(t, []pivot.ColumnLeaf{{Path: nil, PathKey: "", Title: ""}}, grid.GetColumnLeaves())
}

func TestCollapsedRowGroupIsSubtotalOfExpandedRows(t *testing.T) {
	grid := newGrid(true, []pivot.Field[sale]{regionField, cityField}, nil)

	collapsed := grid.GetBodyRows()
	require.Len(t, collapsed, 2)
	for _, row := range collapsed {
		assert.True(t, row.IsCollapsed)
		assert.True(t, row.IsSubtotal)
	}
	assert.Equal(t, map[string][]any{
		"/East": {int64(35)},
		"/West": {int64(7)},
	}, rowValues(collapsed))

	for _, row := range collapsed {
		grid.ToggleRowGroup(row.PathKey)
	}

	expanded := grid.GetBodyRows()
	require.Len(t, expanded, 3)
	assert.Equal(t, map[string][]any{
		"/East/Boston":      {int64(15)},
		"/East/New York":    {int64(20)},
		"/West/Los Angeles": {int64(7)},
	}, rowValues(expanded))

	var eastSum int64
	for _, row := range expanded {
		if row.Path[0] == "East" {
			eastSum += row.ValueCells[0].Value.(int64)
		}
	}
	assert.Equal(t, collapsed[0].ValueCells[0].Value, eastSum)
}

func TestDefaultCollapseAndFirstToggleExpands(t *testing.T) {
	grid := newGrid(true, []pivot.Field[sale]{regionField, cityField}, nil)

	east := grid.RowTree().Children[0]
	require.Equal(t, "East", east.Value)
	assert.True(t, east.IsCollapsed)
	assert.Empty(t, east.Children)
	assert.Len(t, east.Items, 3)

	grid.ToggleRowGroup(east.PathKey)
	east = grid.RowTree().Children[0]
	assert.False(t, east.IsCollapsed)
	assert.Len(t, east.Children, 2)
	assert.Nil(t, east.Items)

	grid.ToggleRowGroup(east.PathKey)
	east = grid.RowTree().Children[0]
	assert.True(t, east.IsCollapsed)
	assert.Empty(t, east.Children)
}

func TestDrillDownStateFirstToggleInsertsFalse(t *testing.T) {
	state := pivot.NewDrillDownState()
	assert.True(t, state.IsCollapsed("a", true))

	state.Toggle("a")
	collapsed, hasEntry := state.Entry("a")
	assert.True(t, hasEntry)
	assert.False(t, collapsed)
	assert.False(t, state.IsCollapsed("a", true))

	state.Toggle("a")
	assert.True(t, state.IsCollapsed("a", true))
	assert.False(t, state.IsCollapsed("a", false))
}

func TestDrillDownDisabled(t *testing.T) {
	changes := 0
	grid := pivot.NewGrid[sale](pivot.Options{
		AllowDrillDown: false,
		OnChange:       func() { changes++ },
	})
	grid.Configure(
		[]pivot.Field[sale]{regionField, cityField},
		[]pivot.Field[sale]{cityField},
		[]pivot.Measure[sale]{sumAmount},
	)
	grid.SetItems(testSales())

	generation := grid.Generation()
	grid.ToggleRowGroup(grid.RowTree().Children[0].PathKey)
	grid.ToggleColumnGroup("anything")
	assert.Equal(t, generation, grid.Generation())
	assert.Zero(t, changes)
	assert.Zero(t, grid.DrillDownState(pivot.AxisRows).Len())

	rows := grid.GetBodyRows()
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.False(t, row.IsCollapsed)
		assert.False(t, row.IsSubtotal)
		for _, cell := range row.HeaderCells {
			assert.False(t, cell.IsCollapsed)
		}
	}
}

func TestToggleInvalidatesAndNotifiesHost(t *testing.T) {
	changes := 0
	grid := pivot.NewGrid[sale](pivot.Options{AllowDrillDown: true, OnChange: func() { changes++ }})
	grid.Configure([]pivot.Field[sale]{regionField, cityField}, nil, []pivot.Measure[sale]{sumAmount})
	grid.SetItems(testSales())

	first := grid.GetBodyRows()
	generation := grid.Generation()

	// Unknown keys are legal, and take effect if the group appears later.
	grid.ToggleRowGroup("not a group")
	assert.Equal(t, 1, changes)
	assert.Equal(t, generation+1, grid.Generation())
	assert.Equal(t, first, grid.GetBodyRows())

	grid.ToggleRowGroup(first[1].PathKey)
	assert.Equal(t, 2, changes)
	rows := grid.GetBodyRows()
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"West", "Los Angeles"}, rows[1].Path)
	assert.False(t, rows[1].IsSubtotal)
}

func TestLeafCountAndSpanConservation(t *testing.T) {
	grid := newGrid(false, []pivot.Field[sale]{regionField}, []pivot.Field[sale]{regionField, cityField})

	root := grid.ColumnTree()
	assertLeafCountConserved(t, root)
	assert.Equal(t, root.LeafCount(), len(grid.GetColumnLeaves()))
	assert.Equal(t, 3, root.LeafCount())

	headerRows := grid.GetColumnHeaderRows()
	require.Len(t, headerRows, 2)
	for _, level := range headerRows {
		colSpans := 0
		for _, cell := range level {
			colSpans += cell.ColSpan
		}
		assert.Equal(t, root.LeafCount(), colSpans)
	}

	assert.Equal(t, "East", headerRows[0][0].Title)
	assert.Equal(t, 2, headerRows[0][0].ColSpan)
	assert.Equal(t, 1, headerRows[0][0].RowSpan)
	assert.Equal(t, 120, headerRows[0][0].Width)
	assert.Equal(t, 1, headerRows[1][0].RowSpan)
}

func TestSpansWithCollapsedColumnGroup(t *testing.T) {
	grid := newGrid(true, []pivot.Field[sale]{regionField}, []pivot.Field[sale]{regionField, cityField})
	grid.ToggleColumnGroup(grid.ColumnTree().Children[0].PathKey)

	headerRows := grid.GetColumnHeaderRows()
	require.Len(t, headerRows, 2)

	east, west := headerRows[0][0], headerRows[0][1]
	assert.Equal(t, 2, east.ColSpan)
	assert.Equal(t, 1, east.RowSpan)
	assert.False(t, east.IsCollapsed)
	assert.Equal(t, 1, west.ColSpan)
	assert.Equal(t, 2, west.RowSpan)
	assert.True(t, west.IsCollapsed)
	require.Len(t, headerRows[1], 2)

	// Every level is covered by the cells on it plus the cells spanning down into it.
	leafCount := grid.ColumnTree().LeafCount()
	for levelIndex := range headerRows {
		covered := 0
		for upper := 0; upper <= levelIndex; upper++ {
			for _, cell := range headerRows[upper] {
				if upper == levelIndex || upper+cell.RowSpan > levelIndex {
					covered += cell.ColSpan
				}
			}
		}
		assert.Equal(t, leafCount, covered)
	}

	leaves := grid.GetColumnLeaves()
	require.Len(t, leaves, 3)
	assert.Equal(t, []any{"West"}, leaves[2].Path)
	assert.True(t, leaves[2].IsCollapsed)
}

func TestRowHeaderLevelsSwapSpans(t *testing.T) {
	grid := newGrid(false, []pivot.Field[sale]{regionField, cityField}, nil)

	levels := grid.GetRowHeaderLevels()
	require.Len(t, levels, 2)
	assert.Equal(t, 2, levels[0][0].RowSpan)
	assert.Equal(t, 1, levels[0][0].ColSpan)
	assert.Equal(t, 1, levels[1][0].RowSpan)
	assert.Equal(t, 1, levels[1][0].ColSpan)
}

func TestBodyRowsArePaddedAndSpanned(t *testing.T) {
	grid := newGrid(true, []pivot.Field[sale]{regionField, cityField}, nil)
	grid.ToggleRowGroup(grid.RowTree().Children[0].PathKey)

	rows := grid.GetBodyRows()
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row.HeaderCells, 2)
	}

	assert.Equal(t, 2, rows[0].HeaderCells[0].RowSpan)
	assert.False(t, rows[0].HeaderCells[0].IsSpanContinuation)
	assert.Equal(t, 0, rows[1].HeaderCells[0].RowSpan)
	assert.True(t, rows[1].HeaderCells[0].IsSpanContinuation)

	west := rows[2]
	assert.True(t, west.IsSubtotal)
	assert.Equal(t, "West", west.HeaderCells[0].Title)
	assert.True(t, west.HeaderCells[1].IsFiller)
	assert.Equal(t, 2, west.HeaderCells[1].Level)
}

func TestPadRowHeaderCells(t *testing.T) {
	rows := []pivot.BodyRow{
		{HeaderCells: []pivot.HeaderCell{{Title: "a"}}},
		{HeaderCells: []pivot.HeaderCell{{Title: "b"}, {Title: "c"}, {Title: "d"}}},
		{},
	}

	pivot.PadRowHeaderCells(rows)
	for _, row := range rows {
		assert.Len(t, row.HeaderCells, 3)
	}
	assert.True(t, rows[0].HeaderCells[2].IsFiller)
	assert.False(t, rows[1].HeaderCells[2].IsFiller)
}

func TestValueCellsAreColumnLeafMajor(t *testing.T) {
	grid := newGrid(false, []pivot.Field[sale]{regionField}, []pivot.Field[sale]{cityField})
	grid.AddMeasure(countSales)

	leaves := grid.GetColumnLeaves()
	require.Len(t, leaves, 3)

	rows := grid.GetBodyRows()
	require.Len(t, rows, 2)

	west := rows[1]
	require.Len(t, west.ValueCells, 6)
	for i, cell := range west.ValueCells {
		assert.Equal(t, i/2, cell.ColumnLeaf)
		assert.Equal(t, i%2, cell.Measure)
	}
	assert.Nil(t, west.ValueCells[0].Value)
	assert.Equal(t, "", west.ValueCells[0].Formatted)
	assert.Equal(t, int64(7), west.ValueCells[4].Value)
	assert.Equal(t, int64(1), west.ValueCells[5].Value)
	assert.Equal(t, []pivot.ColumnLeaf{leaves[2]}, west.VisibleColumnLeaves)

	east := rows[0]
	assert.Equal(t, int64(15), east.ValueCells[0].Value)
	assert.Equal(t, int64(2), east.ValueCells[1].Value)
	assert.Len(t, east.VisibleColumnLeaves, 2)
}

func TestTotals(t *testing.T) {
	grid := newGrid(false, []pivot.Field[sale]{regionField, cityField}, []pivot.Field[sale]{cityField})

	rows := grid.GetBodyRows()
	require.Len(t, rows, 3)
	assert.Equal(t, int64(15), grid.GetRowTotal(rows[0], sumAmount))
	assert.Equal(t, int64(7), grid.GetRowTotal(rows[2], sumAmount))

	assert.Equal(t, int64(15), grid.GetColumnTotal([]any{"Boston"}, sumAmount))
	assert.Nil(t, grid.GetColumnTotal([]any{"boston"}, sumAmount))
	assert.Equal(t, int64(42), grid.GetColumnTotal(nil, sumAmount))
	assert.Equal(t, int64(42), grid.GetGrandTotal(sumAmount))
	assert.Equal(t, int64(4), grid.GetGrandTotal(countSales))
}

func TestBadMeasureOnlyBlanksItsOwnCells(t *testing.T) {
	broken := pivot.Measure[sale]{
		Name:        "broken",
		Selector:    func(sale) (any, error) { return nil, errors.New("no such property") },
		Aggregation: pivot.AggregationSum,
	}
	panicking := pivot.Measure[sale]{
		Name:        "panicking",
		Selector:    func(s sale) (any, error) { return []int{}[s.Amount], nil },
		Aggregation: pivot.AggregationMax,
	}

	grid := newGrid(false, []pivot.Field[sale]{regionField}, nil)
	grid.AddMeasure(broken)
	grid.AddMeasure(panicking)

	for _, row := range grid.GetBodyRows() {
		require.Len(t, row.ValueCells, 3)
		assert.NotNil(t, row.ValueCells[0].Value)
		assert.Nil(t, row.ValueCells[1].Value)
		assert.Nil(t, row.ValueCells[2].Value)
	}
}

func TestEmptyConfigurationDegradesToEmptyTable(t *testing.T) {
	grid := pivot.NewGrid[sale](pivot.Options{AllowDrillDown: true})
	grid.SetItems(testSales())

	assert.Empty(t, grid.GetBodyRows())
	assert.Empty(t, grid.GetColumnHeaderRows())

	grid.Configure([]pivot.Field[sale]{regionField}, nil, nil)
	assert.Empty(t, grid.GetBodyRows())

	grid.AddMeasure(sumAmount)
	grid.SetItems(nil)
	assert.Empty(t, grid.GetBodyRows())
	assert.Nil(t, grid.GetGrandTotal(sumAmount))
}

func TestConfigurationChangesInvalidate(t *testing.T) {
	grid := newGrid(false, []pivot.Field[sale]{regionField}, nil)
	require.Len(t, grid.GetBodyRows(), 2)

	generation := grid.Generation()
	grid.AddRowField(cityField)
	assert.Greater(t, grid.Generation(), generation)
	assert.Len(t, grid.GetBodyRows(), 3)

	assert.True(t, grid.RemoveRowField("city"))
	assert.False(t, grid.RemoveRowField("city"))
	assert.Len(t, grid.GetBodyRows(), 2)

	grid.AddColumnField(cityField)
	assert.Len(t, grid.GetColumnLeaves(), 3)
	assert.True(t, grid.RemoveColumnField("city"))
	assert.Len(t, grid.GetColumnLeaves(), 1)

	assert.True(t, grid.RemoveMeasure("amount"))
	assert.Empty(t, grid.GetBodyRows())

	generation = grid.Generation()
	grid.Reload()
	assert.Equal(t, generation+1, grid.Generation())
}

func assertLeafCountConserved[Item any](t *testing.T, node *pivot.AxisNode[Item]) {
	t.Helper()

	if node.IsLeaf() {
		assert.Equal(t, 1, node.LeafCount())
		return
	}

	sum := 0
	for _, child := range node.Children {
		sum += child.LeafCount()
		assertLeafCountConserved(t, child)
	}
	assert.Equal(t, node.LeafCount(), sum)
}
