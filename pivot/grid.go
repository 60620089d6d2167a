// Package pivot builds drill-down pivot tables from flat item collections: nested row groups by
// nested column groups, with one aggregated value per measure at each intersection, subtotal rows
// for collapsed groups and totals per row, column and table.
//
// A Grid is not safe for concurrent use; hosts serve one user action at a time.
package pivot

import (
	"hermannm.dev/devlog/log"
)

type Options struct {
	// If false, no group is ever collapsed, and toggles are ignored.
	AllowDrillDown bool
	PathKeyStyle   PathKeyStyle
	// Called after a toggle changes drill-down state, to ask the host to re-render.
	OnChange func()
}

type Grid[Item any] struct {
	options   Options
	config    Configuration[Item]
	items     []Item
	drillDown *DrillDown
	cache     resultCache[Item]
}

func NewGrid[Item any](options Options) *Grid[Item] {
	return &Grid[Item]{
		options:   options,
		drillDown: NewDrillDown(options.AllowDrillDown),
	}
}

// Configure replaces the row fields, column fields and measures of the grid.
func (grid *Grid[Item]) Configure(
	rowFields []Field[Item],
	columnFields []Field[Item],
	measures []Measure[Item],
) {
	grid.config = Configuration[Item]{
		RowFields:    rowFields,
		ColumnFields: columnFields,
		Measures:     measures,
	}.clone()
	grid.cache.invalidate()
}

func (grid *Grid[Item]) Configuration() Configuration[Item] {
	return grid.config.clone()
}

// SetItems replaces the data set of the grid. The grid does not modify the slice.
func (grid *Grid[Item]) SetItems(items []Item) {
	grid.items = items
	grid.cache.invalidate()
}

func (grid *Grid[Item]) AddRowField(field Field[Item]) {
	grid.config.RowFields = append(grid.config.RowFields, field)
	grid.cache.invalidate()
}

func (grid *Grid[Item]) AddColumnField(field Field[Item]) {
	grid.config.ColumnFields = append(grid.config.ColumnFields, field)
	grid.cache.invalidate()
}

func (grid *Grid[Item]) AddMeasure(measure Measure[Item]) {
	grid.config.Measures = append(grid.config.Measures, measure)
	grid.cache.invalidate()
}

func (grid *Grid[Item]) RemoveRowField(name string) (removed bool) {
	grid.config.RowFields, removed = removeField(grid.config.RowFields, name)
	if removed {
		grid.cache.invalidate()
	}
	return removed
}

func (grid *Grid[Item]) RemoveColumnField(name string) (removed bool) {
	grid.config.ColumnFields, removed = removeField(grid.config.ColumnFields, name)
	if removed {
		grid.cache.invalidate()
	}
	return removed
}

func (grid *Grid[Item]) RemoveMeasure(name string) (removed bool) {
	grid.config.Measures, removed = removeMeasure(grid.config.Measures, name)
	if removed {
		grid.cache.invalidate()
	}
	return removed
}

// Reload drops all derived views, so the next read recomputes them.
func (grid *Grid[Item]) Reload() {
	grid.cache.invalidate()
}

// Generation increments every time the derived views are invalidated.
func (grid *Grid[Item]) Generation() uint64 {
	return grid.cache.generation
}

func (grid *Grid[Item]) DrillDownState(axis Axis) *DrillDownState {
	return grid.drillDown.State(axis)
}

func (grid *Grid[Item]) ToggleRowGroup(pathKey PathKey) {
	grid.toggle(AxisRows, pathKey)
}

func (grid *Grid[Item]) ToggleColumnGroup(pathKey PathKey) {
	grid.toggle(AxisColumns, pathKey)
}

// Toggle flips the drill-down state of a group on the given axis. The key need not exist in the
// current trees; the state applies if the group appears later.
func (grid *Grid[Item]) Toggle(axis Axis, pathKey PathKey) {
	if axis.IsValid() {
		grid.toggle(axis, pathKey)
	}
}

func (grid *Grid[Item]) toggle(axis Axis, pathKey PathKey) {
	if changed := grid.drillDown.Toggle(axis, pathKey); !changed {
		return
	}

	grid.cache.invalidate()
	if grid.options.OnChange != nil {
		grid.options.OnChange()
	}
}

// GetColumnHeaderRows returns one row of header cells per column field level.
func (grid *Grid[Item]) GetColumnHeaderRows() [][]HeaderCell {
	grid.ensureCache()
	return grid.cache.columnHeaderRows
}

func (grid *Grid[Item]) GetColumnLeaves() []ColumnLeaf {
	grid.ensureCache()
	return grid.cache.columnLeaves
}

func (grid *Grid[Item]) GetBodyRows() []BodyRow {
	grid.ensureCache()
	return grid.cache.bodyRows
}

// GetRowHeaderLevels flattens the row tree like the column headers, with row spans in place of
// column spans.
func (grid *Grid[Item]) GetRowHeaderLevels() [][]HeaderCell {
	grid.ensureCache()
	return Flatten(
		grid.cache.rowTree,
		len(grid.config.RowFields),
		AxisRows,
		fieldWidths(grid.config.RowFields),
	)
}

func (grid *Grid[Item]) RowTree() *AxisNode[Item] {
	grid.ensureCache()
	return grid.cache.rowTree
}

func (grid *Grid[Item]) ColumnTree() *AxisNode[Item] {
	grid.ensureCache()
	return grid.cache.columnTree
}

// GetGrandTotal evaluates the measure over all items, without any group filter.
func (grid *Grid[Item]) GetGrandTotal(measure Measure[Item]) any {
	return Evaluate(grid.items, measure)
}

// GetRowTotal evaluates the measure over all items in the row's group, across all columns.
func (grid *Grid[Item]) GetRowTotal(row BodyRow, measure Measure[Item]) any {
	return Evaluate(FilterByPath(grid.items, grid.config.RowFields, row.Path), measure)
}

// GetColumnTotal evaluates the measure over all items in the column group with the given path,
// across all rows.
func (grid *Grid[Item]) GetColumnTotal(columnPath []any, measure Measure[Item]) any {
	return Evaluate(FilterByPath(grid.items, grid.config.ColumnFields, columnPath), measure)
}

func (grid *Grid[Item]) ensureCache() {
	if grid.cache.valid {
		return
	}

	config := grid.config
	allowDrillDown := grid.drillDown.Enabled

	rowTree := BuildAxisTree(
		grid.items,
		config.RowFields,
		grid.drillDown.State(AxisRows),
		allowDrillDown,
		grid.options.PathKeyStyle,
	)
	columnTree := BuildAxisTree(
		grid.items,
		config.ColumnFields,
		grid.drillDown.State(AxisColumns),
		allowDrillDown,
		grid.options.PathKeyStyle,
	)
	columnLeafNodes := columnTree.Leaves()

	grid.cache.rowTree = rowTree
	grid.cache.columnTree = columnTree
	grid.cache.columnHeaderRows = Flatten(
		columnTree,
		len(config.ColumnFields),
		AxisColumns,
		fieldWidths(config.ColumnFields),
	)
	grid.cache.columnLeaves = columnLeavesOf(columnLeafNodes)
	grid.cache.bodyRows = buildBodyRows(rowTree, columnLeafNodes, config)
	grid.cache.valid = true

	log.Debugf(
		"rebuilt pivot generation %d: %d body rows, %d column leaves",
		grid.cache.generation,
		len(grid.cache.bodyRows),
		len(grid.cache.columnLeaves),
	)
}
