package pivot

// ColumnLeaf is a leaf of the column tree: either a group at the last column field level, or a
// collapsed column group. Without column fields there is a single leaf with an empty path.
type ColumnLeaf struct {
	Path        []any   `json:"path"`
	PathKey     PathKey `json:"pathKey"`
	Title       string  `json:"title"`
	IsCollapsed bool    `json:"isCollapsed"`
}

type ValueCell struct {
	ColumnLeaf int    `json:"columnLeaf"`
	Measure    int    `json:"measure"`
	Value      any    `json:"value"`
	Formatted  string `json:"formatted"`
}

// BodyRow is one row of the pivot body, for either a row-tree leaf or a collapsed row group.
//
// HeaderCells has one cell per row level, padded with filler cells to the deepest row in the
// table. The first row under a group carries the group's cell with a row span over all its
// rows; later rows carry a span continuation in its place.
//
// ValueCells holds one cell per column leaf per measure, ordered column leaf first.
type BodyRow struct {
	Path                []any        `json:"path"`
	PathKey             PathKey      `json:"pathKey"`
	IsCollapsed         bool         `json:"isCollapsed"`
	IsSubtotal          bool         `json:"isSubtotal"`
	HeaderCells         []HeaderCell `json:"headerCells"`
	ValueCells          []ValueCell  `json:"valueCells"`
	VisibleColumnLeaves []ColumnLeaf `json:"visibleColumnLeaves"`
}

func columnLeavesOf[Item any](leafNodes []*AxisNode[Item]) []ColumnLeaf {
	leaves := make([]ColumnLeaf, len(leafNodes))
	for i, node := range leafNodes {
		leaves[i] = ColumnLeaf{
			Path:        node.Path,
			PathKey:     node.PathKey,
			Title:       pathTitle(node.Path),
			IsCollapsed: node.IsCollapsed,
		}
	}
	return leaves
}

type bodyRowBuilder[Item any] struct {
	config           Configuration[Item]
	columnLeafNodes  []*AxisNode[Item]
	columnLeaves     []ColumnLeaf
	rowWidths        []int
	rowDepth         int
	emittedRowGroups map[*AxisNode[Item]]bool
}

// buildBodyRows materializes one body row per leaf of the row tree. A collapsed group becomes a
// single subtotal row, evaluated over all the items of its subtree.
func buildBodyRows[Item any](
	rowRoot *AxisNode[Item],
	columnLeafNodes []*AxisNode[Item],
	config Configuration[Item],
) []BodyRow {
	if len(config.RowFields) == 0 || len(config.Measures) == 0 || rowRoot.IsLeaf() {
		return []BodyRow{}
	}

	builder := bodyRowBuilder[Item]{
		config:           config,
		columnLeafNodes:  columnLeafNodes,
		columnLeaves:     columnLeavesOf(columnLeafNodes),
		rowWidths:        fieldWidths(config.RowFields),
		rowDepth:         len(config.RowFields),
		emittedRowGroups: make(map[*AxisNode[Item]]bool),
	}

	rows := make([]BodyRow, 0, rowRoot.LeafCount())
	for _, child := range rowRoot.Children {
		rows = builder.appendRows(rows, child, nil)
	}

	PadRowHeaderCells(rows)
	return rows
}

func (builder bodyRowBuilder[Item]) appendRows(
	rows []BodyRow,
	node *AxisNode[Item],
	ancestors []*AxisNode[Item],
) []BodyRow {
	chain := append(ancestors[:len(ancestors):len(ancestors)], node)

	if !node.IsLeaf() {
		for _, child := range node.Children {
			rows = builder.appendRows(rows, child, chain)
		}
		return rows
	}

	return append(rows, builder.bodyRow(node, chain))
}

func (builder bodyRowBuilder[Item]) bodyRow(leaf *AxisNode[Item], chain []*AxisNode[Item]) BodyRow {
	row := BodyRow{
		Path:        leaf.Path,
		PathKey:     leaf.PathKey,
		IsCollapsed: leaf.IsCollapsed,
		IsSubtotal:  leaf.IsCollapsed && leaf.Level < builder.rowDepth,
		HeaderCells: make([]HeaderCell, 0, builder.rowDepth),
		ValueCells: make(
			[]ValueCell, 0, len(builder.columnLeafNodes)*len(builder.config.Measures),
		),
	}

	for _, node := range chain {
		cell := newHeaderCell(node, builder.rowDepth, AxisRows, builder.rowWidths)
		// Filler cells pad the row instead of the leaf spanning the remaining levels.
		cell.ColSpan = 1
		if builder.emittedRowGroups[node] {
			cell.RowSpan = 0
			cell.IsSpanContinuation = true
		}
		builder.emittedRowGroups[node] = true
		row.HeaderCells = append(row.HeaderCells, cell)
	}

	for columnIndex, columnNode := range builder.columnLeafNodes {
		items := FilterByPath(leaf.Items, builder.config.ColumnFields, columnNode.Path)
		if len(items) > 0 {
			row.VisibleColumnLeaves = append(row.VisibleColumnLeaves, builder.columnLeaves[columnIndex])
		}

		for measureIndex, measure := range builder.config.Measures {
			value := Evaluate(items, measure)
			row.ValueCells = append(row.ValueCells, ValueCell{
				ColumnLeaf: columnIndex,
				Measure:    measureIndex,
				Value:      value,
				Formatted:  measure.Format(value),
			})
		}
	}

	return row
}

// PadRowHeaderCells appends filler cells to every row's header cells, up to the longest header
// cell sequence among the rows.
func PadRowHeaderCells(rows []BodyRow) {
	maxDepth := 0
	for _, row := range rows {
		maxDepth = max(maxDepth, len(row.HeaderCells))
	}

	for i, row := range rows {
		for level := len(row.HeaderCells) + 1; level <= maxDepth; level++ {
			row.HeaderCells = append(row.HeaderCells, HeaderCell{
				Level:    level,
				RowSpan:  1,
				ColSpan:  1,
				IsFiller: true,
			})
		}
		rows[i] = row
	}
}
