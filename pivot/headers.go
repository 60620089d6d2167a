package pivot

// HeaderCell is a render-ready projection of one axis node.
type HeaderCell struct {
	Value       any     `json:"value"`
	Title       string  `json:"title"`
	Level       int     `json:"level"`
	Width       int     `json:"width,omitempty"`
	RowSpan     int     `json:"rowSpan"`
	ColSpan     int     `json:"colSpan"`
	IsCollapsed bool    `json:"isCollapsed"`
	PathKey     PathKey `json:"pathKey"`
	// Pads a row header that bottoms out above the deepest row level.
	IsFiller bool `json:"isFiller,omitempty"`
	// Stands in for a cell spanning down from an earlier row (RowSpan is 0).
	IsSpanContinuation bool `json:"isSpanContinuation,omitempty"`
}

// Flatten converts an axis tree into exactly depth levels of header cells, in depth-first order.
// Widths holds the layout hint for each level, and may be shorter than depth.
//
// On the column axis, a leaf spans the remaining levels downwards and one column, while an
// internal node spans one level and as many columns as it has leaves. The row axis is the same
// with the spans swapped.
func Flatten[Item any](root *AxisNode[Item], depth int, axis Axis, widths []int) [][]HeaderCell {
	levels := make([][]HeaderCell, depth)
	for i := range levels {
		levels[i] = []HeaderCell{}
	}
	if root == nil || depth <= 0 {
		return levels
	}

	var visit func(node *AxisNode[Item])
	visit = func(node *AxisNode[Item]) {
		if node.Level > 0 && node.Level <= depth {
			levelIndex := node.Level - 1
			levels[levelIndex] = append(levels[levelIndex], newHeaderCell(node, depth, axis, widths))
		}
		for _, child := range node.Children {
			visit(child)
		}
	}
	visit(root)

	return levels
}

func newHeaderCell[Item any](node *AxisNode[Item], depth int, axis Axis, widths []int) HeaderCell {
	var ownSpan, orthogonalSpan int
	if node.IsLeaf() {
		ownSpan = depth - (node.Level - 1)
		orthogonalSpan = 1
	} else {
		ownSpan = 1
		orthogonalSpan = node.LeafCount()
	}

	cell := HeaderCell{
		Value:       node.Value,
		Title:       node.Title,
		Level:       node.Level,
		IsCollapsed: node.IsCollapsed,
		PathKey:     node.PathKey,
	}
	if node.Level-1 < len(widths) {
		cell.Width = widths[node.Level-1]
	}

	if axis == AxisRows {
		cell.ColSpan = ownSpan
		cell.RowSpan = orthogonalSpan
	} else {
		cell.RowSpan = ownSpan
		cell.ColSpan = orthogonalSpan
	}
	return cell
}
