package pivot

// resultCache holds the derived views of a grid. All views are rebuilt together on first access
// after invalidation, so readers never see views from different generations.
type resultCache[Item any] struct {
	valid      bool
	generation uint64

	rowTree          *AxisNode[Item]
	columnTree       *AxisNode[Item]
	columnHeaderRows [][]HeaderCell
	columnLeaves     []ColumnLeaf
	bodyRows         []BodyRow
}

func (cache *resultCache[Item]) invalidate() {
	*cache = resultCache[Item]{generation: cache.generation + 1}
}
