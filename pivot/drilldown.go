package pivot

// DrillDownState maps path keys to whether the node is collapsed. A node without an entry is in
// the default state, which is collapsed while drill-down is enabled.
type DrillDownState struct {
	entries map[PathKey]bool
}

func NewDrillDownState() *DrillDownState {
	return &DrillDownState{entries: make(map[PathKey]bool)}
}

func (state *DrillDownState) IsCollapsed(pathKey PathKey, allowDrillDown bool) bool {
	if !allowDrillDown {
		return false
	}
	if state == nil {
		return true
	}

	collapsed, hasEntry := state.entries[pathKey]
	return !hasEntry || collapsed
}

// Toggle flips the stored entry for the given key. A key without an entry gets false, so the
// first toggle of a node always expands it, even though it was implicitly collapsed.
func (state *DrillDownState) Toggle(pathKey PathKey) {
	if collapsed, hasEntry := state.entries[pathKey]; hasEntry {
		state.entries[pathKey] = !collapsed
	} else {
		state.entries[pathKey] = false
	}
}

// Entry returns the stored state for the key, if any.
func (state *DrillDownState) Entry(pathKey PathKey) (collapsed bool, hasEntry bool) {
	collapsed, hasEntry = state.entries[pathKey]
	return collapsed, hasEntry
}

func (state *DrillDownState) Len() int {
	return len(state.entries)
}

// DrillDown holds the drill-down state of both axes of one grid. Entries are never pruned: keys
// of groups that no longer exist just go unused until the group reappears.
type DrillDown struct {
	Enabled bool
	rows    *DrillDownState
	columns *DrillDownState
}

func NewDrillDown(enabled bool) *DrillDown {
	return &DrillDown{
		Enabled: enabled,
		rows:    NewDrillDownState(),
		columns: NewDrillDownState(),
	}
}

func (drillDown *DrillDown) State(axis Axis) *DrillDownState {
	if axis == AxisColumns {
		return drillDown.columns
	}
	return drillDown.rows
}

// Toggle flips the state of the node with the given key on the given axis. Returns false
// without touching any state if drill-down is disabled.
func (drillDown *DrillDown) Toggle(axis Axis, pathKey PathKey) (changed bool) {
	if !drillDown.Enabled {
		return false
	}

	drillDown.State(axis).Toggle(pathKey)
	return true
}
