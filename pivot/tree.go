package pivot

import (
	"log/slog"

	"hermannm.dev/devlog/log"
)

// AxisNode is a group in a row or column tree. The root is synthetic, at level 0 with no value.
// Items is only populated on leaves, which are either groups at the last field level or
// collapsed groups.
type AxisNode[Item any] struct {
	Value       any
	Title       string
	Level       int
	Children    []*AxisNode[Item]
	IsCollapsed bool
	PathKey     PathKey
	// Group values from the root to this node, one per field level.
	Path  []any
	Items []Item
}

func (node *AxisNode[Item]) IsLeaf() bool {
	return len(node.Children) == 0
}

func (node *AxisNode[Item]) LeafCount() int {
	if node.IsLeaf() {
		return 1
	}

	count := 0
	for _, child := range node.Children {
		count += child.LeafCount()
	}
	return count
}

// Leaves returns the leaf nodes under this node in depth-first order. A childless node is its own
// single leaf.
func (node *AxisNode[Item]) Leaves() []*AxisNode[Item] {
	return node.appendLeaves(make([]*AxisNode[Item], 0, node.LeafCount()))
}

func (node *AxisNode[Item]) appendLeaves(leaves []*AxisNode[Item]) []*AxisNode[Item] {
	if node.IsLeaf() {
		return append(leaves, node)
	}
	for _, child := range node.Children {
		leaves = child.appendLeaves(leaves)
	}
	return leaves
}

// BuildAxisTree partitions items by each of the given fields in turn, stopping at collapsed
// groups. Groups keep the order in which their values first appear in items.
func BuildAxisTree[Item any](
	items []Item,
	fields []Field[Item],
	state *DrillDownState,
	allowDrillDown bool,
	keyStyle PathKeyStyle,
) *AxisNode[Item] {
	root := &AxisNode[Item]{Level: 0}
	if len(fields) == 0 || len(items) == 0 {
		return root
	}

	tree := treeBuilder[Item]{
		fields:         fields,
		state:          state,
		allowDrillDown: allowDrillDown,
		keyStyle:       keyStyle,
	}
	root.Children = tree.groupItems(items, root)
	return root
}

type treeBuilder[Item any] struct {
	fields         []Field[Item]
	state          *DrillDownState
	allowDrillDown bool
	keyStyle       PathKeyStyle
}

func (tree treeBuilder[Item]) groupItems(items []Item, parent *AxisNode[Item]) []*AxisNode[Item] {
	level := parent.Level + 1
	if level > len(tree.fields) {
		return nil
	}
	field := tree.fields[level-1]

	var children []*AxisNode[Item]
	groups := newGroupIndex[Item]()

	for _, item := range items {
		value, err := selectValue(field.Selector, item)
		if err != nil {
			log.Debug(
				"failed to select group value, grouping item under empty value",
				slog.String("field", field.Name),
				slog.String("cause", err.Error()),
			)
			value = nil
		}

		child, found := groups.get(value)
		if !found {
			path := make([]any, len(parent.Path), len(parent.Path)+1)
			copy(path, parent.Path)

			child = &AxisNode[Item]{
				Value:   value,
				Title:   valueTitle(value),
				Level:   level,
				PathKey: tree.keyStyle.childKey(parent.PathKey, level, value),
				Path:    append(path, value),
			}
			groups.put(value, child)
			children = append(children, child)
		}

		// Items are collected on every node while partitioning; internal nodes drop them below.
		child.Items = append(child.Items, item)
	}

	for _, child := range children {
		child.IsCollapsed = tree.state.IsCollapsed(child.PathKey, tree.allowDrillDown)

		if !child.IsCollapsed && level < len(tree.fields) {
			child.Children = tree.groupItems(child.Items, child)
			child.Items = nil
		}
	}

	return children
}

// selectValue runs the selector, turning a panic inside it into an error.
func selectValue[Item any](selector Selector[Item], item Item) (value any, err error) {
	if selector == nil {
		return nil, errNilSelector
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = selectorPanicError{recovered: recovered}
		}
	}()

	return selector(item)
}
