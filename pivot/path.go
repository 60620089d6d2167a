package pivot

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PathKey identifies the path from an axis root to a node. Drill-down state is keyed by it, so
// it stays stable across rebuilds as long as the same group values reappear.
type PathKey string

// PathKeyStyle selects how path keys are built.
//
// PathKeyStructural keys every level by field index, Go type and quoted value, so groups whose
// values print identically (10 and "10") stay distinct. PathKeyLegacy joins the printed values
// with '|', which is what older hosts stored; such groups then share drill-down state.
type PathKeyStyle uint8

const (
	PathKeyStructural PathKeyStyle = iota
	PathKeyLegacy
)

const pathKeySeparator = "|"

func (style PathKeyStyle) childKey(parent PathKey, level int, value any) PathKey {
	var segment string
	if style == PathKeyLegacy {
		segment = valueTitle(value)
	} else {
		segment = fmt.Sprintf("%d:%T:%s", level-1, value, strconv.Quote(fmt.Sprint(value)))
	}

	if level <= 1 {
		return PathKey(segment)
	}
	return parent + pathKeySeparator + PathKey(segment)
}

// PathKeyFor builds the key of the node at the end of the given path of group values.
func (style PathKeyStyle) PathKeyFor(path []any) PathKey {
	var key PathKey
	for i, value := range path {
		key = style.childKey(key, i+1, value)
	}
	return key
}

func valueTitle(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func pathTitle(path []any) string {
	titles := make([]string, len(path))
	for i, value := range path {
		titles[i] = valueTitle(value)
	}
	return strings.Join(titles, " / ")
}

// valuesEqual compares group values by native equality, falling back to deep equality for
// values that cannot be compared with ==.
func valuesEqual(value1 any, value2 any) (equal bool) {
	if isNaN(value1) || isNaN(value2) {
		return isNaN(value1) && isNaN(value2) && reflect.TypeOf(value1) == reflect.TypeOf(value2)
	}
	if !isComparable(value1) || !isComparable(value2) {
		return reflect.DeepEqual(value1, value2)
	}

	// Comparable types may still hold incomparable values behind interface fields.
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(value1, value2)
		}
	}()
	return value1 == value2
}

// NaN is never equal to itself, so NaN group values are keyed by their type instead.
type nanKey struct {
	valueType reflect.Type
}

func isNaN(value any) bool {
	switch value := value.(type) {
	case float64:
		return math.IsNaN(value)
	case float32:
		return math.IsNaN(float64(value))
	default:
		return false
	}
}

// indexKey is the map key for a group value.
func indexKey(value any) any {
	if isNaN(value) {
		return nanKey{valueType: reflect.TypeOf(value)}
	}
	return value
}

func isComparable(value any) bool {
	if value == nil {
		return true
	}
	return reflect.TypeOf(value).Comparable()
}

// groupIndex finds the child node for a group value while partitioning items. Comparable values
// are looked up directly; anything else goes through an xxhash of its printed form, with deep
// equality deciding between candidates in the same bucket.
type groupIndex[Item any] struct {
	comparable map[any]*AxisNode[Item]
	hashed     map[uint64][]*AxisNode[Item]
}

func newGroupIndex[Item any]() groupIndex[Item] {
	return groupIndex[Item]{
		comparable: make(map[any]*AxisNode[Item]),
		hashed:     make(map[uint64][]*AxisNode[Item]),
	}
}

func (index groupIndex[Item]) get(value any) (node *AxisNode[Item], found bool) {
	if isComparable(value) {
		if node, found, ok := index.getComparable(value); ok {
			return node, found
		}
	}

	for _, candidate := range index.hashed[hashValue(value)] {
		if reflect.DeepEqual(candidate.Value, value) {
			return candidate, true
		}
	}
	return nil, false
}

func (index groupIndex[Item]) put(value any, node *AxisNode[Item]) {
	if isComparable(value) && index.putComparable(value, node) {
		return
	}

	hash := hashValue(value)
	index.hashed[hash] = append(index.hashed[hash], node)
}

func (index groupIndex[Item]) getComparable(
	value any,
) (node *AxisNode[Item], found bool, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	node, found = index.comparable[indexKey(value)]
	return node, found, true
}

func (index groupIndex[Item]) putComparable(value any, node *AxisNode[Item]) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	index.comparable[indexKey(value)] = node
	return true
}

func hashValue(value any) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%T:%#v", value, value))
}
