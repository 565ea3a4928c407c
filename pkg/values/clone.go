package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Clone returns a deep copy of tree.
func Clone(tree Tree) Tree {
	if tree == nil {
		return nil
	}
	return deepCopy(tree).(map[string]any)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

// Pair is one scalar of a tree addressed by its full dotted path.
type Pair struct {
	Path  string
	Value any
}

// Pairs lists every scalar of tree sorted by path. Sequence members use index
// notation ("items[0].name").
func Pairs(tree Tree) []Pair {
	var out []Pair
	collectPairs("", tree, &out)
	sort.SliceStable(out, func(i, j int) bool {
		return pathLess(out[i].Path, out[j].Path)
	})
	return out
}

// pathLess orders paths segment by segment, comparing numeric segments as
// numbers so "x[2]" sorts before "x[10]".
func pathLess(a, b string) bool {
	as, bs := ParsePath(a), ParsePath(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		if aErr == nil && bErr == nil {
			return an < bn
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}

func collectPairs(prefix string, value any, out *[]Pair) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			collectPairs(JoinPath(prefix, key), val, out)
		}
	case []any:
		if len(v) == 0 && prefix != "" {
			*out = append(*out, Pair{Path: prefix, Value: []any{}})
			return
		}
		for idx, val := range v {
			collectPairs(fmt.Sprintf("%s[%d]", prefix, idx), val, out)
		}
	default:
		if prefix != "" {
			*out = append(*out, Pair{Path: prefix, Value: v})
		}
	}
}

func writePairs(b *strings.Builder, tree Tree) {
	for _, pair := range Pairs(tree) {
		if seq, ok := pair.Value.([]any); ok && len(seq) == 0 {
			fmt.Fprintf(b, "%s=[]\n", pair.Path)
			continue
		}
		fmt.Fprintf(b, "%s=%v\n", pair.Path, pair.Value)
	}
}
