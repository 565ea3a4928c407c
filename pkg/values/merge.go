package values

import (
	"fmt"
	"sort"
)

// MergePolicy decides what happens when two trees disagree on a key that is
// not a mapping on both sides.
type MergePolicy int

const (
	// LastWriteWins keeps the value from the tree merged last and records the
	// collision as a Conflict.
	LastWriteWins MergePolicy = iota
	// Strict aborts the merge with a *ConflictError.
	Strict
)

// String returns the configuration name of the policy.
func (p MergePolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "last-write-wins"
	}
}

// ParseMergePolicy maps configuration names onto policies.
func ParseMergePolicy(name string) (MergePolicy, error) {
	switch name {
	case "", "last-write-wins", "lww":
		return LastWriteWins, nil
	case "strict":
		return Strict, nil
	default:
		return LastWriteWins, fmt.Errorf("values: unknown merge policy %q", name)
	}
}

// Conflict describes a key both trees define with incompatible values.
type Conflict struct {
	Path     string
	Existing any
	Incoming any
}

// ConflictError is returned by Merge under the Strict policy.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("values: conflicting values at %q (%v vs %v)", e.Conflict.Path, describe(e.Conflict.Existing), describe(e.Conflict.Incoming))
}

// Merge deep-merges src into dst and returns dst (allocated when nil).
// Mappings combine key-wise and sequences are concatenated; any other
// collision is a conflict resolved by policy. src is not retained: merged
// values are deep copies.
func Merge(dst, src Tree, policy MergePolicy) (Tree, []Conflict, error) {
	if dst == nil {
		dst = make(Tree, len(src))
	}
	var conflicts []Conflict
	if err := mergeInto(dst, src, "", policy, &conflicts); err != nil {
		return dst, conflicts, err
	}
	return dst, conflicts, nil
}

func mergeInto(dst, src map[string]any, prefix string, policy MergePolicy, conflicts *[]Conflict) error {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		incoming := src[key]
		path := JoinPath(prefix, key)

		existing, ok := dst[key]
		if !ok {
			dst[key] = deepCopy(incoming)
			continue
		}

		existingMap, existingIsMap := existing.(map[string]any)
		incomingMap, incomingIsMap := incoming.(map[string]any)
		if existingIsMap && incomingIsMap {
			if err := mergeInto(existingMap, incomingMap, path, policy, conflicts); err != nil {
				return err
			}
			continue
		}

		existingSeq, existingIsSeq := existing.([]any)
		incomingSeq, incomingIsSeq := incoming.([]any)
		if existingIsSeq && incomingIsSeq {
			merged := make([]any, 0, len(existingSeq)+len(incomingSeq))
			merged = append(merged, existingSeq...)
			for _, item := range incomingSeq {
				merged = append(merged, deepCopy(item))
			}
			dst[key] = merged
			continue
		}

		conflict := Conflict{Path: path, Existing: existing, Incoming: incoming}
		if policy == Strict {
			return &ConflictError{Conflict: conflict}
		}
		*conflicts = append(*conflicts, conflict)
		dst[key] = deepCopy(incoming)
	}
	return nil
}

// Expand turns a dotted name and a value into a single-path nested mapping:
// Expand("a.b.c", v) == {a: {b: {c: v}}}.
func Expand(path string, value any) Tree {
	segments := ParsePath(path)
	if len(segments) == 0 {
		return Tree{}
	}
	var current any = value
	for i := len(segments) - 1; i >= 0; i-- {
		current = Tree{segments[i]: current}
	}
	return current.(Tree)
}

// Append adds item to the sequence stored at path, creating the sequence (and
// any parent mappings) when missing. A non-sequence value at path is a
// conflict handled by policy.
func Append(tree Tree, path string, item any, policy MergePolicy) ([]Conflict, error) {
	segments := ParsePath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("values: empty path")
	}

	var conflicts []Conflict
	parent := map[string]any(tree)
	for i, segment := range segments[:len(segments)-1] {
		next, ok := parent[segment]
		if !ok {
			child := make(map[string]any)
			parent[segment] = child
			parent = child
			continue
		}
		child, isMap := next.(map[string]any)
		if !isMap {
			conflict := Conflict{Path: joinSegments(segments[:i+1]), Existing: next, Incoming: Tree{}}
			if policy == Strict {
				return nil, &ConflictError{Conflict: conflict}
			}
			conflicts = append(conflicts, conflict)
			child = make(map[string]any)
			parent[segment] = child
		}
		parent = child
	}
	return appendLeaf(parent, segments, item, policy, conflicts)
}

func appendLeaf(parent map[string]any, segments []string, item any, policy MergePolicy, conflicts []Conflict) ([]Conflict, error) {
	key := segments[len(segments)-1]
	existing, ok := parent[key]
	if !ok {
		parent[key] = []any{item}
		return conflicts, nil
	}
	seq, isSeq := existing.([]any)
	if !isSeq {
		conflict := Conflict{Path: joinSegments(segments), Existing: existing, Incoming: []any{item}}
		if policy == Strict {
			return conflicts, &ConflictError{Conflict: conflict}
		}
		parent[key] = []any{item}
		return append(conflicts, conflict), nil
	}
	parent[key] = append(seq, item)
	return conflicts, nil
}

func joinSegments(segments []string) string {
	out := ""
	for _, segment := range segments {
		out = JoinPath(out, segment)
	}
	return out
}

func describe(value any) string {
	switch value.(type) {
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%q", fmt.Sprint(value))
	}
}
