package values

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tree is the nested value structure produced by Flatten and consumed by
// Apply. Scalars are strings, mappings are Tree (or map[string]any) and
// repeatable groups are []any holding one mapping per section.
type Tree = map[string]any

// ErrKeyNotFound signals that a dotted path does not resolve in a tree.
var ErrKeyNotFound = errors.New("values: key not found")

// KeyError reports the first segment of a path that could not be resolved.
type KeyError struct {
	Path string
	Key  string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("values: key %q not found (path %q)", e.Key, e.Path)
}

// Unwrap allows errors.Is(err, ErrKeyNotFound).
func (e *KeyError) Unwrap() error {
	return ErrKeyNotFound
}

// ParsePath splits a dotted path into its segments. Index notation is treated
// as a plain segment, so "a[0].b" and "a.0.b" are equivalent, and a leading
// dot is ignored.
func ParsePath(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)
	clean = strings.TrimPrefix(clean, ".")
	if clean == "" {
		return nil
	}

	parts := strings.Split(clean, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return out
}

// JoinPath appends child to a dotted parent path.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// Lookup resolves path against tree. Sequences are indexed by numeric
// segments. A missing key is reported as a *KeyError.
func Lookup(tree Tree, path string) (any, error) {
	segments := ParsePath(path)
	if len(segments) == 0 {
		return tree, nil
	}
	return lookupSegments(tree, segments, path)
}

func lookupSegments(tree Tree, segments []string, path string) (any, error) {
	var current any = tree
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, &KeyError{Path: path, Key: segment}
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, &KeyError{Path: path, Key: segment}
			}
			current = node[idx]
		default:
			return nil, &KeyError{Path: path, Key: segment}
		}
	}
	return current, nil
}

// Set writes value at path, creating intermediate mappings and sequences as
// needed. Numeric segments address sequence slots.
func Set(tree Tree, path string, value any) error {
	if tree == nil {
		return errors.New("values: tree is nil")
	}
	segments := ParsePath(path)
	if len(segments) == 0 {
		return fmt.Errorf("values: empty path")
	}
	updated, err := setSegments(tree, segments, value)
	if err != nil {
		return fmt.Errorf("values: set %q: %w", path, err)
	}
	if _, ok := updated.(map[string]any); !ok {
		return fmt.Errorf("values: set %q: root replaced by %T", path, updated)
	}
	return nil
}

// setSegments returns the (possibly reallocated) container so callers can
// re-link grown sequences into their parent.
func setSegments(current any, segments []string, value any) (any, error) {
	segment := segments[0]
	rest := segments[1:]

	switch node := current.(type) {
	case map[string]any:
		if len(rest) == 0 {
			node[segment] = value
			return node, nil
		}
		child, err := setSegments(containerFor(node[segment], rest[0]), rest, value)
		if err != nil {
			return nil, err
		}
		node[segment] = child
		return node, nil
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("expected numeric segment, got %q", segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("negative index %d", idx)
		}
		if len(node) <= idx {
			node = append(node, make([]any, idx+1-len(node))...)
		}
		if len(rest) == 0 {
			node[idx] = value
			return node, nil
		}
		child, err := setSegments(containerFor(node[idx], rest[0]), rest, value)
		if err != nil {
			return nil, err
		}
		node[idx] = child
		return node, nil
	default:
		return nil, fmt.Errorf("unexpected container %T for segment %q", current, segment)
	}
}

func containerFor(existing any, nextSegment string) any {
	if _, err := strconv.Atoi(nextSegment); err == nil {
		if seq, ok := existing.([]any); ok {
			return seq
		}
		return []any{}
	}
	if m, ok := existing.(map[string]any); ok && m != nil {
		return m
	}
	return make(map[string]any)
}
