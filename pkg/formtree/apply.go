package formtree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

// Apply writes tree into the form below root. Every named field resolves its
// dotted path; repeatable groups are synced to the length of their sequence
// before their sections are filled. Problems never abort the walk: each one
// is recorded as a warning, passed to the notifier, and the affected field
// falls back to a default.
func (e *Engine) Apply(root *element.Group, tree values.Tree) *Report {
	rec := e.newRecorder()
	if root == nil {
		return rec.report
	}

	scope := map[string]any(tree)
	name := root.Name()
	if name != "" {
		scope = e.resolveGroup(tree, name, name, rec)
		if scope == nil {
			clearLeaves(root)
			return rec.report
		}
	}
	e.applyGroup(root, scope, name, rec)
	e.logger.Debug().Str("root", name).Int("warnings", len(rec.report.Warnings)).Msg("applied values")
	return rec.report
}

// applyGroup fills the children of g from tree. A nil tree means the
// enclosing key was missing and has already been reported; fields below are
// reset silently.
func (e *Engine) applyGroup(g *element.Group, tree map[string]any, prefix string, rec *recorder) {
	handled := make(map[string]bool)

	for _, child := range g.Children() {
		switch node := child.(type) {
		case *element.LeafField:
			e.applyLeaf(node, tree, prefix, rec)
		case *element.ChoiceField:
			e.applyChoice(node, tree, prefix, rec)
		case *element.Group:
			name := node.Name()
			switch {
			case name == "":
				e.applyGroup(node, tree, prefix, rec)
			case node.Repeatable():
				if handled[name] {
					continue
				}
				handled[name] = true
				e.applyRepeatable(g, name, tree, prefix, rec)
			default:
				path := values.JoinPath(prefix, name)
				if tree == nil {
					clearLeaves(node)
					continue
				}
				sub := e.resolveGroup(tree, name, path, rec)
				if sub == nil {
					clearLeaves(node)
					continue
				}
				e.applyGroup(node, sub, path, rec)
			}
		}
	}
}

// resolveGroup looks up the mapping for a named group. It reports a missing
// key or a non-mapping value and returns nil in both cases.
func (e *Engine) resolveGroup(tree map[string]any, name, path string, rec *recorder) map[string]any {
	raw, err := values.Lookup(tree, name)
	if err != nil {
		rec.warn(WarningMissingKey, path, "", "key %q not found", missingKey(err, name))
		return nil
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		rec.warn(WarningTypeMismatch, path, describeValue(raw), "expected a mapping")
		return nil
	}
	return sub
}

func (e *Engine) applyLeaf(f *element.LeafField, tree map[string]any, prefix string, rec *recorder) {
	if tree == nil {
		f.SetValue("")
		return
	}
	path := values.JoinPath(prefix, f.Name())
	raw, err := values.Lookup(tree, f.Name())
	if err != nil {
		rec.warn(WarningMissingKey, path, "", "key %q not found", missingKey(err, f.Name()))
		f.SetValue("")
		return
	}
	s, ok := scalarString(raw)
	if !ok {
		rec.warn(WarningTypeMismatch, path, describeValue(raw), "expected a scalar")
		f.SetValue("")
		return
	}
	f.SetValue(e.clean(s))
}

func (e *Engine) applyChoice(f *element.ChoiceField, tree map[string]any, prefix string, rec *recorder) {
	if tree == nil {
		return
	}
	path := values.JoinPath(prefix, f.Name())
	raw, err := values.Lookup(tree, f.Name())
	if err != nil {
		rec.warn(WarningMissingKey, path, "", "key %q not found; keeping %q", missingKey(err, f.Name()), f.Value())
		return
	}
	s, ok := scalarString(raw)
	if !ok {
		rec.warn(WarningTypeMismatch, path, describeValue(raw), "expected a scalar; keeping %q", f.Value())
		return
	}
	prior := f.Value()
	if err := f.SetValue(e.clean(s)); err != nil {
		rec.warn(WarningInvalidChoice, path, s, "%q is not an option; keeping %q", s, prior)
	}
}

func (e *Engine) applyRepeatable(parent *element.Group, name string, tree map[string]any, prefix string, rec *recorder) {
	path := values.JoinPath(prefix, name)
	var items []any
	if tree != nil {
		raw, err := values.Lookup(tree, name)
		switch {
		case err != nil:
			rec.warn(WarningMissingKey, path, "", "key %q not found; treating as empty", missingKey(err, name))
		default:
			seq, ok := raw.([]any)
			if !ok {
				rec.warn(WarningTypeMismatch, path, describeValue(raw), "expected a sequence; treating as empty")
			}
			items = seq
		}
	}

	sections := e.syncSections(parent, name, len(items), path, rec)
	for i, section := range sections {
		if i >= len(items) {
			section.Reset()
			continue
		}
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		item, ok := items[i].(map[string]any)
		if !ok {
			rec.warn(WarningTypeMismatch, itemPath, describeValue(items[i]), "expected a mapping")
			section.Reset()
			continue
		}
		e.applyGroup(section, item, itemPath, rec)
	}
}

func (e *Engine) clean(s string) string {
	if !e.sanitize {
		return s
	}
	return sanitizeScalar(s)
}

// clearLeaves empties every text field below g. Choices keep their current
// selection.
func clearLeaves(g *element.Group) {
	g.Walk(func(n element.Node) bool {
		if leaf, ok := n.(*element.LeafField); ok {
			leaf.SetValue("")
		}
		return true
	})
}

func missingKey(err error, fallback string) string {
	var keyErr *values.KeyError
	if errors.As(err, &keyErr) && keyErr.Key != "" {
		return keyErr.Key
	}
	return fallback
}

// scalarString formats v for a form control. Numbers are written without
// exponent or trailing zeros so 42.0 reads back as "42". Mappings and
// sequences are not scalars.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case json.Number:
		return t.String(), true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

func describeValue(v any) string {
	switch v.(type) {
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	}
	s, _ := scalarString(v)
	return s
}
