package formtree

import (
	"fmt"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

// Flatten reads every named field below root into a value tree. Dotted names
// expand into nested mappings, repeatable sections collect into sequences in
// document order, and unnamed groups pass their fields through. A named root
// wraps the whole result under its name.
//
// Colliding keys follow the engine's merge policy: under LastWriteWins each
// collision is reported and the later value kept; under Strict the first
// collision is returned as a *values.ConflictError.
func (e *Engine) Flatten(root *element.Group) (values.Tree, *Report, error) {
	rec := e.newRecorder()
	tree, err := e.flattenRoot(root, rec)
	if err != nil {
		return nil, rec.report, err
	}
	return tree, rec.report, nil
}

// FlattenSections flattens several roots (for example every ".resmodData"
// block of a page) and merges them into a single tree.
func (e *Engine) FlattenSections(roots ...*element.Group) (values.Tree, *Report, error) {
	rec := e.newRecorder()
	out := values.Tree{}
	for _, root := range roots {
		tree, err := e.flattenRoot(root, rec)
		if err != nil {
			return nil, rec.report, err
		}
		if err := e.merge(out, tree, "", rec); err != nil {
			return nil, rec.report, err
		}
	}
	return out, rec.report, nil
}

func (e *Engine) flattenRoot(root *element.Group, rec *recorder) (values.Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("formtree: root group is nil")
	}
	name := root.Name()
	tree, err := e.flattenGroup(root, name, rec)
	if err != nil {
		return nil, err
	}
	if name != "" {
		tree = values.Expand(name, tree)
	}
	e.logger.Debug().Str("root", name).Int("keys", len(tree)).Msg("flattened form")
	return tree, nil
}

func (e *Engine) flattenGroup(g *element.Group, prefix string, rec *recorder) (values.Tree, error) {
	acc := values.Tree{}
	seen := make(map[string]int)

	for _, child := range g.Children() {
		switch node := child.(type) {
		case *element.LeafField:
			if err := e.merge(acc, values.Expand(node.Name(), node.Value()), prefix, rec); err != nil {
				return nil, err
			}
		case *element.ChoiceField:
			if err := e.merge(acc, values.Expand(node.Name(), node.Value()), prefix, rec); err != nil {
				return nil, err
			}
		case *element.Group:
			name := node.Name()
			switch {
			case name == "":
				sub, err := e.flattenGroup(node, prefix, rec)
				if err != nil {
					return nil, err
				}
				if err := e.merge(acc, sub, prefix, rec); err != nil {
					return nil, err
				}
			case node.Repeatable():
				idx := seen[name]
				seen[name] = idx + 1
				sub, err := e.flattenGroup(node, fmt.Sprintf("%s[%d]", values.JoinPath(prefix, name), idx), rec)
				if err != nil {
					return nil, err
				}
				conflicts, err := values.Append(acc, name, sub, e.policy)
				if err != nil {
					return nil, prefixConflictError(err, prefix)
				}
				e.reportConflicts(conflicts, prefix, rec)
			default:
				sub, err := e.flattenGroup(node, values.JoinPath(prefix, name), rec)
				if err != nil {
					return nil, err
				}
				if err := e.merge(acc, values.Expand(name, sub), prefix, rec); err != nil {
					return nil, err
				}
			}
		}
	}
	return acc, nil
}

func (e *Engine) merge(dst, src values.Tree, prefix string, rec *recorder) error {
	_, conflicts, err := values.Merge(dst, src, e.policy)
	if err != nil {
		return prefixConflictError(err, prefix)
	}
	e.reportConflicts(conflicts, prefix, rec)
	return nil
}

func (e *Engine) reportConflicts(conflicts []values.Conflict, prefix string, rec *recorder) {
	for _, conflict := range conflicts {
		value, _ := scalarString(conflict.Incoming)
		rec.warn(WarningMergeConflict, values.JoinPath(prefix, conflict.Path), value,
			"duplicate key; keeping the value read last")
	}
}

func prefixConflictError(err error, prefix string) error {
	if conflictErr, ok := err.(*values.ConflictError); ok && prefix != "" {
		conflictErr.Conflict.Path = values.JoinPath(prefix, conflictErr.Conflict.Path)
		return fmt.Errorf("formtree: flatten: %w", conflictErr)
	}
	return fmt.Errorf("formtree: flatten: %w", err)
}
