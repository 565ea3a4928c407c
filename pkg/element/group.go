package element

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Group is a container of fields and nested groups. Named groups introduce a
// level in the value tree; repeatable groups become sequences; unnamed groups
// pass their children through to the enclosing level.
type Group struct {
	node     *html.Node
	children []Node
}

// NewGroup builds a detached <div> named name holding children. An empty name
// yields a pass-through group. Children must be detached.
func NewGroup(name string, children ...Node) *Group {
	var attrs []html.Attribute
	if name != "" {
		attrs = append(attrs, html.Attribute{Key: "name", Val: name})
	}
	g := &Group{node: newElement("div", attrs...)}
	for _, child := range children {
		g.node.AppendChild(child.HTML())
		g.children = append(g.children, child)
	}
	return g
}

// NewRepeatable builds a detached repeatable section named name.
func NewRepeatable(name string, children ...Node) *Group {
	g := NewGroup(name, children...)
	setAttr(g.node, "class", RepeatableClass)
	return g
}

// Build returns the typed view of the subtree rooted at n. The root may be
// any element (a <form>, a <div>, a <body>); descendants are classified once
// here.
func Build(n *html.Node) (*Group, error) {
	if n == nil || n.Type != html.ElementNode {
		return nil, fmt.Errorf("element: build requires an element node")
	}
	return buildGroup(n), nil
}

func buildGroup(n *html.Node) *Group {
	return &Group{node: n, children: collectChildren(n)}
}

func collectChildren(n *html.Node) []Node {
	var out []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case HasClass(c, DeleteClass) || HasClass(c, AddClass):
			continue
		case isGroupElement(c):
			out = append(out, buildGroup(c))
		case c.DataAtom == atom.Select:
			if nameOf(c) != "" {
				out = append(out, newChoiceField(c))
			}
		case isLeafElement(c):
			if nameOf(c) != "" {
				out = append(out, &LeafField{node: c})
			}
		case isFormControl(c):
			continue
		default:
			// Layout elements (label, span, p, ...) are transparent.
			out = append(out, collectChildren(c)...)
		}
	}
	return out
}

func isGroupElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.Fieldset:
		return true
	default:
		return false
	}
}

func (g *Group) Kind() Kind       { return KindGroup }
func (g *Group) Name() string     { return nameOf(g.node) }
func (g *Group) HTML() *html.Node { return g.node }

// Repeatable reports whether the group is a repeatable section.
func (g *Group) Repeatable() bool {
	return HasClass(g.node, RepeatableClass)
}

// Removable reports whether the section carries a delete affordance as its
// last element child. Template sections do not.
func (g *Group) Removable() bool {
	last := lastElementChild(g.node)
	return last != nil && HasClass(last, DeleteClass)
}

// EnsureRemovable appends the delete affordance when missing.
func (g *Group) EnsureRemovable() {
	if g.Removable() {
		return
	}
	g.node.AppendChild(newDeleteButton())
}

func newDeleteButton() *html.Node {
	return newElement("div",
		html.Attribute{Key: "class", Val: DeleteClass},
		html.Attribute{Key: "onclick", Val: "remove(this)"},
	)
}

// HasClass reports whether the group element carries class.
func (g *Group) HasClass(class string) bool {
	return HasClass(g.node, class)
}

// ToggleClass toggles a presentation class on the group element.
func (g *Group) ToggleClass(class string) bool {
	return ToggleClass(g.node, class)
}

// Children returns the typed children in document order.
func (g *Group) Children() []Node {
	return append([]Node(nil), g.children...)
}

// Len returns the number of typed children.
func (g *Group) Len() int {
	return len(g.children)
}

// IndexOf returns the position of child among the typed children, or -1.
func (g *Group) IndexOf(child Node) int {
	for i, c := range g.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Sections returns the repeatable child groups named name, in document order.
// The first one is the template.
func (g *Group) Sections(name string) []*Group {
	var out []*Group
	for _, child := range g.children {
		section, ok := child.(*Group)
		if !ok || !section.Repeatable() || section.Name() != name {
			continue
		}
		out = append(out, section)
	}
	return out
}

// Append adds a detached node as the last typed child.
func (g *Group) Append(child Node) error {
	n := child.HTML()
	if n.Parent != nil {
		return ErrAttached
	}
	g.node.AppendChild(n)
	g.children = append(g.children, child)
	return nil
}

// InsertAfter places a detached node right after ref, in the DOM and among
// the typed children. ref may sit inside a transparent layout element; the new
// node becomes its DOM sibling.
func (g *Group) InsertAfter(ref, child Node) error {
	idx := g.IndexOf(ref)
	if idx < 0 {
		return ErrNotChild
	}
	n := child.HTML()
	if n.Parent != nil {
		return ErrAttached
	}
	refNode := ref.HTML()
	refNode.Parent.InsertBefore(n, refNode.NextSibling)

	g.children = append(g.children, nil)
	copy(g.children[idx+2:], g.children[idx+1:])
	g.children[idx+1] = child
	return nil
}

// RemoveChild detaches child from the DOM and from the typed children.
func (g *Group) RemoveChild(child Node) error {
	idx := g.IndexOf(child)
	if idx < 0 {
		return ErrNotChild
	}
	n := child.HTML()
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	g.children = append(g.children[:idx], g.children[idx+1:]...)
	return nil
}

// Clone deep-copies the group's DOM subtree and returns a detached typed view
// of the copy. Choice defaults are taken from the copy's current selection.
func (g *Group) Clone() *Group {
	return buildGroup(cloneHTML(g.node))
}

// Reset empties every leaf below the group and restores choice defaults.
func (g *Group) Reset() {
	for _, child := range g.children {
		if r, ok := child.(Resettable); ok {
			r.Reset()
		}
	}
}

// Walk visits every node below the group depth-first, in document order.
// Returning false from fn skips the node's descendants.
func (g *Group) Walk(fn func(Node) bool) {
	for _, child := range g.children {
		if !fn(child) {
			continue
		}
		if nested, ok := child.(*Group); ok {
			nested.Walk(fn)
		}
	}
}
