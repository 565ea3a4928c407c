package element

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind identifies which of the three node variants a Node is. The kind is
// fixed when the typed view is built and never re-inspected from the DOM.
type Kind int

const (
	KindLeaf Kind = iota + 1
	KindChoice
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindChoice:
		return "choice"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Class names shared with the browser scripts that operate on the same
// markup.
const (
	// RepeatableClass marks a named group that may appear several times.
	RepeatableClass = "arr"
	// DeleteClass marks the delete affordance appended to cloned sections.
	DeleteClass = "del-button"
	// AddClass marks the control that duplicates the preceding section.
	AddClass = "add-button"
)

var (
	// ErrInvalidChoice is returned when a choice field is given a value outside
	// its option domain.
	ErrInvalidChoice = errors.New("element: value is not one of the field options")
	// ErrNotChild is returned when an operation references a node that is not a
	// direct typed child of the group.
	ErrNotChild = errors.New("element: node is not a child of the group")
	// ErrAttached is returned when a node that already has a parent is
	// inserted somewhere else.
	ErrAttached = errors.New("element: node is already attached")
)

// Node is a typed view over an element of a live HTML document: a LeafField,
// a ChoiceField, or a Group.
type Node interface {
	Kind() Kind
	Name() string
	HTML() *html.Node
}

// Resettable nodes can be returned to an empty or default state.
type Resettable interface {
	Reset()
}

func getAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, value string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			continue
		}
		out = append(out, attr)
	}
	n.Attr = out
}

func nameOf(n *html.Node) string {
	name, _ := getAttr(n, "name")
	return strings.TrimSpace(name)
}

// Classes returns the class list of an element.
func Classes(n *html.Node) []string {
	raw, _ := getAttr(n, "class")
	return strings.Fields(raw)
}

// HasClass reports whether the element carries class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// ToggleClass adds class when absent and removes it otherwise. It reports
// whether the class is present afterwards.
func ToggleClass(n *html.Node, class string) bool {
	class = strings.TrimSpace(class)
	if n == nil || class == "" {
		return false
	}
	current := Classes(n)
	out := make([]string, 0, len(current)+1)
	found := false
	for _, c := range current {
		if c == class {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, class)
	}
	if len(out) == 0 {
		removeAttr(n, "class")
	} else {
		setAttr(n, "class", strings.Join(out, " "))
	}
	return !found
}

func newElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func setTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func lastElementChild(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// cloneHTML deep-copies an element subtree. The copy is detached.
func cloneHTML(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		clone.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneHTML(c))
	}
	return clone
}
