package element

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// textInputTypes lists the input types read as plain text values. Checkboxes,
// radios, files and buttons carry no single scalar and are ignored.
var textInputTypes = map[string]struct{}{
	"":       {},
	"text":   {},
	"email":  {},
	"number": {},
	"search": {},
	"tel":    {},
	"url":    {},
	"date":   {},
}

// LeafField is a named control holding a single free-form scalar: a text-like
// <input> or a <textarea>.
type LeafField struct {
	node *html.Node
}

// NewLeaf builds a detached <input type="text"> carrying name and value.
func NewLeaf(name, value string) *LeafField {
	n := newElement("input",
		html.Attribute{Key: "type", Val: "text"},
		html.Attribute{Key: "name", Val: name},
		html.Attribute{Key: "value", Val: value},
	)
	return &LeafField{node: n}
}

func (f *LeafField) Kind() Kind       { return KindLeaf }
func (f *LeafField) Name() string     { return nameOf(f.node) }
func (f *LeafField) HTML() *html.Node { return f.node }

// Value returns the value currently held by the control.
func (f *LeafField) Value() string {
	if f.node.DataAtom == atom.Textarea {
		return textContent(f.node)
	}
	value, _ := getAttr(f.node, "value")
	return value
}

// SetValue replaces the value held by the control.
func (f *LeafField) SetValue(value string) {
	if f.node.DataAtom == atom.Textarea {
		setTextContent(f.node, value)
		return
	}
	setAttr(f.node, "value", value)
}

// Reset empties the control.
func (f *LeafField) Reset() {
	f.SetValue("")
}

// ChoiceField is a named <select> whose value is restricted to its options.
type ChoiceField struct {
	node         *html.Node
	defaultValue string
}

// NewChoice builds a detached <select> with one <option> per entry. selected
// picks the initial option; when empty or unknown the first option applies.
func NewChoice(name string, options []string, selected string) *ChoiceField {
	n := newElement("select", html.Attribute{Key: "name", Val: name})
	for _, option := range options {
		opt := newElement("option", html.Attribute{Key: "value", Val: option})
		if option == selected {
			opt.Attr = append(opt.Attr, html.Attribute{Key: "selected", Val: ""})
		}
		opt.AppendChild(&html.Node{Type: html.TextNode, Data: option})
		n.AppendChild(opt)
	}
	field := &ChoiceField{node: n}
	field.defaultValue = field.Value()
	return field
}

func newChoiceField(n *html.Node) *ChoiceField {
	field := &ChoiceField{node: n}
	field.defaultValue = field.Value()
	return field
}

func (f *ChoiceField) Kind() Kind       { return KindChoice }
func (f *ChoiceField) Name() string     { return nameOf(f.node) }
func (f *ChoiceField) HTML() *html.Node { return f.node }

// Options lists the option values in document order.
func (f *ChoiceField) Options() []string {
	opts := f.optionNodes()
	out := make([]string, 0, len(opts))
	for _, opt := range opts {
		out = append(out, optionValue(opt))
	}
	return out
}

// Value returns the selected option value. Without an explicit selection the
// first option is current, matching browser behaviour.
func (f *ChoiceField) Value() string {
	opts := f.optionNodes()
	if len(opts) == 0 {
		return ""
	}
	for _, opt := range opts {
		if _, ok := getAttr(opt, "selected"); ok {
			return optionValue(opt)
		}
	}
	return optionValue(opts[0])
}

// Default returns the value selected when the typed view was built.
func (f *ChoiceField) Default() string {
	return f.defaultValue
}

// SetValue selects the option matching value. Values outside the option
// domain leave the field untouched and return ErrInvalidChoice.
func (f *ChoiceField) SetValue(value string) error {
	opts := f.optionNodes()
	var match *html.Node
	for _, opt := range opts {
		if optionValue(opt) == value {
			match = opt
			break
		}
	}
	if match == nil {
		return fmt.Errorf("%w: %q (field %q)", ErrInvalidChoice, value, f.Name())
	}
	for _, opt := range opts {
		removeAttr(opt, "selected")
	}
	setAttr(match, "selected", "")
	return nil
}

// Reset restores the default selection.
func (f *ChoiceField) Reset() {
	_ = f.SetValue(f.defaultValue)
}

func (f *ChoiceField) optionNodes() []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Option:
				out = append(out, c)
			case atom.Optgroup:
				walk(c)
			}
		}
	}
	walk(f.node)
	return out
}

func optionValue(opt *html.Node) string {
	if value, ok := getAttr(opt, "value"); ok {
		return value
	}
	return strings.Join(strings.Fields(textContent(opt)), " ")
}

func isLeafElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Textarea:
		return true
	case atom.Input:
		inputType, _ := getAttr(n, "type")
		_, ok := textInputTypes[strings.ToLower(strings.TrimSpace(inputType))]
		return ok
	default:
		return false
	}
}

func isFormControl(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea, atom.Button:
		return true
	default:
		return false
	}
}
