// Package schemaform scaffolds an HTML form from an OpenAPI component schema.
// The generated markup follows the conventions the element package reads:
// objects become named groups, arrays of objects become repeatable sections
// followed by an add button, enums become selects and other scalars become
// text inputs.
package schemaform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-formsync/pkg/element"
)

// CollapsedClass hides the body of a group until its header is clicked.
const CollapsedClass = "collapsed"

const maxDepth = 32

var (
	// ErrSchemaNotFound is returned when the component name is unknown.
	ErrSchemaNotFound = errors.New("schemaform: schema not found")
	// ErrNotObject is returned when the component is not an object schema.
	ErrNotObject = errors.New("schemaform: schema is not an object")
)

// Form is a scaffolded form: the detached <form> element and its typed view.
type Form struct {
	Node *html.Node
	Root *element.Group
	// Skipped lists property paths that have no form representation (arrays
	// of scalars, nesting beyond the depth limit).
	Skipped []string
}

type builder struct {
	formID    string
	collapsed bool
	skipped   []string
}

// Option configures scaffolding.
type Option func(*builder)

// WithFormID sets the id of the generated <form>. Defaults to "pdfform".
func WithFormID(id string) Option {
	return func(b *builder) {
		if id != "" {
			b.formID = id
		}
	}
}

// WithCollapsed starts nested groups collapsed.
func WithCollapsed(enabled bool) Option {
	return func(b *builder) {
		b.collapsed = enabled
	}
}

// Parse loads an OpenAPI 3 document. Internal references are resolved.
func Parse(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, errors.New("schemaform: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schemaform: load document: %w", err)
	}
	return doc, nil
}

// Schema returns the component schema called name.
func Schema(doc *openapi3.T, name string) (*openapi3.Schema, error) {
	if doc == nil || doc.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return ref.Value, nil
}

// SchemaNames lists the component schemas of doc, sorted.
func SchemaNames(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scaffold parses raw and builds the form for component schema name.
func Scaffold(ctx context.Context, raw []byte, name string, options ...Option) (*Form, error) {
	doc, err := Parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	schema, err := Schema(doc, name)
	if err != nil {
		return nil, err
	}
	return Build(schema, name, options...)
}

// Build generates a form whose single top-level group is named name and
// holds one control per property of schema.
func Build(schema *openapi3.Schema, name string, options ...Option) (*Form, error) {
	if !isObject(schema) {
		return nil, fmt.Errorf("%w: %q", ErrNotObject, name)
	}
	b := &builder{formID: "pdfform"}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}

	form := newNode("form", attr("id", b.formID))
	section := newNode("div", attr("name", name), attr("class", "resmodData"))
	b.properties(section, schema, name, 0)
	form.AppendChild(section)

	root, err := element.Build(form)
	if err != nil {
		return nil, fmt.Errorf("schemaform: build view: %w", err)
	}
	return &Form{Node: form, Root: root, Skipped: b.skipped}, nil
}

func (b *builder) properties(parent *html.Node, schema *openapi3.Schema, path string, depth int) {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		b.property(parent, name, ref.Value, path+"."+name, depth)
	}
}

func (b *builder) property(parent *html.Node, name string, schema *openapi3.Schema, path string, depth int) {
	if depth >= maxDepth {
		b.skipped = append(b.skipped, path)
		return
	}

	switch {
	case isObject(schema):
		group := b.group(name, schema, false)
		b.properties(group, schema, path, depth+1)
		parent.AppendChild(group)
	case hasType(schema, openapi3.TypeArray):
		if schema.Items == nil || schema.Items.Value == nil || !isObject(schema.Items.Value) {
			b.skipped = append(b.skipped, path)
			return
		}
		section := b.group(name, schema, true)
		b.properties(section, schema.Items.Value, path+"[]", depth+1)
		parent.AppendChild(section)
		add := newNode("div", attr("class", element.AddClass), attr("onclick", "duplicate(this)"))
		add.AppendChild(text("Add " + title(name, schema)))
		parent.AppendChild(add)
	case len(schema.Enum) > 0:
		parent.AppendChild(labelled(name, schema, choice(name, schema)))
	case hasType(schema, openapi3.TypeBoolean):
		parent.AppendChild(labelled(name, schema, booleanChoice(name, schema)))
	default:
		parent.AppendChild(labelled(name, schema, input(name, schema)))
	}
}

func (b *builder) group(name string, schema *openapi3.Schema, repeatable bool) *html.Node {
	class := "group"
	if repeatable {
		class = element.RepeatableClass
	}
	group := newNode("div", attr("name", name), attr("class", class))
	header := newNode("h3", attr("class", "group-title"), attr("onclick", "toggleClass(this.parentNode, 'collapsed')"))
	header.AppendChild(text(title(name, schema)))
	group.AppendChild(header)
	if b.collapsed && !repeatable {
		element.ToggleClass(group, CollapsedClass)
	}
	return group
}

func labelled(name string, schema *openapi3.Schema, control *html.Node) *html.Node {
	label := newNode("label")
	if schema.Description != "" {
		label.Attr = append(label.Attr, attr("title", schema.Description))
	}
	label.AppendChild(text(title(name, schema) + " "))
	label.AppendChild(control)
	return label
}

func input(name string, schema *openapi3.Schema) *html.Node {
	inputType := "text"
	switch {
	case hasType(schema, openapi3.TypeInteger), hasType(schema, openapi3.TypeNumber):
		inputType = "number"
	case schema.Format == "email":
		inputType = "email"
	case schema.Format == "date":
		inputType = "date"
	case schema.Format == "uri" || schema.Format == "url":
		inputType = "url"
	}
	if schema.Format == "textarea" || schema.MaxLength != nil && *schema.MaxLength > 255 {
		area := newNode("textarea", attr("name", name))
		if v := defaultString(schema); v != "" {
			area.AppendChild(text(v))
		}
		return area
	}
	return newNode("input", attr("type", inputType), attr("name", name), attr("value", defaultString(schema)))
}

func choice(name string, schema *openapi3.Schema) *html.Node {
	options := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		options = append(options, fmt.Sprint(v))
	}
	return selectNode(name, options, defaultString(schema))
}

func booleanChoice(name string, schema *openapi3.Schema) *html.Node {
	return selectNode(name, []string{"false", "true"}, defaultString(schema))
}

func selectNode(name string, options []string, selected string) *html.Node {
	sel := newNode("select", attr("name", name))
	for _, option := range options {
		opt := newNode("option", attr("value", option))
		if option == selected {
			opt.Attr = append(opt.Attr, attr("selected", ""))
		}
		opt.AppendChild(text(option))
		sel.AppendChild(opt)
	}
	return sel
}

func isObject(schema *openapi3.Schema) bool {
	if schema == nil {
		return false
	}
	return hasType(schema, openapi3.TypeObject) || (schema.Type == nil && len(schema.Properties) > 0)
}

func hasType(schema *openapi3.Schema, typ string) bool {
	if schema == nil || schema.Type == nil {
		return false
	}
	for _, t := range schema.Type.Slice() {
		if t == typ {
			return true
		}
	}
	return false
}

func title(name string, schema *openapi3.Schema) string {
	if schema.Title != "" {
		return schema.Title
	}
	return name
}

func defaultString(schema *openapi3.Schema) string {
	if schema.Default == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(schema.Default))
}

func newNode(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attrs}
}

func attr(key, value string) html.Attribute {
	return html.Attribute{Key: key, Val: value}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
