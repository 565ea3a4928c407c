package element

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
)

// Document owns a parsed HTML document. Typed views built from it share its
// nodes, so mutations through a Group are visible when the document renders.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("element: parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	if d == nil || d.root == nil {
		return &Document{}
	}
	return &Document{root: cloneHTML(d.root)}
}

// Select returns the elements matching selector in document order. Supported
// selectors are "#id", ".class", "tag" and "tag.class".
func (d *Document) Select(selector string) []*html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	match, err := compileSelector(selector)
	if err != nil {
		return nil
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// Section builds the typed view of the first element matching selector.
func (d *Document) Section(selector string) (*Group, error) {
	nodes := d.Select(selector)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("element: no element matches %q", selector)
	}
	return Build(nodes[0])
}

// Sections builds typed views for every element matching selector.
func (d *Document) Sections(selector string) ([]*Group, error) {
	nodes := d.Select(selector)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("element: no element matches %q", selector)
	}
	out := make([]*Group, 0, len(nodes))
	for _, n := range nodes {
		g, err := Build(n)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func compileSelector(selector string) (func(*html.Node) bool, error) {
	sel := strings.TrimSpace(selector)
	if sel == "" {
		return nil, fmt.Errorf("element: empty selector")
	}
	if strings.HasPrefix(sel, "#") {
		id := sel[1:]
		return func(n *html.Node) bool {
			v, _ := getAttr(n, "id")
			return v == id
		}, nil
	}
	tag, class, _ := strings.Cut(sel, ".")
	return func(n *html.Node) bool {
		if tag != "" && !strings.EqualFold(n.Data, tag) {
			return false
		}
		if class != "" && !HasClass(n, class) {
			return false
		}
		return true
	}, nil
}

// RenderOption tunes document serialization.
type RenderOption func(*renderConfig)

type renderConfig struct {
	minify bool
}

// WithMinify strips insignificant whitespace from the output.
func WithMinify(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.minify = enabled
	}
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer, options ...RenderOption) error {
	if d == nil || d.root == nil {
		return fmt.Errorf("element: document is empty")
	}
	return RenderNode(w, d.root, options...)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// RenderNode writes a single subtree, for fragments such as a scaffolded form
// or a section embedded in a page.
func RenderNode(w io.Writer, n *html.Node, options ...RenderOption) error {
	cfg := renderConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !cfg.minify {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("element: render html: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return fmt.Errorf("element: render html: %w", err)
	}
	if err := getMinifier().Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("element: minify html: %w", err)
	}
	return nil
}

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", mhtml.Minify)
	})
	return minifier
}
