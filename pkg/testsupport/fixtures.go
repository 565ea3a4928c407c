// Package testsupport holds form fixtures and golden helpers shared by the
// package tests.
package testsupport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

// SiteForm is a complete page with one ".resmodData" section: a named site
// group holding a text field, a select and two rack sections, the second of
// which carries a delete affordance.
const SiteForm = `<!DOCTYPE html>
<html><head><title>site</title></head><body>
<form id="pdfform">
<div class="resmodData">
  <div name="site" class="group">
    <label>Name <input type="text" name="name" value="lab-1"></label>
    <select name="kind">
      <option value="edge">edge</option>
      <option value="core" selected>core</option>
    </select>
    <div name="racks" class="arr">
      <input type="text" name="id" value="r1">
      <input type="text" name="units" value="42">
    </div>
    <div name="racks" class="arr">
      <input type="text" name="id" value="r2">
      <input type="text" name="units" value="24">
      <div class="del-button" onclick="remove(this)"></div>
    </div>
    <div class="add-button" onclick="duplicate(this)">Add rack</div>
  </div>
  <textarea name="notes">first floor</textarea>
</div>
</form>
</body></html>`

// SiteValues is the tree SiteForm flattens to.
func SiteValues() values.Tree {
	return values.Tree{
		"site": map[string]any{
			"name": "lab-1",
			"kind": "core",
			"racks": []any{
				map[string]any{"id": "r1", "units": "42"},
				map[string]any{"id": "r2", "units": "24"},
			},
		},
		"notes": "first floor",
	}
}

// MustParse parses markup or fails the test.
func MustParse(t *testing.T, markup string) *element.Document {
	t.Helper()
	doc, err := element.ParseString(markup)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// MustSection returns the typed view of the first element matching selector.
func MustSection(t *testing.T, doc *element.Document, selector string) *element.Group {
	t.Helper()
	root, err := doc.Section(selector)
	if err != nil {
		t.Fatalf("section %s: %v", selector, err)
	}
	return root
}

// MustDecode decodes a value document or fails the test.
func MustDecode(t *testing.T, data string, format values.Format) values.Tree {
	t.Helper()
	tree, err := values.Decode([]byte(data), format)
	if err != nil {
		t.Fatalf("decode %s: %v", format, err)
	}
	return tree
}

// WriteFile writes content below dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// LoadTree reads a value file, picking the codec from its extension.
func LoadTree(path string) (values.Tree, error) {
	if path == "" {
		return nil, errors.New("testsupport: tree path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read tree: %w", err)
	}
	tree, err := values.Decode(data, values.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("testsupport: decode tree: %w", err)
	}
	return tree, nil
}

// DiffTrees compares two trees after a JSON round trip so that numeric and
// container types line up.
func DiffTrees(t *testing.T, want, got values.Tree) string {
	t.Helper()
	return cmp.Diff(normalize(t, want), normalize(t, got))
}

func normalize(t *testing.T, tree values.Tree) values.Tree {
	t.Helper()
	data, err := values.Encode(tree, values.FormatJSON)
	if err != nil {
		t.Fatalf("encode tree: %v", err)
	}
	out, err := values.Decode(data, values.FormatJSON)
	if err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	return out
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
