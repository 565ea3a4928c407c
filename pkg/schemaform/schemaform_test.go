package schemaform_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/schemaform"
	"github.com/goliatone/go-formsync/pkg/values"
)

const siteSpec = `openapi: 3.0.3
info:
  title: Site
  version: "1.0"
paths: {}
components:
  schemas:
    Site:
      type: object
      properties:
        name:
          type: string
          default: lab
        kind:
          type: string
          enum: [edge, core]
          default: core
        enabled:
          type: boolean
        network:
          type: object
          title: Network
          properties:
            cidr:
              type: string
        racks:
          type: array
          items:
            $ref: '#/components/schemas/Rack'
        tags:
          type: array
          items:
            type: string
    Rack:
      type: object
      properties:
        id:
          type: string
        units:
          type: integer
          default: 42
`

func describe(g *element.Group) []string {
	var out []string
	g.Walk(func(n element.Node) bool {
		out = append(out, n.Kind().String()+":"+n.Name())
		return true
	})
	return out
}

func TestScaffoldBuildsSortedTree(t *testing.T) {
	form, err := schemaform.Scaffold(context.Background(), []byte(siteSpec), "Site")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	want := []string{
		"group:Site",
		"choice:enabled",
		"choice:kind",
		"leaf:name",
		"group:network",
		"leaf:cidr",
		"group:racks",
		"leaf:id",
		"leaf:units",
	}
	if diff := cmp.Diff(want, describe(form.Root)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Site.tags"}, form.Skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestScaffoldDefaultsFlatten(t *testing.T) {
	form, err := schemaform.Scaffold(context.Background(), []byte(siteSpec), "Site")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	tree, _, err := formtree.New().Flatten(form.Root)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	want := values.Tree{
		"Site": map[string]any{
			"enabled": "false",
			"kind":    "core",
			"name":    "lab",
			"network": map[string]any{"cidr": ""},
			"racks":   []any{map[string]any{"id": "", "units": "42"}},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestScaffoldMarkup(t *testing.T) {
	form, err := schemaform.Scaffold(context.Background(), []byte(siteSpec), "Site",
		schemaform.WithFormID("site-form"),
		schemaform.WithCollapsed(true),
	)
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	var out strings.Builder
	if err := element.RenderNode(&out, form.Node); err != nil {
		t.Fatalf("render: %v", err)
	}
	markup := out.String()
	for _, fragment := range []string{
		`<form id="site-form">`,
		`<div name="network" class="group collapsed">`,
		`<div name="racks" class="arr">`,
		`<div class="add-button" onclick="duplicate(this)">Add racks</div>`,
		`<input type="number" name="units" value="42"/>`,
		`Network</h3>`,
	} {
		if !strings.Contains(markup, fragment) {
			t.Errorf("expected %q in markup:\n%s", fragment, markup)
		}
	}
}

func TestSchemaErrors(t *testing.T) {
	doc, err := schemaform.Parse(context.Background(), []byte(siteSpec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"Rack", "Site"}, schemaform.SchemaNames(doc)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := schemaform.Schema(doc, "Missing"); !errors.Is(err, schemaform.ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	scalar := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}
	if _, err := schemaform.Build(scalar, "x"); !errors.Is(err, schemaform.ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	if _, err := schemaform.Parse(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
