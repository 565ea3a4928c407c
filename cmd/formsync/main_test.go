package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formsync/pkg/prompt"
	"github.com/goliatone/go-formsync/pkg/testsupport"
	"github.com/goliatone/go-formsync/pkg/values"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeForm(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return dir, testsupport.WriteFile(t, dir, "form.html", testsupport.SiteForm)
}

func TestFlattenCommand(t *testing.T) {
	_, form := writeForm(t)

	out, err := run(t, "flatten", form)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	got := testsupport.MustDecode(t, out, values.FormatJSON)
	if diff := testsupport.DiffTrees(t, testsupport.SiteValues(), got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	out, err = run(t, "flatten", form, "--format", "text")
	if err != nil {
		t.Fatalf("flatten text: %v", err)
	}
	if !strings.Contains(out, "site.name=lab-1") {
		t.Fatalf("expected dotted listing, got %s", out)
	}

	if _, err := run(t, "flatten", form, "--section", "#missing"); err == nil {
		t.Fatalf("expected error for unmatched section")
	}
	if _, err := run(t, "flatten", form, "--format", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestApplyCommand(t *testing.T) {
	dir, form := writeForm(t)
	vals := testsupport.WriteFile(t, dir, "values.yaml", `site:
  name: lab-7
  kind: edge
  racks:
    - {id: x1, units: 1}
notes: moved
`)
	outPath := filepath.Join(dir, "filled.html")

	if _, err := run(t, "apply", form, vals, "--out", outPath); err != nil {
		t.Fatalf("apply: %v", err)
	}
	filled, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	rendered := string(filled)
	for _, want := range []string{`value="lab-7"`, `value="x1"`, "moved"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("output missing %q", want)
		}
	}
	if strings.Contains(rendered, `value="r2"`) {
		t.Fatalf("second rack should have been removed")
	}

	// Round trip: the filled form flattens back to the applied values.
	out, err := run(t, "flatten", outPath)
	if err != nil {
		t.Fatalf("flatten filled: %v", err)
	}
	got := testsupport.MustDecode(t, out, values.FormatJSON)
	want, err := testsupport.LoadTree(vals)
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	want["site"].(map[string]any)["racks"] = []any{map[string]any{"id": "x1", "units": "1"}}
	if diff := testsupport.DiffTrees(t, want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFailOnWarnings(t *testing.T) {
	dir, form := writeForm(t)
	vals := testsupport.WriteFile(t, dir, "values.json", `{"site": {"name": "only"}}`)

	if _, err := run(t, "apply", form, vals); err != nil {
		t.Fatalf("warnings alone must not fail: %v", err)
	}
	if _, err := run(t, "apply", form, vals, "--fail-on-warnings"); err == nil {
		t.Fatalf("expected failure with --fail-on-warnings")
	}
}

const scaffoldSpec = `openapi: 3.0.3
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
        racks:
          type: array
          items:
            type: object
            properties:
              id:
                type: string
`

func TestScaffoldCommand(t *testing.T) {
	dir := t.TempDir()
	spec := testsupport.WriteFile(t, dir, "openapi.yaml", scaffoldSpec)

	out, err := run(t, "scaffold", spec, "--list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "Site" {
		t.Fatalf("expected schema list, got %q", out)
	}

	out, err = run(t, "scaffold", spec, "Site")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	for _, want := range []string{`id="pdfform"`, `name="racks"`, "add-button"} {
		if !strings.Contains(out, want) {
			t.Fatalf("scaffold output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "scaffold", spec, "Nope"); err == nil {
		t.Fatalf("expected error for unknown schema")
	}
}

type scriptedDriver struct{}

func (scriptedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	return "typed", nil
}

func (scriptedDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	return false, nil
}

func (scriptedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	return 0, nil
}

func (scriptedDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	return cfg.Default, nil
}

func (scriptedDriver) Info(context.Context, string) error {
	return nil
}

func TestFillCommand(t *testing.T) {
	_, form := writeForm(t)
	fillDriver = scriptedDriver{}
	t.Cleanup(func() { fillDriver = nil })

	out, err := run(t, "fill", form, "--format", "yaml")
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	got := testsupport.MustDecode(t, out, values.FormatYAML)
	want := values.Tree{
		"site": map[string]any{
			"name": "typed",
			"kind": "edge",
			"racks": []any{
				map[string]any{"id": "typed", "units": "typed"},
				map[string]any{"id": "typed", "units": "typed"},
			},
		},
		"notes": "first floor",
	}
	if diff := testsupport.DiffTrees(t, want, got); diff != "" {
		t.Fatalf("filled tree mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "formsync dev") {
		t.Fatalf("unexpected version output %q", out)
	}
}
