package formsync

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formsync/pkg/testsupport"
	"github.com/goliatone/go-formsync/pkg/values"
)

func TestFlattenAndApply(t *testing.T) {
	doc := testsupport.MustParse(t, testsupport.SiteForm)

	tree, report, err := Flatten(doc, "")
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if !report.OK() {
		t.Fatalf("unexpected warnings %v", report.Messages())
	}
	if diff := testsupport.DiffTrees(t, testsupport.SiteValues(), tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	site := tree["site"].(map[string]any)
	site["name"] = "lab-5"
	site["racks"] = append(site["racks"].([]any), map[string]any{"id": "r3", "units": "8"})

	report, err = Apply(doc, DefaultSection, tree)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !report.OK() {
		t.Fatalf("unexpected warnings %v", report.Messages())
	}
	again, _, err := Flatten(doc, "")
	if err != nil {
		t.Fatalf("flatten again: %v", err)
	}
	if diff := testsupport.DiffTrees(t, tree, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenUnknownSelector(t *testing.T) {
	doc := testsupport.MustParse(t, testsupport.SiteForm)
	if _, _, err := Flatten(doc, "#nope"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Apply(doc, "#nope", values.Tree{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	form := testsupport.WriteFile(t, dir, "form.html", testsupport.SiteForm)
	vals := testsupport.WriteFile(t, dir, "values.yaml", "notes: upstairs\n")

	tree, _, err := FlattenLocation(context.Background(), form, "")
	if err != nil {
		t.Fatalf("flatten location: %v", err)
	}
	if tree["notes"] != "first floor" {
		t.Fatalf("unexpected notes %v", tree["notes"])
	}

	loaded, err := LoadValues(context.Background(), vals)
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	if loaded["notes"] != "upstairs" {
		t.Fatalf("unexpected values %v", loaded)
	}
}

func TestRuntimeAssetsFSContainsScript(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), "formsync.js")
	if err != nil {
		t.Fatalf("expected runtime script to be readable: %v", err)
	}
	if !strings.Contains(string(data), "function flatten(") {
		t.Fatalf("expected script to include flatten")
	}
	if _, err := fs.ReadFile(EmbeddedTemplates(), "page.tpl"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}
