package formtree_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/values"
)

const filledForm = `<form id="f">
  <div name="site">
    <label>Name <input type="text" name="name" value="lab"></label>
    <select name="kind">
      <option value="edge">edge</option>
      <option value="core" selected>core</option>
    </select>
    <div name="racks" class="arr">
      <input type="text" name="id" value="r1"><input type="number" name="units" value="42">
    </div>
    <div name="racks" class="arr">
      <input type="text" name="id" value="r2"><input type="number" name="units" value="8">
      <div class="del-button" onclick="remove(this)"></div>
    </div>
    <div class="add-button" onclick="duplicate(this)"></div>
  </div>
  <div class="row"><input type="text" name="a.b" value="deep"></div>
</form>`

const blankForm = `<form id="f">
  <div name="site">
    <label>Name <input type="text" name="name"></label>
    <select name="kind">
      <option value="edge">edge</option>
      <option value="core" selected>core</option>
    </select>
    <div name="racks" class="arr">
      <input type="text" name="id"><input type="number" name="units">
    </div>
    <div class="add-button" onclick="duplicate(this)"></div>
  </div>
  <div class="row"><input type="text" name="a.b"></div>
</form>`

func load(t *testing.T, markup string) (*element.Document, *element.Group) {
	t.Helper()
	doc, err := element.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root, err := doc.Section("#f")
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	return doc, root
}

func racks(n int) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"id": string(rune('a' + i)), "units": i})
	}
	return out
}

func rackIDs(t *testing.T, root *element.Group) []string {
	t.Helper()
	site := root.Children()[0].(*element.Group)
	var ids []string
	for _, section := range site.Sections("racks") {
		ids = append(ids, section.Children()[0].(*element.LeafField).Value())
	}
	return ids
}

func leafNamed(t *testing.T, root *element.Group, name string) *element.LeafField {
	t.Helper()
	var found *element.LeafField
	root.Walk(func(n element.Node) bool {
		if leaf, ok := n.(*element.LeafField); ok && found == nil && leaf.Name() == name {
			found = leaf
		}
		return found == nil
	})
	if found == nil {
		t.Fatalf("leaf %q not found", name)
	}
	return found
}

type warningKey struct {
	Kind formtree.WarningKind
	Path string
}

func warningKeys(r *formtree.Report) []warningKey {
	var out []warningKey
	for _, w := range r.Warnings {
		out = append(out, warningKey{Kind: w.Kind, Path: w.Path})
	}
	return out
}

func TestFlatten(t *testing.T) {
	_, root := load(t, filledForm)

	tree, report, err := formtree.New().Flatten(root)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}

	want := values.Tree{
		"site": map[string]any{
			"name": "lab",
			"kind": "core",
			"racks": []any{
				map[string]any{"id": "r1", "units": "42"},
				map[string]any{"id": "r2", "units": "8"},
			},
		},
		"a": map[string]any{"b": "deep"},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenNamedRootWrapsResult(t *testing.T) {
	root := element.NewGroup("cfg.net", element.NewLeaf("host", "h1"))

	tree, _, err := formtree.New().Flatten(root)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	want := values.Tree{"cfg": map[string]any{"net": map[string]any{"host": "h1"}}}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	_, source := load(t, filledForm)
	engine := formtree.New()

	tree, _, err := engine.Flatten(source)
	if err != nil {
		t.Fatalf("flatten source: %v", err)
	}

	doc, target := load(t, blankForm)
	if report := engine.Apply(target, tree); !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}

	again, _, err := engine.Flatten(target)
	if err != nil {
		t.Fatalf("flatten target: %v", err)
	}
	if diff := cmp.Diff(tree, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(doc.String(), `class="del-button"`) {
		t.Fatalf("grown section should carry a delete affordance: %s", doc.String())
	}
}

func TestApplyGrowsAndShrinksSections(t *testing.T) {
	_, root := load(t, filledForm)
	engine := formtree.New()

	tree := values.Tree{
		"site": map[string]any{"name": "lab", "kind": "edge", "racks": racks(5)},
		"a":    map[string]any{"b": "x"},
	}
	site := root.Children()[0].(*element.Group)
	original := site.Sections("racks")

	if report := engine.Apply(root, tree); !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, rackIDs(t, root)); diff != "" {
		t.Fatalf("grow mismatch (-want +got):\n%s", diff)
	}
	grown := site.Sections("racks")
	for i, section := range original {
		if grown[i] != section {
			t.Fatalf("section %d was replaced while growing", i)
		}
	}
	for _, section := range grown[len(original):] {
		if !section.Removable() {
			t.Fatalf("added sections should carry a delete affordance")
		}
	}

	tree["site"].(map[string]any)["racks"] = racks(2)
	if report := engine.Apply(root, tree); !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}
	if diff := cmp.Diff([]string{"a", "b"}, rackIDs(t, root)); diff != "" {
		t.Fatalf("shrink mismatch (-want +got):\n%s", diff)
	}
	shrunk := site.Sections("racks")
	if shrunk[0] != grown[0] || shrunk[1] != grown[1] {
		t.Fatalf("shrinking must keep the template and the first section after it")
	}
}

func TestApplyMissingKeys(t *testing.T) {
	_, root := load(t, filledForm)

	var notified int
	engine := formtree.New(formtree.WithNotifier(formtree.NotifierFunc(func(formtree.Warning) {
		notified++
	})))

	report := engine.Apply(root, values.Tree{"site": map[string]any{"name": "x"}})

	want := []warningKey{
		{formtree.WarningMissingKey, "site.kind"},
		{formtree.WarningMissingKey, "site.racks"},
		{formtree.WarningTemplateRetained, "site.racks"},
		{formtree.WarningMissingKey, "a.b"},
	}
	if diff := cmp.Diff(want, warningKeys(report)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
	if notified != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), notified)
	}

	site := root.Children()[0].(*element.Group)
	if got := site.Children()[1].(*element.ChoiceField).Value(); got != "core" {
		t.Fatalf("missing choice should keep its value, got %q", got)
	}
	if diff := cmp.Diff([]string{""}, rackIDs(t, root)); diff != "" {
		t.Fatalf("expected only the reset template (-want +got):\n%s", diff)
	}
	if got := leafNamed(t, root, "a.b").Value(); got != "" {
		t.Fatalf("missing leaf should be emptied, got %q", got)
	}
}

func TestApplyMissingGroupWarnsOnce(t *testing.T) {
	_, root := load(t, filledForm)

	report := formtree.New().Apply(root, values.Tree{"a": map[string]any{"b": "x"}})

	want := []warningKey{{formtree.WarningMissingKey, "site"}}
	if diff := cmp.Diff(want, warningKeys(report)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
	site := root.Children()[0].(*element.Group)
	if got := site.Children()[0].(*element.LeafField).Value(); got != "" {
		t.Fatalf("descendant leaf should be reset, got %q", got)
	}
}

func TestApplyInvalidChoiceKeepsPriorValue(t *testing.T) {
	_, root := load(t, filledForm)
	tree := values.Tree{
		"site": map[string]any{"name": "x", "kind": "cloud", "racks": racks(1)},
		"a":    map[string]any{"b": "x"},
	}

	report := formtree.New().Apply(root, tree)

	if report.Count(formtree.WarningInvalidChoice) != 1 || len(report.Warnings) != 1 {
		t.Fatalf("expected a single invalid choice warning, got %v", report.Messages())
	}
	if report.Warnings[0].Value != "cloud" {
		t.Fatalf("expected offending value in warning, got %q", report.Warnings[0].Value)
	}
	site := root.Children()[0].(*element.Group)
	if got := site.Children()[1].(*element.ChoiceField).Value(); got != "core" {
		t.Fatalf("expected prior value core, got %q", got)
	}
}

func TestApplyScalarsAndMismatches(t *testing.T) {
	_, root := load(t, filledForm)
	tree := values.Tree{
		"site": map[string]any{
			"name":  map[string]any{"nested": true},
			"kind":  "edge",
			"racks": []any{map[string]any{"id": 7.0, "units": 42.5}, "oops"},
		},
		"a": map[string]any{"b": true},
	}

	report := formtree.New().Apply(root, tree)

	want := []warningKey{
		{formtree.WarningTypeMismatch, "site.name"},
		{formtree.WarningTypeMismatch, "site.racks[1]"},
	}
	if diff := cmp.Diff(want, warningKeys(report)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}

	site := root.Children()[0].(*element.Group)
	first := site.Sections("racks")[0]
	if got := first.Children()[0].(*element.LeafField).Value(); got != "7" {
		t.Fatalf("expected 7 without exponent noise, got %q", got)
	}
	if got := first.Children()[1].(*element.LeafField).Value(); got != "42.5" {
		t.Fatalf("expected 42.5, got %q", got)
	}
	if got := leafNamed(t, root, "a.b").Value(); got != "true" {
		t.Fatalf("expected bool formatted, got %q", got)
	}
}

func TestApplyKeepsLargeIntegers(t *testing.T) {
	_, root := load(t, filledForm)
	tree, err := values.Decode([]byte(`{"site": {"name": "lab", "kind": "edge", "racks": [{"id": "r1", "units": 9007199254740993}]}, "a": {"b": 12345678901234567}}`), values.FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if report := formtree.New().Apply(root, tree); !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}
	if got := leafNamed(t, root, "a.b").Value(); got != "12345678901234567" {
		t.Fatalf("expected every digit kept, got %q", got)
	}
	if got := leafNamed(t, root, "units").Value(); got != "9007199254740993" {
		t.Fatalf("expected every digit kept, got %q", got)
	}
}

func TestApplySanitizesScalars(t *testing.T) {
	_, root := load(t, filledForm)
	tree := values.Tree{
		"site": map[string]any{"name": `<b>lab</b> & co<script>x()</script>`, "kind": "edge", "racks": racks(1)},
		"a":    map[string]any{"b": "x"},
	}

	formtree.New(formtree.WithSanitizer(true)).Apply(root, tree)

	site := root.Children()[0].(*element.Group)
	if got := site.Children()[0].(*element.LeafField).Value(); got != "lab & co" {
		t.Fatalf("expected markup stripped, got %q", got)
	}
}

func TestFlattenConflictPolicies(t *testing.T) {
	build := func() *element.Group {
		return element.NewGroup("", element.NewLeaf("x", "1"), element.NewLeaf("x", "2"))
	}

	if got := formtree.New().Policy(); got != values.LastWriteWins {
		t.Fatalf("expected last-write-wins by default, got %s", got)
	}
	tree, report, err := formtree.New().Flatten(build())
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if tree["x"] != "2" {
		t.Fatalf("expected last value to win, got %v", tree["x"])
	}
	if report.Count(formtree.WarningMergeConflict) != 1 {
		t.Fatalf("expected one conflict warning, got %v", report.Messages())
	}

	_, _, err = formtree.New(formtree.WithMergePolicy(values.Strict)).Flatten(build())
	var conflictErr *values.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictErr.Conflict.Path != "x" {
		t.Fatalf("expected conflict at x, got %q", conflictErr.Conflict.Path)
	}
}

func TestFlattenSections(t *testing.T) {
	doc, err := element.ParseString(`<body>
<div class="resmodData" name="model"><input name="a" value="1"></div>
<div class="resmodData" name="model"><input name="b" value="2"></div>
</body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sections, err := doc.Sections(".resmodData")
	if err != nil {
		t.Fatalf("sections: %v", err)
	}

	tree, report, err := formtree.New().FlattenSections(sections...)
	if err != nil {
		t.Fatalf("flatten sections: %v", err)
	}
	if !report.OK() {
		t.Fatalf("unexpected warnings: %v", report.Messages())
	}
	want := values.Tree{"model": map[string]any{"a": "1", "b": "2"}}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncRepeat(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		target int
		want   int
	}{
		{name: "grow", start: 3, target: 5, want: 5},
		{name: "shrink", start: 5, target: 2, want: 2},
		{name: "steady", start: 2, target: 2, want: 2},
		{name: "zero keeps template", start: 3, target: 0, want: 1},
		{name: "negative", start: 2, target: -1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := element.NewGroup("")
			template := element.NewRepeatable("items", element.NewLeaf("v", ""))
			if err := parent.Append(template); err != nil {
				t.Fatalf("append: %v", err)
			}
			if got, err := formtree.SyncRepeat(parent, "items", tt.start); err != nil || got != tt.start {
				t.Fatalf("setup: got %d, err %v", got, err)
			}
			before := parent.Sections("items")
			for i, section := range before {
				section.Children()[0].(*element.LeafField).SetValue(fmt.Sprintf("s%d", i))
			}

			got, err := formtree.SyncRepeat(parent, "items", tt.target)
			if err != nil {
				t.Fatalf("sync: %v", err)
			}
			after := parent.Sections("items")
			if got != tt.want || len(after) != tt.want || parent.Len() != tt.want {
				t.Fatalf("expected %d sections, got %d", tt.want, got)
			}
			if after[0] != template {
				t.Fatalf("template must stay first")
			}

			kept := min(len(before), len(after))
			for i := 0; i < kept; i++ {
				if after[i] != before[i] {
					t.Fatalf("section %d was replaced", i)
				}
				if v := after[i].Children()[0].(*element.LeafField).Value(); v != fmt.Sprintf("s%d", i) {
					t.Fatalf("section %d lost its value, got %q", i, v)
				}
			}
			for i := kept; i < len(after); i++ {
				if !after[i].Removable() {
					t.Fatalf("added section %d should carry a delete affordance", i)
				}
			}
		})
	}
}

func TestSyncRepeatKeepsUnremovableSections(t *testing.T) {
	parent := element.NewGroup("",
		element.NewRepeatable("items", element.NewLeaf("v", "1")),
		element.NewRepeatable("items", element.NewLeaf("v", "2")),
	)

	got, err := formtree.SyncRepeat(parent, "items", 0)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != 2 {
		t.Fatalf("sections without delete affordance must stay, got %d", got)
	}

	if _, err := formtree.SyncRepeat(parent, "missing", 1); !errors.Is(err, formtree.ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
}
