// Package element provides a typed view over the form controls of an HTML
// document. Each node is classified once, when the view is built, as a
// LeafField (text input or textarea), a ChoiceField (select) or a Group (div
// or fieldset); layout elements between them are transparent. Nodes wrap the
// underlying *html.Node, so setting values, cloning sections and removing
// them edits the document that will be rendered.
//
// Markup conventions follow the browser scripts served next to the forms:
// a repeatable section is a named <div class="arr">, cloned sections end with
// a <div class="del-button"> affordance, and an "add-button" control follows
// the last section.
package element
