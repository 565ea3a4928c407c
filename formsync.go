// Package formsync reads HTML forms into nested value trees and writes value
// trees back into forms. The subpackages carry the pieces: pkg/element is the
// typed view over the document, pkg/values the tree operations and codecs,
// pkg/formtree the Flatten and Apply engine. This package wires them for the
// common case of a page whose form sections share one selector.
package formsync

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/values"
)

// DefaultSection selects the form sections of a page.
const DefaultSection = ".resmodData"

// Tree aliases values.Tree for callers that only import the root package.
type Tree = values.Tree

// Report aliases formtree.Report.
type Report = formtree.Report

// NewEngine exposes the formtree engine constructor from the top-level
// module.
func NewEngine(options ...formtree.Option) *formtree.Engine {
	return formtree.New(options...)
}

// Flatten reads every section of doc matching selector (DefaultSection when
// empty) into one tree.
func Flatten(doc *element.Document, selector string, options ...formtree.Option) (Tree, *Report, error) {
	roots, err := doc.Sections(selectorOrDefault(selector))
	if err != nil {
		return nil, nil, fmt.Errorf("formsync: %w", err)
	}
	return formtree.New(options...).FlattenSections(roots...)
}

// Apply writes tree into every section of doc matching selector and returns
// the combined report.
func Apply(doc *element.Document, selector string, tree Tree, options ...formtree.Option) (*Report, error) {
	roots, err := doc.Sections(selectorOrDefault(selector))
	if err != nil {
		return nil, fmt.Errorf("formsync: %w", err)
	}
	engine := formtree.New(options...)
	out := &Report{}
	for _, root := range roots {
		out.Warnings = append(out.Warnings, engine.Apply(root, tree).Warnings...)
	}
	return out, nil
}

// FlattenLocation loads the document at location (path or URL) and
// flattens it.
func FlattenLocation(ctx context.Context, location, selector string, options ...formtree.Option) (Tree, *Report, error) {
	doc, err := LoadDocument(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	return Flatten(doc, selector, options...)
}

func selectorOrDefault(selector string) string {
	if selector == "" {
		return DefaultSection
	}
	return selector
}
