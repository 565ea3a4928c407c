package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/internal/source"
	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

const defaultSection = ".resmodData"

func newLoader() *source.Loader {
	return source.New(source.WithHTTP(30 * time.Second))
}

func commandLogger(cmd *cobra.Command) zerolog.Logger {
	return logging.New(cmd.ErrOrStderr(), logLevel, "console")
}

func loadDocument(ctx context.Context, loader *source.Loader, location string) (*element.Document, error) {
	data, err := loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := element.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	return doc, nil
}

func loadTree(ctx context.Context, loader *source.Loader, location string) (values.Tree, error) {
	data, err := loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return values.Decode(data, values.FormatFromPath(location))
}

// sections builds the typed views for every selector, in order.
func sections(doc *element.Document, selectors []string) ([]*element.Group, error) {
	if len(selectors) == 0 {
		selectors = []string{defaultSection}
	}
	var out []*element.Group
	for _, sel := range selectors {
		groups, err := doc.Sections(sel)
		if err != nil {
			return nil, err
		}
		out = append(out, groups...)
	}
	return out, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}
