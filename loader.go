package formsync

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-formsync/internal/source"
	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

var defaultLoader = source.New(source.WithHTTP(30 * time.Second))

// LoadDocument reads and parses an HTML form from a file path or an
// http(s) URL.
func LoadDocument(ctx context.Context, location string) (*element.Document, error) {
	data, err := defaultLoader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := element.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("formsync: parse %s: %w", location, err)
	}
	return doc, nil
}

// LoadValues reads a JSON or YAML value file; the extension picks the codec.
func LoadValues(ctx context.Context, location string) (Tree, error) {
	data, err := defaultLoader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return values.Decode(data, values.FormatFromPath(location))
}
