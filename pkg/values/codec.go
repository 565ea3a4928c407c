package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a value tree serialization.
type Format string

const (
	// FormatJSON is the payload the browser form submits and downloads.
	FormatJSON Format = "json"
	// FormatYAML is accepted for hand-edited value files.
	FormatYAML Format = "yaml"
	// FormatText lists "path=value" lines; encode only.
	FormatText Format = "text"
)

// ParseFormat normalises a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt", "pretty":
		return FormatText, nil
	default:
		return "", fmt.Errorf("values: unknown format %q", name)
	}
}

// FormatFromPath infers a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// ContentType reports the MIME type used when serving a format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Decode parses data into a tree. The top-level value must be a mapping.
func Decode(data []byte, format Format) (Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("values: empty %s document", format)
	}

	var raw any
	switch format {
	case FormatJSON, "":
		// Numbers stay json.Number so integers above 2^53 keep their digits.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("values: decode json: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("values: decode json: trailing data after top-level value")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("values: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("values: format %q cannot be decoded", format)
	}

	normalized, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	tree, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("values: top-level value must be a mapping, got %s", describe(normalized))
	}
	return tree, nil
}

// Encode serializes tree. JSON output is indented for readability since the
// files are meant to be edited and re-loaded.
func Encode(tree Tree, format Format) ([]byte, error) {
	if tree == nil {
		tree = Tree{}
	}
	switch format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("values: encode json: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlReady(tree)); err != nil {
			return nil, fmt.Errorf("values: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("values: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatText:
		var b strings.Builder
		writePairs(&b, tree)
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("values: unknown format %q", format)
	}
}

// normalize converts yaml.v3 map shapes into map[string]any so the rest of
// the package only deals with one mapping type.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

// yamlReady swaps json.Number for scalar nodes tagged as numbers; yaml.v3
// would otherwise quote them as strings.
func yamlReady(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = yamlReady(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = yamlReady(val)
		}
		return out
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(v.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}
	default:
		return v
	}
}
