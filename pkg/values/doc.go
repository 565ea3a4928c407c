// Package values implements the nested value tree exchanged with HTML forms:
// dotted-path resolution ("a.b[0].c"), single-path expansion of dotted names,
// deep merging with an explicit conflict policy, and JSON/YAML codecs for the
// files users download and load back.
package values
