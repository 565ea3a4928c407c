package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/values"
)

func newFlattenCmd() *cobra.Command {
	var (
		selectors []string
		format    string
		out       string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "flatten <form.html>",
		Short: "Read a form's fields into a value tree",
		Long: `Read every named field of the form sections into one value tree.

Sections default to ".resmodData"; several --section flags merge their trees
in order. Duplicate keys keep the last value read and are reported, unless
--strict turns them into an error.

Examples:
  formsync flatten form.html
  formsync flatten form.html --section "#pdfform" --format yaml
  formsync flatten https://example.com/form.html --out values.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := values.ParseFormat(format)
			if err != nil {
				return err
			}
			logger := commandLogger(cmd)
			doc, err := loadDocument(cmd.Context(), newLoader(), args[0])
			if err != nil {
				return err
			}
			roots, err := sections(doc, selectors)
			if err != nil {
				return err
			}

			policy := values.LastWriteWins
			if strict {
				policy = values.Strict
			}
			engine := formtree.New(
				formtree.WithMergePolicy(policy),
				formtree.WithNotifier(formtree.LogNotifier{Logger: logger}),
				formtree.WithLogger(logger),
			)
			logger.Debug().Str("policy", engine.Policy().String()).Int("sections", len(roots)).Msg("flattening form")
			tree, _, err := engine.FlattenSections(roots...)
			if err != nil {
				return err
			}
			data, err := values.Encode(tree, f)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, data)
		},
	}

	cmd.Flags().StringArrayVarP(&selectors, "section", "s", nil, "section selector (repeatable, default .resmodData)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on duplicate keys instead of keeping the last value")
	return cmd
}
