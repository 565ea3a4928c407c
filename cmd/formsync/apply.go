package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/formtree"
)

func newApplyCmd() *cobra.Command {
	var (
		selectors []string
		out       string
		minify    bool
		sanitize  bool
		failWarn  bool
	)

	cmd := &cobra.Command{
		Use:   "apply <form.html> <values.json|values.yaml>",
		Short: "Write a value tree into a form",
		Long: `Write the values of a JSON or YAML file into the form sections.

Repeatable sections are duplicated or removed to match the length of their
lists. Keys the file does not provide, choices outside a select's options and
values of the wrong shape are reported as warnings; the affected fields fall
back to empty or keep their current choice.

Examples:
  formsync apply form.html values.yaml --out filled.html
  formsync apply form.html values.json --minify --sanitize`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)
			loader := newLoader()
			doc, err := loadDocument(cmd.Context(), loader, args[0])
			if err != nil {
				return err
			}
			tree, err := loadTree(cmd.Context(), loader, args[1])
			if err != nil {
				return err
			}
			roots, err := sections(doc, selectors)
			if err != nil {
				return err
			}

			engine := formtree.New(
				formtree.WithSanitizer(sanitize),
				formtree.WithNotifier(formtree.LogNotifier{Logger: logger}),
				formtree.WithLogger(logger),
			)
			warnings := 0
			for _, root := range roots {
				warnings += len(engine.Apply(root, tree).Warnings)
			}

			var buf bytes.Buffer
			if err := doc.Render(&buf, element.WithMinify(minify)); err != nil {
				return err
			}
			if err := writeOutput(cmd, out, buf.Bytes()); err != nil {
				return err
			}
			if failWarn && warnings > 0 {
				return fmt.Errorf("apply finished with %d warnings", warnings)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&selectors, "section", "s", nil, "section selector (repeatable, default .resmodData)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&minify, "minify", false, "minify the rendered document")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "strip markup from values before writing them")
	cmd.Flags().BoolVar(&failWarn, "fail-on-warnings", false, "exit non-zero when any warning was reported")
	return cmd
}
