package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/schemaform"
)

func newScaffoldCmd() *cobra.Command {
	var (
		out       string
		formID    string
		collapsed bool
		list      bool
	)

	cmd := &cobra.Command{
		Use:   "scaffold <openapi.yaml> [schema]",
		Short: "Generate a form from an OpenAPI component schema",
		Long: `Generate form markup from a component schema of an OpenAPI 3 document.

Objects become named groups, arrays of objects become repeatable sections
with an add button, enums and booleans become selects, and everything else
becomes a text input. --list prints the schema names instead.

Examples:
  formsync scaffold openapi.yaml --list
  formsync scaffold openapi.yaml Site --out site.html --collapsed`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)
			raw, err := newLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if list || len(args) == 1 {
				doc, err := schemaform.Parse(cmd.Context(), raw)
				if err != nil {
					return err
				}
				for _, name := range schemaform.SchemaNames(doc) {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			form, err := schemaform.Scaffold(cmd.Context(), raw, args[1],
				schemaform.WithFormID(formID),
				schemaform.WithCollapsed(collapsed),
			)
			if err != nil {
				return err
			}
			for _, path := range form.Skipped {
				logger.Warn().Str("path", path).Msg("arrays of scalars have no form control; skipped")
			}

			var buf bytes.Buffer
			if err := element.RenderNode(&buf, form.Node); err != nil {
				return err
			}
			buf.WriteByte('\n')
			return writeOutput(cmd, out, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&formID, "form-id", "pdfform", "id attribute of the generated form")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "render nested groups collapsed")
	cmd.Flags().BoolVar(&list, "list", false, "list the component schema names")
	return cmd
}
