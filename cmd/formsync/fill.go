package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/prompt"
	"github.com/goliatone/go-formsync/pkg/values"
)

// fillDriver overrides the terminal driver; nil uses survey.
var fillDriver prompt.Driver

func newFillCmd() *cobra.Command {
	var (
		selector string
		format   string
		out      string
		htmlOut  string
	)

	cmd := &cobra.Command{
		Use:   "fill <form.html>",
		Short: "Fill a form interactively in the terminal",
		Long: `Prompt for every field of a form section, offering to add sections to
repeatable groups, then print the resulting value tree.

Examples:
  formsync fill form.html
  formsync fill form.html --format yaml --out values.yaml --html filled.html`,
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
			root, err := doc.Section(selector)
			if err != nil {
				return err
			}

			if err := prompt.New(prompt.WithDriver(fillDriver)).Fill(cmd.Context(), root); err != nil {
				return err
			}

			engine := formtree.New(formtree.WithNotifier(formtree.LogNotifier{Logger: logger}))
			tree, _, err := engine.Flatten(root)
			if err != nil {
				return err
			}
			data, err := values.Encode(tree, f)
			if err != nil {
				return err
			}
			if htmlOut != "" {
				var buf bytes.Buffer
				if err := doc.Render(&buf); err != nil {
					return err
				}
				if err := writeOutput(cmd, htmlOut, buf.Bytes()); err != nil {
					return err
				}
			}
			return writeOutput(cmd, out, data)
		},
	}

	cmd.Flags().StringVarP(&selector, "section", "s", defaultSection, "section selector")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "value file to write (stdout if empty)")
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write the filled form to this file")
	return cmd
}
