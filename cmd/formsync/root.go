package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formsync",
		Short: "Synchronise HTML forms with JSON/YAML value trees",
		Long: `formsync reads the fields of an HTML form into a nested value tree
and writes value trees back into forms, growing and shrinking repeatable
sections to fit.

Quick start:
  formsync flatten form.html            # print the form's values as JSON
  formsync apply form.html values.yaml  # fill the form from a value file
  formsync serve                        # serve the form over HTTP`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "formsync.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for command output (debug, info, warn, error)")

	cmd.AddCommand(
		newFlattenCmd(),
		newApplyCmd(),
		newScaffoldCmd(),
		newFillCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
