package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyperast/hyperast-go/pkg/ingest"
)

// exitCodeValidationFailure is the exit code for validation failures,
// grounded on the teacher's cmd/uast validate command.
const exitCodeValidationFailure = 2

func validateCmd() *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <document.json|->",
		Short: "Validate an ingest document against the wire-format JSON Schema",
		Long: `Validate an ingest document without inserting it into a store.

Examples:
  hyperast validate tree.json
  hyperast validate - < tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0], colorize, nocolor)
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(path string, colorize, nocolor bool) error {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	data, err := readInput(path)
	if err != nil {
		return err
	}

	if validateErr := ingest.Validate(data); validateErr != nil {
		color.New(color.FgRed).Fprintf(os.Stdout, "invalid (%s): %v\n", path, validateErr)
		os.Exit(exitCodeValidationFailure)

		return nil
	}

	color.New(color.FgGreen).Fprintf(os.Stdout, "valid (%s)\n", path)

	return nil
}
