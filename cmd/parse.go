package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a structured form outline into a spec (no network)",
	Long: `Parse a structured outline such as

  Form Title: Demo
  SECTION 1: Basics
  1. Your name? (short_text), required

and print the resulting spec as JSON. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		raw, err := readSource(cmd, path)
		if err != nil {
			return fmt.Errorf("read outline: %w", err)
		}

		spec, ok := parser.ParseStructuredText(string(raw))
		if !ok {
			return fmt.Errorf("input is not a structured outline with at least one recognisable question")
		}
		return printJSON(cmd, spec)
	},
}
