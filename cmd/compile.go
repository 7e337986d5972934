package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/compiler"
)

var compileCmd = &cobra.Command{
	Use:   "compile <spec-file>",
	Short: "Show the operations a spec compiles to (no network)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(cmd, args[0])
		if err != nil {
			return err
		}
		if err := spec.Validate(); err != nil {
			return err
		}

		quiz, _ := cmd.Flags().GetBool("quiz")
		existing, _ := cmd.Flags().GetInt("replace")
		opts := compiler.Options{QuizMode: quiz}

		var res *compiler.Result
		if cmd.Flags().Changed("replace") {
			items := make([]compiler.ExistingItem, existing)
			for i := range items {
				items[i] = compiler.ExistingItem{ID: fmt.Sprintf("existing-%d", i), Index: i}
			}
			res, err = compiler.CompileReplace(spec, items, opts)
		} else {
			res, err = compiler.Compile(spec, opts)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, op := range res.Operations {
			fmt.Fprintf(out, "%3d  %-15s  %s\n", i, compiler.Name(op), describeOp(op))
		}
		fmt.Fprintf(out, "\n%d operations, %d items\n", len(res.Operations), res.ItemCount)
		return nil
	},
}

func describeOp(op compiler.Operation) string {
	switch o := op.(type) {
	case compiler.SetQuizMode:
		return fmt.Sprintf("enabled=%t", o.Enabled)
	case compiler.SetTitle:
		return fmt.Sprintf("%q", o.Title)
	case compiler.SetDescription:
		return fmt.Sprintf("%q", truncate(o.Description, 60))
	case compiler.DeleteItem:
		return fmt.Sprintf("item=%s index=%d", o.ItemID, o.Index)
	case compiler.CreateItem:
		s := fmt.Sprintf("index=%d %s %q", o.Index, o.Kind, truncate(o.Title, 50))
		if q := o.Question; q != nil {
			s += fmt.Sprintf(" type=%s required=%t", q.Kind.Type(), q.Required)
			if q.Grading != nil {
				s += fmt.Sprintf(" points=%d", q.Grading.PointValue)
			}
		}
		return s
	}
	return ""
}

func init() {
	compileCmd.Flags().Bool("quiz", false, "Compile in quiz mode (grading on)")
	compileCmd.Flags().Int("replace", 0, "Compile a replace edit of a document holding this many items")
}
