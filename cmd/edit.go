package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <form-id>",
	Short: "Replace the content of an existing Google Form with a spec",
	Long: `Replace every item of an existing Google Form with the questions of a
spec file. Title and description are updated too. Use "show --json" to get
the current content as a spec, edit it, and pass it back here.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specPath, _ := cmd.Flags().GetString("spec")
		formType, _ := cmd.Flags().GetString("type")

		spec, err := loadSpec(cmd, specPath)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		svc, err := newPipeline(ctx, s, false)
		if err != nil {
			return err
		}

		edited, err := svc.Edit(ctx, args[0], spec, formType)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Updated %s\n", edited.DocumentID)
		fmt.Fprintf(out, "  Edit:      %s\n", edited.EditURL)
		fmt.Fprintf(out, "  Removed:   %d items\n", edited.Deleted)
		fmt.Fprintf(out, "  Items:     %d\n", edited.ItemCount)
		return nil
	},
}

func init() {
	editCmd.Flags().String("spec", "", "Spec file (JSON or YAML, - for stdin)")
	editCmd.Flags().String("type", "", "Form type; quiz turns grading on")
	_ = editCmd.MarkFlagRequired("spec")
}
