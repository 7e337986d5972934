package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <form-id>",
	Short: "Read an existing Google Form back as a spec",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

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

		shown, err := svc.Show(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, shown.Spec)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", shown.Spec.Title)
		if shown.Spec.Description != "" {
			fmt.Fprintf(out, "%s\n", shown.Spec.Description)
		}
		fmt.Fprintf(out, "\nEdit:     %s\n", shown.EditURL)
		fmt.Fprintf(out, "Respond:  %s\n", shown.ResponderURL)
		fmt.Fprintf(out, "Quiz:     %v\n", shown.QuizMode)
		if rec := shown.Record; rec != nil {
			fmt.Fprintf(out, "Created:  %s (%s, %s)\n", rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Source, rec.Status)
		}
		fmt.Fprintln(out, strings.Repeat("─", 60))

		section := ""
		for i, q := range shown.Spec.Questions {
			if q.Section != section {
				section = q.Section
				fmt.Fprintf(out, "\n[%s]\n", section)
			}
			req := ""
			if q.Required {
				req = ", required"
			}
			fmt.Fprintf(out, "%2d. %s (%s%s)\n", i+1, q.Title, q.Type(), req)
		}
		if shown.Skipped > 0 {
			fmt.Fprintf(out, "\n%d items could not be represented and were skipped.\n", shown.Skipped)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Print the spec as JSON (suitable for edit --spec)")
}
