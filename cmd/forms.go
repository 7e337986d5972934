package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/store"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Inspect the local history of created forms",
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently created forms",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		recs, err := s.FormRepo().List(ctx, store.QueryOpts{Limit: limit, Status: status})
		if err != nil {
			return fmt.Errorf("query forms: %w", err)
		}

		if len(recs) == 0 {
			fmt.Println("No forms found.")
			return nil
		}

		fmt.Printf("%-16s  %-30s  %-12s  %-10s  %-7s  %5s  %s\n",
			"Created", "Title", "Type", "Source", "Status", "Items", "Form ID")
		fmt.Println(strings.Repeat("─", 110))

		for _, r := range recs {
			docID := r.DocumentID
			if r.Status == store.StatusFailed {
				docID = r.ErrorCode
			}
			fmt.Printf("%-16s  %-30s  %-12s  %-10s  %-7s  %5d  %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Title, 30),
				r.FormType,
				r.Source,
				r.Status,
				r.ItemCount,
				docID,
			)
		}
		return nil
	},
}

func init() {
	formsListCmd.Flags().IntP("limit", "n", 20, "Number of forms to show")
	formsListCmd.Flags().String("status", "", "Filter by status (pending, ready, failed)")

	formsCmd.AddCommand(formsListCmd)
}
