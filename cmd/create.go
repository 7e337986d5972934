package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/pipeline"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a Google Form from a prompt or a spec file",
	Long: `Create a Google Form.

With --spec the spec file (JSON or YAML) is used as is. Otherwise the prompt
from --prompt, --file or stdin is resolved first: structured outlines are
parsed, everything else is drafted by the language model.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("prompt", "", "Prompt text")
	createCmd.Flags().StringP("file", "f", "", "Read the prompt from a file (- for stdin)")
	createCmd.Flags().String("spec", "", "Create from a spec file instead of a prompt")
	createCmd.Flags().Bool("json", false, "Print the result as JSON")
	profileFlags(createCmd)
	createCmd.MarkFlagsMutuallyExclusive("spec", "prompt")
	createCmd.MarkFlagsMutuallyExclusive("spec", "file")
}

func runCreate(cmd *cobra.Command, args []string) error {
	specPath, _ := cmd.Flags().GetString("spec")
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	svc, err := newPipeline(ctx, s, specPath == "")
	if err != nil {
		return err
	}

	var created *pipeline.Created
	if specPath != "" {
		spec, err := loadSpec(cmd, specPath)
		if err != nil {
			return err
		}
		formType, _ := cmd.Flags().GetString("type")
		created, err = svc.CreateFromSpec(ctx, spec, formType)
		if err != nil {
			return err
		}
	} else {
		prompt, err := promptText(cmd)
		if err != nil {
			return err
		}
		created, err = svc.Create(ctx, profileInput(cmd, prompt))
		if err != nil {
			return err
		}
	}

	if asJSON {
		return printJSON(cmd, map[string]any{
			"runId":        created.RunID,
			"formId":       created.DocumentID,
			"editUrl":      created.EditURL,
			"responderUrl": created.ResponderURL,
			"source":       created.Source,
			"itemCount":    created.ItemCount,
			"spec":         created.Spec,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %q (%s)\n", created.Spec.Title, created.Source)
	fmt.Fprintf(out, "  Form ID:   %s\n", created.DocumentID)
	fmt.Fprintf(out, "  Edit:      %s\n", created.EditURL)
	fmt.Fprintf(out, "  Respond:   %s\n", created.ResponderURL)
	fmt.Fprintf(out, "  Items:     %d\n", created.ItemCount)
	return nil
}
