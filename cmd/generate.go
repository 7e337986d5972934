package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a form spec from a prompt without creating a form",
	Long: `Resolve a prompt into a form spec and print it as JSON.

Structured outlines in the default profile are parsed locally. Anything else
goes to the configured language model. No Google Forms access is needed,
which makes this useful for checking prompts before running create.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("prompt", "", "Prompt text")
	generateCmd.Flags().StringP("file", "f", "", "Read the prompt from a file (- for stdin)")
	profileFlags(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt, err := promptText(cmd)
	if err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	svc := pipeline.New(pipeline.Config{
		Generator: newGenerator(ctx, s.EventRepo()),
		Logger:    logger,
		Timeout:   cfg.Timeout,
		Defaults:  cfg.ApplyDefaults,
	})

	res, err := svc.Resolve(ctx, profileInput(cmd, prompt))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "source: %s, %d questions\n", res.Source, len(res.Spec.Questions))
	return printJSON(cmd, res.Spec)
}
