package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/formcraft/internal/formspec"
	"github.com/abhisek/formcraft/internal/generator"
)

// readSource reads a file, or stdin when path is "-" or empty.
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// loadSpec reads a spec file. JSON is checked against the wire schema
// before decoding; .yaml and .yml files are decoded as YAML.
func loadSpec(cmd *cobra.Command, path string) (*formspec.FormSpec, error) {
	raw, err := readSource(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formspec.DecodeYAML(raw)
	}
	if err := formspec.CheckJSON(raw); err != nil {
		return nil, err
	}
	return formspec.Decode(raw)
}

// profileFlags registers the generation profile flags.
func profileFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "Form type: survey, quiz, feedback or registration")
	cmd.Flags().String("audience", "", "Audience: students, staff or public")
	cmd.Flags().String("language", "", "Language: english, tamil or hindi")
	cmd.Flags().String("tone", "", "Tone: formal, academic or casual")
}

func profileInput(cmd *cobra.Command, prompt string) generator.Input {
	in := generator.Input{Prompt: prompt}
	in.FormType, _ = cmd.Flags().GetString("type")
	in.Audience, _ = cmd.Flags().GetString("audience")
	in.Language, _ = cmd.Flags().GetString("language")
	in.Tone, _ = cmd.Flags().GetString("tone")
	return in
}

// promptText returns --prompt, or the contents of --file / stdin.
func promptText(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("prompt"); p != "" {
		return p, nil
	}
	file, _ := cmd.Flags().GetString("file")
	raw, err := readSource(cmd, file)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("prompt is empty: pass --prompt, --file or pipe text on stdin")
	}
	return text, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
