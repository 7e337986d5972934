package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/formcraft/internal/config"
	"github.com/abhisek/formcraft/internal/forms"
	"github.com/abhisek/formcraft/internal/generator"
	"github.com/abhisek/formcraft/internal/llm"
	"github.com/abhisek/formcraft/internal/pipeline"
	"github.com/abhisek/formcraft/internal/store"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "formcraft",
	Short: "Compile form specs into Google Forms",
	Long: `formcraft turns a prompt or a structured form outline into a form
specification and builds it as a Google Form.

Structured outlines ("Form Title: ...", "SECTION 1: ...", numbered questions)
are parsed locally; anything else is drafted by a language model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = l

		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite history database (overrides FORMCRAFT_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/formcraft/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file, then FORMCRAFT_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newGenerator builds the language-model generator. A missing provider is
// not fatal: structured outlines still work without one.
func newGenerator(ctx context.Context, eventRepo store.EventRepo) generator.Generator {
	provider, err := llm.NewProvider(ctx, cfg.LLM, eventRepo, logger)
	if err != nil {
		logger.Debug("language model unavailable", zap.Error(err))
		return nil
	}
	return generator.New(provider, generator.DefaultConfig(), logger)
}

// newPipeline wires the create, edit and show flows against the Google
// Forms API.
func newPipeline(ctx context.Context, st *store.Store, withGenerator bool) (*pipeline.Service, error) {
	svc, err := forms.NewGoogleService(ctx, cfg.Google)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Google Forms access is not configured.")
		fmt.Fprintln(os.Stderr, "Set GOOGLE_OAUTH_CLIENT_ID, GOOGLE_OAUTH_CLIENT_SECRET and GOOGLE_OAUTH_REFRESH_TOKEN,")
		fmt.Fprintln(os.Stderr, "or GOOGLE_APPLICATION_CREDENTIALS with FORMCRAFT_GOOGLE_SUBJECT.")
		return nil, err
	}

	pc := pipeline.Config{
		Executor: forms.NewExecutor(svc, cfg.RetryConfig(), logger),
		Forms:    st.FormRepo(),
		Logger:   logger,
		Timeout:  cfg.Timeout,
		Defaults: cfg.ApplyDefaults,
	}
	if withGenerator {
		pc.Generator = newGenerator(ctx, st.EventRepo())
	}
	return pipeline.New(pc), nil
}
