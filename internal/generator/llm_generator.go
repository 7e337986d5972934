package generator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/abhisek/formcraft/internal/formerr"
	"github.com/abhisek/formcraft/internal/formspec"
	"github.com/abhisek/formcraft/internal/llm"
)

// Config controls the LLMGenerator.
type Config struct {
	// MaxTokens is the token budget for the model response.
	MaxTokens int

	// Temperature is passed to the provider; zero keeps its default.
	Temperature float64
}

// DefaultConfig returns the budget a fifty-question spec fits in.
func DefaultConfig() Config {
	return Config{MaxTokens: 2200}
}

// Schema is the structured-output schema sent with every request.
var Schema = &llm.Schema{
	Name:        formspec.SchemaName,
	Description: "Google Form specification",
	Definition:  formspec.SchemaDefinition,
}

// LLMGenerator implements Generator on top of an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *zap.Logger
}

// New creates an LLMGenerator. logger may be nil.
func New(provider llm.Provider, cfg Config, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger}
}

// Generate drafts a spec, or rewrites in.Seed when it is set.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*formspec.FormSpec, error) {
	purpose := llm.PurposeGenerate
	if in.Seed != nil {
		purpose = llm.PurposeRewrite
	}
	ctx = llm.WithPurpose(ctx, purpose)

	content, err := buildUserMessage(in)
	if err != nil {
		return nil, formerr.Wrap(formerr.CodeGenerationFailed, err, "build generation request: %v", err)
	}

	req := llm.UserPrompt(SystemPrompt(in), content, Schema, g.config.MaxTokens)
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, formerr.Wrap(formerr.CodeGenerationFailed, err, "%s", describe(err))
	}

	spec, err := formspec.Decode(resp.Content)
	if err != nil {
		return nil, formerr.Wrap(formerr.CodeGenerationFailed, err, "model returned an unusable form spec: %v", err)
	}

	g.logger.Debug("generated form spec",
		zap.String("purpose", purpose),
		zap.String("title", spec.Title),
		zap.Int("questions", len(spec.Questions)))

	return spec, nil
}

func describe(err error) string {
	var unauth *llm.ErrUnauthorized
	var maxTok *llm.ErrMaxTokensExceeded
	switch {
	case errors.As(err, &unauth):
		return "language model rejected the API key"
	case errors.As(err, &maxTok):
		return "language model response was truncated; request fewer questions"
	case errors.Is(err, context.DeadlineExceeded):
		return "language model timed out"
	}
	return "language model request failed: " + err.Error()
}
