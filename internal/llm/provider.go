// Package llm is the language-model backend used to draft form specs from
// free-form prompts. Providers return JSON constrained by a schema; the
// decorators in this package add retries and request logging.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set, Content is JSON already validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider sends requests to.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	// System sets the model's role and the rules for the output.
	System string

	// Messages is the conversation. Form generation sends one user message
	// holding the JSON-encoded generation input.
	Messages []Message

	// Schema constrains the output. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON structure expected from the model.
type Schema struct {
	// Name is sent as the structured-output schema name, e.g. "form_spec".
	Name string

	Description string

	// Definition is a JSON Schema document.
	Definition map[string]any
}

// Response is the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that served the request, which may differ from
	// the configured alias.
	Model string

	// StopReason is "end", "max_tokens" or "error".
	StopReason string
}

// Usage is the token consumption of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, content string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: content}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}
