package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/abhisek/formcraft/internal/formspec"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema_FormSpec(t *testing.T) {
	schema := buildGeminiSchema(formspec.SchemaDefinition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Required) != 3 {
		t.Fatalf("expected 3 required fields, got %v", schema.Required)
	}

	questions := schema.Properties["questions"]
	if questions == nil || questions.Type != genai.TypeArray {
		t.Fatalf("expected questions array, got %+v", questions)
	}
	if questions.MaxItems == nil || *questions.MaxItems != int64(formspec.MaxQuestions) {
		t.Fatalf("expected maxItems %d, got %v", formspec.MaxQuestions, questions.MaxItems)
	}

	q := questions.Items
	if len(q.Properties["type"].Enum) != len(formspec.Types) {
		t.Fatalf("expected %d type enum values, got %d", len(formspec.Types), len(q.Properties["type"].Enum))
	}

	section := q.Properties["section"]
	if section.Type != genai.TypeString || section.Nullable == nil || !*section.Nullable {
		t.Fatalf("expected nullable string section, got %+v", section)
	}

	scale := q.Properties["scale"]
	if scale.Type != genai.TypeObject || scale.Nullable == nil || !*scale.Nullable {
		t.Fatalf("expected nullable scale object, got %+v", scale)
	}
	if scale.Properties["max"].Type != genai.TypeInteger {
		t.Fatalf("expected INTEGER scale max, got %s", scale.Properties["max"].Type)
	}

	choices := q.Properties["choices"]
	if choices.Type != genai.TypeArray || choices.Items.Type != genai.TypeString {
		t.Fatalf("expected string array choices, got %+v", choices)
	}
}

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return p
}

func geminiReply(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     400,
			"candidatesTokenCount": 250,
			"totalTokenCount":      650,
		},
		"modelVersion": "gemini-2.5-flash",
	}
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	var path string
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(sampleFormJSON, "STOP"))
	})

	resp, err := p.Generate(context.Background(), UserPrompt("You generate forms.", "x", formSchema(), 2200))
	require.NoError(t, err)
	assert.Contains(t, path, "gemini-2.5-flash:generateContent")
	assert.JSONEq(t, sampleFormJSON, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 400, OutputTokens: 250, TotalTokens: 650}, resp.Usage)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
}

func TestGeminiProvider_StopReasons(t *testing.T) {
	t.Run("max tokens", func(t *testing.T) {
		p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(geminiReply(`{"title":`, "MAX_TOKENS"))
		})
		_, err := p.Generate(context.Background(), UserPrompt("", "x", formSchema(), 10))
		var maxTok *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &maxTok)
	})

	t.Run("safety", func(t *testing.T) {
		p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(geminiReply("", "SAFETY"))
		})
		_, err := p.Generate(context.Background(), UserPrompt("", "x", formSchema(), 10))
		var invalid *ErrInvalidResponse
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestGeminiContents_FoldsSameRole(t *testing.T) {
	contents := geminiContents([]Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleAssistant, Content: "c"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "model", contents[1].Role)
}
