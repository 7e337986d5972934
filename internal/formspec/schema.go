package formspec

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/formcraft/internal/formerr"
)

// SchemaName identifies the wire schema for structured LLM output.
const SchemaName = "form_spec"

// SchemaDefinition is the JSON Schema of the wire record. Every question
// property is required and nullable so it works with strict structured
// output modes.
var SchemaDefinition = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"title":       map[string]any{"type": "string", "minLength": MinTitleLen, "maxLength": MaxTitleLen},
		"description": map[string]any{"type": "string", "maxLength": MaxDescriptionLen},
		"questions": map[string]any{
			"type":     "array",
			"minItems": MinQuestions,
			"maxItems": MaxQuestions,
			"items":    questionSchema,
		},
	},
	"required": []any{"title", "description", "questions"},
}

var questionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"id":       map[string]any{"type": "string", "minLength": 1, "maxLength": 50},
		"section":  map[string]any{"type": []any{"string", "null"}, "maxLength": 200},
		"title":    map[string]any{"type": "string", "minLength": MinQuestionTitleLen, "maxLength": MaxQuestionTitleLen},
		"type":     map[string]any{"type": "string", "enum": typeEnum()},
		"required": map[string]any{"type": "boolean"},
		"choices": map[string]any{
			"type":     []any{"array", "null"},
			"items":    map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
			"maxItems": 20,
		},
		"scale": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "null"},
				map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"min":      map[string]any{"type": "integer", "minimum": 0, "maximum": 1},
						"max":      map[string]any{"type": "integer", "minimum": 2, "maximum": MaxScale},
						"minLabel": map[string]any{"type": []any{"string", "null"}, "maxLength": 50},
						"maxLabel": map[string]any{"type": []any{"string", "null"}, "maxLength": 50},
					},
					"required": []any{"min", "max", "minLabel", "maxLabel"},
				},
			},
		},
		"validation": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "null"},
				map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"maxLength": map[string]any{"type": []any{"integer", "null"}, "minimum": 1, "maximum": 2000},
						"minLength": map[string]any{"type": []any{"integer", "null"}, "minimum": 0, "maximum": 2000},
						"regex":     map[string]any{"type": []any{"string", "null"}, "maxLength": 200},
					},
					"required": []any{"maxLength", "minLength", "regex"},
				},
			},
		},
		"correctAnswers": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "null"},
				map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
					"minItems": 1,
					"maxItems": 5,
				},
			},
		},
		"points": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "null"},
				map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			},
		},
	},
	"required": []any{"id", "section", "title", "type", "required", "choices", "scale", "validation", "correctAnswers", "points"},
}

func typeEnum() []any {
	out := make([]any, len(Types))
	for i, t := range Types {
		out[i] = string(t)
	}
	return out
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// CheckJSON validates raw against SchemaDefinition. Spec files handed to
// the CLI are checked with it before decoding.
func CheckJSON(raw []byte) error {
	compileOnce.Do(func() {
		compiled, compileErr = compileSchema()
	})
	if compileErr != nil {
		return fmt.Errorf("compile form spec schema: %w", compileErr)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return formerr.Wrap(formerr.CodeValidation, err, "malformed form spec JSON: %v", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return formerr.Wrap(formerr.CodeValidation, err, "form spec does not match schema: %v", err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	// The compiler wants plain JSON values, not Go ints.
	defBytes, err := json.Marshal(SchemaDefinition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + SchemaName + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
}
