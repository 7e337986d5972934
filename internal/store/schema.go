package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

var (
	formsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "run_id", Type: field.TypeString, Unique: true},
		{Name: "document_id", Type: field.TypeString, Default: ""},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "form_type", Type: field.TypeString, Default: ""},
		{Name: "audience", Type: field.TypeString, Default: ""},
		{Name: "language", Type: field.TypeString, Default: ""},
		{Name: "tone", Type: field.TypeString, Default: ""},
		{Name: "source", Type: field.TypeString, Default: ""},
		{Name: "prompt", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "quiz", Type: field.TypeBool, Default: false},
		{Name: "status", Type: field.TypeString},
		{Name: "error_code", Type: field.TypeString, Default: ""},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "edit_url", Type: field.TypeString, Default: ""},
		{Name: "responder_url", Type: field.TypeString, Default: ""},
		{Name: "item_count", Type: field.TypeInt, Default: 0},
		{Name: "spec_json", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// FormsTable holds one row per create attempt.
	FormsTable = &schema.Table{
		Name:       "forms",
		Columns:    formsColumns,
		PrimaryKey: []*schema.Column{formsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "form_document_id", Columns: []*schema.Column{formsColumns[2]}},
		},
	}

	formQuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "position", Type: field.TypeInt},
		{Name: "question_id", Type: field.TypeString},
		{Name: "section", Type: field.TypeString, Default: ""},
		{Name: "title", Type: field.TypeString},
		{Name: "type", Type: field.TypeString},
		{Name: "required", Type: field.TypeBool, Default: false},
		{Name: "form_id", Type: field.TypeInt},
	}
	// FormQuestionsTable holds the questions of a stored form.
	FormQuestionsTable = &schema.Table{
		Name:       "form_questions",
		Columns:    formQuestionsColumns,
		PrimaryKey: []*schema.Column{formQuestionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "form_questions_forms_questions",
				Columns:    []*schema.Column{formQuestionsColumns[7]},
				RefColumns: []*schema.Column{formsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	llmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
	}
	// LLMRequestsTable holds one row per language-model call.
	LLMRequestsTable = &schema.Table{
		Name:       "llm_requests",
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
	}

	// Tables lists every table in migration order.
	Tables = []*schema.Table{
		FormsTable,
		FormQuestionsTable,
		LLMRequestsTable,
	}
)

func init() {
	FormQuestionsTable.ForeignKeys[0].RefTable = FormsTable
}
