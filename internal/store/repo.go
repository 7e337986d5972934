package store

import (
	"context"
	"time"
)

// Form status values. A form is ready only after every mutation batch
// succeeded.
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // LLM events only; empty matches all
	Status  string    // forms only; empty matches all
	From    time.Time // created at or after From
}

// FormRecord is a stored create attempt.
type FormRecord struct {
	ID           int
	RunID        string
	DocumentID   string
	Title        string
	Description  string
	FormType     string
	Audience     string
	Language     string
	Tone         string
	Source       string // "structured" or "generated"
	Prompt       string
	Quiz         bool
	Status       string
	ErrorCode    string
	ErrorMessage string
	EditURL      string
	ResponderURL string
	ItemCount    int
	SpecJSON     string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Questions []QuestionRecord
}

// QuestionRecord is one question of a stored form.
type QuestionRecord struct {
	Position   int
	QuestionID string
	Section    string
	Title      string
	Type       string
	Required   bool
}

// FormRepo persists forms.
type FormRepo interface {
	// Save inserts rec and its questions and sets rec.ID.
	Save(ctx context.Context, rec *FormRecord) error

	// MarkReady records the document and marks the form ready.
	MarkReady(ctx context.Context, runID, documentID, editURL, responderURL string, itemCount int) error

	// MarkFailed records the failure of a create attempt.
	MarkFailed(ctx context.Context, runID, code, message string) error

	// UpdateInfo updates title, description and questions after an edit of
	// documentID.
	UpdateInfo(ctx context.Context, documentID string, rec *FormRecord) error

	// GetByDocument returns the latest form for documentID, or nil.
	GetByDocument(ctx context.Context, documentID string) (*FormRecord, error)

	// List returns forms newest first, without questions.
	List(ctx context.Context, opts QueryOpts) ([]FormRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil when id is unknown.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
