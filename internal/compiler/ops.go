package compiler

import "github.com/abhisek/formcraft/internal/formspec"

// Operation is a single upstream mutation. The concrete types below are the
// only implementations.
type Operation interface {
	opName() string
}

// SetQuizMode turns quiz grading on or off for the document.
type SetQuizMode struct {
	Enabled bool
}

// SetTitle replaces the document title.
type SetTitle struct {
	Title string
}

// SetDescription replaces the document description. An empty value clears it.
type SetDescription struct {
	Description string
}

// DeleteItem removes an existing item. Index is the item's position at the
// time the delete is applied.
type DeleteItem struct {
	ItemID string
	Index  int
}

// ItemKind selects what CreateItem inserts.
type ItemKind int

const (
	// TextHeader is a static text block. The first section header of a
	// compile pass uses it.
	TextHeader ItemKind = iota
	// PageBreak starts a new page. Later section headers use it.
	PageBreak
	// QuestionItem is an answerable question.
	QuestionItem
)

func (k ItemKind) String() string {
	switch k {
	case TextHeader:
		return "text_header"
	case PageBreak:
		return "page_break"
	case QuestionItem:
		return "question"
	}
	return "unknown"
}

// CreateItem inserts an item at Index.
type CreateItem struct {
	Index       int
	Title       string
	Description string
	Kind        ItemKind

	// Question is set only when Kind is QuestionItem.
	Question *Question
}

// Question is the answerable payload of a CreateItem.
type Question struct {
	Required bool
	Kind     formspec.Kind

	// Grading is set only in quiz mode for questions with correct answers.
	Grading *Grading
}

// Grading is resolved quiz metadata.
type Grading struct {
	PointValue     int
	CorrectAnswers []string
}

func (SetQuizMode) opName() string    { return "set_quiz_mode" }
func (SetTitle) opName() string       { return "set_title" }
func (SetDescription) opName() string { return "set_description" }
func (DeleteItem) opName() string     { return "delete_item" }
func (CreateItem) opName() string     { return "create_item" }

// Name returns a short label for op, used in logs.
func Name(op Operation) string {
	if op == nil {
		return ""
	}
	return op.opName()
}
