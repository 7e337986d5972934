// Package formspec is the normalized in-memory representation of a form
// and its questions. Everything else in formcraft produces or consumes it.
package formspec

// FormSpec describes a complete form. Question order is significant: it
// defines both the section grouping and the on-the-wire item order.
type FormSpec struct {
	Title       string
	Description string
	Questions   []Question
}

// Question is a single form question. Type-dependent payload lives in Kind.
type Question struct {
	// ID is a stable identifier, e.g. "basics_your_name_1".
	ID string

	// Section groups consecutive questions under a header. Empty means the
	// question belongs to no named section.
	Section string

	Title    string
	Required bool

	// Kind is the question variant and its payload.
	Kind Kind

	// Grading is only honoured when the form is compiled in quiz mode.
	Grading *Grading
}

// Type returns the canonical type of the question's kind.
func (q Question) Type() Type {
	if q.Kind == nil {
		return ""
	}
	return q.Kind.Type()
}

// Type is the canonical question type enum.
type Type string

const (
	TypeShortText      Type = "short_text"
	TypeParagraph      Type = "paragraph"
	TypeMultipleChoice Type = "multiple_choice"
	TypeCheckboxes     Type = "checkboxes"
	TypeDropdown       Type = "dropdown"
	TypeLinearScale    Type = "linear_scale"
	TypeDate           Type = "date"
	TypeTime           Type = "time"
)

// Types lists every supported question type in schema order.
var Types = []Type{
	TypeShortText,
	TypeParagraph,
	TypeMultipleChoice,
	TypeCheckboxes,
	TypeDropdown,
	TypeLinearScale,
	TypeDate,
	TypeTime,
}

// IsChoice reports whether t takes a list of options.
func (t Type) IsChoice() bool {
	return t == TypeMultipleChoice || t == TypeCheckboxes || t == TypeDropdown
}

// Kind is the closed set of question variants. Each variant carries only
// the payload relevant to it.
type Kind interface {
	Type() Type
	isKind()
}

// Text is a free-text question, single line or paragraph.
type Text struct {
	Paragraph  bool
	Validation *Validation
}

// Choice is a question answered by picking from Options.
type Choice struct {
	// Style is one of TypeMultipleChoice, TypeCheckboxes, TypeDropdown.
	Style   Type
	Options []string
}

// Scale is a linear scale question, Min to Max.
type Scale struct {
	Min      int
	Max      int
	MinLabel string
	MaxLabel string
}

// Date is a calendar date question.
type Date struct{}

// Time is a time-of-day question.
type Time struct{}

// Unrecognized carries a type name that could not be mapped to a supported
// variant. It exists so the compiler can reject it explicitly.
type Unrecognized struct {
	Name string
}

func (k Text) Type() Type {
	if k.Paragraph {
		return TypeParagraph
	}
	return TypeShortText
}

func (k Choice) Type() Type       { return k.Style }
func (Scale) Type() Type          { return TypeLinearScale }
func (Date) Type() Type           { return TypeDate }
func (Time) Type() Type           { return TypeTime }
func (k Unrecognized) Type() Type { return Type(k.Name) }

func (Text) isKind()         {}
func (Choice) isKind()       {}
func (Scale) isKind()        {}
func (Date) isKind()         {}
func (Time) isKind()         {}
func (Unrecognized) isKind() {}

// DefaultScale is used when a linear scale carries no explicit bounds.
var DefaultScale = Scale{Min: 1, Max: 5}

// Validation constrains free-text answers. Zero values mean unset.
type Validation struct {
	MinLength *int
	MaxLength *int
	Regex     string
}

// Grading is the quiz metadata of a question.
type Grading struct {
	CorrectAnswers []string

	// Points defaults to 1 when nil.
	Points *int
}

// PointValue returns the configured points or the default of 1.
func (g *Grading) PointValue() int {
	if g == nil || g.Points == nil {
		return 1
	}
	return *g.Points
}

// KindFor builds the zero-payload kind for a supported type. ok is false
// when t is not a supported type.
func KindFor(t Type) (k Kind, ok bool) {
	switch t {
	case TypeShortText:
		return Text{}, true
	case TypeParagraph:
		return Text{Paragraph: true}, true
	case TypeMultipleChoice, TypeCheckboxes, TypeDropdown:
		return Choice{Style: t}, true
	case TypeLinearScale:
		return DefaultScale, true
	case TypeDate:
		return Date{}, true
	case TypeTime:
		return Time{}, true
	}
	return Unrecognized{Name: string(t)}, false
}
