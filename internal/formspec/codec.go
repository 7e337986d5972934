package formspec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/formcraft/internal/formerr"
)

// wireSpec is the loosely typed record exchanged with the generation
// collaborator and stored in spec files. Fields that do not apply to a
// question's type are null.
type wireSpec struct {
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Questions   []wireQuestion `json:"questions" yaml:"questions"`
}

type wireQuestion struct {
	ID             string          `json:"id" yaml:"id"`
	Section        *string         `json:"section" yaml:"section"`
	Title          string          `json:"title" yaml:"title"`
	Type           string          `json:"type" yaml:"type"`
	Required       bool            `json:"required" yaml:"required"`
	Choices        []string        `json:"choices" yaml:"choices"`
	Scale          *wireScale      `json:"scale" yaml:"scale"`
	Validation     *wireValidation `json:"validation" yaml:"validation"`
	CorrectAnswers []string        `json:"correctAnswers" yaml:"correctAnswers"`
	Points         *int            `json:"points" yaml:"points"`
}

type wireScale struct {
	Min      int     `json:"min" yaml:"min"`
	Max      int     `json:"max" yaml:"max"`
	MinLabel *string `json:"minLabel" yaml:"minLabel"`
	MaxLabel *string `json:"maxLabel" yaml:"maxLabel"`
}

type wireValidation struct {
	MaxLength *int    `json:"maxLength" yaml:"maxLength"`
	MinLength *int    `json:"minLength" yaml:"minLength"`
	Regex     *string `json:"regex" yaml:"regex"`
}

// Decode parses a JSON spec record into a FormSpec. Malformed JSON is a
// VALIDATION_ERROR. Unknown question types decode to Unrecognized.
func Decode(raw []byte) (*FormSpec, error) {
	var w wireSpec
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, formerr.Wrap(formerr.CodeValidation, err, "malformed form spec JSON: %v", err)
	}
	return w.toSpec(), nil
}

// DecodeYAML parses a YAML spec record into a FormSpec.
func DecodeYAML(raw []byte) (*FormSpec, error) {
	var w wireSpec
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, formerr.Wrap(formerr.CodeValidation, err, "malformed form spec YAML: %v", err)
	}
	return w.toSpec(), nil
}

// MarshalJSON encodes s in the wire format.
func (s FormSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(fromSpec(&s))
}

// UnmarshalJSON decodes the wire format into s.
func (s *FormSpec) UnmarshalJSON(raw []byte) error {
	var w wireSpec
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	*s = *w.toSpec()
	return nil
}

func (w *wireSpec) toSpec() *FormSpec {
	spec := &FormSpec{
		Title:       strings.TrimSpace(w.Title),
		Description: strings.TrimSpace(w.Description),
		Questions:   make([]Question, 0, len(w.Questions)),
	}
	for i, wq := range w.Questions {
		spec.Questions = append(spec.Questions, wq.toQuestion(i))
	}
	return spec
}

func (wq *wireQuestion) toQuestion(i int) Question {
	q := Question{
		ID:       strings.TrimSpace(wq.ID),
		Title:    strings.TrimSpace(wq.Title),
		Required: wq.Required,
	}
	if wq.Section != nil {
		q.Section = strings.TrimSpace(*wq.Section)
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q_%d", i+1)
	}

	typ := Type(strings.ToLower(strings.TrimSpace(wq.Type)))
	kind, ok := KindFor(typ)
	if !ok {
		// Keep the raw spelling for the error message.
		kind = Unrecognized{Name: wq.Type}
	}
	switch k := kind.(type) {
	case Choice:
		k.Options = nonEmpty(wq.Choices)
		kind = k
	case Scale:
		if wq.Scale != nil {
			k = Scale{Min: wq.Scale.Min, Max: wq.Scale.Max}
			if wq.Scale.MinLabel != nil {
				k.MinLabel = strings.TrimSpace(*wq.Scale.MinLabel)
			}
			if wq.Scale.MaxLabel != nil {
				k.MaxLabel = strings.TrimSpace(*wq.Scale.MaxLabel)
			}
		}
		kind = k
	case Text:
		if v := wq.Validation; v != nil && (v.MinLength != nil || v.MaxLength != nil || (v.Regex != nil && *v.Regex != "")) {
			k.Validation = &Validation{MinLength: v.MinLength, MaxLength: v.MaxLength}
			if v.Regex != nil {
				k.Validation.Regex = *v.Regex
			}
		}
		kind = k
	}
	q.Kind = kind

	if answers := nonEmpty(wq.CorrectAnswers); len(answers) > 0 || wq.Points != nil {
		q.Grading = &Grading{CorrectAnswers: answers, Points: wq.Points}
	}
	return q
}

func fromSpec(s *FormSpec) wireSpec {
	w := wireSpec{
		Title:       s.Title,
		Description: s.Description,
		Questions:   make([]wireQuestion, 0, len(s.Questions)),
	}
	for _, q := range s.Questions {
		wq := wireQuestion{
			ID:       q.ID,
			Title:    q.Title,
			Type:     string(q.Type()),
			Required: q.Required,
		}
		if q.Section != "" {
			section := q.Section
			wq.Section = &section
		}
		switch k := q.Kind.(type) {
		case Choice:
			wq.Choices = k.Options
		case Scale:
			minLabel, maxLabel := k.MinLabel, k.MaxLabel
			wq.Scale = &wireScale{Min: k.Min, Max: k.Max, MinLabel: &minLabel, MaxLabel: &maxLabel}
		case Text:
			if k.Validation != nil {
				wq.Validation = &wireValidation{MinLength: k.Validation.MinLength, MaxLength: k.Validation.MaxLength}
				if k.Validation.Regex != "" {
					regex := k.Validation.Regex
					wq.Validation.Regex = &regex
				}
			}
		}
		if q.Grading != nil {
			wq.CorrectAnswers = q.Grading.CorrectAnswers
			wq.Points = q.Grading.Points
		}
		w.Questions = append(w.Questions, wq)
	}
	return w
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
