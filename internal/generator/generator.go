// Package generator drafts a FormSpec from a free-form prompt with a
// language model.
package generator

import (
	"context"
	"strings"

	"github.com/abhisek/formcraft/internal/formspec"
)

// Generator produces a form spec for the given input.
type Generator interface {
	// Generate returns a decoded spec. Errors carry CodeGenerationFailed.
	Generate(ctx context.Context, input Input) (*formspec.FormSpec, error)
}

// Form types.
const (
	FormSurvey       = "survey"
	FormQuiz         = "quiz"
	FormFeedback     = "feedback"
	FormRegistration = "registration"
)

// Audiences.
const (
	AudienceStudents = "students"
	AudienceStaff    = "staff"
	AudiencePublic   = "public"
)

// Tones.
const (
	ToneFormal   = "formal"
	ToneAcademic = "academic"
	ToneCasual   = "casual"
)

// Languages with dedicated wording; anything else is written in English.
const (
	LangEnglish = "english"
	LangTamil   = "tamil"
	LangHindi   = "hindi"
)

// Input is what the caller asks for.
type Input struct {
	Prompt   string `json:"prompt"`
	FormType string `json:"formType"`
	Audience string `json:"audience"`
	Language string `json:"language"`
	Tone     string `json:"tone"`

	// Seed, when set, is rewritten into the requested profile instead of
	// generating from scratch.
	Seed *formspec.FormSpec `json:"seedSpec,omitempty"`
}

// DefaultProfile is the profile used when the caller leaves fields empty.
func DefaultProfile() Input {
	return Input{
		FormType: FormSurvey,
		Audience: AudienceStudents,
		Language: LangEnglish,
		Tone:     ToneFormal,
	}
}

// Normalize fills empty profile fields from DefaultProfile and lower-cases
// the rest.
func (in Input) Normalize() Input {
	def := DefaultProfile()
	norm := func(v, fallback string) string {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return fallback
		}
		return v
	}
	in.FormType = norm(in.FormType, def.FormType)
	in.Audience = norm(in.Audience, def.Audience)
	in.Language = norm(in.Language, def.Language)
	in.Tone = norm(in.Tone, def.Tone)
	return in
}

// IsDefaultProfile reports whether a parsed spec can be used as written,
// without rewriting it for another language, tone or audience.
func (in Input) IsDefaultProfile() bool {
	n := in.Normalize()
	def := DefaultProfile()
	return n.FormType == def.FormType &&
		n.Audience == def.Audience &&
		n.Language == def.Language &&
		n.Tone == def.Tone
}

// IsQuiz reports whether the input asks for a graded quiz.
func (in Input) IsQuiz() bool {
	return in.Normalize().FormType == FormQuiz
}
