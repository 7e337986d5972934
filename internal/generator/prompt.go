package generator

import (
	"encoding/json"
	"fmt"
)

const rewriteInstruction = "Rewrite the provided seedSpec into the requested language/tone/audience and adjust question types to match formType. Preserve the number of questions and the intent/options as much as possible."

var languageNames = map[string]string{
	LangTamil: "Tamil",
	LangHindi: "Hindi",
}

var typeRules = map[string]string{
	FormSurvey:       "Survey: opinion-based questions. Use a mix of multiple-choice, checkboxes, and 1–5 linear scales plus 1–2 open-ended questions.",
	FormQuiz:         "Quiz: knowledge-testing questions. Prefer MCQs. For each MCQ, include choices AND correctAnswers AND points (set points=1 unless specified). Avoid vague opinion questions.",
	FormFeedback:     "Feedback: include Likert/linear scales and comment fields. Add at least one paragraph question for suggestions.",
	FormRegistration: "Registration: collect participant details (name, email/phone) and logistics (date/time). Mostly short_text/date/time, with a few dropdowns if useful.",
}

var audienceRules = map[string]string{
	AudienceStudents: "Audience is Students: use academic/educational phrasing and school/college context.",
	AudienceStaff:    "Audience is Staff: use professional workplace tone and internal process language.",
	AudiencePublic:   "Audience is Public: use simple, neutral language; avoid jargon.",
}

var toneRules = map[string]string{
	ToneFormal:   "Tone is Formal: professional and official wording.",
	ToneAcademic: "Tone is Academic: scholarly, precise, educational wording.",
	ToneCasual:   "Tone is Casual: friendly, conversational wording.",
}

// SystemPrompt builds the system prompt for a normalized input.
func SystemPrompt(in Input) string {
	in = in.Normalize()

	lang, ok := languageNames[in.Language]
	if !ok {
		lang = "English"
	}
	tone := lookup(toneRules, in.Tone, ToneFormal)
	audience := lookup(audienceRules, in.Audience, AudiencePublic)
	typ := lookup(typeRules, in.FormType, "")

	return fmt.Sprintf("You generate structured Google Form specifications for the Google Forms API. "+
		"Return JSON only that matches the provided schema. "+
		"All titles, descriptions, question titles, and options MUST be written in %s. "+
		"%s %s %s "+
		"Use clear, concise question titles. "+
		"Set required=true for essential questions (especially quizzes and registration identity fields). "+
		"If using choices, include 3–8 options. "+
		"For fields that do not apply (choices, scale, validation, correctAnswers, points), return null.",
		lang, tone, audience, typ)
}

func lookup(rules map[string]string, key, fallback string) string {
	if r, ok := rules[key]; ok {
		return r
	}
	return rules[fallback]
}

// userMessage is the JSON sent as the single user turn.
type userMessage struct {
	Input
	Instruction string `json:"instruction,omitempty"`
}

func buildUserMessage(in Input) (string, error) {
	msg := userMessage{Input: in.Normalize()}
	if in.Seed != nil {
		msg.Instruction = rewriteInstruction
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode generation input: %w", err)
	}
	return string(b), nil
}
